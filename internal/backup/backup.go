package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dealership/internal/config"
	"dealership/internal/domain"
	"dealership/internal/worker"

	"github.com/rs/zerolog"
)

const backupPrefix = "backup_"

// Service takes periodic backups through the active persister and prunes
// old ones.
type Service struct {
	backupper domain.Backupper
	config    config.BackupConfig
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewService(backupper domain.Backupper, cfg config.BackupConfig, logger *zerolog.Logger) *Service {
	return &Service{
		backupper: backupper,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Schedule registers the backup job. Disabled backups register nothing.
func (s *Service) Schedule(scheduler *worker.Scheduler) error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Backup service is disabled")
		return nil
	}
	return scheduler.Add("backup", s.config.Schedule, s.Run)
}

// Run performs one backup followed by retention cleanup.
func (s *Service) Run(ctx context.Context) error {
	path, err := s.PerformBackup(ctx)
	if err != nil {
		return err
	}
	s.logger.Info().Str("path", path).Msg("Backup completed successfully")
	s.CleanupOldBackups()
	return nil
}

func (s *Service) PerformBackup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.config.StoragePath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path, err := s.backupper.Backup(ctx, s.config.StoragePath)
	if err != nil {
		return "", fmt.Errorf("backup failed: %w", err)
	}
	return path, nil
}

// CleanupOldBackups removes backup files and directories older than the
// retention period. Other entries in the directory are left alone.
func (s *Service) CleanupOldBackups() {
	if s.config.RetentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(s.config.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read backup directory for cleanup")
		return
	}

	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), backupPrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", entry.Name()).Msg("Deleting old backup")
			if err := os.RemoveAll(filepath.Join(s.config.StoragePath, entry.Name())); err != nil {
				s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to delete old backup")
			}
		}
	}
}
