package database

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Backup writes a consistent copy of the database into dir and returns its path.
func (db *DB) Backup(ctx context.Context, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	backupPath := filepath.Join(dir, fmt.Sprintf("backup_%s.db", timestamp))

	db.logger.Info().Str("path", backupPath).Msg("Performing database backup using VACUUM INTO")

	if _, err := db.db.ExecContext(ctx, "VACUUM INTO ?", backupPath); err != nil {
		if db.path == ":memory:" {
			return "", fmt.Errorf("vacuum into %s: %w", backupPath, err)
		}
		db.logger.Warn().Err(err).Msg("VACUUM INTO failed, falling back to file copy")
		if err := db.backupFallback(backupPath); err != nil {
			return "", err
		}
		return backupPath, nil
	}

	db.logger.Info().Msg("Backup completed successfully")
	return backupPath, nil
}

func (db *DB) backupFallback(backupPath string) error {
	source, err := os.Open(db.path)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(backupPath)
	if err != nil {
		return err
	}
	defer destination.Close()

	// io.Copy не атомарен для SQLite, резервная копия может быть неполной при записи
	if _, err := io.Copy(destination, source); err != nil {
		return err
	}

	db.logger.Info().Msg("Fallback backup completed successfully")
	return nil
}
