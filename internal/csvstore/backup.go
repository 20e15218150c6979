package csvstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"dealership/internal/models"
)

// Backup copies every collection file into dir/backup_<timestamp>/.
func (s *Store) Backup(ctx context.Context, dir string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := filepath.Join(dir, "backup_"+time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	for _, c := range models.AllCollections {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := copyFile(s.path(c), filepath.Join(target, string(c)+".csv")); err != nil {
			return "", fmt.Errorf("backup %s: %w", c, err)
		}
	}
	return target, nil
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return err
	}
	return destination.Sync()
}
