package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dealership/internal/models"

	"github.com/rs/zerolog"
)

// Store keeps one CSV file per collection under a data directory.
// Every file starts with a header row.
type Store struct {
	dir    string
	loc    *time.Location
	logger *zerolog.Logger
	mu     sync.Mutex
}

// New prepares dir and creates any missing collection file with its header.
func New(dir string, logger *zerolog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("csvstore: data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Store{dir: dir, loc: time.Local, logger: logger}
	for _, c := range models.AllCollections {
		if err := s.ensureFile(c); err != nil {
			return nil, err
		}
	}

	logger.Info().Str("dir", dir).Msg("CSV storage ready")
	return s, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(c models.Collection) string {
	return filepath.Join(s.dir, string(c)+".csv")
}

func (s *Store) ensureFile(c models.Collection) error {
	path := s.path(c)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return s.writeRows(c, nil)
}

// Load reads every collection. Rows that fail to parse are skipped with a warning.
func (s *Store) Load(ctx context.Context) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &models.Snapshot{}
	for _, c := range models.AllCollections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.ensureFile(c); err != nil {
			return nil, err
		}
		if err := s.loadCollection(c, snap); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func (s *Store) loadCollection(c models.Collection, snap *models.Snapshot) error {
	f, err := os.Open(s.path(c))
	if err != nil {
		return fmt.Errorf("open %s: %w", c, err)
	}
	defer f.Close()

	codec := codecs[c]
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	line := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		var parseErr *csv.ParseError
		if err != nil && !errors.As(err, &parseErr) {
			return fmt.Errorf("read %s: %w", c, err)
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("collection", string(c)).Int("line", line).Msg("Skipping unreadable row")
			continue
		}
		if line == 1 {
			continue
		}
		if len(row) == 1 && row[0] == "" {
			continue
		}
		if len(row) != len(codec.header) {
			s.logger.Warn().Str("collection", string(c)).Int("line", line).Int("fields", len(row)).Msg("Skipping row with wrong field count")
			continue
		}
		if err := codec.decode(snap, row, s.loc); err != nil {
			s.logger.Warn().Err(err).Str("collection", string(c)).Int("line", line).Msg("Skipping invalid row")
		}
	}
}

// Save rewrites the named collections, or all of them when none are named.
// Each file is replaced atomically; the set of files is not.
func (s *Store) Save(ctx context.Context, snap *models.Snapshot, cols ...models.Collection) error {
	if len(cols) == 0 {
		cols = models.AllCollections
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range cols {
		if err := ctx.Err(); err != nil {
			return err
		}
		codec, ok := codecs[c]
		if !ok {
			return fmt.Errorf("csvstore: unknown collection %q", c)
		}
		if err := s.writeRows(c, codec.encode(snap, s.loc)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeRows(c models.Collection, rows [][]string) error {
	tmp, err := os.CreateTemp(s.dir, string(c)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", c, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(codecs[c].header); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s header: %w", c, err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", c, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", c, err)
	}

	if err := os.Rename(tmpName, s.path(c)); err != nil {
		return fmt.Errorf("replace %s: %w", c, err)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}
