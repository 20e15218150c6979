package database

import (
	"context"
	"path/filepath"
	"testing"

	"dealership/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_Backup(t *testing.T) {
	tempDir := t.TempDir()
	logger := zerolog.Nop()

	db, err := NewDB(filepath.Join(tempDir, "source.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	snap := &models.Snapshot{Cars: []models.Car{{ID: 1, Make: "Toyota", Model: "Corolla", Year: 2020, Price: 15000, ShowroomID: 1, Available: true}}}
	require.NoError(t, db.Save(ctx, snap))

	path, err := db.Backup(ctx, filepath.Join(tempDir, "backups"))
	require.NoError(t, err)
	assert.FileExists(t, path)

	restored, err := NewDB(path, &logger)
	require.NoError(t, err)
	defer restored.Close()

	loaded, err := restored.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Cars, loaded.Cars)
}
