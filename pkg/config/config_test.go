package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewForTest(t *testing.T) {
	t.Parallel()

	cfg := NewForTest()

	assert.Equal(t, ":memory:", cfg.DatabaseFilePath)
	assert.Equal(t, 10, cfg.MaxBorrows)
	assert.Equal(t, 14, cfg.MaxBorrowDays)
	assert.InDelta(t, 0.10, cfg.FinePerOverdueDay, 0.0001)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestNewEnvOverrides(t *testing.T) {
	t.Setenv(environmentENV, "test")
	t.Setenv("LIBRARY_MAX_BORROWS", "3")
	t.Setenv("LIBRARY_FINE_PER_OVERDUE_DAY", "0.25")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.MaxBorrows)
	assert.InDelta(t, 0.25, cfg.FinePerOverdueDay, 0.0001)
}

func TestNewConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte("max_borrow_days: 7\nserver_port: 9999\n"), 0600)
	require.NoError(t, err)

	t.Setenv(environmentENV, "test")
	t.Setenv(configFileENV, path)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.MaxBorrowDays)
	assert.Equal(t, 9999, cfg.ServerPort)
}
