package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LEADLINE_DATA_DIR", dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "leadline.db"), cfg.DBPath)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, "type", cfg.KPIBasis)
	assert.True(t, cfg.AutosaveSteps)
	assert.Equal(t, filepath.Join(dir, "exports", "discovery"), cfg.ExportDir())
	assert.Equal(t, filepath.Join(dir, "backups"), cfg.BackupDir())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := "data_dir: " + dir + "\nhttp_addr: \":9999\"\nagent: dana\nkpi_basis: outcome\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "dana", cfg.Agent)
	assert.Equal(t, "outcome", cfg.KPIBasis)
}

func TestLoadRejectsUnknownBasis(t *testing.T) {
	t.Setenv("LEADLINE_DATA_DIR", t.TempDir())
	t.Setenv("LEADLINE_KPI_BASIS", "vibes")

	_, err := Load("")
	assert.Error(t, err)
}
