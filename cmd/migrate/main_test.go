// ABOUTME: Tests for legacy data directory migration
// ABOUTME: Covers dry-run, conflicts, forced overwrite and target backup
package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestMigrateCopiesAndRenames(t *testing.T) {
	root := t.TempDir()
	from := filepath.Join(root, "crm")
	to := filepath.Join(root, "leadline")
	writeFile(t, filepath.Join(from, "exports", "a.json"), "{}")
	writeFile(t, filepath.Join(from, "notes.txt"), "hello")

	require.NoError(t, migrate(from, to, "leadline.db", options{backup: true}))

	data, err := os.ReadFile(filepath.Join(to, "exports", "a.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
	assert.FileExists(t, filepath.Join(to, "notes.txt"))
}

func TestPlanRenamesLegacyDatabase(t *testing.T) {
	root := t.TempDir()
	from := filepath.Join(root, "crm")
	writeFile(t, filepath.Join(from, legacyDBName), "x")

	ops, err := plan(from, filepath.Join(root, "leadline"), "leadline.db")
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, filepath.Join(root, "leadline", "leadline.db"), ops[0].dst)
	assert.False(t, ops[0].exists)
}

func TestMigrateDryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	from := filepath.Join(root, "crm")
	to := filepath.Join(root, "leadline")
	writeFile(t, filepath.Join(from, "notes.txt"), "hello")

	require.NoError(t, migrate(from, to, "leadline.db", options{dryRun: true, backup: true}))
	assert.NoDirExists(t, to)
}

func TestMigrateConflictNeedsForce(t *testing.T) {
	root := t.TempDir()
	from := filepath.Join(root, "crm")
	to := filepath.Join(root, "leadline")
	writeFile(t, filepath.Join(from, "notes.txt"), "new")
	writeFile(t, filepath.Join(to, "notes.txt"), "old")

	err := migrate(from, to, "leadline.db", options{backup: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-force")

	require.NoError(t, migrate(from, to, "leadline.db", options{backup: true, force: true}))
	data, err := os.ReadFile(filepath.Join(to, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	siblings, err := os.ReadDir(root)
	require.NoError(t, err)
	var backup string
	for _, e := range siblings {
		if strings.HasPrefix(e.Name(), "leadline.backup.") {
			backup = e.Name()
		}
	}
	require.NotEmpty(t, backup, "target backed up before overwrite")
	old, err := os.ReadFile(filepath.Join(root, backup, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestMigrateRejectsSameDirectory(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, migrate(dir, dir, "leadline.db", options{}))
}

func TestMigrateMissingSource(t *testing.T) {
	root := t.TempDir()
	assert.Error(t, migrate(filepath.Join(root, "nope"), filepath.Join(root, "leadline"), "leadline.db", options{}))
}
