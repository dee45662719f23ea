// ABOUTME: Tests for remote backup push, pull, list and prune
// ABOUTME: Runs against a badger-backed test client and a real SQLite store
package charm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/logger"
	"github.com/harperreed/leadline/models"
	"github.com/harperreed/leadline/services"
)

func newCRM(t *testing.T) *services.CRM {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.OpenDatabase(filepath.Join(dir, "leadline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return services.NewCRM(conn, logger.Nop(), services.Options{
		ExportDir: filepath.Join(dir, "exports"),
		BackupDir: filepath.Join(dir, "backups"),
	})
}

func TestPushAndPullBackup(t *testing.T) {
	ctx := context.Background()
	c, cleanup := NewTestClient(t)
	defer cleanup()

	src := newCRM(t)
	_, err := src.AddLead(ctx, &models.Contact{FirstName: "Travis", LastName: "Reed", Email: "travis@example.com"})
	require.NoError(t, err)

	id, err := PushBackup(ctx, c, src)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	latest, err := c.Get([]byte(latestKey))
	require.NoError(t, err)
	byID, err := c.Get([]byte(backupPrefix + id))
	require.NoError(t, err)
	assert.Equal(t, latest, byID)

	dst := newCRM(t)
	stats, err := PullBackup(ctx, c, dst, "", true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Contacts)

	leads, err := dst.FindLeads(ctx, "Travis", "", 10)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "travis@example.com", leads[0].Email)
}

func TestPullBackupMissing(t *testing.T) {
	c, cleanup := NewTestClient(t)
	defer cleanup()

	_, err := PullBackup(context.Background(), c, newCRM(t), "", false)
	assert.ErrorIs(t, err, ErrNoBackup)
}

func TestListAndPruneBackups(t *testing.T) {
	ctx := context.Background()
	c, cleanup := NewTestClient(t)
	defer cleanup()
	src := newCRM(t)

	var ids []string
	for i := 0; i < 4; i++ {
		id, err := PushBackup(ctx, c, src)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	backups, err := ListBackups(c)
	require.NoError(t, err)
	require.Len(t, backups, 4)
	assert.Equal(t, ids[3], backups[0].ID, "newest first")
	assert.Positive(t, backups[0].Size)

	removed, err := PruneBackups(c, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	backups, err = ListBackups(c)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, ids[3], backups[0].ID)
	assert.Equal(t, ids[2], backups[1].ID)

	_, err = c.Get([]byte(latestKey))
	assert.NoError(t, err, "latest survives pruning")

	_, err = PruneBackups(c, 0)
	assert.Error(t, err)
}

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	orig := charmDir
	charmDir = func() string { return dir }
	defer func() { charmDir = orig }()

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultCharmHost, cfg.Host)
	assert.Equal(t, DefaultKeepBackups, cfg.KeepBackups)

	cfg.Host = "charm.example.com"
	cfg.AutoSync = false
	cfg.KeepBackups = 3
	require.NoError(t, cfg.Save())

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "charm.example.com", loaded.Host)
	assert.False(t, loaded.AutoSync)
	assert.Equal(t, 3, loaded.KeepBackups)
}

func TestLoadConfigCorruptFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	orig := charmDir
	charmDir = func() string { return dir }
	defer func() { charmDir = orig }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{not json"), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestClientKeysWithPrefix(t *testing.T) {
	c, cleanup := NewTestClient(t)
	defer cleanup()

	require.NoError(t, c.Set([]byte("backup/a"), []byte("1")))
	require.NoError(t, c.Set([]byte("other/b"), []byte("2")))

	keys, err := c.KeysWithPrefix([]byte(backupPrefix))
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "backup/a", string(keys[0]))

	require.NoError(t, c.Delete([]byte("backup/a")))
	keys, err = c.KeysWithPrefix([]byte(backupPrefix))
	require.NoError(t, err)
	assert.Empty(t, keys)

	id, err := c.ID()
	require.NoError(t, err)
	assert.Equal(t, "test-device", id)
}
