// ABOUTME: Remote store snapshots kept in Charm KV
// ABOUTME: Push writes backup/<ulid> and backup/latest; pull restores one of them

package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/oklog/ulid/v2"

	"github.com/harperreed/leadline/db"
)

const (
	backupPrefix = "backup/"
	latestKey    = backupPrefix + "latest"
)

// ErrNoBackup is returned when the requested remote snapshot does not exist.
var ErrNoBackup = errors.New("no remote backup found")

// Store is the key/value surface backups need. *Client satisfies it.
type Store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	KeysWithPrefix(prefix []byte) ([][]byte, error)
}

// Snapshotter exports and imports the full local store.
type Snapshotter interface {
	ExportStore(ctx context.Context) (*db.Snapshot, error)
	ImportStore(ctx context.Context, snap *db.Snapshot, replace bool) (*db.ImportStats, error)
}

type RemoteBackup struct {
	ID        string
	CreatedAt time.Time
	Size      int
}

// PushBackup uploads a snapshot of src and returns its id.
func PushBackup(ctx context.Context, store Store, src Snapshotter) (string, error) {
	snap, err := src.ExportStore(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	id := ulid.Make().String()
	if err := store.Set([]byte(backupPrefix+id), data); err != nil {
		return "", fmt.Errorf("failed to store backup %s: %w", id, err)
	}
	if err := store.Set([]byte(latestKey), data); err != nil {
		return "", fmt.Errorf("failed to update latest backup: %w", err)
	}

	return id, nil
}

// PullBackup restores the snapshot with id into dst. An empty id means latest.
func PullBackup(ctx context.Context, store Store, dst Snapshotter, id string, replace bool) (*db.ImportStats, error) {
	key := latestKey
	if id != "" {
		key = backupPrefix + id
	}

	data, err := store.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNoBackup
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if len(data) == 0 {
		return nil, ErrNoBackup
	}

	var snap db.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}

	return dst.ImportStore(ctx, &snap, replace)
}

// ListBackups returns remote snapshots, newest first.
func ListBackups(store Store) ([]RemoteBackup, error) {
	keys, err := store.KeysWithPrefix([]byte(backupPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var backups []RemoteBackup
	for _, k := range keys {
		name := strings.TrimPrefix(string(k), backupPrefix)
		parsed, err := ulid.ParseStrict(name)
		if err != nil {
			continue // latest, or a foreign key
		}
		b := RemoteBackup{ID: name, CreatedAt: ulid.Time(parsed.Time())}
		if data, err := store.Get(k); err == nil {
			b.Size = len(data)
		}
		backups = append(backups, b)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ID > backups[j].ID
	})
	return backups, nil
}

// PruneBackups deletes all but the newest keep snapshots. backup/latest is
// never removed.
func PruneBackups(store Store, keep int) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1")
	}

	backups, err := ListBackups(store)
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}

	removed := 0
	for _, b := range backups[keep:] {
		if err := store.Delete([]byte(backupPrefix + b.ID)); err != nil {
			return removed, fmt.Errorf("failed to delete backup %s: %w", b.ID, err)
		}
		removed++
	}
	return removed, nil
}
