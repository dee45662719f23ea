// ABOUTME: Writes discovery documents and store snapshots to disk
// ABOUTME: Also takes consistent SQLite file backups with VACUUM INTO
package exporter

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/discovery"
)

// DiscoveryFiles describes the files written by WriteDiscovery.
type DiscoveryFiles struct {
	Dir  string `json:"dir"`
	JSON string `json:"json"`
	YAML string `json:"yaml"`
}

// WriteDiscovery writes doc as pretty JSON plus its YAML rendering into dir.
// When yamlText is empty the YAML is rendered from doc.
func WriteDiscovery(dir string, doc *discovery.Document, yamlText string) (*DiscoveryFiles, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	if strings.TrimSpace(yamlText) == "" {
		text, err := discovery.ToText(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to render document: %w", err)
		}
		yamlText = text
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	files := &DiscoveryFiles{
		Dir:  dir,
		JSON: discovery.FilenameFor(doc, "json"),
		YAML: discovery.FilenameFor(doc, "yaml"),
	}
	if err := os.WriteFile(filepath.Join(dir, files.JSON), append(data, '\n'), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", files.JSON, err)
	}
	if err := os.WriteFile(filepath.Join(dir, files.YAML), []byte(yamlText), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", files.YAML, err)
	}
	return files, nil
}

// WriteSnapshot writes snap as leadline-<ulid>.json and returns its path.
// ULIDs sort by creation time, so file names sort chronologically.
func WriteSnapshot(dir string, snap *db.Snapshot) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	path := filepath.Join(dir, "leadline-"+ulid.Make().String()+".json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return path, nil
}

func ReadSnapshot(path string) (*db.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return DecodeSnapshot(data)
}

// DecodeSnapshot parses a snapshot and rejects documents with no known keys.
func DecodeSnapshot(data []byte) (*db.Snapshot, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	known := false
	for _, k := range []string{"leads", "contacts", "activities", "tasks", "settings", "discovery"} {
		if _, ok := keys[k]; ok {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("invalid snapshot: no recognised sections")
	}

	var snap db.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return &snap, nil
}

// BackupDatabase copies the live database into dir and returns the new path.
func BackupDatabase(conn *sql.DB, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	path := filepath.Join(dir, "leadline-"+ulid.Make().String()+".db")
	if _, err := conn.Exec(`VACUUM INTO ?`, path); err != nil {
		return "", fmt.Errorf("failed to back up database: %w", err)
	}
	return path, nil
}

// Backup is one file in the backup directory.
type Backup struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListBackups returns backups in dir, newest first. A missing directory has
// no backups.
func ListBackups(dir string) ([]Backup, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []Backup{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Backup{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "leadline-") {
			continue
		}
		ext := filepath.Ext(name)
		if ext != ".json" && ext != ".db" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		b := Backup{Name: name, Path: filepath.Join(dir, name), Size: info.Size(), CreatedAt: info.ModTime()}
		if id, err := ulid.ParseStrict(strings.TrimSuffix(strings.TrimPrefix(name, "leadline-"), ext)); err == nil {
			b.CreatedAt = ulid.Time(id.Time())
		}
		backups = append(backups, b)
	}

	sort.Slice(backups, func(i, j int) bool { return backups[i].Name > backups[j].Name })
	return backups, nil
}
