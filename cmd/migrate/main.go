// ABOUTME: Copies a legacy data directory into the configured leadline data dir
// ABOUTME: Supports dry-run, a pre-copy backup of the target and forced overwrite

package main

import (
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/harperreed/leadline/config"
	"github.com/harperreed/leadline/db"
)

// legacyDBName is what the previous release called its database file.
const legacyDBName = "crm.db"

type options struct {
	dryRun bool
	backup bool
	force  bool
}

type copyOp struct {
	src, dst string
	exists   bool
}

func main() {
	from := flag.String("from", filepath.Join(xdg.DataHome, "crm"), "Legacy data directory")
	configFile := flag.String("config", "", "Config file")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Back up the target directory before copying")
	force := flag.Bool("force", false, "Overwrite files that already exist in the target")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	opts := options{dryRun: *dryRun, backup: *backup, force: *force}
	if err := migrate(*from, cfg.DataDir, config.AppName+".db", opts); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}

func migrate(from, to, dbName string, opts options) error {
	info, err := os.Stat(from)
	if err != nil {
		return fmt.Errorf("legacy directory %s: %w", from, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("legacy path is not a directory: %s", from)
	}
	if filepath.Clean(from) == filepath.Clean(to) {
		return fmt.Errorf("source and target are the same directory")
	}

	ops, err := plan(from, to, dbName)
	if err != nil {
		return err
	}

	var conflicts int
	for _, op := range ops {
		if op.exists {
			conflicts++
		}
	}
	if conflicts > 0 && !opts.force {
		for _, op := range ops {
			if op.exists {
				log.Printf("Exists: %s", op.dst)
			}
		}
		return fmt.Errorf("%d file(s) already exist in %s; use -force to overwrite", conflicts, to)
	}

	if opts.dryRun {
		log.Printf("[DRY RUN] Would copy %d file(s) from %s to %s", len(ops), from, to)
		for _, op := range ops {
			verb := "copy"
			if op.exists {
				verb = "overwrite"
			}
			log.Printf("[DRY RUN] %s %s -> %s", verb, op.src, op.dst)
		}
		return nil
	}

	if opts.backup {
		backupPath, err := backupDir(to)
		if err != nil {
			return fmt.Errorf("failed to back up %s: %w", to, err)
		}
		if backupPath != "" {
			log.Printf("Backup created: %s", backupPath)
		}
	}

	for _, op := range ops {
		if err := copyFile(op.src, op.dst); err != nil {
			return err
		}
		log.Printf("Copied %s", op.dst)
	}

	// Opening the database brings its schema up to date
	dbPath := filepath.Join(to, dbName)
	if _, err := os.Stat(dbPath); err == nil {
		conn, err := db.OpenDatabase(dbPath)
		if err != nil {
			return fmt.Errorf("copied database failed to open: %w", err)
		}
		_ = conn.Close()
		log.Printf("Database ready: %s", dbPath)
	}

	return nil
}

// plan lists every regular file under from and where it lands under to.
// The legacy database file is renamed to dbName.
func plan(from, to, dbName string) ([]copyOp, error) {
	var ops []copyOp
	err := filepath.WalkDir(from, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(from, path)
		if err != nil {
			return err
		}
		if rel == legacyDBName {
			rel = dbName
		}
		dst := filepath.Join(to, rel)
		_, statErr := os.Stat(dst)
		ops = append(ops, copyOp{src: path, dst: dst, exists: statErr == nil})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", from, err)
	}
	return ops, nil
}

// backupDir copies dir to a timestamped sibling. A missing or empty dir
// needs no backup and returns "".
func backupDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) || (err == nil && len(entries) == 0) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	dest := fmt.Sprintf("%s.backup.%s", filepath.Clean(dir), time.Now().Format("20060102-150405"))
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return copyFile(path, filepath.Join(dest, rel))
	})
	if err != nil {
		return "", err
	}
	return dest, nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
