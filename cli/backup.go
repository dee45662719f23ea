// ABOUTME: Backup, restore and full-store JSON export CLI commands
// ABOUTME: Snapshots go to the configured backup directory
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/services"
)

// BackupCommand writes a JSON snapshot and a database copy.
func BackupCommand(ctx context.Context, crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	_ = fs.Parse(args)

	jsonPath, dbPath, err := crm.BackupToDisk(ctx)
	if err != nil {
		return err
	}

	fmt.Println("✓ Backup complete")
	fmt.Printf("  Snapshot: %s\n", jsonPath)
	fmt.Printf("  Database: %s\n", dbPath)
	return nil
}

// RestoreCommand imports a snapshot file, merging unless --replace is given.
func RestoreCommand(ctx context.Context, crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	replace := fs.Bool("replace", false, "Wipe existing data before importing")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: restore [--replace] <snapshot.json>")
	}

	stats, err := crm.RestoreFromFile(ctx, fs.Arg(0), *replace)
	if err != nil {
		return err
	}

	printImportStats(stats)
	return nil
}

func printImportStats(stats *db.ImportStats) {
	fmt.Println("✓ Restore complete")
	fmt.Printf("  Leads:      %d\n", stats.Contacts)
	fmt.Printf("  Activities: %d\n", stats.Activities)
	fmt.Printf("  Tasks:      %d\n", stats.Tasks)
	fmt.Printf("  Settings:   %d\n", stats.Settings)
	fmt.Printf("  Sessions:   %d\n", stats.Discovery)
}

// ListBackupsCommand lists files in the backup directory.
func ListBackupsCommand(crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("backups", flag.ExitOnError)
	_ = fs.Parse(args)

	backups, err := crm.ListBackups()
	if err != nil {
		return err
	}

	if len(backups) == 0 {
		fmt.Println("No backups found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSIZE\tCREATED")
	_, _ = fmt.Fprintln(w, "----\t----\t-------")
	for _, b := range backups {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", b.Name, b.Size, b.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = w.Flush()

	return nil
}

// ExportJSONCommand dumps the full store as JSON.
func ExportJSONCommand(ctx context.Context, crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("export-json", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	_ = fs.Parse(args)

	snap, err := crm.ExportStore(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if *output == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(*output, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", *output, err)
	}
	fmt.Printf("✓ Exported %d lead(s) to %s\n", len(snap.Leads), *output)
	return nil
}
