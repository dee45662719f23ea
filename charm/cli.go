// ABOUTME: CLI commands for Charm KV remote backups
// ABOUTME: SSH key auth means there is no login or logout step

package charm

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/charm/client"
)

// LinkCommand links this device to a Charm account.
// Charm authenticates with the local SSH key automatically.
func LinkCommand(args []string) error {
	fs := flag.NewFlagSet("charm link", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("Linking to Charm Cloud (%s)...\n\n", cfg.Host)
	fmt.Println("Charm uses SSH key authentication.")

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to initialize client: %w", err)
	}

	// A sync round trip proves the key is accepted
	if err := c.Sync(); err != nil {
		return fmt.Errorf("link failed: %w", err)
	}

	id, err := c.ID()
	if err != nil {
		fmt.Println("✓ Device linked (ID unavailable)")
	} else {
		fmt.Printf("✓ Linked to account: %s\n", id)
	}
	fmt.Printf("✓ Auto-sync: %v\n", cfg.AutoSync)

	return nil
}

// StatusCommand shows the charm configuration and remote backup count.
func StatusCommand(args []string) error {
	fs := flag.NewFlagSet("charm status", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("Charm Backup Status")
	fmt.Println("───────────────────")
	fmt.Printf("Server:    %s\n", cfg.Host)
	fmt.Printf("Auto-sync: %v\n", cfg.AutoSync)
	fmt.Printf("Keep:      %d\n", cfg.KeepBackups)

	cc, err := client.NewClientWithDefaults()
	if err != nil {
		fmt.Println("\nStatus: Not connected")
		return nil //nolint:nilerr // not being linked is a valid state
	}

	if id, err := cc.ID(); err != nil {
		fmt.Println("\nStatus: Connected (ID unavailable)")
	} else {
		fmt.Println("\nStatus: Connected to Charm Cloud")
		fmt.Printf("ID:        %s\n", id)
	}

	if c, err := GetClient(); err == nil {
		if backups, err := ListBackups(c); err == nil {
			fmt.Printf("Backups:   %d\n", len(backups))
		}
	}

	return nil
}

// ConfigCommand updates the charm host, auto-sync and retention settings.
func ConfigCommand(args []string) error {
	fs := flag.NewFlagSet("charm config", flag.ExitOnError)
	host := fs.String("host", "", "Charm server host")
	autoSync := fs.String("auto-sync", "", "Enable or disable auto-sync (on|off)")
	keep := fs.Int("keep", 0, "Number of remote backups prune keeps")
	_ = fs.Parse(args)

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *host != "" {
		cfg.Host = *host
	}
	switch *autoSync {
	case "":
	case "on", "true", "yes":
		cfg.AutoSync = true
	case "off", "false", "no":
		cfg.AutoSync = false
	default:
		return fmt.Errorf("--auto-sync must be on or off")
	}
	if *keep > 0 {
		cfg.KeepBackups = *keep
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("✓ Server: %s, auto-sync: %v, keep: %d\n", cfg.Host, cfg.AutoSync, cfg.KeepBackups)
	return nil
}

// BackupPushCommand uploads a snapshot of the local store.
func BackupPushCommand(ctx context.Context, src Snapshotter, args []string) error {
	fs := flag.NewFlagSet("charm push", flag.ExitOnError)
	_ = fs.Parse(args)

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}

	id, err := PushBackup(ctx, c, src)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Pushed backup %s\n", id)
	return nil
}

// BackupPullCommand restores the latest remote snapshot, or the one named by --id.
func BackupPullCommand(ctx context.Context, dst Snapshotter, args []string) error {
	fs := flag.NewFlagSet("charm pull", flag.ExitOnError)
	id := fs.String("id", "", "Backup id (default: latest)")
	replace := fs.Bool("replace", false, "Wipe local data before importing")
	_ = fs.Parse(args)

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}

	// Pick up snapshots pushed from other devices
	if err := c.Sync(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	stats, err := PullBackup(ctx, c, dst, *id, *replace)
	if err != nil {
		if errors.Is(err, ErrNoBackup) {
			fmt.Println("No remote backup found. Run 'leadline charm push' first.")
			return nil
		}
		return err
	}

	fmt.Printf("✓ Restored %d lead(s), %d activities, %d task(s), %d session(s)\n",
		stats.Contacts, stats.Activities, stats.Tasks, stats.Discovery)
	return nil
}

// BackupListCommand lists remote snapshots.
func BackupListCommand(args []string) error {
	fs := flag.NewFlagSet("charm list", flag.ExitOnError)
	_ = fs.Parse(args)

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}

	backups, err := ListBackups(c)
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Println("No remote backups")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCREATED\tSIZE")
	for _, b := range backups {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", b.ID, b.CreatedAt.Local().Format("2006-01-02 15:04"), b.Size)
	}
	_ = w.Flush()
	return nil
}

// BackupPruneCommand deletes old remote snapshots.
func BackupPruneCommand(args []string) error {
	fs := flag.NewFlagSet("charm prune", flag.ExitOnError)
	keep := fs.Int("keep", 0, "Snapshots to keep (default: configured keep)")
	_ = fs.Parse(args)

	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}

	n := *keep
	if n == 0 {
		n = c.Config().KeepBackups
	}

	removed, err := PruneBackups(c, n)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Removed %d old backup(s)\n", removed)
	return nil
}
