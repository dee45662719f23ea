// ABOUTME: Discovery session CLI commands
// ABOUTME: Run the call wizard, list, show, edit and export sessions
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/services"
	"github.com/harperreed/leadline/tui"
)

// DiscoveryCallCommand resumes the lead's latest session (or starts one) and
// opens the wizard.
func DiscoveryCallCommand(ctx context.Context, crm *services.CRM, autosave bool, args []string) error {
	fs := flag.NewFlagSet("discovery call", flag.ExitOnError)
	fresh := fs.Bool("new", false, "Always start a new session")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: discovery call [--new] <lead-id>")
	}
	leadID, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid lead ID: %w", err)
	}

	if err := requireTerminal(); err != nil {
		return err
	}

	var sessionID string
	if *fresh {
		session, err := crm.CreateDiscovery(ctx, &leadID, "", nil)
		if err != nil {
			return err
		}
		sessionID = session.SessionID
	} else {
		session, _, err := crm.OpenDiscovery(ctx, leadID)
		if err != nil {
			return err
		}
		sessionID = session.SessionID
	}

	w, err := crm.Wizard(ctx, sessionID, autosave)
	if err != nil {
		return err
	}
	if err := tui.Run(tui.NewWizardModel(ctx, crm, w)); err != nil {
		return err
	}

	fmt.Printf("✓ Discovery session %s saved\n", sessionID)
	return nil
}

// DiscoveryListCommand lists recent sessions.
func DiscoveryListCommand(ctx context.Context, crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("discovery list", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum results")
	_ = fs.Parse(args)

	sessions, err := crm.ListDiscovery(ctx, *limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No discovery sessions")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SESSION\tCLIENT\tSTATE\tZIP\tNOTES\tUPDATED")
	_, _ = fmt.Fprintln(w, "-------\t------\t-----\t---\t-----\t-------")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			s.SessionID, s.ClientName, s.State, s.Zip, len(s.Rapport), s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = w.Flush()

	return nil
}

// DiscoveryShowCommand prints a session's YAML rendering.
func DiscoveryShowCommand(ctx context.Context, crm *services.CRM, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: discovery show <session-id>")
	}
	session, err := crm.GetDiscovery(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Print(session.YAMLPayload)
	return nil
}

// DiscoverySetCommand sets one field. The value is parsed as JSON when it
// can be, so numbers, booleans and lists work; anything else is a string.
func DiscoverySetCommand(ctx context.Context, crm *services.CRM, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: discovery set <session-id> <path> <value>")
	}

	var value any
	if err := json.Unmarshal([]byte(args[2]), &value); err != nil {
		value = args[2]
	}

	if _, err := crm.SetDiscoveryField(ctx, args[0], args[1], value); err != nil {
		return err
	}

	fmt.Printf("✓ %s updated\n", args[1])
	return nil
}

// DiscoveryNoteCommand appends a rapport note.
func DiscoveryNoteCommand(ctx context.Context, crm *services.CRM, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: discovery note <session-id> <text...>")
	}

	session, err := crm.AddDiscoveryRapport(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	fmt.Printf("✓ Rapport note added (%d total)\n", len(session.Rapport))
	return nil
}

// DiscoveryExportCommand writes the session's JSON and YAML files.
func DiscoveryExportCommand(ctx context.Context, crm *services.CRM, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: discovery export <session-id>")
	}

	files, err := crm.ExportDiscovery(ctx, args[0], nil, "")
	if err != nil {
		return err
	}

	fmt.Printf("✓ Exported to %s\n", files.Dir)
	fmt.Printf("  %s\n  %s\n", files.JSON, files.YAML)
	return nil
}
