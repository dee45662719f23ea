// ABOUTME: Settings CLI commands
// ABOUTME: Reads and writes stored key/value preferences such as kpi_basis
package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/harperreed/leadline/services"
)

// SettingsCommand handles "settings [list]", "settings get <key>" and
// "settings set <key> <value>".
func SettingsCommand(ctx context.Context, crm *services.CRM, args []string) error {
	if len(args) == 0 || args[0] == "list" {
		return listSettings(ctx, crm)
	}

	switch args[0] {
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: settings get <key>")
		}
		s, err := crm.GetSetting(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Println(s.Value)
		return nil
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: settings set <key> <value>")
		}
		if err := crm.SetSetting(ctx, args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("✓ %s = %s\n", args[1], args[2])
		return nil
	}

	return fmt.Errorf("unknown settings command: %s", args[0])
}

func listSettings(ctx context.Context, crm *services.CRM) error {
	settings, err := crm.ListSettings(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("kpi basis (effective): %s\n\n", crm.Basis())
	if len(settings) == 0 {
		fmt.Println("No stored settings")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tVALUE\tUPDATED")
	for _, s := range settings {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.Key, s.Value, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
	return nil
}
