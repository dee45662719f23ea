// ABOUTME: Interactive lead browser CLI command
// ABOUTME: Opens the TUI lead list from which discovery calls are started
package cli

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/harperreed/leadline/services"
	"github.com/harperreed/leadline/tui"
)

func requireTerminal() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("this command needs an interactive terminal")
	}
	return nil
}

// TUICommand runs the lead list and discovery wizard.
func TUICommand(ctx context.Context, crm *services.CRM, autosave bool) error {
	if err := requireTerminal(); err != nil {
		return err
	}
	return tui.Run(tui.NewModel(ctx, crm, autosave))
}
