// ABOUTME: CSV import and export CLI commands
// ABOUTME: Bulk-load leads from spreadsheets and dump them back out
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harperreed/leadline/services"
)

// ImportCSVCommand imports leads from a CSV file, skipping duplicates.
func ImportCSVCommand(ctx context.Context, crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("import-csv", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Report what would be imported without writing")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: import-csv [--dry-run] <file.csv>")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fs.Arg(0), err)
	}
	defer func() { _ = f.Close() }()

	res, err := crm.ImportLeadsCSV(ctx, f, *dryRun)
	if err != nil {
		return err
	}

	verb := "Imported"
	if *dryRun {
		verb = "Would import"
	}
	fmt.Printf("✓ %s %d lead(s), skipped %d duplicate(s)\n", verb, res.Created, res.Duplicates)
	for _, rowErr := range res.Errors {
		fmt.Printf("  ⚠️  %s\n", rowErr.Error())
	}

	return nil
}

// ExportCSVCommand writes leads as CSV to a file or stdout.
func ExportCSVCommand(ctx context.Context, crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("export-csv", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	stage := fs.String("stage", "", "Only leads in this stage")
	_ = fs.Parse(args)

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *output, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	n, err := crm.ExportLeadsCSV(ctx, w, strings.ToUpper(*stage))
	if err != nil {
		return err
	}

	if *output != "" {
		fmt.Printf("✓ Exported %d lead(s) to %s\n", n, *output)
	}
	return nil
}
