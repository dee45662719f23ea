// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz dashboard and graph generation commands
package cli

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/services"
	"github.com/harperreed/leadline/viz"
)

// VizGraphPipelineCommand generates the lead pipeline graph.
func VizGraphPipelineCommand(crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("viz graph pipeline", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	generator := viz.NewGraphGenerator(crm.DB())
	dot, err := generator.GeneratePipelineGraph()
	if err != nil {
		return err
	}

	return writeDOT(*output, dot)
}

// VizGraphLeadCommand graphs one lead with its tasks and discovery session.
func VizGraphLeadCommand(crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("viz graph lead", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("lead ID required")
	}

	leadID, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid lead ID: %w", err)
	}

	generator := viz.NewGraphGenerator(crm.DB())
	dot, err := generator.GenerateLeadGraph(leadID)
	if err != nil {
		return err
	}

	return writeDOT(*output, dot)
}

func writeDOT(output, dot string) error {
	if output != "" {
		return os.WriteFile(output, []byte(dot), 0644)
	}

	fmt.Println(dot)
	return nil
}

func VizDashboardCommand(crm *services.CRM, args []string) error {
	stats, err := viz.GenerateDashboardStats(crm.DB(), crm.Basis(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to generate dashboard stats: %w", err)
	}

	output := viz.RenderDashboard(stats)
	fmt.Print(output)

	return nil
}
