// ABOUTME: Activity and KPI CLI commands
// ABOUTME: Log calls and quick KPI taps, list recent activity, show KPI totals
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/harperreed/leadline/models"
	"github.com/harperreed/leadline/services"
)

// LogActivityCommand records one activity.
func LogActivityCommand(crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("log-activity", flag.ExitOnError)
	typ := fs.String("type", models.ActivityCall, "Activity type")
	outcome := fs.String("outcome", "", "Call outcome (DIAL, CONNECT, CLOSE)")
	count := fs.Int("count", 1, "How many")
	revenue := fs.Float64("revenue", 0, "Revenue in dollars")
	lead := fs.String("lead", "", "Lead ID")
	notes := fs.String("notes", "", "Notes")
	_ = fs.Parse(args)

	contactID, err := parseOptionalID(*lead)
	if err != nil {
		return err
	}

	activity := &models.Activity{
		Type:      *typ,
		Outcome:   *outcome,
		Count:     *count,
		ContactID: contactID,
		Notes:     *notes,
	}
	if *revenue > 0 {
		activity.Revenue = revenue
	}

	logged, err := crm.LogActivity(context.Background(), activity)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Logged %s x%d\n", logged.Type, logged.Count)
	return nil
}

// KPILogCommand is the quick-tap form: kpi-log <DIAL|CONNECT|CLOSE|REVENUE>.
func KPILogCommand(crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("kpi-log", flag.ExitOnError)
	count := fs.Int("count", 1, "How many")
	revenue := fs.Float64("revenue", 0, "Revenue in dollars")
	lead := fs.String("lead", "", "Lead ID")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: kpi-log [flags] <DIAL|CONNECT|CLOSE|REVENUE>")
	}

	contactID, err := parseOptionalID(*lead)
	if err != nil {
		return err
	}

	q := services.QuickLog{Type: fs.Arg(0), Count: *count, ContactID: contactID}
	if *revenue > 0 {
		q.Revenue = revenue
	}

	ctx := context.Background()
	logged, err := crm.QuickLog(ctx, q)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Logged %s x%d\n", logged.Type, logged.Count)

	return printKPIs(ctx, crm, services.RangeQuery{Preset: "today"})
}

// KPICommand prints KPI totals for a window.
func KPICommand(crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("kpi", flag.ExitOnError)
	days := fs.Int("days", 0, "Last N days including today")
	preset := fs.String("range", "", "today, week, 7d or 30d")
	from := fs.String("from", "", "Start date YYYY-MM-DD")
	to := fs.String("to", "", "End date YYYY-MM-DD")
	_ = fs.Parse(args)

	return printKPIs(context.Background(), crm, services.RangeQuery{Days: *days, Preset: *preset, From: *from, To: *to})
}

func printKPIs(ctx context.Context, crm *services.CRM, q services.RangeQuery) error {
	res, r, err := crm.KPIs(ctx, q)
	if err != nil {
		return err
	}

	fmt.Printf("\nKPIs %s → %s (by %s)\n", r.From.Format("2006-01-02"), r.To.Format("2006-01-02"), crm.Basis())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DIALS\tCONNECTS\tCLOSES\tREVENUE\tCONVERSION")
	_, _ = fmt.Fprintf(w, "%d\t%d\t%d\t$%.2f\t%s%%\n", res.Dials, res.Connects, res.Closes, res.Revenue, res.ConversionRate)
	_ = w.Flush()

	return nil
}

// ListActivitiesCommand shows the most recent activities.
func ListActivitiesCommand(crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("list-activities", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum results")
	_ = fs.Parse(args)

	acts, err := crm.RecentActivities(context.Background(), *limit)
	if err != nil {
		return err
	}

	if len(acts) == 0 {
		fmt.Println("No activities logged")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tTYPE\tOUTCOME\tCOUNT\tREVENUE\tNOTES")
	_, _ = fmt.Fprintln(w, "----\t----\t-------\t-----\t-------\t-----")
	for _, a := range acts {
		revenue := ""
		if a.Revenue != nil {
			revenue = fmt.Sprintf("$%.2f", *a.Revenue)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			a.Date.Local().Format(time.DateTime), a.Type, a.Outcome, a.Count, revenue, a.Notes)
	}
	_ = w.Flush()

	return nil
}
