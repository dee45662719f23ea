// ABOUTME: Task CLI commands
// ABOUTME: Add and list follow-up tasks, and bulk update or delete them
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/models"
	"github.com/harperreed/leadline/services"
)

// AddTaskCommand creates a task.
func AddTaskCommand(crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("add-task", flag.ExitOnError)
	title := fs.String("title", "", "Task title (required)")
	lead := fs.String("lead", "", "Lead ID")
	label := fs.String("label", "", "Label")
	priority := fs.String("priority", models.PriorityMedium, "LOW, MEDIUM or HIGH")
	due := fs.String("due", "", "Due date YYYY-MM-DD")
	_ = fs.Parse(args)

	if *title == "" {
		return fmt.Errorf("--title is required")
	}
	contactID, err := parseOptionalID(*lead)
	if err != nil {
		return err
	}
	dueAt, err := parseDate(*due)
	if err != nil {
		return err
	}

	task, err := crm.CreateTask(context.Background(), &models.Task{
		Title:     *title,
		ContactID: contactID,
		Label:     *label,
		Priority:  strings.ToUpper(*priority),
		DueAt:     dueAt,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Task created: %s (ID: %s)\n", task.Title, task.ID)
	return nil
}

// taskFilterFlags registers the shared filter flags on fs.
type taskFilterFlags struct {
	status, stage, priority *string
	lead, query, label      *string
	dueFrom, dueTo          *string
	archived                *bool
}

func addTaskFilterFlags(fs *flag.FlagSet) *taskFilterFlags {
	return &taskFilterFlags{
		status:   fs.String("status", "", "Filter by status (comma separated)"),
		stage:    fs.String("stage", "", "Filter by lead stage (comma separated)"),
		priority: fs.String("priority", "", "Filter by priority (comma separated)"),
		lead:     fs.String("lead", "", "Filter by lead ID"),
		query:    fs.String("query", "", "Text in title or label"),
		label:    fs.String("label", "", "Filter by label"),
		dueFrom:  fs.String("due-from", "", "Due on or after YYYY-MM-DD"),
		dueTo:    fs.String("due-to", "", "Due on or before YYYY-MM-DD"),
		archived: fs.Bool("archived", false, "Include archived tasks"),
	}
}

func (f *taskFilterFlags) filter() (models.TaskFilter, error) {
	contactID, err := parseOptionalID(*f.lead)
	if err != nil {
		return models.TaskFilter{}, err
	}
	dueFrom, err := parseDate(*f.dueFrom)
	if err != nil {
		return models.TaskFilter{}, err
	}
	dueTo, err := parseDate(*f.dueTo)
	if err != nil {
		return models.TaskFilter{}, err
	}
	if dueTo != nil {
		end := dueTo.AddDate(0, 0, 1).Add(-time.Nanosecond)
		dueTo = &end
	}
	return models.TaskFilter{
		Status:       splitCSV(*f.status),
		Stage:        splitCSV(*f.stage),
		Priority:     splitCSV(*f.priority),
		ContactID:    contactID,
		Query:        *f.query,
		Label:        *f.label,
		DueFrom:      dueFrom,
		DueTo:        dueTo,
		ShowArchived: *f.archived,
	}, nil
}

// ListTasksCommand lists tasks, soonest due first.
func ListTasksCommand(crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("list-tasks", flag.ExitOnError)
	flags := addTaskFilterFlags(fs)
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	filter, err := flags.filter()
	if err != nil {
		return err
	}

	tasks, err := crm.ListTasks(context.Background(), filter, *limit)
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tDUE\tLABEL")
	_, _ = fmt.Fprintln(w, "--\t-----\t------\t--------\t---\t-----")
	for _, t := range tasks {
		due := ""
		if t.DueAt != nil {
			due = t.DueAt.Local().Format("2006-01-02")
			if t.Status == models.TaskOpen && t.DueAt.Before(now) {
				due += " ⏰"
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID.String()[:8], t.Title, t.Status, t.Priority, due, t.Label)
	}
	_ = w.Flush()

	return nil
}

// BulkTasksCommand runs "bulk-tasks update" or "bulk-tasks delete". Without
// --global, the positional arguments are task IDs.
func BulkTasksCommand(crm *services.CRM, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: bulk-tasks <update|delete> [flags] [ids...]")
	}
	action, rest := args[0], args[1:]

	fs := flag.NewFlagSet("bulk-tasks "+action, flag.ExitOnError)
	global := fs.Bool("global", false, "Target every task matching the filters")
	flags := addTaskFilterFlags(fs)
	setStatus := fs.String("set-status", "", "New status")
	setDue := fs.String("set-due", "", "New due date YYYY-MM-DD")
	setPriority := fs.String("set-priority", "", "New priority")
	setLabel := fs.String("set-label", "", "New label")
	setStage := fs.String("set-stage", "", "New stage for each task's lead")
	_ = fs.Parse(rest)

	filter, err := flags.filter()
	if err != nil {
		return err
	}
	target := models.BulkTarget{Filters: filter}
	if *global {
		target.Scope = models.BulkScopeGlobal
	}
	for _, arg := range fs.Args() {
		id, err := uuid.Parse(arg)
		if err != nil {
			return fmt.Errorf("invalid task ID %q: %w", arg, err)
		}
		target.IDs = append(target.IDs, id)
	}

	ctx := context.Background()
	switch action {
	case "update":
		var patch models.TaskPatch
		if *setStatus != "" {
			s := strings.ToUpper(*setStatus)
			patch.Status = &s
		}
		if *setPriority != "" {
			p := strings.ToUpper(*setPriority)
			patch.Priority = &p
		}
		if *setLabel != "" {
			patch.Label = setLabel
		}
		if *setStage != "" {
			s := strings.ToUpper(*setStage)
			patch.Stage = &s
		}
		if patch.DueAt, err = parseDate(*setDue); err != nil {
			return err
		}
		n, err := crm.BulkUpdateTasks(ctx, target, patch)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Updated %d task(s)\n", n)
	case "delete":
		n, err := crm.BulkDeleteTasks(ctx, target)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Deleted %d task(s)\n", n)
	default:
		return fmt.Errorf("unknown bulk-tasks action: %s", action)
	}

	return nil
}
