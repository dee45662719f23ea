// ABOUTME: Lead CLI commands
// ABOUTME: Human-friendly commands for adding, listing and editing leads
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/models"
	"github.com/harperreed/leadline/services"
)

// AddLeadCommand adds a new lead, refusing duplicates.
func AddLeadCommand(crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("add-lead", flag.ExitOnError)
	first := fs.String("first", "", "First name")
	last := fs.String("last", "", "Last name")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	stage := fs.String("stage", models.StageNewLead, "Pipeline stage")
	source := fs.String("source", "", "Lead source")
	state := fs.String("state", "", "State")
	zip := fs.String("zip", "", "ZIP code")
	notes := fs.String("notes", "", "Notes about the lead")
	_ = fs.Parse(args)

	lead := &models.Contact{
		FirstName: *first,
		LastName:  *last,
		Email:     *email,
		Phone:     *phone,
		Stage:     strings.ToUpper(*stage),
		Source:    *source,
		State:     strings.ToUpper(*state),
		Zip:       *zip,
		Notes:     *notes,
	}

	created, err := crm.AddLead(context.Background(), lead)
	if err != nil {
		if apperr.KindOf(err) == apperr.Conflict && created != nil {
			return fmt.Errorf("lead already exists: %s (ID: %s)", created.FullName(), created.ID)
		}
		return err
	}

	fmt.Printf("✓ Lead created: %s (ID: %s)\n", created.FullName(), created.ID)
	if created.Email != "" {
		fmt.Printf("  Email: %s\n", created.Email)
	}
	if created.Phone != "" {
		fmt.Printf("  Phone: %s\n", created.Phone)
	}
	fmt.Printf("  Stage: %s\n", created.Stage)

	return nil
}

// ListLeadsCommand lists leads.
func ListLeadsCommand(crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("list-leads", flag.ExitOnError)
	query := fs.String("query", "", "Search by name, email or phone")
	stage := fs.String("stage", "", "Filter by stage")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	leads, err := crm.FindLeads(context.Background(), *query, strings.ToUpper(*stage), *limit)
	if err != nil {
		return err
	}

	if len(leads) == 0 {
		fmt.Println("No leads found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSTAGE\tEMAIL\tPHONE\tLAST CONTACT")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t-----\t-----\t------------")

	for _, lead := range leads {
		last := "never"
		if lead.LastContactedAt != nil {
			last = lead.LastContactedAt.Local().Format("2006-01-02")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			lead.ID.String()[:8], lead.FullName(), lead.Stage, lead.Email, lead.Phone, last)
	}

	_ = w.Flush()
	fmt.Printf("\nTotal: %d lead(s)\n", len(leads))

	return nil
}

// UpdateLeadCommand changes the given fields of a lead. Flags left unset keep
// their current value.
func UpdateLeadCommand(crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("update-lead", flag.ExitOnError)
	first := fs.String("first", "", "First name")
	last := fs.String("last", "", "Last name")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	stage := fs.String("stage", "", "Pipeline stage")
	source := fs.String("source", "", "Lead source")
	notes := fs.String("notes", "", "Notes")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: update-lead [flags] <id>")
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid lead ID: %w", err)
	}

	ctx := context.Background()
	lead, err := crm.GetLead(ctx, id)
	if err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["first"] {
		lead.FirstName = *first
	}
	if set["last"] {
		lead.LastName = *last
	}
	if set["email"] {
		lead.Email = *email
	}
	if set["phone"] {
		lead.Phone = *phone
	}
	if set["stage"] {
		lead.Stage = strings.ToUpper(*stage)
	}
	if set["source"] {
		lead.Source = *source
	}
	if set["notes"] {
		lead.Notes = *notes
	}

	updated, err := crm.UpdateLead(ctx, id, lead)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Lead updated: %s (%s)\n", updated.FullName(), updated.Stage)
	return nil
}

// DeleteLeadCommand deletes a lead. Its activities and tasks are kept,
// unlinked.
func DeleteLeadCommand(crm *services.CRM, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete-lead <id>")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid lead ID: %w", err)
	}

	if err := crm.DeleteLead(context.Background(), id); err != nil {
		return err
	}

	fmt.Printf("✓ Lead deleted: %s\n", id)
	return nil
}

// CheckDuplicateCommand reports the lead that already uses an email or phone.
func CheckDuplicateCommand(crm *services.CRM, args []string) error {
	fs := flag.NewFlagSet("check-duplicate", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	_ = fs.Parse(args)

	match, err := crm.CheckDuplicate(context.Background(), *email, *phone, nil)
	if err != nil {
		return err
	}
	if match == nil {
		fmt.Println("No duplicate found")
		return nil
	}

	fmt.Printf("Duplicate: %s (ID: %s, stage %s)\n", match.FullName(), match.ID, match.Stage)
	return nil
}
