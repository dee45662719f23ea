// ABOUTME: Lead CSV import with dedupe and dry-run support
// ABOUTME: Lead CSV export filtered by pipeline stage
package services

import (
	"context"
	"fmt"
	"io"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/csvio"
	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/models"
)

// maxExport bounds a single CSV export.
const maxExport = 100000

// CSVImportResult reports what an import did. Duplicates are leads whose
// email or phone already exists, including earlier rows of the same file.
type CSVImportResult struct {
	Created    int               `json:"created"`
	Duplicates int               `json:"duplicates"`
	Errors     []csvio.RowError  `json:"errors"`
	Leads      []*models.Contact `json:"-"`
}

// ImportLeadsCSV adds every valid row as a lead, skipping duplicates. With
// dryRun nothing is written.
func (s *CRM) ImportLeadsCSV(ctx context.Context, r io.Reader, dryRun bool) (*CSVImportResult, error) {
	contacts, rowErrs, err := csvio.ReadContacts(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, err.Error(), err)
	}

	res := &CSVImportResult{Errors: rowErrs}
	if res.Errors == nil {
		res.Errors = []csvio.RowError{}
	}
	seen := make(map[string]bool)
	for i := range contacts {
		c := &contacts[i]
		keys := dedupeKeys(c)
		if anySeen(seen, keys) {
			res.Duplicates++
			continue
		}
		existing, err := db.FindDuplicateContact(s.db, c.Email, c.Phone)
		if err != nil {
			return nil, s.storeErr("failed to check duplicates", err)
		}
		if existing != nil {
			res.Duplicates++
			continue
		}
		for _, k := range keys {
			seen[k] = true
		}
		if dryRun {
			res.Created++
			continue
		}
		if err := db.CreateContact(s.db, c); err != nil {
			return nil, s.storeErr("failed to import lead", err)
		}
		res.Created++
		res.Leads = append(res.Leads, c)
	}
	s.log.Info("csv import", "created", res.Created, "duplicates", res.Duplicates, "errors", len(res.Errors), "dry_run", dryRun)
	return res, nil
}

func dedupeKeys(c *models.Contact) []string {
	var keys []string
	if email := models.NormalizeEmail(c.Email); email != "" {
		keys = append(keys, "e:"+email)
	}
	if digits := models.NormalizePhone(c.Phone); len(digits) >= models.MinPhoneDigits {
		keys = append(keys, "p:"+digits[len(digits)-models.MinPhoneDigits:])
	}
	return keys
}

func anySeen(seen map[string]bool, keys []string) bool {
	for _, k := range keys {
		if seen[k] {
			return true
		}
	}
	return false
}

// ExportLeadsCSV writes leads matching stage (all when empty) as CSV.
func (s *CRM) ExportLeadsCSV(ctx context.Context, w io.Writer, stage string) (int, error) {
	leads, err := s.FindLeads(ctx, "", stage, maxExport)
	if err != nil {
		return 0, err
	}
	if err := csvio.WriteContacts(w, leads); err != nil {
		return 0, apperr.Wrap(apperr.Internal, fmt.Sprintf("failed to write %d leads", len(leads)), err)
	}
	return len(leads), nil
}
