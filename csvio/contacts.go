// ABOUTME: CSV import and export of contacts
// ABOUTME: Import maps common header spellings to contact fields automatically
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/harperreed/leadline/models"
)

// Header is the column order written by WriteContacts.
var Header = []string{"first_name", "last_name", "email", "phone", "stage", "source", "dob", "zip", "state", "notes"}

// aliases maps normalised header spellings to a canonical column.
var aliases = map[string]string{
	"first_name": "first_name", "firstname": "first_name", "first": "first_name", "given_name": "first_name",
	"last_name": "last_name", "lastname": "last_name", "last": "last_name", "surname": "last_name", "family_name": "last_name",
	"name": "name", "full_name": "name", "fullname": "name", "client": "name", "client_name": "name",
	"email": "email", "e_mail": "email", "email_address": "email", "e_mail_address": "email",
	"phone": "phone", "phone_number": "phone", "mobile": "phone", "cell": "phone", "telephone": "phone",
	"stage": "stage", "status": "stage",
	"source": "source", "lead_source": "source",
	"dob": "dob", "date_of_birth": "dob", "birthday": "dob", "birth_date": "dob",
	"zip": "zip", "zipcode": "zip", "zip_code": "zip", "postal_code": "zip",
	"state": "state",
	"notes": "notes", "note": "notes", "comments": "notes",
}

// RowError reports a rejected input row. Row is 1-based and counts the header.
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Err)
}

// WriteContacts writes contacts with a header row.
func WriteContacts(w io.Writer, contacts []models.Contact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, c := range contacts {
		record := []string{c.FirstName, c.LastName, c.Email, c.Phone, c.Stage, c.Source, c.DOB, c.Zip, c.State, c.Notes}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func normaliseHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	h = strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(h)
	return h
}

// ReadContacts parses contacts from CSV. Unrecognised columns are ignored.
// Rows without any name, email or phone, or with an unknown stage, are
// returned as RowErrors. A missing or unusable header is a hard error.
func ReadContacts(r io.Reader) ([]models.Contact, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("empty CSV")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int)
	for i, h := range header {
		if canonical, ok := aliases[normaliseHeader(h)]; ok {
			if _, dup := columns[canonical]; !dup {
				columns[canonical] = i
			}
		}
	}
	_, hasFirst := columns["first_name"]
	_, hasName := columns["name"]
	_, hasEmail := columns["email"]
	_, hasPhone := columns["phone"]
	if !hasFirst && !hasName && !hasEmail && !hasPhone {
		return nil, nil, fmt.Errorf("no recognised columns in header: %s", strings.Join(header, ", "))
	}

	var contacts []models.Contact
	var rowErrs []RowError
	row := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: row, Err: err.Error()})
			continue
		}

		get := func(col string) string {
			i, ok := columns[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		c := models.Contact{
			FirstName: get("first_name"),
			LastName:  get("last_name"),
			Email:     models.NormalizeEmail(get("email")),
			Phone:     get("phone"),
			Stage:     strings.ToUpper(strings.ReplaceAll(get("stage"), " ", "_")),
			Source:    get("source"),
			DOB:       get("dob"),
			Zip:       get("zip"),
			State:     strings.ToUpper(get("state")),
			Notes:     get("notes"),
		}
		if c.FirstName == "" && c.LastName == "" {
			if tokens := strings.Fields(get("name")); len(tokens) > 0 {
				c.FirstName = tokens[0]
				c.LastName = strings.Join(tokens[1:], " ")
			}
		}

		if c.FirstName == "" && c.LastName == "" && c.Email == "" && c.Phone == "" {
			if isBlank(record) {
				continue
			}
			rowErrs = append(rowErrs, RowError{Row: row, Err: "row has no name, email or phone"})
			continue
		}
		if c.Stage == "" {
			c.Stage = models.StageNewLead
		}
		if !models.IsValidStage(c.Stage) {
			rowErrs = append(rowErrs, RowError{Row: row, Err: fmt.Sprintf("unknown stage %q", get("stage"))})
			continue
		}
		contacts = append(contacts, c)
	}
	return contacts, rowErrs, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
