// ABOUTME: Lead create, read, update, and delete with validation
// ABOUTME: Rejects duplicate email or phone before writing a contact
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/models"
)

func validateLead(c *models.Contact) error {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.FirstName == "" && c.LastName == "" && c.Email == "" && c.Phone == "" {
		return apperr.Validationf("a lead needs a name, email or phone")
	}
	if c.Stage == "" {
		c.Stage = models.StageNewLead
	}
	if !models.IsValidStage(c.Stage) {
		return apperr.Validationf("unknown stage %q", c.Stage)
	}
	return nil
}

// AddLead creates a contact unless an existing one shares its email or phone.
func (s *CRM) AddLead(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	if err := validateLead(c); err != nil {
		return nil, err
	}
	existing, err := db.FindDuplicateContact(s.db, c.Email, c.Phone)
	if err != nil {
		return nil, s.storeErr("failed to check duplicates", err)
	}
	if existing != nil {
		return existing, apperr.Conflictf("lead already exists: %s (%s)", existing.FullName(), existing.ID)
	}
	c.ID = uuid.Nil
	if err := db.CreateContact(s.db, c); err != nil {
		return nil, s.storeErr("failed to create lead", err)
	}
	s.log.Info("lead created", "id", c.ID, "stage", c.Stage)
	return c, nil
}

func (s *CRM) GetLead(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	c, err := db.GetContact(s.db, id)
	if err != nil {
		return nil, s.storeErr("failed to load lead", err)
	}
	if c == nil {
		return nil, apperr.NotFoundf("lead %s not found", id)
	}
	return c, nil
}

func (s *CRM) FindLeads(ctx context.Context, query, stage string, limit int) ([]models.Contact, error) {
	if stage != "" && !models.IsValidStage(stage) {
		return nil, apperr.Validationf("unknown stage %q", stage)
	}
	leads, err := db.FindContacts(s.db, query, stage, limit)
	if db.IsSchemaMissing(err) {
		return []models.Contact{}, nil
	}
	if err != nil {
		return nil, s.storeErr("failed to search leads", err)
	}
	if leads == nil {
		leads = []models.Contact{}
	}
	return leads, nil
}

// UpdateLead replaces the editable fields of a lead. A duplicate check ignores
// the lead itself.
func (s *CRM) UpdateLead(ctx context.Context, id uuid.UUID, c *models.Contact) (*models.Contact, error) {
	if _, err := s.GetLead(ctx, id); err != nil {
		return nil, err
	}
	if err := validateLead(c); err != nil {
		return nil, err
	}
	dup, err := db.IsDuplicateContact(s.db, c.Email, c.Phone, &id)
	if err != nil {
		return nil, s.storeErr("failed to check duplicates", err)
	}
	if dup {
		return nil, apperr.Conflictf("another lead already uses this email or phone")
	}
	if err := db.UpdateContact(s.db, id, c); err != nil {
		return nil, s.storeErr("failed to update lead", err)
	}
	return s.GetLead(ctx, id)
}

func (s *CRM) DeleteLead(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetLead(ctx, id); err != nil {
		return err
	}
	if err := db.DeleteContact(s.db, id); err != nil {
		return s.storeErr("failed to delete lead", err)
	}
	return nil
}

// CheckDuplicate returns the oldest lead other than excludeID that shares the
// email or phone, or nil.
func (s *CRM) CheckDuplicate(ctx context.Context, email, phone string, excludeID *uuid.UUID) (*models.Contact, error) {
	match, err := db.FindConflictingContact(s.db, email, phone, excludeID)
	if err != nil {
		return nil, s.storeErr("failed to check duplicates", err)
	}
	return match, nil
}
