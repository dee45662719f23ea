// ABOUTME: KPI range resolution, quick logging, and activity recording
// ABOUTME: Turns date presets into ranges and computes dashboard metrics
package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/kpi"
	"github.com/harperreed/leadline/models"
)

// RangeQuery is the accepted ways of naming a KPI window. The first non-zero
// of Days, Preset and From/To wins; all zero means today.
type RangeQuery struct {
	Days   int    `json:"days,omitempty" form:"days"`
	Preset string `json:"range,omitempty" form:"range"`
	From   string `json:"from,omitempty" form:"from"`
	To     string `json:"to,omitempty" form:"to"`
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(s), loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validationf("invalid date %q, expected YYYY-MM-DD", s)
}

// ResolveRange turns q into an absolute range anchored on now.
func ResolveRange(q RangeQuery, now time.Time) (kpi.Range, error) {
	switch {
	case q.Days < 0:
		return kpi.Range{}, apperr.Validationf("days must be positive")
	case q.Days > 0:
		return kpi.RangeForDays(q.Days, now), nil
	case q.Preset != "":
		return kpi.RangeFromPreset(q.Preset, now), nil
	case q.From != "" || q.To != "":
		if q.From == "" || q.To == "" {
			return kpi.Range{}, apperr.Validationf("from and to must be given together")
		}
		from, err := parseDate(q.From, now.Location())
		if err != nil {
			return kpi.Range{}, err
		}
		to, err := parseDate(q.To, now.Location())
		if err != nil {
			return kpi.Range{}, err
		}
		return kpi.CustomRange(from, to), nil
	}
	return kpi.RangeFromPreset("today", now), nil
}

// KPIs aggregates activities in q's window with the configured basis.
func (s *CRM) KPIs(ctx context.Context, q RangeQuery) (kpi.Result, kpi.Range, error) {
	r, err := ResolveRange(q, s.now())
	if err != nil {
		return kpi.Result{}, r, err
	}
	return s.KPIsFor(ctx, r)
}

func (s *CRM) KPIsFor(ctx context.Context, r kpi.Range) (kpi.Result, kpi.Range, error) {
	activities, err := db.FindActivities(s.db, r.From, r.To)
	if db.IsSchemaMissing(err) {
		return kpi.Aggregate(nil, r, s.Basis()), r, nil
	}
	if err != nil {
		return kpi.Result{}, r, s.storeErr("failed to load activities", err)
	}
	return kpi.Aggregate(activities, r, s.Basis()), r, nil
}

// QuickLog is the one-tap KPI button: it records count activities of a KPI
// type, optionally with revenue and a contact.
type QuickLog struct {
	Type      string     `json:"type"`
	Count     int        `json:"count,omitempty"`
	Revenue   *float64   `json:"revenue,omitempty"`
	ContactID *uuid.UUID `json:"contactId,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

func (s *CRM) QuickLog(ctx context.Context, q QuickLog) (*models.Activity, error) {
	typ := strings.ToUpper(strings.TrimSpace(q.Type))
	switch typ {
	case models.ActivityDial, models.ActivityConnect, models.ActivityClose, models.ActivityRevenue:
	default:
		return nil, apperr.Validationf("type must be DIAL, CONNECT, CLOSE or REVENUE")
	}
	a := &models.Activity{
		Type:      typ,
		Count:     q.Count,
		Revenue:   q.Revenue,
		ContactID: q.ContactID,
		Notes:     q.Notes,
	}
	// Keep the outcome in step so either KPI basis counts it
	if typ != models.ActivityRevenue {
		a.Outcome = typ
	}
	return s.LogActivity(ctx, a)
}

func (s *CRM) LogActivity(ctx context.Context, a *models.Activity) (*models.Activity, error) {
	a.Type = strings.ToUpper(strings.TrimSpace(a.Type))
	a.Outcome = strings.ToUpper(strings.TrimSpace(a.Outcome))
	if !models.IsValidActivityType(a.Type) {
		return nil, apperr.Validationf("unknown activity type %q", a.Type)
	}
	if !models.IsValidOutcome(a.Outcome) {
		return nil, apperr.Validationf("unknown outcome %q", a.Outcome)
	}
	if a.Count < 0 {
		return nil, apperr.Validationf("count must not be negative")
	}
	if a.Revenue != nil && *a.Revenue < 0 {
		return nil, apperr.Validationf("revenue must not be negative")
	}
	if a.ContactID != nil {
		if _, err := s.GetLead(ctx, *a.ContactID); err != nil {
			return nil, err
		}
	}
	if err := db.LogActivity(s.db, a); err != nil {
		return nil, s.storeErr("failed to log activity", err)
	}
	return a, nil
}

func (s *CRM) RecentActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	acts, err := db.RecentActivities(s.db, limit)
	if db.IsSchemaMissing(err) {
		return []models.Activity{}, nil
	}
	if err != nil {
		return nil, s.storeErr("failed to load activities", err)
	}
	if acts == nil {
		acts = []models.Activity{}
	}
	return acts, nil
}
