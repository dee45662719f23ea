// ABOUTME: Activity log database operations
// ABOUTME: Records dials, connects, closes and revenue and reads them back by date range
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/models"
)

const activityColumns = `id, contact_id, type, outcome, count, revenue, notes, date, created_at`

func scanActivity(row scanner) (*models.Activity, error) {
	a := &models.Activity{}
	var contactID uuid.NullUUID
	var outcome, notes sql.NullString
	var revenue sql.NullFloat64
	if err := row.Scan(&a.ID, &contactID, &a.Type, &outcome, &a.Count, &revenue, &notes, &a.Date, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ContactID = uuidPtr(contactID)
	a.Outcome = outcome.String
	a.Notes = notes.String
	if revenue.Valid {
		r := revenue.Float64
		a.Revenue = &r
	}
	return a, nil
}

// LogActivity records an activity. Count defaults to 1 and Date to now. When
// the activity is linked to a contact, the contact's last-contacted time is
// bumped.
func LogActivity(db *sql.DB, activity *models.Activity) error {
	if !models.IsValidActivityType(activity.Type) {
		return fmt.Errorf("invalid activity type: %s", activity.Type)
	}
	if !models.IsValidOutcome(activity.Outcome) {
		return fmt.Errorf("invalid outcome: %s", activity.Outcome)
	}
	if activity.Count < 0 {
		return fmt.Errorf("count must not be negative")
	}
	if activity.Count == 0 {
		activity.Count = 1
	}
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	now := time.Now().UTC()
	if activity.Date.IsZero() {
		activity.Date = now
	}
	activity.Date = activity.Date.UTC()
	activity.CreatedAt = now

	_, err := db.Exec(`
		INSERT INTO activities (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, activity.ID.String(), nullUUID(activity.ContactID), activity.Type, nullIfEmpty(activity.Outcome),
		activity.Count, activity.Revenue, nullIfEmpty(activity.Notes), activity.Date, activity.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	if activity.ContactID != nil {
		if err := UpdateContactLastContacted(db, *activity.ContactID, activity.Date); err != nil {
			return fmt.Errorf("failed to update contact: %w", err)
		}
	}

	return nil
}

// FindActivities returns activities dated in [from, to], oldest first. Zero
// bounds are open.
func FindActivities(db *sql.DB, from, to time.Time) ([]models.Activity, error) {
	q := `SELECT ` + activityColumns + ` FROM activities WHERE 1=1`
	var args []any
	if !from.IsZero() {
		q += ` AND date >= ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		q += ` AND date <= ?`
		args = append(args, to.UTC())
	}
	q += ` ORDER BY date ASC`
	return queryActivities(db, q, args...)
}

// RecentActivities returns the newest activities first.
func RecentActivities(db *sql.DB, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 20
	}
	return queryActivities(db, `SELECT `+activityColumns+` FROM activities ORDER BY date DESC LIMIT ?`, limit)
}

func GetContactActivities(db *sql.DB, contactID uuid.UUID, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	return queryActivities(db, `SELECT `+activityColumns+` FROM activities WHERE contact_id = ? ORDER BY date DESC LIMIT ?`,
		contactID.String(), limit)
}

func queryActivities(q querier, query string, args ...any) ([]models.Activity, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var activities []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

// SumRevenue totals revenue on activities dated in [from, to].
func SumRevenue(db *sql.DB, from, to time.Time) (float64, error) {
	var total sql.NullFloat64
	err := db.QueryRow(`SELECT SUM(revenue) FROM activities WHERE date >= ? AND date <= ?`, from.UTC(), to.UTC()).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}
