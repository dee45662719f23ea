// ABOUTME: Key/value application settings
// ABOUTME: Stores agent preferences such as KPI basis and goals
package db

import (
	"database/sql"
	"time"

	"github.com/harperreed/leadline/models"
)

func GetSetting(db *sql.DB, key string) (*models.Setting, error) {
	s := &models.Setting{}
	err := db.QueryRow(`SELECT key, value, updated_at FROM settings WHERE key = ?`, key).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func SetSetting(db *sql.DB, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	return err
}

func ListSettings(db *sql.DB) ([]models.Setting, error) {
	return allSettings(db)
}

func allSettings(q querier) ([]models.Setting, error) {
	rows, err := q.Query(`SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var settings []models.Setting
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}
