// ABOUTME: Settings reads and writes with per-key validation
// ABOUTME: Keeps the cached KPI basis in step with the stored setting
package services

import (
	"context"
	"strings"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/kpi"
	"github.com/harperreed/leadline/models"
)

// SettingKPIBasis overrides the configured KPI basis when stored.
const SettingKPIBasis = "kpi_basis"

func (s *CRM) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	setting, err := db.GetSetting(s.db, key)
	if err != nil {
		return nil, s.storeErr("failed to load setting", err)
	}
	if setting == nil {
		return nil, apperr.NotFoundf("setting %s not found", key)
	}
	return setting, nil
}

// SetSetting stores a setting. Known keys are validated and take effect
// immediately.
func (s *CRM) SetSetting(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return apperr.Validationf("key is required")
	}

	var basis kpi.Basis
	if key == SettingKPIBasis {
		var err error
		if basis, err = kpi.ParseBasis(value); err != nil {
			return apperr.Wrap(apperr.Validation, err.Error(), err)
		}
		value = string(basis)
	}

	if err := db.SetSetting(s.db, key, value); err != nil {
		return s.storeErr("failed to save setting", err)
	}
	if basis != "" {
		s.setBasis(basis)
	}
	return nil
}

func (s *CRM) ListSettings(ctx context.Context) ([]models.Setting, error) {
	settings, err := db.ListSettings(s.db)
	if db.IsSchemaMissing(err) {
		return []models.Setting{}, nil
	}
	if err != nil {
		return nil, s.storeErr("failed to list settings", err)
	}
	if settings == nil {
		settings = []models.Setting{}
	}
	return settings, nil
}

// LoadSettings applies stored settings over the configured options.
func (s *CRM) LoadSettings(ctx context.Context) error {
	setting, err := db.GetSetting(s.db, SettingKPIBasis)
	if err != nil {
		return s.storeErr("failed to load settings", err)
	}
	if setting == nil {
		return nil
	}
	basis, err := kpi.ParseBasis(setting.Value)
	if err != nil {
		s.log.Warn("ignoring stored kpi basis", "value", setting.Value, "error", err)
		return nil
	}
	s.setBasis(basis)
	return nil
}

func (s *CRM) setBasis(b kpi.Basis) {
	s.mu.Lock()
	s.basis = b
	s.mu.Unlock()
}
