package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadline/apperr"
	"github.com/harperreed/leadline/kpi"
	"github.com/harperreed/leadline/models"
)

func TestImportLeadsCSV(t *testing.T) {
	crm := newTestCRM(t)
	ctx := context.Background()

	_, err := crm.AddLead(ctx, &models.Contact{FirstName: "Existing", Email: "old@example.com"})
	require.NoError(t, err)

	in := strings.Join([]string{
		"Name,E-mail,Phone,Stage",
		"Ana Lopez,ana@example.com,555-123-4567,",
		"Ana Again,,(555) 123-4567,",
		"Old Timer,OLD@example.com,,",
		"Ben,ben@example.com,,won",
		",,,",
		"Cy,,5559876543,quote",
	}, "\n")

	dry, err := crm.ImportLeadsCSV(ctx, strings.NewReader(in), true)
	require.NoError(t, err)
	assert.Equal(t, 2, dry.Created)
	leads, err := crm.FindLeads(ctx, "", "", 10)
	require.NoError(t, err)
	assert.Len(t, leads, 1, "dry run writes nothing")

	res, err := crm.ImportLeadsCSV(ctx, strings.NewReader(in), false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 2, res.Duplicates)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 5, res.Errors[0].Row)

	quotes, err := crm.FindLeads(ctx, "", models.StageQuote, 10)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "Cy", quotes[0].FirstName)

	_, err = crm.ImportLeadsCSV(ctx, strings.NewReader("foo,bar\n1,2\n"), false)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestExportLeadsCSV(t *testing.T) {
	crm := newTestCRM(t)
	ctx := context.Background()

	_, err := crm.AddLead(ctx, &models.Contact{FirstName: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	_, err = crm.AddLead(ctx, &models.Contact{FirstName: "Ben", Stage: models.StageSold, Phone: "5551112222"})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := crm.ExportLeadsCSV(ctx, &buf, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, strings.HasPrefix(buf.String(), "first_name,last_name,email"))

	buf.Reset()
	n, err = crm.ExportLeadsCSV(ctx, &buf, models.StageSold)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "5551112222")
	assert.NotContains(t, buf.String(), "ana@example.com")
}

func TestKPIBasisSetting(t *testing.T) {
	crm := newTestCRM(t)
	ctx := context.Background()

	assert.Equal(t, kpi.ByType, crm.Basis())

	err := crm.SetSetting(ctx, SettingKPIBasis, "sideways")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	require.NoError(t, crm.SetSetting(ctx, SettingKPIBasis, "outcome"))
	assert.Equal(t, kpi.ByOutcome, crm.Basis())

	fresh := NewCRM(crm.DB(), nil, Options{})
	assert.Equal(t, kpi.ByType, fresh.Basis())
	require.NoError(t, fresh.LoadSettings(ctx))
	assert.Equal(t, kpi.ByOutcome, fresh.Basis())

	_, err = crm.GetSetting(ctx, "missing")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	settings, err := crm.ListSettings(ctx)
	require.NoError(t, err)
	require.Len(t, settings, 1)
	assert.Equal(t, "outcome", settings[0].Value)
}
