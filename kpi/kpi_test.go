package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/leadline/models"
)

func money(v float64) *float64 { return &v }

var day = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) // a Wednesday

func TestAggregateConversion(t *testing.T) {
	acts := []models.Activity{
		{Type: models.ActivityDial, Count: 10, Date: day},
		{Type: models.ActivityClose, Count: 2, Date: day, Revenue: money(1200)},
	}
	res := Aggregate(acts, RangeFromPreset("today", day), ByType)

	assert.Equal(t, 10, res.Dials)
	assert.Equal(t, 2, res.Closes)
	assert.Equal(t, 1200.0, res.Revenue)
	assert.Equal(t, "20.0", res.ConversionRate)
}

func TestAggregateZeroDials(t *testing.T) {
	acts := []models.Activity{{Type: models.ActivityClose, Count: 1, Date: day}}
	res := Aggregate(acts, RangeFromPreset("today", day), ByType)
	assert.Equal(t, "0", res.ConversionRate)

	assert.Equal(t, "0", Aggregate(nil, RangeFromPreset("today", day), ByType).ConversionRate)
}

func TestAggregateFiltersByRange(t *testing.T) {
	acts := []models.Activity{
		{Type: models.ActivityDial, Count: 5, Date: day},
		{Type: models.ActivityDial, Count: 7, Date: day.AddDate(0, 0, -3)},
		{Type: models.ActivityDial, Count: 100, Date: day.AddDate(0, 0, -40)},
	}
	assert.Equal(t, 5, Aggregate(acts, RangeFromPreset("today", day), ByType).Dials)
	assert.Equal(t, 12, Aggregate(acts, RangeFromPreset("7d", day), ByType).Dials)
	assert.Equal(t, 12, Aggregate(acts, RangeFromPreset("30d", day), ByType).Dials)
}

func TestAggregateByOutcome(t *testing.T) {
	acts := []models.Activity{
		{Type: models.ActivityCall, Outcome: models.ActivityDial, Date: day},
		{Type: models.ActivityCall, Outcome: models.ActivityConnect, Date: day},
		{Type: models.ActivityCall, Outcome: models.ActivityClose, Date: day, Revenue: money(300)},
		{Type: models.ActivityDial, Count: 50, Date: day},
		{Type: models.ActivityRevenue, Date: day, Revenue: money(50)},
	}

	byOutcome := Aggregate(acts, RangeFromPreset("today", day), ByOutcome)
	assert.Equal(t, 1, byOutcome.Dials)
	assert.Equal(t, 1, byOutcome.Connects)
	assert.Equal(t, 1, byOutcome.Closes)
	assert.Equal(t, 350.0, byOutcome.Revenue)
	assert.Equal(t, "100.0", byOutcome.ConversionRate)

	byType := Aggregate(acts, RangeFromPreset("today", day), ByType)
	assert.Equal(t, 50, byType.Dials)
	assert.Equal(t, 0, byType.Closes)
	assert.Equal(t, 50.0, byType.Revenue)
}

func TestAggregateIsDeterministic(t *testing.T) {
	acts := []models.Activity{
		{Type: models.ActivityDial, Count: 3, Date: day},
		{Type: models.ActivityConnect, Count: 1, Date: day},
	}
	r := RangeFromPreset("week", day)
	assert.Equal(t, Aggregate(acts, r, ByType), Aggregate(acts, r, ByType))
}

func TestRangeFromPreset(t *testing.T) {
	week := RangeFromPreset("week", day)
	assert.Equal(t, time.Monday, week.From.Weekday())
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), week.From)

	sunday := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), RangeFromPreset("week", sunday).From)

	seven := RangeFromPreset("7d", day)
	assert.Equal(t, time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC), seven.From)
	assert.True(t, seven.Contains(time.Date(2026, 10, 14, 23, 59, 59, 0, time.UTC)))

	assert.Equal(t, RangeFromPreset("today", day), RangeFromPreset("fortnight", day))
}

func TestCustomRangeSwaps(t *testing.T) {
	r := CustomRange(day, day.AddDate(0, 0, -2))
	assert.True(t, r.From.Before(r.To))
	assert.True(t, r.Contains(day.AddDate(0, 0, -1)))
}

func TestParseBasis(t *testing.T) {
	b, err := ParseBasis("")
	require.NoError(t, err)
	assert.Equal(t, ByType, b)

	b, err = ParseBasis("outcome")
	require.NoError(t, err)
	assert.Equal(t, ByOutcome, b)

	_, err = ParseBasis("vibes")
	assert.Error(t, err)
}

func TestRangeForDays(t *testing.T) {
	r := RangeForDays(3, day)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), r.From)
	assert.True(t, r.Contains(day))
	assert.False(t, r.Contains(day.AddDate(0, 0, 1)))

	single := RangeForDays(0, day)
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), single.From)
}
