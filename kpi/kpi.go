// ABOUTME: KPI aggregation over activity records
// ABOUTME: Dials, connects, closes, revenue and conversion over a date range
package kpi

import (
	"fmt"
	"strconv"
	"time"

	"github.com/harperreed/leadline/models"
)

// Basis selects which activity field classifies an activity as a dial,
// connect or close. Activities logged through the quick KPI buttons carry the
// category in Type; call logs carry it in Outcome.
type Basis string

const (
	ByType    Basis = "type"
	ByOutcome Basis = "outcome"
)

// ParseBasis accepts "type" or "outcome"; empty means ByType.
func ParseBasis(s string) (Basis, error) {
	switch Basis(s) {
	case "", ByType:
		return ByType, nil
	case ByOutcome:
		return ByOutcome, nil
	}
	return "", fmt.Errorf("unknown kpi basis %q", s)
}

type Result struct {
	Dials          int     `json:"dials"`
	Connects       int     `json:"connects"`
	Closes         int     `json:"closes"`
	Revenue        float64 `json:"revenue"`
	ConversionRate string  `json:"conversionRate"`
}

// Aggregate sums activities whose Date lies in r (inclusive). Counts default
// to 1 when unset. Revenue comes from CLOSE and REVENUE activities.
func Aggregate(activities []models.Activity, r Range, basis Basis) Result {
	var res Result
	for _, a := range activities {
		if !r.Contains(a.Date) {
			continue
		}
		count := a.Count
		if count <= 0 {
			count = 1
		}

		category := a.Type
		if basis == ByOutcome {
			category = a.Outcome
		}
		switch category {
		case models.ActivityDial:
			res.Dials += count
		case models.ActivityConnect:
			res.Connects += count
		case models.ActivityClose:
			res.Closes += count
		}

		if a.Revenue != nil && (category == models.ActivityClose || a.Type == models.ActivityRevenue) {
			res.Revenue += *a.Revenue
		}
	}
	res.ConversionRate = ConversionRate(res.Closes, res.Dials)
	return res
}

// ConversionRate is closes/dials as a percentage with one decimal, or "0"
// when there are no dials.
func ConversionRate(closes, dials int) string {
	if dials <= 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(closes)/float64(dials)*100, 'f', 1, 64)
}

// Range is an inclusive time window.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// RangeFromPreset maps today, week (Monday start), 7d and 30d to a range
// ending at the end of today. Unknown presets mean today.
func RangeFromPreset(preset string, now time.Time) Range {
	switch preset {
	case "week":
		offset := (int(now.Weekday()) + 6) % 7 // days since Monday
		return Range{From: startOfDay(now.AddDate(0, 0, -offset)), To: endOfDay(now)}
	case "7d":
		return RangeForDays(7, now)
	case "30d":
		return RangeForDays(30, now)
	}
	return Range{From: startOfDay(now), To: endOfDay(now)}
}

// RangeForDays covers the last n calendar days including today.
func RangeForDays(days int, now time.Time) Range {
	if days < 1 {
		days = 1
	}
	return Range{From: startOfDay(now.AddDate(0, 0, -(days - 1))), To: endOfDay(now)}
}

// CustomRange spans whole days from..to, swapping them if reversed.
func CustomRange(from, to time.Time) Range {
	if to.Before(from) {
		from, to = to, from
	}
	return Range{From: startOfDay(from), To: endOfDay(to)}
}
