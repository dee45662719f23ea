// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Provides ASCII dashboard of KPIs, pipeline and task load
package viz

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/kpi"
	"github.com/harperreed/leadline/models"
)

type DashboardStats struct {
	// KPI windows, keyed today, week and 30d
	KPIs map[string]kpi.Result

	// Contacts per stage
	PipelineByStage map[string]int
	TotalContacts   int

	// Task load
	OpenTasks    int
	OverdueTasks int

	// Leads still in play with no contact in 30+ days
	StaleLeads []StaleLead
}

// KPIWindows is the display order of the KPI rows.
var KPIWindows = []string{"today", "week", "30d"}

type StaleLead struct {
	Name      string
	DaysSince int
}

func GenerateDashboardStats(database *sql.DB, basis kpi.Basis, now time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{
		KPIs: make(map[string]kpi.Result, len(KPIWindows)),
	}

	widest := kpi.RangeFromPreset("30d", now)
	activities, err := db.FindActivities(database, widest.From, widest.To)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	for _, window := range KPIWindows {
		r := kpi.RangeFromPreset(window, now)
		stats.KPIs[window] = kpi.Aggregate(activities, r, basis)
	}

	stats.PipelineByStage, err = db.CountContactsByStage(database)
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}
	for _, n := range stats.PipelineByStage {
		stats.TotalContacts += n
	}

	tasks, err := db.FindTasks(database, models.TaskFilter{Status: []string{models.TaskOpen}}, 10000)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	stats.OpenTasks = len(tasks)
	for _, task := range tasks {
		if task.DueAt != nil && task.DueAt.Before(now) {
			stats.OverdueTasks++
		}
	}

	contacts, err := db.FindContacts(database, "", "", 10000)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}
	for _, contact := range contacts {
		if contact.Stage == models.StageSold || contact.Stage == models.StageLost {
			continue
		}
		if contact.LastContactedAt == nil {
			stats.StaleLeads = append(stats.StaleLeads, StaleLead{
				Name:      contact.FullName(),
				DaysSince: -1, // Never contacted
			})
			continue
		}
		daysSince := int(now.Sub(*contact.LastContactedAt).Hours() / 24)
		if daysSince > 30 {
			stats.StaleLeads = append(stats.StaleLeads, StaleLead{
				Name:      contact.FullName(),
				DaysSince: daysSince,
			})
		}
	}

	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	// Header
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  LEADLINE DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("KPIS\n")
	out.WriteString(fmt.Sprintf("  %-6s %6s %8s %6s %10s %6s\n", "", "dials", "connects", "closes", "revenue", "conv%"))
	for _, window := range KPIWindows {
		k := stats.KPIs[window]
		out.WriteString(fmt.Sprintf("  %-6s %6d %8d %6d %10.2f %6s\n",
			window, k.Dials, k.Connects, k.Closes, k.Revenue, k.ConversionRate))
	}
	out.WriteString("\n")

	out.WriteString("PIPELINE OVERVIEW\n")
	renderPipeline(&out, stats.PipelineByStage)
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  📇 %d leads  ✅ %d open tasks  ⏰ %d overdue\n\n",
		stats.TotalContacts, stats.OpenTasks, stats.OverdueTasks))

	if len(stats.StaleLeads) > 0 || stats.OverdueTasks > 0 {
		out.WriteString("NEEDS ATTENTION\n")

		if len(stats.StaleLeads) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d leads - no contact in 30+ days\n", len(stats.StaleLeads)))
		}

		if stats.OverdueTasks > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d tasks past due\n", stats.OverdueTasks))
		}
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, pipeline map[string]int) {
	// Find max count for scaling
	maxCount := 0
	for _, n := range pipeline {
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, stage := range models.Stages {
		count := pipeline[stage]

		// Calculate bar length (0-10 blocks)
		barLength := (count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-10s %s  %2d\n", stage, bar, count))
	}
}
