// Package report renders dashboard metrics for the terminal and as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dyluth/roster/internal/dashboard"
	"github.com/dyluth/roster/internal/printer"
	"github.com/dyluth/roster/internal/timespec"
	"github.com/dyluth/roster/pkg/state"
	"github.com/olekukonko/tablewriter"
)

// Dashboard is everything the dashboard view shows.
type Dashboard struct {
	Workspace string                  `json:"workspace"`
	Metrics   dashboard.Metrics       `json:"metrics"`
	Legend    []dashboard.LegendEntry `json:"legend"`
}

// FormatTable writes the dashboard as a set of tables: summary figures,
// upcoming deadlines, unpaid projects and the color legend.
func FormatTable(w io.Writer, d Dashboard) error {
	m := d.Metrics
	fmt.Fprintf(w, "Dashboard for workspace '%s' (as of %s)\n\n", d.Workspace, m.AsOf.Format(timespec.DateLayout))

	summary := tablewriter.NewWriter(w)
	summary.Header("METRIC", "VALUE")
	rows := [][]string{
		{"Talents", strconv.Itoa(m.TalentCount)},
		{"Active projects", strconv.Itoa(m.ActiveProjectCount)},
		{"Utilization", fmt.Sprintf("%d%%", m.Utilization)},
		{"Upcoming deadlines", strconv.Itoa(len(m.UpcomingDeadlines))},
		{"Unpaid projects", strconv.Itoa(m.Unpaid.Count)},
		{"Unpaid budget", formatBudget(m.Unpaid.TotalBudget)},
	}
	for _, row := range rows {
		if err := summary.Append(row); err != nil {
			return fmt.Errorf("failed to add summary row: %w", err)
		}
	}
	if err := summary.Render(); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}

	fmt.Fprintln(w, "\nUpcoming deadlines")
	if len(m.UpcomingDeadlines) == 0 {
		fmt.Fprintln(w, "No upcoming deadlines")
	} else {
		deadlines := tablewriter.NewWriter(w)
		deadlines.Header("PROJECT", "STATUS", "DUE", "DAYS LEFT")
		for _, p := range m.UpcomingDeadlines {
			row := []string{formatName(p.Name), formatStatus(p.Status), p.EndDate, formatDaysLeft(m, p.EndDate)}
			if err := deadlines.Append(row); err != nil {
				return fmt.Errorf("failed to add deadline row: %w", err)
			}
		}
		if err := deadlines.Render(); err != nil {
			return fmt.Errorf("failed to render deadlines: %w", err)
		}
	}

	fmt.Fprintln(w, "\nUnpaid projects")
	if m.Unpaid.Count == 0 {
		fmt.Fprintln(w, "All completed projects are paid")
	} else {
		unpaid := tablewriter.NewWriter(w)
		unpaid.Header("PROJECT", "ENDED", "BUDGET")
		for _, p := range m.Unpaid.Projects {
			row := []string{formatName(p.Name), orDash(p.EndDate), formatBudget(p.Budget)}
			if err := unpaid.Append(row); err != nil {
				return fmt.Errorf("failed to add unpaid row: %w", err)
			}
		}
		if err := unpaid.Render(); err != nil {
			return fmt.Errorf("failed to render unpaid projects: %w", err)
		}
		fmt.Fprintf(w, "Total outstanding: %s\n", formatBudget(m.Unpaid.TotalBudget))
	}

	if len(d.Legend) > 0 {
		fmt.Fprintln(w, "\nLegend")
		for _, e := range d.Legend {
			fmt.Fprintf(w, "%s %-8s %s\n", printer.Swatch(e.Color), e.Kind, e.Name)
		}
	}

	return nil
}

// FormatJSON writes the dashboard as pretty-printed JSON.
func FormatJSON(w io.Writer, d Dashboard) error {
	if d.Legend == nil {
		d.Legend = []dashboard.LegendEntry{}
	}
	if d.Metrics.UpcomingDeadlines == nil {
		d.Metrics.UpcomingDeadlines = []state.Project{}
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// formatName truncates long project names for table display.
func formatName(name string) string {
	r := []rune(name)
	if len(r) > 30 {
		return string(r[:27]) + "..."
	}
	return name
}

func formatStatus(s state.ProjectStatus) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

// formatDaysLeft shows the distance from the metrics' as-of day to end.
func formatDaysLeft(m dashboard.Metrics, end string) string {
	due, err := timespec.ParseDate(end, m.AsOf.Location())
	if err != nil {
		return "-"
	}
	switch n := timespec.DaysBetween(m.AsOf, due); n {
	case 0:
		return "today"
	case 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", n)
	}
}

// formatBudget renders an amount with thousands separators and two decimals.
func formatBudget(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := int64(math.Round(v * 100))
	whole := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return fmt.Sprintf("%s%s.%02d", sign, b.String(), cents%100)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
