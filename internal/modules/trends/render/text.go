package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aristath/healthtrends/internal/modules/trends"
)

// Text renders the report for a terminal or log file.
func Text(r *trends.Report) string {
	if r == nil || r.Insufficient {
		return NotEnoughData + "\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Daily Health Trends (generated %s)\n", r.GeneratedAt.Format(dateLayout))
	fmt.Fprintf(&sb, "Last %d days: %s (%d days)\n", r.RecentWindowSize, formatRange(r.RecentRange), r.RecentDays)
	fmt.Fprintf(&sb, "Baseline:     %s (%d days)\n\n", formatRange(r.BaselineRange), r.BaselineDays)

	for _, c := range r.Comparisons {
		fmt.Fprintf(&sb, "%s %-18s %10s vs %-10s",
			c.Icon, c.Name, FormatAverage(c, c.Recent), FormatAverage(c, c.Baseline))
		if change := ChangeAnnotation(c); change != "" {
			fmt.Fprintf(&sb, " %s (%s)", change, c.Trend)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// JSON renders the report as an indented JSON document.
func JSON(r *trends.Report) ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return b, nil
}

func formatRange(dr trends.DateRange) string {
	if dr.From.IsZero() {
		return "none"
	}
	return dr.From.String() + " .. " + dr.To.String()
}
