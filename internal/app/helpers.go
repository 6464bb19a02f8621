package app

import (
	"fmt"
	"strings"

	"github.com/minhng/qaboard/internal/model"
)

// nextStatus returns the status following s in board-column order,
// wrapping around after the last column.
func nextStatus(s string) string {
	order := model.Statuses()
	for i, v := range order {
		if v == s {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

// formatSummary renders the issues-summary stat as display lines.
func formatSummary(counts []model.StatusCount) []string {
	lines := make([]string, 0, len(counts))
	for _, c := range counts {
		lines = append(lines, fmt.Sprintf(
			"%-12s %4d  (%.0f%%)",
			model.StatusLabel(c.Name), c.Value, c.Percentage,
		))
	}
	return lines
}

// joinNonEmpty joins the non-empty parts with the separator.
func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
