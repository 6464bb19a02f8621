package tasklist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/minhng/qaboard/internal/board"
	"github.com/minhng/qaboard/internal/model"
	"github.com/minhng/qaboard/internal/theme"
)

// priorityLabel returns a short badge label for the given priority.
func priorityLabel(p string) string {
	switch p {
	case model.PriorityUrgent:
		return "P1"
	case model.PriorityHigh:
		return "P2"
	case model.PriorityMedium:
		return "P3"
	case model.PriorityLow:
		return "P4"
	default:
		return "P-"
	}
}

// reportLine renders a single report row for the grouped list.
func reportLine(r model.Report, selected bool, now time.Time) string {
	statusBadge := theme.StatusStyle(r.Status).Render(model.StatusLabel(r.Status))
	priBadge := theme.PriorityStyle(r.Priority).Render(priorityLabel(r.Priority))

	site := ""
	if r.Site != "" {
		site = lipgloss.NewStyle().
			Foreground(theme.ColorBlue).
			Render(" " + r.Site)
	}

	due := ""
	if r.DueDate != nil {
		bucket := board.DueBucketOf(r.DueDate, now)
		due = theme.DueStyle(bucket).Render(" due " + r.DueDate.Format("Jan 02"))
	}

	age := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("  " + relativeTime(r.CreatedAt))

	line := fmt.Sprintf("%s %s %s%s%s%s",
		statusBadge, priBadge, r.Title, site, due, age)

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// bucketHeader renders a group section header with its report count.
func bucketHeader(b board.Bucket) string {
	title := fmt.Sprintf("%s (%d)", b.Title, len(b.Reports))
	return theme.GroupHeaderStyle.Render(strings.ToUpper(title))
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
