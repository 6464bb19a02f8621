// Package boardview renders reports as a Kanban board with one column
// per status. Cards are moved between columns with a keyboard
// pick-up-and-drop flow.
package boardview

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/minhng/qaboard/internal/board"
	"github.com/minhng/qaboard/internal/keys"
	"github.com/minhng/qaboard/internal/model"
	"github.com/minhng/qaboard/internal/theme"
)

// OpenReportMsg is sent when the user opens a card's detail view.
type OpenReportMsg struct {
	ReportID string
}

// MoveRequestMsg is sent when a carried card is dropped. The app layer
// resolves it through the transition controller.
type MoveRequestMsg struct {
	Drop board.Drop
}

// carry tracks a picked-up card and where it came from.
type carry struct {
	reportID string
	source   board.DropTarget
}

// Model is the Kanban board view component.
type Model struct {
	columns []board.Bucket

	col int
	row int

	carrying *carry

	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new board model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init implements tea.Model. Report data arrives via SetReports.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetReports replaces the board contents, partitioned by status.
func (m *Model) SetReports(reports []model.Report) {
	m.columns = board.Partition(reports, board.GroupByStatus, time.Now())
	m.clamp()
}

// Carrying reports whether a card is currently picked up.
func (m Model) Carrying() bool {
	return m.carrying != nil
}

func (m *Model) clamp() {
	if m.col >= len(m.columns) {
		m.col = len(m.columns) - 1
	}
	if m.col < 0 {
		m.col = 0
	}
	n := m.columnLen(m.col)
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func (m Model) columnLen(col int) int {
	if col < 0 || col >= len(m.columns) {
		return 0
	}
	return len(m.columns[col].Reports)
}

// selected returns the report under the cursor, if any.
func (m Model) selected() (model.Report, bool) {
	if m.col < len(m.columns) && m.row < m.columnLen(m.col) {
		return m.columns[m.col].Reports[m.row], true
	}
	return model.Report{}, false
}

// Update handles messages for the board view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Left):
		if m.col > 0 {
			m.col--
			m.clamp()
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Right):
		if m.col < len(m.columns)-1 {
			m.col++
			m.clamp()
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Down):
		if m.row < m.columnLen(m.col)-1 {
			m.row++
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Move):
		return m.handleMoveKey()

	case key.Matches(keyMsg, m.keys.Back):
		if m.carrying != nil {
			// Cancelled drop. A nil destination is a no-op downstream.
			d := board.Drop{
				ReportID: m.carrying.reportID,
				Source:   m.carrying.source,
				Dest:     nil,
			}
			m.carrying = nil
			return m, func() tea.Msg { return MoveRequestMsg{Drop: d} }
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Select):
		if m.carrying != nil {
			return m, nil
		}
		if r, ok := m.selected(); ok {
			return m, func() tea.Msg {
				return OpenReportMsg{ReportID: r.ID}
			}
		}
		return m, nil
	}

	return m, nil
}

// handleMoveKey picks up the card under the cursor, or drops the
// carried card at the cursor position.
func (m Model) handleMoveKey() (Model, tea.Cmd) {
	if m.carrying == nil {
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.carrying = &carry{
			reportID: r.ID,
			source: board.DropTarget{
				Bucket: m.columns[m.col].Key,
				Index:  m.row,
			},
		}
		return m, nil
	}

	d := board.Drop{
		ReportID: m.carrying.reportID,
		Source:   m.carrying.source,
		Dest: &board.DropTarget{
			Bucket: m.columns[m.col].Key,
			Index:  m.row,
		},
	}
	m.carrying = nil
	return m, func() tea.Msg { return MoveRequestMsg{Drop: d} }
}

// View renders the board columns side by side.
func (m Model) View() string {
	if len(m.columns) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No reports.")
	}

	colWidth := m.width/len(m.columns) - 4
	if colWidth < 12 {
		colWidth = 12
	}

	rendered := make([]string, 0, len(m.columns))
	for ci, col := range m.columns {
		rendered = append(rendered, m.renderColumn(ci, col, colWidth))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// renderColumn renders one status column.
func (m Model) renderColumn(ci int, col board.Bucket, width int) string {
	header := theme.StatusStyle(col.Key).
		Render(fmt.Sprintf("%s (%d)", col.Title, len(col.Reports)))

	lines := []string{header}
	now := time.Now()
	for ri, r := range col.Reports {
		lines = append(lines, m.renderCard(ci, ri, r, width, now))
	}

	style := theme.ColumnStyle
	if ci == m.col {
		style = theme.FocusedColumnStyle
	}
	return style.
		Width(width).
		Height(m.height - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderCard renders one report card line.
func (m Model) renderCard(ci, ri int, r model.Report, width int, now time.Time) string {
	title := r.Title
	if maxLen := width - 6; maxLen > 0 {
		if runes := []rune(title); len(runes) > maxLen {
			title = string(runes[:maxLen-1]) + "…"
		}
	}

	line := theme.PriorityStyle(r.Priority).Render("●") + " " + title
	if r.DueDate != nil {
		bucket := board.DueBucketOf(r.DueDate, now)
		if bucket == board.BucketOverdue {
			line += theme.DueStyle(bucket).Render(" !")
		}
	}

	isCursor := ci == m.col && ri == m.row
	if m.carrying != nil && m.carrying.reportID == r.ID {
		return theme.CarryStyle.Render(line)
	}
	if isCursor {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
