// Package tasklist renders the user's assigned reports as a grouped,
// filterable list.
package tasklist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/minhng/qaboard/internal/board"
	"github.com/minhng/qaboard/internal/keys"
	"github.com/minhng/qaboard/internal/model"
	"github.com/minhng/qaboard/internal/theme"
)

// SelectedReportMsg is sent when the user opens a report's detail view.
type SelectedReportMsg struct {
	ReportID string
}

// row is one rendered line: either a bucket header or a report.
type row struct {
	header string
	report *model.Report
}

// Model is the grouped task list view component.
type Model struct {
	reports []model.Report

	filter  board.FilterState
	dir     board.SortDirection
	groupBy board.GroupKey

	rows   []row
	cursor int

	searchMode  bool
	searchInput textinput.Model

	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new task list model.
func New(k *keys.KeyMap, width, height int) Model {
	si := textinput.New()
	si.Placeholder = "search reports..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		dir:         board.NewestFirst,
		groupBy:     board.GroupByDueDate,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init implements tea.Model. Report data arrives via SetReports.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetReports replaces the underlying report set and rebuilds the rows.
func (m *Model) SetReports(reports []model.Report) {
	m.reports = reports
	m.rebuild()
}

// Filter returns the current filter state, for the status bar.
func (m Model) Filter() board.FilterState {
	return m.filter
}

// Searching reports whether the search input currently has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// rebuild recomputes the visible rows from the report set, the filter,
// and the grouping. The cursor is clamped to the new row count.
func (m *Model) rebuild() {
	now := time.Now()
	visible := board.Apply(m.reports, m.filter, m.dir, now)
	buckets := board.Partition(visible, m.groupBy, now)

	m.rows = m.rows[:0]
	for _, b := range buckets {
		if len(b.Reports) == 0 {
			continue
		}
		if m.groupBy != board.GroupNone {
			m.rows = append(m.rows, row{header: bucketHeader(b)})
		}
		for i := range b.Reports {
			m.rows = append(m.rows, row{report: &b.Reports[i]})
		}
	}
	m.clampCursor()
}

// clampCursor keeps the cursor on a report row.
func (m *Model) clampCursor() {
	if len(m.rows) == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.rows[m.cursor].report == nil {
		m.moveCursor(1)
	}
}

// moveCursor advances the cursor by delta, skipping header rows.
func (m *Model) moveCursor(delta int) {
	i := m.cursor
	for {
		i += delta
		if i < 0 || i >= len(m.rows) {
			return
		}
		if m.rows[i].report != nil {
			m.cursor = i
			return
		}
	}
}

// Selected returns the report under the cursor, if any.
func (m Model) Selected() (model.Report, bool) {
	if m.cursor < len(m.rows) && m.rows[m.cursor].report != nil {
		return *m.rows[m.cursor].report, true
	}
	return model.Report{}, false
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.searchMode {
		return m.handleSearchKeys(keyMsg)
	}
	return m.handleNormalKeys(keyMsg)
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.filter.Query = m.searchInput.Value()
		m.rebuild()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Query = ""
		m.rebuild()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.filter.Query = m.searchInput.Value()
	m.rebuild()
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if r, ok := m.Selected(); ok {
			return m, func() tea.Msg {
				return SelectedReportMsg{ReportID: r.ID}
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.FilterNew):
		m.filter.Status = board.Toggle(m.filter.Status, model.StatusNew)
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.FilterInProgress):
		m.filter.Status = board.Toggle(m.filter.Status, model.StatusInProgress)
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.FilterDone):
		m.filter.Status = board.Toggle(m.filter.Status, model.StatusDone)
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.FilterPriority):
		m.filter.Priority = cycleSelection(m.filter.Priority, model.Priorities())
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.FilterSite):
		m.filter.Sites = cycleSelection(m.filter.Sites, m.siteOptions())
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.FilterDue):
		m.filter.DueBuckets = cycleSelection(m.filter.DueBuckets, board.DueBuckets())
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.ClearFilters):
		m.filter.Clear()
		m.searchInput.Reset()
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.CycleGroup):
		m.groupBy = nextGroup(m.groupBy)
		m.rebuild()
		return m, nil

	case key.Matches(msg, m.keys.CycleSort):
		if m.dir == board.NewestFirst {
			m.dir = board.OldestFirst
		} else {
			m.dir = board.NewestFirst
		}
		m.rebuild()
		return m, nil
	}

	return m, nil
}

// cycleSelection steps a single-value filter selection through the
// options and then back to empty.
func cycleSelection(current, options []string) []string {
	if len(options) == 0 {
		return nil
	}
	if len(current) == 0 {
		return []string{options[0]}
	}
	for i, o := range options {
		if o == current[0] {
			if i+1 < len(options) {
				return []string{options[i+1]}
			}
			return nil
		}
	}
	return []string{options[0]}
}

// siteOptions lists the sites of the loaded reports in first
// appearance order.
func (m Model) siteOptions() []string {
	seen := make(map[string]bool)
	var sites []string
	for _, r := range m.reports {
		if r.Site == "" || seen[r.Site] {
			continue
		}
		seen[r.Site] = true
		sites = append(sites, r.Site)
	}
	return sites
}

// nextGroup cycles through the available grouping keys.
func nextGroup(g board.GroupKey) board.GroupKey {
	order := board.GroupKeys()
	for i, k := range order {
		if k == g {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

// View renders the grouped task list.
func (m Model) View() string {
	var sections []string

	if m.searchMode {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View()))
	} else {
		sections = append(sections, m.renderModeLine())
	}

	if len(m.rows) == 0 {
		sections = append(sections, m.renderEmptyState())
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	listHeight := m.height - 1
	scroll := m.scrollOffset(listHeight)

	now := time.Now()
	end := scroll + listHeight
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := scroll; i < end; i++ {
		r := m.rows[i]
		if r.report == nil {
			sections = append(sections, r.header)
			continue
		}
		sections = append(sections, reportLine(*r.report, i == m.cursor, now))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// scrollOffset returns the first visible row so the cursor stays on
// screen.
func (m Model) scrollOffset(listHeight int) int {
	if listHeight <= 0 || m.cursor < listHeight {
		return 0
	}
	return m.cursor - listHeight + 1
}

// renderModeLine shows the active grouping, sort order, and filters.
func (m Model) renderModeLine() string {
	dir := "newest first"
	if m.dir == board.OldestFirst {
		dir = "oldest first"
	}

	parts := []string{
		fmt.Sprintf("group: %s", m.groupBy),
		fmt.Sprintf("sort: %s", dir),
	}
	if m.filter.Active() {
		n := len(m.filter.Status) + len(m.filter.Priority) +
			len(m.filter.Assignee) + len(m.filter.Sites) +
			len(m.filter.DueBuckets)
		if m.filter.Query != "" {
			n++
		}
		parts = append(parts, fmt.Sprintf("filters: %d", n))
	}
	return theme.HelpStyle.Render(strings.Join(parts, "  ·  "))
}

// renderEmptyState shows guidance text when no reports are visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height - 1).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filter.Active() {
		return style.Render("No matching reports.\nPress 0 to clear filters.")
	}
	return style.Render("No reports assigned to you.")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.searchInput.Width = width - 4
}
