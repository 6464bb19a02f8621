package tasklist

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhng/qaboard/internal/board"
	"github.com/minhng/qaboard/internal/keys"
	"github.com/minhng/qaboard/internal/model"
)

// No due dates, so under due-date grouping everything lands in a single
// bucket and the cursor math is deterministic.
func listReports() []model.Report {
	base := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	return []model.Report{
		{ID: "1", Title: "login button misaligned", Status: model.StatusNew, Priority: model.PriorityHigh, Site: "shop", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "2", Title: "checkout 500s", Status: model.StatusInProgress, Priority: model.PriorityLow, Site: "blog", CreatedAt: base.Add(time.Hour)},
		{ID: "3", Title: "stale cache on search", Status: model.StatusDone, Priority: model.PriorityLow, Site: "shop", CreatedAt: base},
	}
}

func newList(t *testing.T) Model {
	t.Helper()
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetReports(listReports())
	return m
}

func typeKeys(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestTaskList_cursor_starts_past_group_header(t *testing.T) {
	m := newList(t)

	r, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "1", r.ID)
}

func TestTaskList_cursor_moves_over_reports_only(t *testing.T) {
	m := newList(t)

	m = typeKeys(m, "j")
	r, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "2", r.ID)

	m = typeKeys(m, "jj") // second j hits the end of the list
	r, _ = m.Selected()
	assert.Equal(t, "3", r.ID)

	m = typeKeys(m, "kk")
	r, _ = m.Selected()
	assert.Equal(t, "1", r.ID)
}

func TestTaskList_status_filter_toggles(t *testing.T) {
	m := newList(t)

	m = typeKeys(m, "2")
	r, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "2", r.ID)
	assert.Equal(t, []string{model.StatusInProgress}, m.Filter().Status)

	// Pressing the same key again removes the filter.
	m = typeKeys(m, "2")
	assert.Empty(t, m.Filter().Status)
	r, _ = m.Selected()
	assert.Equal(t, "1", r.ID)
}

func TestTaskList_priority_filter_cycles(t *testing.T) {
	m := newList(t)

	m = typeKeys(m, "p")
	assert.Equal(t, []string{model.PriorityUnassigned}, m.Filter().Priority)

	m = typeKeys(m, "p")
	require.Equal(t, []string{model.PriorityLow}, m.Filter().Priority)
	r, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "2", r.ID)

	// Stepping past the last priority clears the selection.
	for i := 0; i < len(model.Priorities())-1; i++ {
		m = typeKeys(m, "p")
	}
	assert.Empty(t, m.Filter().Priority)
}

func TestTaskList_site_filter_cycles(t *testing.T) {
	m := newList(t)

	m = typeKeys(m, "S")
	require.Equal(t, []string{"shop"}, m.Filter().Sites)
	r, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "1", r.ID)

	m = typeKeys(m, "S")
	assert.Equal(t, []string{"blog"}, m.Filter().Sites)

	m = typeKeys(m, "S")
	assert.Empty(t, m.Filter().Sites)
}

func TestTaskList_due_filter_cycles(t *testing.T) {
	m := newList(t)

	m = typeKeys(m, "D")
	assert.Equal(t, []string{board.BucketOverdue}, m.Filter().DueBuckets)

	// The loaded reports carry no due dates, so only the no-due bucket
	// matches anything.
	_, ok := m.Selected()
	assert.False(t, ok)

	for i := 0; i < len(board.DueBuckets())-1; i++ {
		m = typeKeys(m, "D")
	}
	require.Equal(t, []string{board.BucketNoDue}, m.Filter().DueBuckets)
	r, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "1", r.ID)

	m = typeKeys(m, "D")
	assert.Empty(t, m.Filter().DueBuckets)
}

func TestTaskList_clear_filters(t *testing.T) {
	m := newList(t)

	m = typeKeys(m, "13")
	assert.Len(t, m.Filter().Status, 2)

	m = typeKeys(m, "0")
	assert.False(t, m.Filter().Active())
}

func TestTaskList_sort_toggle_reverses_order(t *testing.T) {
	m := newList(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	r, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "3", r.ID, "oldest report first after the toggle")
}

func TestTaskList_search_filters_live(t *testing.T) {
	m := newList(t)

	m = typeKeys(m, "/")
	assert.True(t, m.Searching())

	m = typeKeys(m, "checkout")
	r, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "2", r.ID)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Searching())
	assert.Equal(t, "checkout", m.Filter().Query)

	// Esc from normal mode does not belong to this view; clearing is
	// done from search mode.
	m = typeKeys(m, "/")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.Filter().Query)
}

func TestTaskList_group_cycle_reaches_status_grouping(t *testing.T) {
	m := newList(t)

	seen := map[board.GroupKey]bool{m.groupBy: true}
	for i := 0; i < len(board.GroupKeys()); i++ {
		m = typeKeys(m, "g")
		seen[m.groupBy] = true
	}
	assert.True(t, seen[board.GroupByStatus])
	assert.True(t, seen[board.GroupBySite])
	assert.True(t, seen[board.GroupNone])
}

func TestTaskList_select_emits_report_id(t *testing.T) {
	m := newList(t)

	m = typeKeys(m, "j")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg := cmd()
	require.IsType(t, SelectedReportMsg{}, msg)
	assert.Equal(t, "2", msg.(SelectedReportMsg).ReportID)
}
