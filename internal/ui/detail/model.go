// Package detail renders a single report with its metadata and
// discussion thread.
package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/minhng/qaboard/internal/keys"
	"github.com/minhng/qaboard/internal/model"
	"github.com/minhng/qaboard/internal/theme"
)

// BackMsg signals the parent to navigate back to the previous view.
type BackMsg struct{}

// Report actions requested from the detail view.
const (
	ActionComment  = "comment"
	ActionStatus   = "status"
	ActionPriority = "priority"
	ActionDueDate  = "dueDate"
	ActionDelete   = "delete"
)

// ActionMsg signals the parent to execute an action on the report.
type ActionMsg struct {
	Action   string
	ReportID string
}

// LoadedMsg carries a freshly fetched report and its comment thread.
type LoadedMsg struct {
	Report   *model.Report
	Comments []model.Comment
	Err      error
}

// Model is the report detail view component.
type Model struct {
	report   *model.Report
	comments []model.Comment
	viewport viewport.Model
	renderer *glamour.TermRenderer
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(minInt(width-4, 100)),
	)
	if err != nil {
		renderer = nil
	}

	return Model{
		viewport: vp,
		renderer: renderer,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err == nil {
			m.report = msg.Report
			m.comments = msg.Comments
			m.viewport.SetContent(m.renderContent())
			m.viewport.GotoTop()
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Comment):
			return m.action(ActionComment)

		case key.Matches(msg, m.keys.Move):
			return m.action(ActionStatus)

		case key.Matches(msg, m.keys.Priority):
			return m.action(ActionPriority)

		case key.Matches(msg, m.keys.DueDate):
			return m.action(ActionDueDate)

		case key.Matches(msg, m.keys.Delete):
			return m.action(ActionDelete)
		}
	}

	// Scrolling keys are handled by the viewport.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(name string) (Model, tea.Cmd) {
	if m.report == nil {
		return m, nil
	}
	id := m.report.ID
	return m, func() tea.Msg {
		return ActionMsg{Action: name, ReportID: id}
	}
}

// View renders the detail view.
func (m Model) View() string {
	centered := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading {
		return centered.Render("Loading report...")
	}
	if m.report == nil {
		return centered.Render("No report selected")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.report == nil {
		return ""
	}

	r := m.report
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(r.Title))

	statusBadge := theme.StatusStyle(r.Status).Render(model.StatusLabel(r.Status))
	priBadge := theme.PriorityStyle(r.Priority).Render(r.Priority)
	badgeLine := lipgloss.JoinHorizontal(lipgloss.Top, statusBadge, "  ", priBadge)
	sections = append(sections, badgeLine, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	meta := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, fmt.Sprintf(
			"%s %s",
			metaStyle.Render(fmt.Sprintf("%-10s", label+":")),
			valStyle.Render(value),
		))
	}

	meta("Site", r.Site)
	meta("Page", r.PagePath)
	meta("URL", r.URL)
	meta("Assignee", r.Assignee)
	meta("Author", r.Author)
	if !r.CreatedAt.IsZero() {
		meta("Created", r.CreatedAt.Format("2006-01-02 15:04"))
	}
	if r.DueDate != nil {
		due := r.DueDate.Format("2006-01-02")
		if r.Overdue(time.Now()) {
			due += theme.DueStyle("overdue").Render("  OVERDUE")
		}
		meta("Due", due)
	}
	if r.ImagePath != "" {
		meta("Screenshot", r.ImagePath)
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", minInt(m.width-4, 80)))
	sections = append(sections, "", separator, "")

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, headerStyle.Render("Description"))
	sections = append(sections, m.renderMarkdown(r.Comment))

	if len(m.comments) > 0 {
		sections = append(sections, "", separator, "")
		sections = append(sections, headerStyle.Render(
			fmt.Sprintf("Comments (%d)", countComments(m.comments)),
		))
		sections = append(sections, "")
		sections = append(sections, m.renderThread(m.comments, 0)...)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderMarkdown renders markdown text for the terminal, falling back
// to the raw text when rendering fails.
func (m Model) renderMarkdown(text string) string {
	if text == "" {
		return lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	}
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// renderThread renders a comment thread, indenting replies one level.
func (m Model) renderThread(comments []model.Comment, depth int) []string {
	authorStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
	timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	indent := strings.Repeat("  ", depth)

	var lines []string
	for _, c := range comments {
		header := fmt.Sprintf(
			"%s%s  %s",
			indent,
			authorStyle.Render(c.Author.Name),
			timeStyle.Render(relativeTime(c.CreatedAt)),
		)
		lines = append(lines, header)
		for _, bodyLine := range strings.Split(c.Content, "\n") {
			lines = append(lines, indent+bodyLine)
		}
		for _, a := range c.Attachments {
			lines = append(lines, indent+timeStyle.Render("attachment: "+a.Name))
		}
		lines = append(lines, "")
		if len(c.Replies) > 0 {
			lines = append(lines, m.renderThread(c.Replies, depth+1)...)
		}
	}
	return lines
}

// countComments counts a thread including nested replies.
func countComments(comments []model.Comment) int {
	n := 0
	for _, c := range comments {
		n += 1 + countComments(c.Replies)
	}
	return n
}

// SetReport updates the report being displayed and re-renders.
func (m *Model) SetReport(r *model.Report, comments []model.Comment) {
	m.report = r
	m.comments = comments
	m.loading = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// ReportID returns the identifier of the displayed report, if any.
func (m Model) ReportID() string {
	if m.report == nil {
		return ""
	}
	return m.report.ID
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
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
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02")
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
