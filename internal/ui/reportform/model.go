// Package reportform hosts the small huh forms used to edit a report
// from the detail view: comment, priority, due date, and the delete
// confirmation.
package reportform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/minhng/qaboard/internal/model"
	"github.com/minhng/qaboard/internal/theme"
)

// CommentSubmittedMsg is dispatched when a comment form is submitted.
type CommentSubmittedMsg struct {
	ReportID string
	Content  string
}

// PrioritySubmittedMsg is dispatched when a new priority is chosen.
type PrioritySubmittedMsg struct {
	ReportID string
	Priority string
}

// DueDateSubmittedMsg is dispatched when the due date is changed.
// A nil Due clears the date.
type DueDateSubmittedMsg struct {
	ReportID string
	Due      *time.Time
}

// DeleteConfirmedMsg is dispatched when a delete is confirmed.
type DeleteConfirmedMsg struct {
	ReportID string
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

type formKind int

const (
	kindNone formKind = iota
	kindComment
	kindPriority
	kindDueDate
	kindDelete
)

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	content  string
	priority string
	dueDate  string
	confirm  bool
}

// Model is the report form component.
type Model struct {
	kind     formKind
	reportID string
	title    string
	form     *huh.Form
	fb       *formBindings
	width    int
	height   int
}

// New creates a new report form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Active reports whether a form is currently open.
func (m Model) Active() bool {
	return m.kind != kindNone
}

// StartComment opens the comment composer for the given report.
func (m *Model) StartComment(r model.Report) tea.Cmd {
	m.kind = kindComment
	m.reportID = r.ID
	m.title = r.Title
	m.fb.content = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Comment").
				Placeholder("Write a comment (markdown supported)...").
				Value(&m.fb.content).
				Validate(validateRequired("Comment")),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// StartPriority opens the priority selector for the given report.
func (m *Model) StartPriority(r model.Report) tea.Cmd {
	m.kind = kindPriority
	m.reportID = r.ID
	m.title = r.Title
	m.fb.priority = r.Priority

	opts := make([]huh.Option[string], 0, len(model.Priorities()))
	for _, p := range model.Priorities() {
		opts = append(opts, huh.NewOption(p, p))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Priority").
				Options(opts...).
				Value(&m.fb.priority),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// StartDueDate opens the due date editor for the given report.
func (m *Model) StartDueDate(r model.Report) tea.Cmd {
	m.kind = kindDueDate
	m.reportID = r.ID
	m.title = r.Title
	if r.DueDate != nil {
		m.fb.dueDate = r.DueDate.Format("2006-01-02")
	} else {
		m.fb.dueDate = ""
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Due date").
				Placeholder("YYYY-MM-DD (empty clears the date)").
				Value(&m.fb.dueDate).
				Validate(validateOptionalDate),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// StartDelete opens the delete confirmation for the given report.
func (m *Model) StartDelete(r model.Report) tea.Cmd {
	m.kind = kindDelete
	m.reportID = r.ID
	m.title = r.Title
	m.fb.confirm = false

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", r.Title)).
				Description("The report and its comments are removed on the server.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// Update handles messages for the report form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.handleSubmit(cmd)
	}
	if m.form.State == huh.StateAborted {
		m.kind = kindNone
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

func (m Model) handleSubmit(cmd tea.Cmd) (Model, tea.Cmd) {
	kind := m.kind
	id := m.reportID
	fb := *m.fb
	m.kind = kindNone

	var result tea.Cmd
	switch kind {
	case kindComment:
		result = func() tea.Msg {
			return CommentSubmittedMsg{ReportID: id, Content: fb.content}
		}
	case kindPriority:
		result = func() tea.Msg {
			return PrioritySubmittedMsg{ReportID: id, Priority: fb.priority}
		}
	case kindDueDate:
		result = func() tea.Msg {
			var due *time.Time
			if s := strings.TrimSpace(fb.dueDate); s != "" {
				if t, err := time.Parse("2006-01-02", s); err == nil {
					due = &t
				}
			}
			return DueDateSubmittedMsg{ReportID: id, Due: due}
		}
	case kindDelete:
		if !fb.confirm {
			result = func() tea.Msg { return CancelMsg{} }
			break
		}
		result = func() tea.Msg {
			return DeleteConfirmedMsg{ReportID: id}
		}
	}
	return m, tea.Batch(cmd, result)
}

// View renders the report form.
func (m Model) View() string {
	if m.form == nil || m.kind == kindNone {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(m.title) + "\n" + m.form.View()
	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
