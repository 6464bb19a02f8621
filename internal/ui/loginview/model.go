// Package loginview collects backend credentials and performs the
// email/password sign-in, or creates a new account.
package loginview

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/minhng/qaboard/internal/gateway"
	"github.com/minhng/qaboard/internal/model"
	"github.com/minhng/qaboard/internal/theme"
)

// LoggedInMsg is dispatched after a successful sign-in or sign-up.
type LoggedInMsg struct {
	Token string
	User  *model.User
}

type loginResultMsg struct {
	token string
	user  *model.User
	err   error
}

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name     string
	email    string
	password string
}

// Model is the login view component.
type Model struct {
	api         *gateway.API
	form        *huh.Form
	fb          *formBindings
	registering bool
	busy        bool
	errText     string
	width       int
	height      int
}

// New creates a new login view model.
func New(api *gateway.API, width, height int) Model {
	m := Model{
		api:    api,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
	m.form = m.buildForm()
	return m
}

func (m Model) buildForm() *huh.Form {
	fields := []huh.Field{}
	if m.registering {
		fields = append(fields, huh.NewInput().
			Title("Name").
			Value(&m.fb.name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			}))
	}
	fields = append(fields,
		huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&m.fb.email).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("email is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password).
			Validate(func(s string) error {
				if s == "" {
					return fmt.Errorf("password is required")
				}
				return nil
			}),
	)
	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(60)
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the login view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if result, ok := msg.(loginResultMsg); ok {
		m.busy = false
		if result.err != nil {
			m.errText = result.err.Error()
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		return m, func() tea.Msg {
			return LoggedInMsg{Token: result.token, User: result.user}
		}
	}

	if m.busy {
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+r" {
		m.registering = !m.registering
		m.errText = ""
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.busy = true
		m.errText = ""
		api := m.api
		registering := m.registering
		name := strings.TrimSpace(m.fb.name)
		email := strings.TrimSpace(m.fb.email)
		password := m.fb.password
		return m, tea.Batch(cmd, func() tea.Msg {
			var (
				token string
				user  *model.User
				err   error
			)
			if registering {
				token, user, err = api.Register(
					context.Background(), name, email, password,
				)
			} else {
				token, user, err = api.Login(
					context.Background(), email, password,
				)
			}
			return loginResultMsg{token: token, user: user, err: err}
		})
	}
	return m, cmd
}

// View renders the login view.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title, busyText, hint := "Sign in", "Signing in...", "ctrl+r to create an account"
	if m.registering {
		title, busyText, hint = "Create account", "Creating account...", "ctrl+r to sign in instead"
	}

	var body string
	switch {
	case m.busy:
		body = theme.HelpStyle.Render(busyText)
	default:
		body = m.form.View()
		if m.errText != "" {
			errStyle := lipgloss.NewStyle().Foreground(theme.ColorRed)
			body = errStyle.Render(m.errText) + "\n\n" + body
		}
		body += "\n" + theme.HelpStyle.Render(hint)
	}

	content := titleStyle.Render(title) + "\n" + body
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
