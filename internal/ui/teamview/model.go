// Package teamview lists the team's members and sends email invites.
package teamview

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/minhng/qaboard/internal/gateway"
	"github.com/minhng/qaboard/internal/keys"
	"github.com/minhng/qaboard/internal/model"
	"github.com/minhng/qaboard/internal/theme"
)

// InviteSentMsg signals that an invitation was delivered.
type InviteSentMsg struct {
	Email string
}

type teamMode int

const (
	modeList teamMode = iota
	modeInvite
)

type membersLoadedMsg struct {
	members []model.Member
	err     error
}

type inviteResultMsg struct {
	email string
	err   error
}

// emailPattern is deliberately loose: one @, no whitespace, a dot in
// the domain. The server does the authoritative validation.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email string
}

// Model is the team view component.
type Model struct {
	mode        teamMode
	api         *gateway.API
	keys        *keys.KeyMap
	teamID      string
	members     []model.Member
	selectedIdx int
	form        *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new team view model.
func New(api *gateway.API, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode: modeList,
		api:  api,
		keys: k,
		fb:   &formBindings{},
		width: width, height: height,
	}
}

// SetTeam sets the team whose members are shown.
func (m *Model) SetTeam(teamID string) {
	m.teamID = teamID
}

// Init loads the member list.
func (m Model) Init() tea.Cmd {
	return m.loadMembers()
}

// Update handles messages for the team view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case membersLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.members = msg.members
		if m.selectedIdx >= len(m.members) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.members) - 1
		}
		return m, nil

	case inviteResultMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Invitation sent to %s", msg.email)
		return m, tea.Batch(m.loadMembers(), func() tea.Msg {
			return InviteSentMsg{Email: msg.email}
		})

	case tea.KeyMsg:
		if m.mode == modeInvite {
			return m.updateInvite(msg)
		}
		return m.handleListKeys(msg)
	}

	if m.mode == modeInvite && m.form != nil {
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedIdx < len(m.members)-1 {
			m.selectedIdx++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
		return m, nil

	case msg.String() == "i":
		m.startInvite()
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadMembers()
	}
	return m, nil
}

func (m *Model) startInvite() {
	m.fb.email = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Invite by email").
				Placeholder("teammate@example.com").
				Value(&m.fb.email).
				Validate(validateEmail),
		),
	)
	m.mode = modeInvite
}

func (m Model) updateInvite(msg tea.Msg) (Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		email := strings.TrimSpace(m.fb.email)
		api := m.api
		teamID := m.teamID
		return m, tea.Batch(cmd, func() tea.Msg {
			err := api.InviteByEmail(context.Background(), teamID, email)
			return inviteResultMsg{email: email, err: err}
		})
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// loadMembers fetches the team member list.
func (m Model) loadMembers() tea.Cmd {
	api := m.api
	teamID := m.teamID
	return func() tea.Msg {
		if teamID == "" {
			return membersLoadedMsg{err: fmt.Errorf("no team selected")}
		}
		members, err := api.ListTeamMembers(context.Background(), teamID)
		return membersLoadedMsg{members: members, err: err}
	}
}

// View renders the team view.
func (m Model) View() string {
	if m.mode == modeInvite && m.form != nil {
		return theme.DetailPanelStyle.
			Width(m.width - 4).
			Render(m.form.View())
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	lines := []string{
		titleStyle.Render(fmt.Sprintf("Team members (%d)", len(m.members))),
		"",
	}

	if len(m.members) == 0 {
		lines = append(lines, theme.HelpStyle.Render("No members. Press i to invite."))
	}

	for i, member := range m.members {
		line := fmt.Sprintf(
			"%s  %s",
			member.Name,
			lipgloss.NewStyle().Foreground(theme.ColorGray).Render(member.Email),
		)
		if i == m.selectedIdx {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "", theme.HelpStyle.Render("i: invite by email"))
	if m.statusMsg != "" {
		lines = append(lines, theme.HelpStyle.Render(m.statusMsg))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func validateEmail(s string) error {
	if !emailPattern.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
