// Package sitesview lists the team's sites with their per-status
// report counts and supports pinning and archiving.
package sitesview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/minhng/qaboard/internal/gateway"
	"github.com/minhng/qaboard/internal/keys"
	"github.com/minhng/qaboard/internal/model"
	"github.com/minhng/qaboard/internal/store"
	"github.com/minhng/qaboard/internal/theme"
)

// OpenSiteMsg signals the parent to open the board for a site.
type OpenSiteMsg struct {
	Slug string
	Name string
}

// SitesChangedMsg signals that sites were modified (pinned/archived).
type SitesChangedMsg struct{}

type siteMode int

const (
	modeList siteMode = iota
	modeConfirmArchive
)

type sitesLoadedMsg struct {
	sites []model.Site
	err   error
}

type sitePinnedMsg struct{ err error }

type siteArchivedMsg struct {
	archived bool
	err      error
}

// Model is the sites list view component.
type Model struct {
	mode        siteMode
	api         *gateway.API
	store       store.Store
	keys        *keys.KeyMap
	sites       []model.Site
	selectedIdx int
	confirmForm *huh.Form
	confirmed   bool
	statusMsg   string
	showAll     bool
	width       int
	height      int
}

// New creates a new sites view model.
func New(api *gateway.API, s store.Store, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		api:   api,
		store: s,
		keys:  k,
		width: width, height: height,
	}
}

// Init loads the site list.
func (m Model) Init() tea.Cmd {
	return m.loadSites()
}

// Update handles messages for the sites view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sitesLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.sites = msg.sites
		if m.selectedIdx >= len(m.sites) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.sites) - 1
		}
		return m, nil

	case sitePinnedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		return m, tea.Batch(m.loadSites(), changed)

	case siteArchivedMsg:
		switch {
		case msg.err != nil:
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		case msg.archived:
			m.statusMsg = "Site archived"
		default:
			m.statusMsg = "Site restored"
		}
		m.mode = modeList
		return m, tea.Batch(m.loadSites(), changed)

	case tea.KeyMsg:
		if m.mode == modeConfirmArchive {
			return m.updateConfirm(msg)
		}
		return m.handleListKeys(msg)
	}

	if m.mode == modeConfirmArchive && m.confirmForm != nil {
		form, cmd := m.confirmForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.confirmForm = f
		}
		return m, cmd
	}
	return m, nil
}

func changed() tea.Msg { return SitesChangedMsg{} }

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedIdx < len(m.sites)-1 {
			m.selectedIdx++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if site, ok := m.selected(); ok {
			return m, func() tea.Msg {
				return OpenSiteMsg{Slug: site.Slug, Name: site.Name}
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Priority):
		// "p" toggles the pin on the selected site.
		if site, ok := m.selected(); ok {
			return m, m.togglePin(site)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		site, ok := m.selected()
		if !ok {
			return m, nil
		}
		// Restoring is immediate; archiving asks first.
		if site.Archived {
			return m, m.setArchived(site, false)
		}
		m.startArchiveConfirm()
		return m, m.confirmForm.Init()

	case msg.String() == "A":
		m.showAll = !m.showAll
		return m, m.loadSites()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadSites()
	}
	return m, nil
}

func (m *Model) startArchiveConfirm() {
	site, _ := m.selected()
	m.confirmed = false
	m.confirmForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Archive %q?", site.Name)).
				Description("Archived sites are hidden from the default list.").
				Affirmative("Archive").
				Negative("Cancel").
				Value(&m.confirmed),
		),
	)
	m.mode = modeConfirmArchive
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	form, cmd := m.confirmForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirmForm = f
	}

	if m.confirmForm.State == huh.StateCompleted {
		if !m.confirmed {
			m.mode = modeList
			return m, nil
		}
		site, ok := m.selected()
		if !ok {
			m.mode = modeList
			return m, nil
		}
		return m, tea.Batch(cmd, m.setArchived(site, true))
	}
	return m, cmd
}

// setArchived flips a site's archived flag on the server.
func (m Model) setArchived(site model.Site, archived bool) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		err := api.ArchiveSite(context.Background(), site.ID, archived)
		return siteArchivedMsg{archived: archived, err: err}
	}
}

func (m Model) selected() (model.Site, bool) {
	if m.selectedIdx < len(m.sites) {
		return m.sites[m.selectedIdx], true
	}
	return model.Site{}, false
}

// togglePin flips the pin state of the given site on the server.
func (m Model) togglePin(site model.Site) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		var err error
		if site.Pinned {
			err = api.UnpinSite(context.Background(), site.ID)
		} else {
			err = api.PinSite(context.Background(), site.ID)
		}
		return sitePinnedMsg{err: err}
	}
}

// loadSites fetches the site list from the server, falling back to the
// local cache when the server is unreachable.
func (m Model) loadSites() tea.Cmd {
	api := m.api
	s := m.store
	showAll := m.showAll
	return func() tea.Msg {
		sites, err := api.ListSites(context.Background())
		if err != nil {
			if s != nil {
				if cached, cerr := s.GetSites(context.Background(), showAll); cerr == nil {
					return sitesLoadedMsg{sites: cached}
				}
			}
			return sitesLoadedMsg{err: err}
		}
		if s != nil {
			if uerr := s.UpsertSites(context.Background(), sites); uerr != nil {
				log.Warn().Err(uerr).Msg("caching sites failed")
			}
		}
		if !showAll {
			visible := sites[:0]
			for _, site := range sites {
				if !site.Archived {
					visible = append(visible, site)
				}
			}
			sites = visible
		}
		return sitesLoadedMsg{sites: sites}
	}
}

// View renders the sites view.
func (m Model) View() string {
	if m.mode == modeConfirmArchive && m.confirmForm != nil {
		return theme.DetailPanelStyle.
			Width(m.width - 4).
			Render(m.confirmForm.View())
	}

	if len(m.sites) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No sites yet.")
	}

	var lines []string
	for i, site := range m.sites {
		lines = append(lines, m.renderSite(site, i == m.selectedIdx))
	}
	if m.statusMsg != "" {
		lines = append(lines, "", theme.HelpStyle.Render(m.statusMsg))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderSite renders one site row with its status counts.
func (m Model) renderSite(site model.Site, selected bool) string {
	pin := "  "
	if site.Pinned {
		pin = lipgloss.NewStyle().Foreground(theme.ColorYellow).Render("★ ")
	}

	name := site.Name
	if site.Archived {
		name += theme.HelpStyle.Render(" (archived)")
	}

	counts := fmt.Sprintf(
		"%s %s %s",
		theme.StatusStyle(model.StatusNew).Render(fmt.Sprintf("%d", site.Counts.New)),
		theme.StatusStyle(model.StatusInProgress).Render(fmt.Sprintf("%d", site.Counts.InProgress)),
		theme.StatusStyle(model.StatusDone).Render(fmt.Sprintf("%d", site.Counts.Done)),
	)

	host := lipgloss.NewStyle().Foreground(theme.ColorGray).Render(site.URL)

	line := strings.Join([]string{pin + name, counts, host}, "  ")
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
