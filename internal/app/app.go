// Package app hosts the root Bubble Tea model: view routing, global
// keybindings, and the glue between the gateway, the local cache, and
// the individual views.
package app

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/minhng/qaboard/internal/board"
	"github.com/minhng/qaboard/internal/credential"
	"github.com/minhng/qaboard/internal/gateway"
	"github.com/minhng/qaboard/internal/model"
	"github.com/minhng/qaboard/internal/store"
	appsync "github.com/minhng/qaboard/internal/sync"
	"github.com/minhng/qaboard/internal/ui"
	"github.com/minhng/qaboard/internal/ui/boardview"
	"github.com/minhng/qaboard/internal/ui/command"
	"github.com/minhng/qaboard/internal/ui/detail"
	helpview "github.com/minhng/qaboard/internal/ui/help"
	"github.com/minhng/qaboard/internal/ui/loginview"
	"github.com/minhng/qaboard/internal/ui/reportform"
	"github.com/minhng/qaboard/internal/ui/sitesview"
	"github.com/minhng/qaboard/internal/ui/tasklist"
	"github.com/minhng/qaboard/internal/ui/teamview"
	"github.com/minhng/qaboard/internal/ui/toast"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewSites
	ViewBoard
	ViewTasks
	ViewDetail
	ViewTeam
	ViewSummary
	ViewHelp
	ViewCommand
	ViewForm
)

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the gateway and the persistence layer.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout

	api        *gateway.API
	store      store.Store
	controller *board.TransitionController
	poller     *appsync.Poller
	toasts     *toast.Controller
	keys       *KeyMap

	loginView   loginview.Model
	sitesView   sitesview.Model
	boardView   boardview.Model
	taskList    tasklist.Model
	detailView  detail.Model
	teamView    teamview.Model
	helpView    helpview.Model
	commandView command.Model
	formView    reportform.Model

	user      *model.User
	boardSlug string
	boardName string
	summary   []model.StatusCount

	currentReport *model.Report

	ready       bool
	unreadCount int
	pollStarted bool
}

// New creates the root application model. When the gateway already has
// a stored token the app starts on the sites view; otherwise on login.
func New(api *gateway.API, s store.Store, interval time.Duration) Model {
	keys := DefaultKeyMap()

	initialView := ViewLogin
	if api.HasToken() {
		initialView = ViewSites
	}

	return Model{
		currentView: initialView,
		api:         api,
		store:       s,
		controller:  board.NewTransitionController(board.NewCache(), api),
		poller:      appsync.New(api, s, interval),
		toasts:      toast.NewController(),
		keys:        keys,
		loginView:   loginview.New(api, 80, 24),
		sitesView:   sitesview.New(api, s, keys, 80, 24),
		boardView:   boardview.New(keys, 80, 24),
		taskList:    tasklist.New(keys, 80, 24),
		detailView:  detail.New(keys, 80, 24),
		teamView:    teamview.New(api, keys, 80, 24),
		helpView:    helpview.New(keys, 80, 24),
		commandView: command.New(80, 24),
		formView:    reportform.New(80, 24),
	}
}

// Init starts the initial view and, when authenticated, the poller.
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewLogin {
		return m.loginView.Init()
	}
	return tea.Batch(
		m.sitesView.Init(),
		m.startPolling(),
		m.loadMe(),
		// Show the cached unread count before the first sync lands.
		m.fetchUnreadCount(),
	)
}

// startPolling launches the background sync once.
func (m *Model) startPolling() tea.Cmd {
	if m.pollStarted {
		return nil
	}
	m.pollStarted = true
	return m.poller.Start()
}

// loadMe validates the stored token and resolves the account, which
// carries the team id used by the team view.
func (m Model) loadMe() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		user, err := api.Me(ctx)
		if err != nil {
			if gateway.IsAuthError(err) {
				return appsync.SyncResultMsg{Error: err, AuthError: true}
			}
			log.Warn().Err(err).Msg("resolving account failed")
			return nil
		}
		return loginview.LoggedInMsg{User: user}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		m.sitesView.SetSize(w, h)
		m.boardView.SetSize(w, h)
		m.taskList.SetSize(w, h)
		m.detailView.SetSize(w, h)
		m.teamView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.formView.SetSize(w, h)
		return m.updateActiveView(msg)

	case loginview.LoggedInMsg:
		return m.handleLogin(msg)

	case appsync.SyncResultMsg:
		return m.handleSyncResult(msg)

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case toast.TickMsg:
		m.toasts.Tick(100 * time.Millisecond)
		if m.toasts.HasToasts() {
			return m, toast.ScheduleTick()
		}
		m.toasts.SetTicking(false)
		return m, nil

	case sitesview.OpenSiteMsg:
		return m.openBoard(msg.Slug, msg.Name)

	case sitesview.SitesChangedMsg:
		return m, nil

	case siteReportsLoadedMsg:
		return m.handleSiteReports(msg)

	case boardview.OpenReportMsg:
		return m.openDetail(msg.ReportID)

	case tasklist.SelectedReportMsg:
		return m.openDetail(msg.ReportID)

	case boardview.MoveRequestMsg:
		// The controller applies the optimistic move synchronously in
		// the command; the board redraws from the cache on the result.
		return m, m.handleDrop(msg.Drop)

	case dropResultMsg:
		return m.handleDropResult(msg)

	case transitionResultMsg:
		if msg.err != nil {
			m.pushToast(toast.Error(fmt.Sprintf("Status change failed: %v", msg.err)))
		} else if msg.report != nil {
			m.pushToast(toast.Info("Status: " + model.StatusLabel(msg.report.Status)))
			if m.currentView == ViewDetail && m.currentReport != nil &&
				m.currentReport.ID == msg.report.ID {
				return m.withToastTick(m.loadDetail(msg.report.ID))
			}
		}
		m.refreshBoard()
		return m.withToastTick(nil)

	case detail.LoadedMsg:
		if msg.Report != nil {
			m.currentReport = msg.Report
		}
		var cmd tea.Cmd
		m.detailView, cmd = m.detailView.Update(msg)
		if msg.Err != nil {
			m.pushToast(toast.Error(fmt.Sprintf("Loading report failed: %v", msg.Err)))
			mm, tickCmd := m.withToastTick(cmd)
			return mm, tickCmd
		}
		return m, cmd

	case detail.BackMsg:
		m.currentView = m.previousView
		if m.currentView == ViewDetail {
			m.currentView = ViewTasks
		}
		return m, nil

	case detail.ActionMsg:
		return m.handleDetailAction(msg)

	case reportform.CommentSubmittedMsg:
		m.currentView = ViewDetail
		return m, m.submitComment(msg.ReportID, msg.Content)

	case reportform.PrioritySubmittedMsg:
		m.currentView = ViewDetail
		return m, m.setPriority(msg.ReportID, msg.Priority)

	case reportform.DueDateSubmittedMsg:
		m.currentView = ViewDetail
		return m, m.setDueDate(msg.ReportID, msg.Due)

	case reportform.DeleteConfirmedMsg:
		m.currentView = m.previousView
		return m, m.deleteReport(msg.ReportID)

	case reportform.CancelMsg:
		if m.currentView == ViewForm {
			m.currentView = ViewDetail
		}
		return m, nil

	case commentResultMsg:
		if msg.err != nil {
			m.pushToast(toast.Error(fmt.Sprintf("Comment failed: %v", msg.err)))
			return m.withToastTick(nil)
		}
		m.pushToast(toast.Info("Comment posted"))
		return m.withToastTick(m.loadDetail(msg.reportID))

	case priorityResultMsg:
		if msg.err != nil {
			m.pushToast(toast.Error(fmt.Sprintf("Priority change failed: %v", msg.err)))
			return m.withToastTick(nil)
		}
		m.pushToast(toast.Info("Priority updated"))
		m.refreshBoard()
		return m.withToastTick(m.loadDetail(msg.reportID))

	case dueDateResultMsg:
		if msg.err != nil {
			m.pushToast(toast.Error(fmt.Sprintf("Due date change failed: %v", msg.err)))
			return m.withToastTick(nil)
		}
		m.pushToast(toast.Info("Due date updated"))
		m.refreshBoard()
		return m.withToastTick(m.loadDetail(msg.reportID))

	case reportDeletedMsg:
		if msg.err != nil {
			m.pushToast(toast.Error(fmt.Sprintf("Delete failed: %v", msg.err)))
			return m.withToastTick(nil)
		}
		m.pushToast(toast.Info("Report deleted"))
		m.currentReport = nil
		if m.currentView == ViewDetail {
			m.currentView = ViewTasks
		}
		m.refreshBoard()
		return m.withToastTick(m.poller.Refresh())

	case summaryLoadedMsg:
		if msg.err != nil {
			m.pushToast(toast.Error(fmt.Sprintf("Summary failed: %v", msg.err)))
			return m.withToastTick(nil)
		}
		m.summary = msg.counts
		m.previousView = m.currentView
		m.currentView = ViewSummary
		return m, nil

	case teamview.InviteSentMsg:
		m.pushToast(toast.Info("Invited " + msg.Email))
		return m.withToastTick(nil)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		if handled, mm, cmd := m.handleGlobalKeys(msg); handled {
			return mm, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleLogin stores the session token and enters the main UI.
func (m Model) handleLogin(msg loginview.LoggedInMsg) (tea.Model, tea.Cmd) {
	if msg.User != nil {
		m.user = msg.User
		m.teamView.SetTeam(msg.User.TeamID)
	}
	if msg.Token != "" {
		m.api.SetToken(msg.Token)
		if err := credential.Set(credential.SessionTokenKey, msg.Token); err != nil {
			log.Warn().Err(err).Msg("storing session token failed")
		}
	}
	if m.currentView == ViewLogin {
		m.currentView = ViewSites
		return m, tea.Batch(
			m.sitesView.Init(),
			m.startPolling(),
		)
	}
	return m, nil
}

// handleSyncResult feeds fresh data into the views after a sync cycle.
func (m Model) handleSyncResult(msg appsync.SyncResultMsg) (tea.Model, tea.Cmd) {
	waitCmd := m.poller.WaitForNextResult()

	if msg.AuthError {
		m.poller.Stop()
		m.pollStarted = false
		m.currentView = ViewLogin
		return m, tea.Batch(waitCmd, m.loginView.Init())
	}
	if msg.Error != nil {
		m.pushToast(toast.Warning("Sync failed; showing cached data"))
		mm, cmd := m.withToastTick(nil)
		return mm, tea.Batch(waitCmd, cmd)
	}

	m.taskList.SetReports(msg.Reports)
	if m.currentView == ViewBoard && m.boardSlug == "" {
		m.controller.Cache().Reset(msg.Reports)
		m.boardView.SetReports(m.controller.Cache().List())
	}
	m.unreadCount = msg.UnreadCount
	if msg.NewCount > 0 {
		m.pushToast(toast.Info(fmt.Sprintf("%d new report(s)", msg.NewCount)))
		mm, cmd := m.withToastTick(nil)
		return mm, tea.Batch(waitCmd, cmd)
	}
	return m, waitCmd
}

// openBoard loads a site's reports into the board. An empty slug means
// the personal board over the user's assigned reports.
func (m Model) openBoard(slug, name string) (tea.Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewBoard
	m.boardSlug = slug
	m.boardName = name
	if slug == "" {
		m.boardView.SetReports(m.controller.Cache().List())
		return m, nil
	}
	return m, m.loadSiteReports(slug, name)
}

func (m Model) handleSiteReports(msg siteReportsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.pushToast(toast.Error(fmt.Sprintf("Loading %s failed: %v", msg.slug, msg.err)))
		return m.withToastTick(nil)
	}
	if m.boardSlug != msg.slug {
		return m, nil
	}
	m.controller.Cache().Reset(msg.reports)
	m.boardView.SetReports(m.controller.Cache().List())
	return m, nil
}

// openDetail navigates to the detail view for a report.
func (m Model) openDetail(reportID string) (tea.Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewDetail
	m.detailView.SetLoading(true)
	return m, m.loadDetail(reportID)
}

func (m Model) handleDropResult(msg dropResultMsg) (tea.Model, tea.Cmd) {
	if !msg.handled {
		m.refreshBoard()
		return m, nil
	}
	if msg.err != nil {
		m.pushToast(toast.Error(fmt.Sprintf("Move failed: %v", msg.err)))
	} else if msg.report != nil {
		m.pushToast(toast.Info(fmt.Sprintf(
			"%q moved to %s", msg.report.Title, model.StatusLabel(msg.report.Status),
		)))
	}
	m.refreshBoard()
	return m.withToastTick(nil)
}

// refreshBoard redraws the board from the controller cache, which is
// the authority on the optimistic state.
func (m *Model) refreshBoard() {
	m.boardView.SetReports(m.controller.Cache().List())
}

// handleDetailAction routes an action from the detail view to the
// matching form or command.
func (m Model) handleDetailAction(msg detail.ActionMsg) (tea.Model, tea.Cmd) {
	report := m.currentReport
	if report == nil || report.ID != msg.ReportID {
		if cached, ok := m.controller.Cache().Get(msg.ReportID); ok {
			report = &cached
		} else {
			return m, nil
		}
	}

	switch msg.Action {
	case detail.ActionStatus:
		return m, m.transitionStatus(report.ID, nextStatus(report.Status))
	case detail.ActionComment:
		m.currentView = ViewForm
		return m, m.formView.StartComment(*report)
	case detail.ActionPriority:
		m.currentView = ViewForm
		return m, m.formView.StartPriority(*report)
	case detail.ActionDueDate:
		m.currentView = ViewForm
		return m, m.formView.StartDueDate(*report)
	case detail.ActionDelete:
		m.currentView = ViewForm
		return m, m.formView.StartDelete(*report)
	}
	return m, nil
}

// handleGlobalKeys processes keys that work regardless of the focused
// view. Returns handled=false when the key should go to the view.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	// Never steal keys from text inputs.
	if m.currentView == ViewLogin || m.currentView == ViewForm ||
		m.currentView == ViewCommand ||
		(m.currentView == ViewTasks && m.taskList.Searching()) {
		if msg.String() == "ctrl+c" {
			m.poller.Stop()
			return true, m, tea.Quit
		}
		return false, m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		m.poller.Stop()
		return true, m, tea.Quit

	case "q":
		if m.currentView == ViewSites || m.currentView == ViewTasks {
			m.poller.Stop()
			return true, m, tea.Quit
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case ":":
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return true, m, m.commandView.Focus()

	case "esc":
		switch m.currentView {
		case ViewHelp, ViewSummary:
			m.currentView = m.previousView
			return true, m, nil
		case ViewBoard:
			if !m.boardView.Carrying() {
				m.currentView = ViewSites
				return true, m, nil
			}
		}

	case "b":
		if m.currentView == ViewSites || m.currentView == ViewTasks {
			return m.globalNav(m.openBoard("", ""))
		}

	case "t":
		if m.currentView == ViewSites || m.currentView == ViewBoard {
			m.previousView = m.currentView
			m.currentView = ViewTasks
			return true, m, nil
		}

	case "s":
		if m.currentView == ViewTasks || m.currentView == ViewBoard {
			m.previousView = m.currentView
			m.currentView = ViewSites
			return true, m, m.sitesView.Init()
		}

	case "T":
		if m.currentView == ViewSites || m.currentView == ViewTasks {
			m.previousView = m.currentView
			m.currentView = ViewTeam
			return true, m, m.teamView.Init()
		}

	case "r":
		if m.currentView == ViewTasks || m.currentView == ViewBoard {
			if m.boardSlug != "" && m.currentView == ViewBoard {
				return true, m, m.loadSiteReports(m.boardSlug, m.boardName)
			}
			return true, m, m.poller.Refresh()
		}

	case "N":
		if m.unreadCount > 0 {
			return true, m, m.markNotificationsRead()
		}
	}

	return false, m, nil
}

func (m Model) globalNav(mm tea.Model, cmd tea.Cmd) (bool, tea.Model, tea.Cmd) {
	return true, mm, cmd
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewSites:
		m.sitesView, cmd = m.sitesView.Update(msg)
	case ViewBoard:
		m.boardView, cmd = m.boardView.Update(msg)
	case ViewTasks:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewTeam:
		m.teamView, cmd = m.teamView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewForm:
		m.formView, cmd = m.formView.Update(msg)
	}

	return m, cmd
}

// pushToast adds a toast to the stack.
func (m *Model) pushToast(n toast.Notification) {
	m.toasts.Push(n)
}

// withToastTick returns the model together with the toast tick command
// when the ticker is not already running.
func (m Model) withToastTick(extra tea.Cmd) (tea.Model, tea.Cmd) {
	if m.toasts.HasToasts() && !m.toasts.Ticking() {
		m.toasts.SetTicking(true)
		if extra == nil {
			return m, toast.ScheduleTick()
		}
		return m, tea.Batch(extra, toast.ScheduleTick())
	}
	return m, extra
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.headerTitle(), m.syncStatus())
	content := m.renderContent()
	if t := m.toasts.View(); t != "" {
		content = content + "\n" + t
	}
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

func (m Model) headerTitle() string {
	title := "QA Board"
	switch m.currentView {
	case ViewBoard:
		if m.boardName != "" {
			title = "QA Board · " + m.boardName
		} else {
			title = "QA Board · My Tasks"
		}
	case ViewTasks:
		title = "QA Board · My Tasks"
	case ViewTeam:
		title = "QA Board · Team"
	case ViewSummary:
		title = "QA Board · Summary"
	}
	if m.unreadCount > 0 {
		title = fmt.Sprintf("%s [%d new]", title, m.unreadCount)
	}
	return title
}

// renderContent returns the rendered string for the current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewSites:
		return m.sitesView.View()
	case ViewBoard:
		return m.boardView.View()
	case ViewTasks:
		return m.taskList.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewTeam:
		return m.teamView.View()
	case ViewSummary:
		return strings.Join(formatSummary(m.summary), "\n")
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewForm:
		return m.formView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the sync state.
func (m Model) syncStatus() string {
	state, last := m.poller.Status()
	switch state {
	case appsync.SyncRunning:
		return "syncing"
	case appsync.SyncError:
		return "offline"
	default:
		if last.IsZero() {
			return ""
		}
		return "synced " + last.Format("15:04")
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter submit | ctrl+c quit"
	case ViewSites:
		return "enter open board | p pin | x archive/restore | A show archived | t my tasks | T team | q quit"
	case ViewBoard:
		if m.boardView.Carrying() {
			return "h/l choose column | j/k position | space drop | esc cancel"
		}
		return "h/j/k/l move | space pick up | enter detail | r refresh | esc sites"
	case ViewTasks:
		return joinNonEmpty(" | ",
			"enter detail", "/ search", "1/2/3 status", "p/S/D filters",
			"0 clear", "g group", "tab sort", "b board", "q quit")
	case ViewDetail:
		return "c comment | space status | p priority | d due date | x delete | esc back"
	case ViewTeam:
		return "i invite | r refresh | esc back"
	case ViewSummary:
		return "esc back"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewForm:
		return "enter submit | esc cancel"
	default:
		return "q quit | ? help"
	}
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return m, nil
	}

	switch fields[0] {
	case "quit", "q":
		m.poller.Stop()
		return m, tea.Quit

	case "tasks":
		m.currentView = ViewTasks
		return m, nil

	case "sites":
		m.currentView = ViewSites
		return m, m.sitesView.Init()

	case "team":
		m.currentView = ViewTeam
		return m, m.teamView.Init()

	case "board":
		if len(fields) > 1 {
			return m.openBoard(fields[1], fields[1])
		}
		return m.openBoard("", "")

	case "summary":
		return m, m.loadSummary()

	case "refresh", "sync":
		return m, m.poller.Refresh()

	case "logout":
		m.poller.Stop()
		m.pollStarted = false
		m.api.SetToken("")
		if err := credential.Delete(credential.SessionTokenKey); err != nil {
			log.Debug().Err(err).Msg("clearing session token failed")
		}
		m.currentView = ViewLogin
		return m, m.loginView.Init()

	default:
		m.pushToast(toast.Warning("Unknown command: " + fields[0]))
		return m.withToastTick(nil)
	}
}
