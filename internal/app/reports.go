package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/minhng/qaboard/internal/board"
	"github.com/minhng/qaboard/internal/model"
	"github.com/minhng/qaboard/internal/ui/detail"
)

// Result messages for the report commands below.

type siteReportsLoadedMsg struct {
	slug    string
	name    string
	reports []model.Report
	err     error
}

type dropResultMsg struct {
	report  *model.Report
	handled bool
	err     error
}

type transitionResultMsg struct {
	report *model.Report
	err    error
}

type commentResultMsg struct {
	reportID string
	err      error
}

type priorityResultMsg struct {
	reportID string
	err      error
}

type dueDateResultMsg struct {
	reportID string
	err      error
}

type reportDeletedMsg struct {
	reportID string
	err      error
}

type unreadCountMsg struct {
	count int
}

type summaryLoadedMsg struct {
	counts []model.StatusCount
	err    error
}

const requestTimeout = 15 * time.Second

func reqContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// loadSiteReports fetches a site's reports for the board view.
func (m Model) loadSiteReports(slug, name string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		reports, err := api.GetSiteReports(ctx, slug)
		return siteReportsLoadedMsg{
			slug: slug, name: name, reports: reports, err: err,
		}
	}
}

// loadDetail fetches a report and its comment thread for the detail view.
func (m Model) loadDetail(reportID string) tea.Cmd {
	api := m.api
	s := m.store
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()

		report, err := api.GetReport(ctx, reportID)
		if err != nil {
			// Fall back to the local cache so the view stays usable
			// offline. Comments are server-only.
			if cached, cerr := s.GetReportByID(ctx, reportID); cerr == nil {
				return detail.LoadedMsg{Report: cached}
			}
			return detail.LoadedMsg{Err: err}
		}

		comments, cerr := api.ListComments(ctx, reportID)
		if cerr != nil {
			log.Warn().Err(cerr).Str("report", reportID).
				Msg("loading comments failed")
		}
		return detail.LoadedMsg{Report: report, Comments: comments}
	}
}

// handleDrop resolves a board drop through the transition controller.
// The optimistic move is already visible once the controller applies
// it; this command reports the server outcome.
func (m Model) handleDrop(d board.Drop) tea.Cmd {
	ctrl := m.controller
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		report, handled, err := ctrl.HandleDrop(ctx, d)
		return dropResultMsg{report: report, handled: handled, err: err}
	}
}

// transitionStatus moves a report to the given status optimistically.
func (m Model) transitionStatus(reportID, status string) tea.Cmd {
	ctrl := m.controller
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		report, err := ctrl.Transition(ctx, reportID, status)
		return transitionResultMsg{report: report, err: err}
	}
}

// submitComment posts a new top-level comment on a report.
func (m Model) submitComment(reportID, content string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		_, err := api.CreateComment(ctx, reportID, content, "")
		return commentResultMsg{reportID: reportID, err: err}
	}
}

// setPriority updates a report's priority on the server and in the
// local caches.
func (m Model) setPriority(reportID, priority string) tea.Cmd {
	api := m.api
	ctrl := m.controller
	s := m.store
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		report, err := api.UpdateReportPriority(ctx, reportID, priority)
		if err != nil {
			return priorityResultMsg{reportID: reportID, err: err}
		}
		if report != nil {
			ctrl.Cache().Replace(*report)
			if uerr := s.UpsertReports(ctx, []model.Report{*report}); uerr != nil {
				log.Warn().Err(uerr).Msg("caching priority update failed")
			}
		}
		return priorityResultMsg{reportID: reportID}
	}
}

// setDueDate updates a report's due date; a nil due clears it.
func (m Model) setDueDate(reportID string, due *time.Time) tea.Cmd {
	api := m.api
	ctrl := m.controller
	s := m.store
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		if err := api.UpdateReportDueDate(ctx, reportID, due); err != nil {
			return dueDateResultMsg{reportID: reportID, err: err}
		}
		if cached, ok := ctrl.Cache().Get(reportID); ok {
			cached.DueDate = due
			ctrl.Cache().Replace(cached)
			if uerr := s.UpsertReports(ctx, []model.Report{cached}); uerr != nil {
				log.Warn().Err(uerr).Msg("caching due date update failed")
			}
		}
		return dueDateResultMsg{reportID: reportID}
	}
}

// deleteReport removes a report on the server and from the local caches.
func (m Model) deleteReport(reportID string) tea.Cmd {
	api := m.api
	ctrl := m.controller
	s := m.store
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		if err := api.DeleteReport(ctx, reportID); err != nil {
			return reportDeletedMsg{reportID: reportID, err: err}
		}
		ctrl.Cache().Remove(reportID)
		if derr := s.DeleteReport(ctx, reportID); derr != nil {
			log.Warn().Err(derr).Msg("removing deleted report from cache failed")
		}
		return reportDeletedMsg{reportID: reportID}
	}
}

// fetchUnreadCount queries the store for the unread notification count.
func (m Model) fetchUnreadCount() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		count, err := s.CountUnread(ctx)
		if err != nil {
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: count}
	}
}

// loadSummary fetches the team-wide issues-by-status stat.
func (m Model) loadSummary() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		counts, err := api.IssuesSummary(ctx)
		return summaryLoadedMsg{counts: counts, err: err}
	}
}

// markNotificationsRead marks all unread notifications as read, both
// locally and on the server.
func (m Model) markNotificationsRead() tea.Cmd {
	api := m.api
	s := m.store
	return func() tea.Msg {
		ctx, cancel := reqContext()
		defer cancel()
		unread, err := s.GetUnreadNotifications(ctx)
		if err != nil {
			return unreadCountMsg{count: 0}
		}
		for _, n := range unread {
			if merr := s.MarkNotificationRead(ctx, n.ID); merr != nil {
				log.Warn().Err(merr).Msg("marking notification read failed")
				continue
			}
			// Locally generated notifications are unknown to the
			// server; the failed ack is harmless.
			if aerr := api.MarkNotificationRead(ctx, n.ID); aerr != nil {
				log.Debug().Err(aerr).Msg("server notification ack failed")
			}
		}
		return unreadCountMsg{count: 0}
	}
}
