package gateway

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minhng/qaboard/internal/model"
)

// API exposes the typed operations of the QA backend REST surface.
// It is the single mutation path for server state; every view-model
// consults or mutates records through it.
type API struct {
	client *Client
}

// New creates an API bound to the given backend base URL and bearer
// token. An empty token is valid until login.
func New(baseURL, token string, timeout time.Duration) *API {
	return &API{client: NewClient(baseURL, token, timeout)}
}

// SetToken replaces the bearer token used on subsequent requests.
func (a *API) SetToken(token string) {
	a.client.SetToken(token)
}

// HasToken reports whether a bearer token is currently set.
func (a *API) HasToken() bool {
	return a.client.HasToken()
}

// Login authenticates with email/password and returns the session
// token together with the account.
func (a *API) Login(
	ctx context.Context,
	email, password string,
) (string, *model.User, error) {
	var resp loginResponse
	err := a.client.Post(ctx, "/api/auth/login", loginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return "", nil, fmt.Errorf("logging in: %w", err)
	}
	return resp.Token, &resp.User, nil
}

// Register creates a new account and returns the session token
// together with the account, signed in immediately.
func (a *API) Register(
	ctx context.Context,
	name, email, password string,
) (string, *model.User, error) {
	var resp loginResponse
	err := a.client.Post(ctx, "/api/auth/register", registerRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return "", nil, fmt.Errorf("registering: %w", err)
	}
	return resp.Token, &resp.User, nil
}

// Me returns the authenticated account. Used to validate a stored
// token at startup.
func (a *API) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := a.client.Get(ctx, "/api/auth/me", &u); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &u, nil
}

// ListTasks retrieves every report assigned to the current user across
// all sites, normalized to reports.
func (a *API) ListTasks(ctx context.Context) ([]model.Report, error) {
	var wires []reportWire
	if err := a.client.Get(ctx, "/api/tasks", &wires); err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}

	now := time.Now()
	reports := make([]model.Report, 0, len(wires))
	for _, w := range wires {
		reports = append(reports, w.toReport(now))
	}
	return reports, nil
}

// GetSiteReports retrieves the reports captured on a single site.
func (a *API) GetSiteReports(
	ctx context.Context,
	slug string,
) ([]model.Report, error) {
	var wires []reportWire
	path := "/api/site/" + url.PathEscape(slug)
	if err := a.client.Get(ctx, path, &wires); err != nil {
		return nil, fmt.Errorf("fetching reports for site %s: %w", slug, err)
	}

	now := time.Now()
	reports := make([]model.Report, 0, len(wires))
	for _, w := range wires {
		r := w.toReport(now)
		if r.Site == "" {
			r.Site = slug
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// GetReport retrieves a single report by id.
func (a *API) GetReport(
	ctx context.Context,
	id string,
) (*model.Report, error) {
	var w reportWire
	path := "/api/report/" + url.PathEscape(id)
	if err := a.client.Get(ctx, path, &w); err != nil {
		return nil, fmt.Errorf("fetching report %s: %w", id, err)
	}
	r := w.toReport(time.Now())
	return &r, nil
}

// UpdateReportStatus patches a report's status and returns the
// server's representation, which is authoritative.
func (a *API) UpdateReportStatus(
	ctx context.Context,
	id, status string,
) (*model.Report, error) {
	var w reportWire
	path := "/api/report/" + url.PathEscape(id) + "/status"
	err := a.client.Patch(ctx, path, statusPatch{Status: status}, &w)
	if err != nil {
		return nil, fmt.Errorf("updating status of report %s: %w", id, err)
	}
	r := w.toReport(time.Now())
	if r.ID == "" {
		// Some backends answer the patch with just {status}; fall
		// back to a minimal authoritative record.
		r.ID = id
		r.Status = status
	}
	return &r, nil
}

// UpdateReportPriority patches a report's priority.
func (a *API) UpdateReportPriority(
	ctx context.Context,
	id, priority string,
) (*model.Report, error) {
	var w reportWire
	path := "/api/report/" + url.PathEscape(id) + "/priority"
	err := a.client.Patch(ctx, path, priorityPatch{Priority: priority}, &w)
	if err != nil {
		return nil, fmt.Errorf("updating priority of report %s: %w", id, err)
	}
	r := w.toReport(time.Now())
	if r.ID == "" {
		r.ID = id
		r.Priority = priority
	}
	return &r, nil
}

// UpdateReportDueDate patches a report's due date. A nil due clears it.
func (a *API) UpdateReportDueDate(
	ctx context.Context,
	id string,
	due *time.Time,
) error {
	var body dueDatePatch
	if due != nil {
		s := due.Format(time.RFC3339)
		body.DueDate = &s
	}
	path := "/api/report/" + url.PathEscape(id) + "/due-date"
	if err := a.client.Patch(ctx, path, body, nil); err != nil {
		return fmt.Errorf("updating due date of report %s: %w", id, err)
	}
	return nil
}

// DeleteReport removes a report. Comment cascade is a server concern.
func (a *API) DeleteReport(ctx context.Context, id string) error {
	path := "/api/report/" + url.PathEscape(id)
	if err := a.client.Delete(ctx, path); err != nil {
		return fmt.Errorf("deleting report %s: %w", id, err)
	}
	return nil
}

// ListComments retrieves the discussion thread for a report.
func (a *API) ListComments(
	ctx context.Context,
	reportID string,
) ([]model.Comment, error) {
	var wires []commentWire
	path := "/api/reports/" + url.PathEscape(reportID) + "/comments"
	if err := a.client.Get(ctx, path, &wires); err != nil {
		return nil, fmt.Errorf(
			"fetching comments for report %s: %w", reportID, err,
		)
	}

	comments := make([]model.Comment, 0, len(wires))
	for _, w := range wires {
		comments = append(comments, w.toComment())
	}
	return comments, nil
}

// CreateComment posts a new comment on a report. parentID is empty for
// top-level comments and set for one-level replies.
func (a *API) CreateComment(
	ctx context.Context,
	reportID, content, parentID string,
) (*model.Comment, error) {
	var w commentWire
	path := "/api/reports/" + url.PathEscape(reportID) + "/comments"
	err := a.client.Post(ctx, path, commentCreate{
		Content:  content,
		ParentID: parentID,
	}, &w)
	if err != nil {
		return nil, fmt.Errorf(
			"creating comment on report %s: %w", reportID, err,
		)
	}
	c := w.toComment()
	return &c, nil
}

// ListSites retrieves every site visible to the current team.
func (a *API) ListSites(ctx context.Context) ([]model.Site, error) {
	var wires []siteWire
	if err := a.client.Get(ctx, "/api/sites", &wires); err != nil {
		return nil, fmt.Errorf("fetching sites: %w", err)
	}

	sites := make([]model.Site, 0, len(wires))
	for _, w := range wires {
		sites = append(sites, w.toSite())
	}
	return sites, nil
}

// ListSiteMembers retrieves the members with access to a site.
func (a *API) ListSiteMembers(
	ctx context.Context,
	siteID string,
) ([]model.Member, error) {
	var members []model.Member
	path := "/api/site/" + url.PathEscape(siteID) + "/users"
	if err := a.client.Get(ctx, path, &members); err != nil {
		return nil, fmt.Errorf(
			"fetching members for site %s: %w", siteID, err,
		)
	}
	return members, nil
}

// ArchiveSite sets or clears a site's archived flag.
func (a *API) ArchiveSite(
	ctx context.Context,
	siteID string,
	archived bool,
) error {
	path := "/api/site/" + url.PathEscape(siteID) + "/archive"
	err := a.client.Patch(ctx, path, archivePatch{Archived: archived}, nil)
	if err != nil {
		return fmt.Errorf("archiving site %s: %w", siteID, err)
	}
	return nil
}

// PinSite pins a site to the top of the site list.
func (a *API) PinSite(ctx context.Context, siteID string) error {
	path := "/api/site/" + url.PathEscape(siteID) + "/pin"
	if err := a.client.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("pinning site %s: %w", siteID, err)
	}
	return nil
}

// UnpinSite removes a site from the pinned set.
func (a *API) UnpinSite(ctx context.Context, siteID string) error {
	path := "/api/site/" + url.PathEscape(siteID) + "/unpin"
	if err := a.client.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("unpinning site %s: %w", siteID, err)
	}
	return nil
}

// ListTeamMembers retrieves the members of a team.
func (a *API) ListTeamMembers(
	ctx context.Context,
	teamID string,
) ([]model.Member, error) {
	var members []model.Member
	path := "/teams/" + url.PathEscape(teamID) + "/members"
	if err := a.client.Get(ctx, path, &members); err != nil {
		return nil, fmt.Errorf(
			"fetching members for team %s: %w", teamID, err,
		)
	}
	return members, nil
}

// InviteByEmail sends a team invitation to the given address. The
// address is validated client-side before this is called.
func (a *API) InviteByEmail(
	ctx context.Context,
	teamID, email string,
) error {
	path := "/teams/" + url.PathEscape(teamID) + "/invite-email"
	err := a.client.Post(ctx, path, inviteRequest{Email: email}, nil)
	if err != nil {
		return fmt.Errorf("inviting %s to team %s: %w", email, teamID, err)
	}
	return nil
}

// ListNotifications retrieves the user's notifications, newest first.
func (a *API) ListNotifications(
	ctx context.Context,
) ([]model.Notification, error) {
	var wires []notificationWire
	if err := a.client.Get(ctx, "/api/notifications", &wires); err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}

	ns := make([]model.Notification, 0, len(wires))
	for _, w := range wires {
		ns = append(ns, w.toNotification())
	}
	return ns, nil
}

// MarkNotificationRead marks a single notification as read.
func (a *API) MarkNotificationRead(ctx context.Context, id string) error {
	path := "/api/notifications/" + url.PathEscape(id) + "/read"
	if err := a.client.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// IssuesSummary retrieves the per-status issue counts for the
// my-tasks summary panel.
func (a *API) IssuesSummary(
	ctx context.Context,
) ([]model.StatusCount, error) {
	var counts []model.StatusCount
	err := a.client.Get(ctx, "/api/stats/issues-summary", &counts)
	if err != nil {
		return nil, fmt.Errorf("fetching issues summary: %w", err)
	}
	return counts, nil
}
