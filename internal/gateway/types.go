package gateway

import (
	"time"

	"github.com/minhng/qaboard/internal/model"
)

// Wire types mirror the backend's JSON shapes. Timestamps arrive as
// strings and due dates may be date-only, so conversion to model types
// happens here rather than in json tags on the models.

type reportWire struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Comment   string `json:"comment"`
	Status    string `json:"status"`
	Priority  string `json:"priority"`
	Site      string `json:"site"`
	Slug      string `json:"slug"`
	PagePath  string `json:"pagePath"`
	URL       string `json:"url"`
	ImagePath string `json:"imagePath"`
	Assignee  string `json:"assignee"`
	UserName  string `json:"userName"`
	Timestamp string `json:"timestamp"`
	CreatedAt string `json:"createdAt"`
	DueDate   string `json:"dueDate"`
	CreatedBy struct {
		Name string `json:"name"`
	} `json:"createdBy"`
}

type commentWire struct {
	ID          string             `json:"id"`
	Content     string             `json:"content"`
	ReportID    string             `json:"reportId"`
	ParentID    string             `json:"parentId"`
	User        model.User         `json:"user"`
	Attachments []model.Attachment `json:"attachments"`
	Replies     []commentWire      `json:"replies"`
	CreatedAt   string             `json:"createdAt"`
}

type siteWire struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Slug        string                `json:"slug"`
	Site        string                `json:"site"`
	IsPinned    bool                  `json:"isPinned"`
	Archived    bool                  `json:"archived"`
	Total       int                   `json:"total"`
	Counts      model.StatusCounts    `json:"counts"`
	Priorities  model.PriorityCounts  `json:"priorities"`
	Members     []model.Member        `json:"members"`
	LastUpdated string                `json:"lastUpdated"`
}

type notificationWire struct {
	ID        string `json:"id"`
	ReportID  string `json:"reportId"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type statusPatch struct {
	Status string `json:"status"`
}

type priorityPatch struct {
	Priority string `json:"priority"`
}

type dueDatePatch struct {
	DueDate *string `json:"dueDate"`
}

type archivePatch struct {
	Archived bool `json:"archived"`
}

type commentCreate struct {
	Content  string `json:"content"`
	ParentID string `json:"parentId,omitempty"`
}

type inviteRequest struct {
	Email string `json:"email"`
}

// timeFormats are tried in order when parsing backend timestamps.
var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTime parses a backend timestamp string. Returns the zero time
// for empty or unparseable input; records never fail to load because
// of a bad timestamp.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, f := range timeFormats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseOptionalTime parses a timestamp string into a *time.Time,
// returning nil for empty or unparseable input.
func parseOptionalTime(s string) *time.Time {
	t := parseTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}

// toReport converts a wire report into the normalized model, defaulting
// status and priority to their sentinels when the backend omits them.
func (w reportWire) toReport(fetchedAt time.Time) model.Report {
	status := w.Status
	if status == "" {
		status = model.StatusNew
	}
	priority := w.Priority
	if priority == "" {
		priority = model.PriorityUnassigned
	}

	site := w.Site
	if site == "" {
		site = w.Slug
	}

	created := w.Timestamp
	if created == "" {
		created = w.CreatedAt
	}

	// userName carries the assigned member; createdBy is the reporter.
	assignee := w.Assignee
	if assignee == "" {
		assignee = w.UserName
	}
	author := w.CreatedBy.Name
	if author == "" {
		author = w.UserName
	}

	return model.Report{
		ID:        w.ID,
		Title:     w.Title,
		Comment:   w.Comment,
		Status:    status,
		Priority:  priority,
		Site:      site,
		PagePath:  w.PagePath,
		URL:       w.URL,
		ImagePath: w.ImagePath,
		Assignee:  assignee,
		Author:    author,
		CreatedAt: parseTime(created),
		DueDate:   parseOptionalTime(w.DueDate),
		FetchedAt: fetchedAt,
	}
}

// toComment converts a wire comment, including one level of replies.
func (w commentWire) toComment() model.Comment {
	c := model.Comment{
		ID:          w.ID,
		Content:     w.Content,
		ReportID:    w.ReportID,
		ParentID:    w.ParentID,
		Author:      w.User,
		Attachments: w.Attachments,
		CreatedAt:   parseTime(w.CreatedAt),
	}
	for _, r := range w.Replies {
		c.Replies = append(c.Replies, r.toComment())
	}
	return c
}

// toSite converts a wire site to the model.
func (w siteWire) toSite() model.Site {
	return model.Site{
		ID:          w.ID,
		Name:        w.Name,
		Slug:        w.Slug,
		URL:         w.Site,
		Pinned:      w.IsPinned,
		Archived:    w.Archived,
		Total:       w.Total,
		Counts:      w.Counts,
		Priorities:  w.Priorities,
		Members:     w.Members,
		LastUpdated: parseTime(w.LastUpdated),
	}
}

// toNotification converts a wire notification to the model.
func (w notificationWire) toNotification() model.Notification {
	return model.Notification{
		ID:        w.ID,
		ReportID:  w.ReportID,
		Message:   w.Message,
		Read:      w.Read,
		CreatedAt: parseTime(w.CreatedAt),
	}
}
