package model

import "time"

// Normalized report status constants. Status is a closed set; every
// report carries exactly one of these values and transitions between
// any two members are permitted.
const (
	StatusNew        = "new"
	StatusInProgress = "inProgress"
	StatusDone       = "done"
)

// Statuses returns the closed status set in board-column order.
func Statuses() []string {
	return []string{StatusNew, StatusInProgress, StatusDone}
}

// ValidStatus reports whether s is a member of the closed status set.
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// StatusLabel returns the human-readable label for a status value.
func StatusLabel(s string) string {
	switch s {
	case StatusNew:
		return "New"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return s
}

// Priority constants. The set is closed and ordered for display only;
// no workflow logic depends on the order. "not assigned" is the
// sentinel for reports that were never triaged.
const (
	PriorityUnassigned = "not assigned"
	PriorityLow        = "low"
	PriorityMedium     = "medium"
	PriorityHigh       = "high"
	PriorityUrgent     = "urgent"
)

// Priorities returns the closed priority set in display order,
// lowest urgency first.
func Priorities() []string {
	return []string{
		PriorityUnassigned,
		PriorityLow,
		PriorityMedium,
		PriorityHigh,
		PriorityUrgent,
	}
}

// ValidPriority reports whether p is a member of the closed priority set.
func ValidPriority(p string) bool {
	switch p {
	case PriorityUnassigned, PriorityLow, PriorityMedium,
		PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Report is a single trackable QA issue captured against a site page.
// The authoritative copy lives on the server; everything held locally
// is a cache of the last confirmed server state.
type Report struct {
	// ID is the server-assigned identifier. Immutable and unique
	// within a team's record space.
	ID string `json:"id" db:"id"`

	// Title is the short human-readable summary.
	Title string `json:"title" db:"title"`

	// Comment is the free-text description attached at capture time.
	Comment string `json:"comment" db:"comment"`

	// Status is one of the Status* constants.
	Status string `json:"status" db:"status"`

	// Priority is one of the Priority* constants.
	Priority string `json:"priority" db:"priority"`

	// Site is the slug of the owning site.
	Site string `json:"site" db:"site"`

	// PagePath is the path of the page the report was captured on.
	PagePath string `json:"pagePath" db:"page_path"`

	// URL is the full page URL at capture time.
	URL string `json:"url" db:"url"`

	// ImagePath points at the screenshot on the backend, when one
	// was captured.
	ImagePath string `json:"imagePath" db:"image_path"`

	// Assignee is the display name of the person the report is
	// assigned to, empty when unassigned.
	Assignee string `json:"assignee" db:"assignee"`

	// Author is the display name of the reporter.
	Author string `json:"author" db:"author"`

	// CreatedAt is the server creation timestamp. Immutable.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// DueDate is optional; nil means no due date has been set.
	DueDate *time.Time `json:"dueDate,omitempty" db:"due_date"`

	// FetchedAt is when this copy was last retrieved from the server.
	FetchedAt time.Time `json:"-" db:"fetched_at"`
}

// Overdue reports whether the report has a due date strictly in the past
// relative to now.
func (r Report) Overdue(now time.Time) bool {
	return r.DueDate != nil && r.DueDate.Before(now)
}

// Comment is a single entry in a report's discussion thread. A comment
// belongs to exactly one report; replies reference a parent comment and
// nest one level deep.
type Comment struct {
	ID          string       `json:"id"`
	Content     string       `json:"content"`
	ReportID    string       `json:"reportId,omitempty"`
	ParentID    string       `json:"parentId,omitempty"`
	Author      User         `json:"user"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Replies     []Comment    `json:"replies,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Attachment is a file attached to a comment.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}
