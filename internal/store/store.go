package store

import (
	"context"

	"github.com/minhng/qaboard/internal/model"
)

// ReportFilter controls filtering, sorting, and pagination for cached
// report queries. Nil pointer fields mean "no restriction".
type ReportFilter struct {
	Site     *string
	Status   *string
	Priority *string
	Query    *string // matches title and comment, substring
	SortBy   string  // "created_at" (default), "title", "status", "priority"
	SortDesc bool
	Limit    int
	Offset   int
}

// Store is the local persistence interface. It caches the last
// confirmed server state for offline listing and keeps notification
// read-state between runs; the server is always authoritative.
type Store interface {
	// Reports.

	UpsertReports(ctx context.Context, reports []model.Report) error
	GetReports(ctx context.Context, opts ReportFilter) ([]model.Report, error)
	GetReportByID(ctx context.Context, id string) (*model.Report, error)
	DeleteReport(ctx context.Context, id string) error

	// Sites.

	UpsertSites(ctx context.Context, sites []model.Site) error
	GetSites(ctx context.Context, includeArchived bool) ([]model.Site, error)

	// Notifications.

	UpsertNotifications(ctx context.Context, ns []model.Notification) error
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	CountUnread(ctx context.Context) (int, error)

	Close() error
}
