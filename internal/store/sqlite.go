package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/minhng/qaboard/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// reportRow mirrors the reports table for sqlx scanning. Nullable
// columns use sql.Null types and convert at the edges.
type reportRow struct {
	ID        string       `db:"id"`
	Title     string       `db:"title"`
	Comment   string       `db:"comment"`
	Status    string       `db:"status"`
	Priority  string       `db:"priority"`
	Site      string       `db:"site"`
	PagePath  string       `db:"page_path"`
	URL       string       `db:"url"`
	ImagePath string       `db:"image_path"`
	Assignee  string       `db:"assignee"`
	Author    string       `db:"author"`
	CreatedAt time.Time    `db:"created_at"`
	DueDate   sql.NullTime `db:"due_date"`
	FetchedAt time.Time    `db:"fetched_at"`
}

func (r reportRow) toModel() model.Report {
	out := model.Report{
		ID:        r.ID,
		Title:     r.Title,
		Comment:   r.Comment,
		Status:    r.Status,
		Priority:  r.Priority,
		Site:      r.Site,
		PagePath:  r.PagePath,
		URL:       r.URL,
		ImagePath: r.ImagePath,
		Assignee:  r.Assignee,
		Author:    r.Author,
		CreatedAt: r.CreatedAt,
		FetchedAt: r.FetchedAt,
	}
	if r.DueDate.Valid {
		due := r.DueDate.Time
		out.DueDate = &due
	}
	return out
}

// UpsertReports inserts or replaces a batch of cached reports.
func (s *SQLiteStore) UpsertReports(
	ctx context.Context,
	reports []model.Report,
) error {
	if len(reports) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO reports (
			id, title, comment, status, priority,
			site, page_path, url, image_path,
			assignee, author, created_at, due_date, fetched_at
		) VALUES (
			?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?, ?
		)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range reports {
		var due interface{}
		if r.DueDate != nil {
			due = r.DueDate.UTC()
		}

		_, err = stmt.ExecContext(ctx,
			r.ID, r.Title, r.Comment, r.Status, r.Priority,
			r.Site, r.PagePath, r.URL, r.ImagePath,
			r.Assignee, r.Author, r.CreatedAt.UTC(), due,
			r.FetchedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("upserting report %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// GetReports retrieves cached reports matching the provided filter.
func (s *SQLiteStore) GetReports(
	ctx context.Context,
	opts ReportFilter,
) ([]model.Report, error) {
	var conditions []string
	var args []interface{}

	if opts.Site != nil {
		conditions = append(conditions, "site = ?")
		args = append(args, *opts.Site)
	}
	if opts.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *opts.Status)
	}
	if opts.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, *opts.Priority)
	}
	if opts.Query != nil && *opts.Query != "" {
		conditions = append(conditions, "(title LIKE ? OR comment LIKE ?)")
		q := "%" + *opts.Query + "%"
		args = append(args, q, q)
	}

	query := "SELECT * FROM reports"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := "created_at"
	if opts.SortBy != "" {
		allowedSorts := map[string]bool{
			"title":      true,
			"status":     true,
			"priority":   true,
			"created_at": true,
		}
		if allowedSorts[opts.SortBy] {
			sortBy = opts.SortBy
		}
	}

	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	var rows []reportRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}

	reports := make([]model.Report, 0, len(rows))
	for _, r := range rows {
		reports = append(reports, r.toModel())
	}
	return reports, nil
}

// GetReportByID retrieves a single cached report by its ID.
func (s *SQLiteStore) GetReportByID(
	ctx context.Context,
	id string,
) (*model.Report, error) {
	var row reportRow
	err := s.db.GetContext(
		ctx, &row, "SELECT * FROM reports WHERE id = ?", id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting report %s: %w", id, err)
	}
	r := row.toModel()
	return &r, nil
}

// DeleteReport removes a cached report.
func (s *SQLiteStore) DeleteReport(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(
		ctx, "DELETE FROM reports WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("deleting report %s: %w", id, err)
	}
	return nil
}

// siteRow mirrors the sites table for sqlx scanning.
type siteRow struct {
	ID          string       `db:"id"`
	Name        string       `db:"name"`
	Slug        string       `db:"slug"`
	URL         string       `db:"url"`
	Pinned      int          `db:"pinned"`
	Archived    int          `db:"archived"`
	Total       int          `db:"total"`
	LastUpdated sql.NullTime `db:"last_updated"`
}

func (r siteRow) toModel() model.Site {
	out := model.Site{
		ID:       r.ID,
		Name:     r.Name,
		Slug:     r.Slug,
		URL:      r.URL,
		Pinned:   r.Pinned != 0,
		Archived: r.Archived != 0,
		Total:    r.Total,
	}
	if r.LastUpdated.Valid {
		out.LastUpdated = r.LastUpdated.Time
	}
	return out
}

// UpsertSites inserts or replaces a batch of cached sites.
func (s *SQLiteStore) UpsertSites(
	ctx context.Context,
	sites []model.Site,
) error {
	if len(sites) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO sites (
			id, name, slug, url, pinned, archived, total, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	for _, site := range sites {
		_, err = tx.ExecContext(ctx, query,
			site.ID, site.Name, site.Slug, site.URL,
			boolToInt(site.Pinned), boolToInt(site.Archived),
			site.Total, site.LastUpdated.UTC(),
		)
		if err != nil {
			return fmt.Errorf("upserting site %s: %w", site.ID, err)
		}
	}

	return tx.Commit()
}

// GetSites retrieves cached sites, pinned first, optionally including
// archived ones.
func (s *SQLiteStore) GetSites(
	ctx context.Context,
	includeArchived bool,
) ([]model.Site, error) {
	query := "SELECT * FROM sites"
	if !includeArchived {
		query += " WHERE archived = 0"
	}
	query += " ORDER BY pinned DESC, name ASC"

	var rows []siteRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("querying sites: %w", err)
	}

	sites := make([]model.Site, 0, len(rows))
	for _, r := range rows {
		sites = append(sites, r.toModel())
	}
	return sites, nil
}

// notificationRow mirrors the notifications table for sqlx scanning.
type notificationRow struct {
	ID        string    `db:"id"`
	ReportID  string    `db:"report_id"`
	Message   string    `db:"message"`
	Read      int       `db:"read"`
	CreatedAt time.Time `db:"created_at"`
}

func (r notificationRow) toModel() model.Notification {
	return model.Notification{
		ID:        r.ID,
		ReportID:  r.ReportID,
		Message:   r.Message,
		Read:      r.Read != 0,
		CreatedAt: r.CreatedAt,
	}
}

// UpsertNotifications inserts or updates notifications. A notification
// already marked read locally stays read even when the server copy
// still says unread, so polling cannot resurrect dismissed entries.
func (s *SQLiteStore) UpsertNotifications(
	ctx context.Context,
	ns []model.Notification,
) error {
	if len(ns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO notifications (id, report_id, message, read, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			message = excluded.message,
			read = MAX(read, excluded.read)`

	for _, n := range ns {
		id := n.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err = tx.ExecContext(ctx, query,
			id, n.ReportID, n.Message,
			boolToInt(n.Read), n.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("upserting notification %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// GetUnreadNotifications retrieves unread notifications, newest first.
func (s *SQLiteStore) GetUnreadNotifications(
	ctx context.Context,
) ([]model.Notification, error) {
	var rows []notificationRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM notifications WHERE read = 0 ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}

	ns := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		ns = append(ns, r.toModel())
	}
	return ns, nil
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(
	ctx context.Context,
	id string,
) error {
	res, err := s.db.ExecContext(
		ctx, "UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.New("notification not found: " + id)
	}
	return nil
}

// CountUnread returns the number of unread notifications.
func (s *SQLiteStore) CountUnread(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(
		ctx, &count, "SELECT COUNT(*) FROM notifications WHERE read = 0",
	)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
