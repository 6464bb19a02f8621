package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	comment     TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'new',
	priority    TEXT NOT NULL DEFAULT 'not assigned',
	site        TEXT NOT NULL DEFAULT '',
	page_path   TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	image_path  TEXT NOT NULL DEFAULT '',
	assignee    TEXT NOT NULL DEFAULT '',
	author      TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL,
	due_date    DATETIME,
	fetched_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sites (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	slug         TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL DEFAULT '',
	pinned       INTEGER NOT NULL DEFAULT 0,
	archived     INTEGER NOT NULL DEFAULT 0,
	total        INTEGER NOT NULL DEFAULT 0,
	last_updated DATETIME
);

CREATE TABLE IF NOT EXISTS notifications (
	id          TEXT PRIMARY KEY,
	report_id   TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL,
	read        INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_reports_site ON reports(site);
CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
CREATE INDEX IF NOT EXISTS idx_reports_priority ON reports(priority);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
CREATE INDEX IF NOT EXISTS idx_sites_slug ON sites(slug);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
