package model

import "time"

// StatusCounts holds per-status report totals for a site.
type StatusCounts struct {
	New        int `json:"new"`
	InProgress int `json:"inProgress"`
	Done       int `json:"done"`
}

// PriorityCounts holds per-priority report totals for a site.
type PriorityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
	Urgent int `json:"urgent"`
}

// Site is a tracked website/page space that reports are captured against.
type Site struct {
	ID          string         `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Slug        string         `json:"slug" db:"slug"`
	URL         string         `json:"site" db:"url"`
	Pinned      bool           `json:"isPinned" db:"pinned"`
	Archived    bool           `json:"archived" db:"archived"`
	Total       int            `json:"total" db:"total"`
	Counts      StatusCounts   `json:"counts" db:"-"`
	Priorities  PriorityCounts `json:"priorities" db:"-"`
	Members     []Member       `json:"members,omitempty" db:"-"`
	LastUpdated time.Time      `json:"lastUpdated" db:"last_updated"`
}

// Member is a team member with access to a site.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// User is the authenticated account.
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	TeamID string `json:"teamId,omitempty"`
}

// StatusCount is one slice of the issues-summary stat
// (status name, absolute count, share of the total).
type StatusCount struct {
	Name       string  `json:"name"`
	Value      int     `json:"value"`
	Percentage float64 `json:"percentage"`
}
