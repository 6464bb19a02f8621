package model

import "time"

// Notification is a server-side event surfaced to the user
// (new report, assignment, comment, status change).
type Notification struct {
	ID        string    `json:"id" db:"id"`
	ReportID  string    `json:"reportId" db:"report_id"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
