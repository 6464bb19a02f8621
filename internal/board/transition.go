package board

import (
	"context"
	"fmt"

	"github.com/minhng/qaboard/internal/model"
)

// StatusPatcher is the slice of the gateway the transition controller
// needs: persist a status change and return the server's authoritative
// representation.
type StatusPatcher interface {
	UpdateReportStatus(
		ctx context.Context,
		id, status string,
	) (*model.Report, error)
}

// TransitionController applies status changes optimistically. The
// cached copy is updated before the gateway call resolves so the UI
// reflects the change with zero latency; on failure the cache is
// rolled back to the snapshot taken immediately before that specific
// call, and the error is returned to the caller.
//
// Transitions for different records may be in flight at once. A second
// transition for the same record is not dropped; last write wins, and
// each call rolls back only to its own snapshot.
type TransitionController struct {
	cache *Cache
	gw    StatusPatcher
}

// NewTransitionController creates a controller over the given cache
// and gateway.
func NewTransitionController(
	cache *Cache,
	gw StatusPatcher,
) *TransitionController {
	return &TransitionController{cache: cache, gw: gw}
}

// Cache exposes the record cache the controller mutates.
func (c *TransitionController) Cache() *Cache {
	return c.cache
}

// Transition moves the record with the given id to newStatus. The
// returned report is the server's confirmed representation. Applying
// a record's current status is a safe no-op from the server's point
// of view; the controller does not special-case it.
func (c *TransitionController) Transition(
	ctx context.Context,
	id, newStatus string,
) (*model.Report, error) {
	if !model.ValidStatus(newStatus) {
		return nil, fmt.Errorf("invalid status %q", newStatus)
	}

	snapshot, ok := c.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("report %s not in cache", id)
	}

	// Optimistic update: show the new status immediately.
	optimistic := snapshot
	optimistic.Status = newStatus
	c.cache.Replace(optimistic)

	confirmed, err := c.gw.UpdateReportStatus(ctx, id, newStatus)
	if err != nil {
		// Roll back to the snapshot taken just before this call.
		c.cache.Replace(snapshot)
		return nil, err
	}

	// The server representation is authoritative. A sparse patch
	// response keeps the snapshot's fields that it omits.
	merged := merge(snapshot, *confirmed)
	merged.Status = confirmed.Status
	c.cache.Replace(merged)

	result := merged
	return &result, nil
}

// merge overlays the non-zero fields of the server response onto the
// local snapshot so a minimal patch reply cannot wipe cached fields.
func merge(local, server model.Report) model.Report {
	out := local
	if server.Title != "" {
		out.Title = server.Title
	}
	if server.Comment != "" {
		out.Comment = server.Comment
	}
	if server.Priority != "" {
		out.Priority = server.Priority
	}
	if server.Site != "" {
		out.Site = server.Site
	}
	if server.Assignee != "" {
		out.Assignee = server.Assignee
	}
	if server.Author != "" {
		out.Author = server.Author
	}
	if !server.CreatedAt.IsZero() {
		out.CreatedAt = server.CreatedAt
	}
	if server.DueDate != nil {
		out.DueDate = server.DueDate
	}
	if !server.FetchedAt.IsZero() {
		out.FetchedAt = server.FetchedAt
	}
	return out
}
