package board

import (
	"context"

	"github.com/minhng/qaboard/internal/model"
)

// DropTarget identifies a position on the board: a status-keyed column
// and an index within it.
type DropTarget struct {
	Bucket string
	Index  int
}

// Drop describes a completed drag gesture. Dest is nil when the drop
// was cancelled before resolving a destination.
type Drop struct {
	Source   DropTarget
	Dest     *DropTarget
	ReportID string
}

// HandleDrop translates a drag gesture into a status transition. The
// destination column's key becomes the record's new status.
//
// Guard: a cancelled drop, or a drop onto the exact source position,
// is a no-op with no gateway call and no state mutation. A move within one
// column to a different index still goes through the controller (the
// status is re-applied, which is safe); the visual ordering within a
// column is not a persisted concept.
//
// handled is false when the guard short-circuited the drop.
func (c *TransitionController) HandleDrop(
	ctx context.Context,
	d Drop,
) (report *model.Report, handled bool, err error) {
	if d.Dest == nil {
		return nil, false, nil
	}
	if d.Source.Bucket == d.Dest.Bucket && d.Source.Index == d.Dest.Index {
		return nil, false, nil
	}

	confirmed, err := c.Transition(ctx, d.ReportID, d.Dest.Bucket)
	if err != nil {
		return nil, true, err
	}
	return confirmed, true, nil
}
