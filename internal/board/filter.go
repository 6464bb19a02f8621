// Package board implements the Kanban view-model: filtering, grouping,
// and optimistic status transitions over the locally cached report set.
// Everything here is a view over server state; mutations go through the
// TransitionController and the gateway only.
package board

import (
	"sort"
	"strings"
	"time"

	"github.com/minhng/qaboard/internal/model"
)

// SortDirection orders the filtered sequence by creation timestamp.
type SortDirection int

const (
	NewestFirst SortDirection = iota
	OldestFirst
)

// FilterState is the set of active selections per filterable dimension
// plus a free-text search string. An empty selection on a dimension
// means "no restriction", never "exclude all". Selections compose with
// logical AND across dimensions and logical OR within one.
type FilterState struct {
	Status     []string
	Priority   []string
	Assignee   []string
	Sites      []string
	DueBuckets []string
	Query      string
}

// Active reports whether any dimension restricts the record set.
func (f FilterState) Active() bool {
	return len(f.Status) > 0 ||
		len(f.Priority) > 0 ||
		len(f.Assignee) > 0 ||
		len(f.Sites) > 0 ||
		len(f.DueBuckets) > 0 ||
		f.Query != ""
}

// Clear resets every dimension to pass-through.
func (f *FilterState) Clear() {
	*f = FilterState{}
}

// Toggle flips a value in the given selection, returning the updated
// selection. Used by the filter chips in the UI.
func Toggle(selection []string, value string) []string {
	for i, v := range selection {
		if v == value {
			return append(selection[:i], selection[i+1:]...)
		}
	}
	return append(selection, value)
}

// contains is the membership test for one dimension's selection.
func contains(selection []string, value string) bool {
	for _, v := range selection {
		if v == value {
			return true
		}
	}
	return false
}

// Matches reports whether a single record satisfies every active
// dimension of the filter. now anchors the due-date bucket dimension.
func (f FilterState) Matches(r model.Report, now time.Time) bool {
	if f.Query != "" &&
		!strings.Contains(
			strings.ToLower(r.Title),
			strings.ToLower(f.Query),
		) {
		return false
	}

	if len(f.Status) > 0 && !contains(f.Status, r.Status) {
		return false
	}

	if len(f.Priority) > 0 && !contains(f.Priority, r.Priority) {
		return false
	}

	if len(f.Assignee) > 0 && !contains(f.Assignee, r.Assignee) {
		return false
	}

	if len(f.Sites) > 0 && !contains(f.Sites, r.Site) {
		return false
	}

	if len(f.DueBuckets) > 0 &&
		!contains(f.DueBuckets, DueBucketOf(r.DueDate, now)) {
		return false
	}

	return true
}

// Apply produces the ordered subsequence of reports that satisfy the
// filter, sorted by creation timestamp in the given direction. The
// sort is stable: records with equal timestamps keep their original
// relative order. Pure function; the input slice is never mutated.
func Apply(
	reports []model.Report,
	f FilterState,
	dir SortDirection,
	now time.Time,
) []model.Report {
	out := make([]model.Report, 0, len(reports))
	for _, r := range reports {
		if f.Matches(r, now) {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if dir == OldestFirst {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[j].CreatedAt.Before(out[i].CreatedAt)
	})

	return out
}
