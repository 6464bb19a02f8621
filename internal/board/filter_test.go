package board

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhng/qaboard/internal/model"
)

var testNow = time.Date(2024, time.March, 13, 15, 0, 0, 0, time.UTC)

func report(id, title, status, priority, site string, created time.Time) model.Report {
	return model.Report{
		ID:        id,
		Title:     title,
		Status:    status,
		Priority:  priority,
		Site:      site,
		CreatedAt: created,
	}
}

func testReports() []model.Report {
	base := testNow.Add(-72 * time.Hour)
	return []model.Report{
		report("1", "Broken checkout button", model.StatusNew, model.PriorityLow, "shop", base),
		report("2", "Header overlaps logo", model.StatusInProgress, model.PriorityHigh, "shop", base.Add(time.Hour)),
		report("3", "Typo on landing page", model.StatusDone, model.PriorityMedium, "landing", base.Add(2*time.Hour)),
		report("4", "Checkout form loses state", model.StatusNew, model.PriorityUrgent, "shop", base.Add(3*time.Hour)),
		report("5", "Footer link 404s", model.StatusNew, model.PriorityLow, "landing", base.Add(4*time.Hour)),
	}
}

func TestApply_empty_filter_is_identity_reordered(t *testing.T) {
	in := testReports()

	out := Apply(in, FilterState{}, OldestFirst, testNow)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].ID, out[i].ID)
	}

	newest := Apply(in, FilterState{}, NewestFirst, testNow)
	require.Len(t, newest, len(in))
	assert.Equal(t, "5", newest[0].ID)
	assert.Equal(t, "1", newest[len(newest)-1].ID)
}

func TestApply_output_is_subset_of_input(t *testing.T) {
	in := testReports()
	known := make(map[string]bool, len(in))
	for _, r := range in {
		known[r.ID] = true
	}

	filters := []FilterState{
		{},
		{Status: []string{model.StatusNew}},
		{Priority: []string{model.PriorityHigh, model.PriorityUrgent}},
		{Sites: []string{"shop"}, Query: "checkout"},
		{Query: "zzz-no-match"},
		{Status: []string{model.StatusDone}, Priority: []string{model.PriorityLow}},
	}

	for _, f := range filters {
		for _, r := range Apply(in, f, NewestFirst, testNow) {
			assert.True(t, known[r.ID], "record %s was invented", r.ID)
		}
	}
}

func TestApply_priority_selection_keeps_original_order(t *testing.T) {
	// Five records with priorities [low, high, medium, urgent, low]:
	// selecting {high, urgent} yields exactly the 2nd and 4th, in order.
	in := testReports()

	out := Apply(
		in,
		FilterState{Priority: []string{model.PriorityHigh, model.PriorityUrgent}},
		OldestFirst,
		testNow,
	)

	require.Len(t, out, 2)
	assert.Equal(t, "2", out[0].ID)
	assert.Equal(t, "4", out[1].ID)
}

func TestApply_search_is_case_insensitive_substring(t *testing.T) {
	in := testReports()

	out := Apply(in, FilterState{Query: "CHECKOUT"}, OldestFirst, testNow)
	require.NotEmpty(t, out)
	for _, r := range out {
		assert.True(
			t,
			strings.Contains(strings.ToLower(r.Title), "checkout"),
			"title %q does not contain the search string", r.Title,
		)
	}
	assert.Len(t, out, 2)
}

func TestApply_dimensions_compose_with_and(t *testing.T) {
	in := testReports()

	out := Apply(in, FilterState{
		Status: []string{model.StatusNew},
		Sites:  []string{"shop"},
	}, OldestFirst, testNow)

	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "4", out[1].ID)
}

func TestApply_due_bucket_dimension(t *testing.T) {
	yesterday := testNow.AddDate(0, 0, -1)
	in := []model.Report{
		{ID: "1", Title: "a", Status: model.StatusNew, DueDate: &yesterday},
		{ID: "2", Title: "b", Status: model.StatusNew},
	}

	out := Apply(in, FilterState{DueBuckets: []string{BucketOverdue}}, OldestFirst, testNow)
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].ID)

	out = Apply(in, FilterState{DueBuckets: []string{BucketNoDue}}, OldestFirst, testNow)
	require.Len(t, out, 1)
	assert.Equal(t, "2", out[0].ID)
}

func TestApply_missing_fields_do_not_match(t *testing.T) {
	in := []model.Report{
		{ID: "1", Title: "no assignee set", Status: model.StatusNew},
	}

	out := Apply(in, FilterState{Assignee: []string{"ana"}}, OldestFirst, testNow)
	assert.Empty(t, out)
}

func TestApply_does_not_mutate_input(t *testing.T) {
	in := testReports()
	want := make([]string, len(in))
	for i, r := range in {
		want[i] = r.ID
	}

	Apply(in, FilterState{}, NewestFirst, testNow)

	for i, r := range in {
		assert.Equal(t, want[i], r.ID)
	}
}

func TestToggle_adds_and_removes(t *testing.T) {
	sel := Toggle(nil, model.StatusNew)
	assert.Equal(t, []string{model.StatusNew}, sel)

	sel = Toggle(sel, model.StatusDone)
	assert.Len(t, sel, 2)

	sel = Toggle(sel, model.StatusNew)
	assert.Equal(t, []string{model.StatusDone}, sel)
}
