package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhng/qaboard/internal/model"
	"github.com/minhng/qaboard/internal/store"
	"github.com/minhng/qaboard/tests/testutil"
)

func sampleReports(now time.Time) []model.Report {
	due := now.AddDate(0, 0, 2)
	return []model.Report{
		{
			ID:        "r1",
			Title:     "Login form misaligned",
			Comment:   "button overflows on mobile",
			Status:    model.StatusNew,
			Priority:  model.PriorityHigh,
			Site:      "shop",
			CreatedAt: now.Add(-2 * time.Hour),
			FetchedAt: now,
		},
		{
			ID:        "r2",
			Title:     "Search returns stale results",
			Status:    model.StatusInProgress,
			Priority:  model.PriorityMedium,
			Site:      "shop",
			CreatedAt: now.Add(-time.Hour),
			DueDate:   &due,
			FetchedAt: now,
		},
		{
			ID:        "r3",
			Title:     "Privacy page typo",
			Status:    model.StatusDone,
			Priority:  model.PriorityLow,
			Site:      "landing",
			CreatedAt: now,
			FetchedAt: now,
		},
	}
}

func TestReports_upsert_and_query(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.UpsertReports(ctx, sampleReports(now)))

	all, err := s.GetReports(ctx, store.ReportFilter{SortDesc: true})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "r3", all[0].ID, "newest first when SortDesc")

	site := "shop"
	shop, err := s.GetReports(ctx, store.ReportFilter{Site: &site})
	require.NoError(t, err)
	assert.Len(t, shop, 2)

	status := model.StatusDone
	done, err := s.GetReports(ctx, store.ReportFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "r3", done[0].ID)

	q := "stale"
	found, err := s.GetReports(ctx, store.ReportFilter{Query: &q})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "r2", found[0].ID)
}

func TestReports_upsert_replaces_existing(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	reports := sampleReports(now)
	require.NoError(t, s.UpsertReports(ctx, reports))

	reports[0].Status = model.StatusDone
	require.NoError(t, s.UpsertReports(ctx, reports[:1]))

	got, err := s.GetReportByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, got.Status)

	all, err := s.GetReports(ctx, store.ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3, "upsert must not duplicate rows")
}

func TestReports_due_date_round_trip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.UpsertReports(ctx, sampleReports(now)))

	withDue, err := s.GetReportByID(ctx, "r2")
	require.NoError(t, err)
	require.NotNil(t, withDue.DueDate)
	assert.True(t, withDue.DueDate.Equal(now.AddDate(0, 0, 2)))

	noDue, err := s.GetReportByID(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, noDue.DueDate)
}

func TestReports_delete(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.UpsertReports(ctx, sampleReports(now)))
	require.NoError(t, s.DeleteReport(ctx, "r2"))

	_, err := s.GetReportByID(ctx, "r2")
	assert.Error(t, err)

	all, err := s.GetReports(ctx, store.ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSites_pinned_sort_and_archived_filter(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	sites := []model.Site{
		{ID: "s1", Name: "Beta", Slug: "beta", LastUpdated: now},
		{ID: "s2", Name: "Alpha", Slug: "alpha", Pinned: true, LastUpdated: now},
		{ID: "s3", Name: "Old", Slug: "old", Archived: true, LastUpdated: now},
	}
	require.NoError(t, s.UpsertSites(ctx, sites))

	visible, err := s.GetSites(ctx, false)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "s2", visible[0].ID, "pinned site sorts first")

	all, err := s.GetSites(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNotifications_read_state_survives_upsert(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	ns := []model.Notification{
		{ID: "n1", Message: "New report on shop", CreatedAt: now},
		{ID: "n2", Message: "You were assigned", CreatedAt: now},
	}
	require.NoError(t, s.UpsertNotifications(ctx, ns))

	count, err := s.CountUnread(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, s.MarkNotificationRead(ctx, "n1"))

	// A poll cycle re-upserts the same server payload, still unread.
	require.NoError(t, s.UpsertNotifications(ctx, ns))

	unread, err := s.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "n2", unread[0].ID)
}

func TestMarkNotificationRead_unknown_id(t *testing.T) {
	s := testutil.NewTestStore(t)
	err := s.MarkNotificationRead(context.Background(), "missing")
	assert.Error(t, err)
}
