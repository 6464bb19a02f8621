package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhng/qaboard/internal/gateway"
	"github.com/minhng/qaboard/internal/model"
	"github.com/minhng/qaboard/internal/store"
	"github.com/minhng/qaboard/tests/testutil"
)

func TestUpsertReports_first_sync_is_backfill(t *testing.T) {
	st := testutil.NewTestStore(t)
	p := &Poller{store: st}
	ctx := context.Background()

	n, err := p.upsertReports(ctx, []model.Report{
		{ID: "1", Title: "a", Status: model.StatusNew},
		{ID: "2", Title: "b", Status: model.StatusDone},
	})
	require.NoError(t, err)
	assert.Zero(t, n, "seeding an empty cache is not news")

	cached, err := st.GetReports(ctx, store.ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	unread, err := st.CountUnread(ctx)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestUpsertReports_notifies_on_new_records(t *testing.T) {
	st := testutil.NewTestStore(t)
	p := &Poller{store: st}
	ctx := context.Background()

	require.NoError(t, st.UpsertReports(ctx, []model.Report{
		{ID: "1", Title: "known report", Status: model.StatusNew},
	}))

	n, err := p.upsertReports(ctx, []model.Report{
		{ID: "1", Title: "known report", Status: model.StatusNew},
		{ID: "2", Title: "freshly filed", Status: model.StatusNew},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	unread, err := st.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "2", unread[0].ReportID)
	assert.Equal(t, "New report: freshly filed", unread[0].Message)
}

func TestUpsertReports_nothing_fetched_is_noop(t *testing.T) {
	st := testutil.NewTestStore(t)
	p := &Poller{store: st}

	n, err := p.upsertReports(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSyncOnce_publishes_reports_and_unread_count(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/tasks":
				w.Write([]byte(`[
					{"id": "1", "title": "slow page", "status": "new"},
					{"id": "2", "title": "broken link", "status": "done"}
				]`))
			case "/api/notifications":
				w.Write([]byte(`[]`))
			default:
				http.NotFound(w, r)
			}
		}))
	defer srv.Close()

	st := testutil.NewTestStore(t)
	p := New(gateway.New(srv.URL, "t", 0), st, time.Minute)

	p.syncOnce()

	var msg SyncResultMsg
	select {
	case msg = <-p.resultCh:
	default:
		t.Fatal("no sync result published")
	}

	require.NoError(t, msg.Error)
	assert.Len(t, msg.Reports, 2)
	assert.Zero(t, msg.NewCount)
	assert.Zero(t, msg.UnreadCount)

	state, last := p.Status()
	assert.Equal(t, SyncIdle, state)
	assert.False(t, last.IsZero())

	cached, err := st.GetReports(context.Background(), store.ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestPoller_restart_resumes_syncing(t *testing.T) {
	var syncs atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/tasks" {
				syncs.Add(1)
			}
			w.Write([]byte(`[]`))
		}))
	defer srv.Close()

	st := testutil.NewTestStore(t)
	p := New(gateway.New(srv.URL, "t", 0), st, 25*time.Millisecond)

	p.Start()
	require.Eventually(t, func() bool { return syncs.Load() >= 2 },
		2*time.Second, 5*time.Millisecond)
	p.Stop()

	// Logging out and back in stops and restarts the poller; the new
	// run must keep ticking and honor manual refreshes.
	p.Start()
	after := syncs.Load()
	p.Refresh()
	require.Eventually(t, func() bool { return syncs.Load() >= after+2 },
		2*time.Second, 5*time.Millisecond,
		"restarted poller stopped syncing")
	p.Stop()
}

func TestSyncOnce_flags_auth_errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"token expired"}`))
		}))
	defer srv.Close()

	st := testutil.NewTestStore(t)
	p := New(gateway.New(srv.URL, "stale", 0), st, time.Minute)

	p.syncOnce()

	var msg SyncResultMsg
	select {
	case msg = <-p.resultCh:
	default:
		t.Fatal("no sync result published")
	}

	require.Error(t, msg.Error)
	assert.True(t, msg.AuthError)

	state, _ := p.Status()
	assert.Equal(t, SyncError, state)
}
