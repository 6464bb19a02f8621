// Package sync polls the remote backend on a fixed interval and keeps
// the local cache store up to date. Notifications are poll-based; the
// backend offers no push channel.
package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/minhng/qaboard/internal/gateway"
	"github.com/minhng/qaboard/internal/model"
	"github.com/minhng/qaboard/internal/store"
)

// SyncState represents the current state of the background sync loop.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncResultMsg is a tea.Msg sent when a sync cycle completes.
type SyncResultMsg struct {
	Reports     []model.Report
	Error       error
	AuthError   bool
	NewCount    int
	UnreadCount int
}

// fetchTimeout is the maximum time allowed for a single sync cycle.
const fetchTimeout = 30 * time.Second

// Poller periodically fetches the user's reports and notifications
// from the backend and upserts them into the local store.
type Poller struct {
	api      *gateway.API
	store    store.Store
	interval time.Duration

	resultCh  chan SyncResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
	state     SyncState
	lastSync  time.Time
}

// New creates a new Poller over the given gateway and store.
func New(api *gateway.API, s store.Store, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Poller{
		api:       api,
		store:     s,
		interval:  interval,
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
	}
}

// Start launches the polling goroutine and returns a subscription
// command that delivers SyncResultMsg messages to the Bubble Tea
// runtime. Calling Start twice is a no-op; calling it again after
// Stop launches a fresh loop.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return p.waitForResult()
	}
	p.running = true
	// Each run gets its own stop channel so a stopped poller can be
	// restarted after re-login.
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.mu.Unlock()

	go p.loop(stop)

	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate sync cycle.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A refresh is already queued.
	}
	return nil
}

// Status returns the sync state and the time of the last successful sync.
func (p *Poller) Status() (SyncState, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.lastSync
}

// loop runs the polling loop until the run's stop channel closes.
func (p *Poller) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Initial fetch immediately.
	p.syncOnce()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.syncOnce()
		case <-p.triggerCh:
			p.syncOnce()
		}
	}
}

// syncOnce performs a single sync cycle: fetch reports and
// notifications, upsert into the store, and publish the result.
func (p *Poller) syncOnce() {
	p.setState(SyncRunning)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	reports, err := p.api.ListTasks(ctx)
	if err != nil {
		p.setState(SyncError)
		log.Warn().Err(err).Msg("sync: fetching tasks failed")
		p.sendResult(SyncResultMsg{
			Error:     err,
			AuthError: gateway.IsAuthError(err),
		})
		return
	}

	newCount, err := p.upsertReports(ctx, reports)
	if err != nil {
		p.setState(SyncError)
		p.sendResult(SyncResultMsg{Error: err})
		return
	}

	// Notification fetch failure is isolated: the report sync above
	// already succeeded and is still published.
	if ns, nerr := p.api.ListNotifications(ctx); nerr != nil {
		log.Warn().Err(nerr).Msg("sync: fetching notifications failed")
	} else if uerr := p.store.UpsertNotifications(ctx, ns); uerr != nil {
		log.Warn().Err(uerr).Msg("sync: caching notifications failed")
	}

	unread, err := p.store.CountUnread(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("sync: counting unread failed")
	}

	p.setState(SyncIdle)
	p.sendResult(SyncResultMsg{
		Reports:     reports,
		NewCount:    newCount,
		UnreadCount: unread,
	})
}

// upsertReports caches the fetched reports and returns how many were
// not previously known, creating a local notification for each.
func (p *Poller) upsertReports(
	ctx context.Context,
	reports []model.Report,
) (int, error) {
	if len(reports) == 0 {
		return 0, nil
	}

	existing, err := p.store.GetReports(ctx, store.ReportFilter{})
	if err != nil {
		return 0, fmt.Errorf("reading cached reports: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, r := range existing {
		known[r.ID] = true
	}

	if err := p.store.UpsertReports(ctx, reports); err != nil {
		return 0, fmt.Errorf("caching reports: %w", err)
	}

	var fresh []model.Notification
	for _, r := range reports {
		if known[r.ID] {
			continue
		}
		fresh = append(fresh, model.Notification{
			ID:        uuid.NewString(),
			ReportID:  r.ID,
			Message:   "New report: " + r.Title,
			CreatedAt: time.Now(),
		})
	}
	// First sync on an empty cache is a backfill, not news.
	if len(existing) > 0 && len(fresh) > 0 {
		if err := p.store.UpsertNotifications(ctx, fresh); err != nil {
			log.Warn().Err(err).Msg("sync: recording new-report notifications failed")
		}
		return len(fresh), nil
	}
	return 0, nil
}

// setState updates the sync state under the lock.
func (p *Poller) setState(s SyncState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
	if s == SyncIdle {
		p.lastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg without blocking the poll loop.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if the channel is full.
	}
}

// waitForResult returns a tea.Cmd that waits for the next sync result.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult re-subscribes after a SyncResultMsg was handled.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
