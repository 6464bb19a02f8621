package board

import (
	"sync"

	"github.com/minhng/qaboard/internal/model"
)

// Cache is the in-memory copy of the report set owned by the view that
// fetched it. The server remains authoritative; the cache only ever
// holds the last confirmed state plus in-flight optimistic updates.
// Insertion order is preserved so that stable sorts and bucket
// partitions stay deterministic across refreshes.
//
// Bubble Tea commands run on their own goroutines, so access is
// guarded by a mutex even though the Update loop itself is serial.
type Cache struct {
	mu      sync.RWMutex
	order   []string
	records map[string]model.Report
}

// NewCache creates a cache seeded with the given reports.
func NewCache(reports ...model.Report) *Cache {
	c := &Cache{records: make(map[string]model.Report, len(reports))}
	for _, r := range reports {
		c.put(r)
	}
	return c
}

// put inserts or replaces a record, preserving the position of an
// existing id. Callers hold no lock; internal use only during New.
func (c *Cache) put(r model.Report) {
	if _, ok := c.records[r.ID]; !ok {
		c.order = append(c.order, r.ID)
	}
	c.records[r.ID] = r
}

// Reset replaces the entire cache contents with a fresh server result.
func (c *Cache) Reset(reports []model.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = c.order[:0]
	c.records = make(map[string]model.Report, len(reports))
	for _, r := range reports {
		c.put(r)
	}
}

// Replace stores a record under its id, keeping its original position
// when it already exists. Used for both optimistic updates and
// server-confirmed reconciliation.
func (c *Cache) Replace(r model.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(r)
}

// Get returns a copy of the record with the given id.
func (c *Cache) Get(id string) (model.Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.records[id]
	return r, ok
}

// Remove deletes a record from the cache.
func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.records[id]; !ok {
		return
	}
	delete(c.records, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// List returns the records in insertion order.
func (c *Cache) List() []model.Report {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Report, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.records[id])
	}
	return out
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
