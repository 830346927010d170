// Package scrapers implements job board adapters. Each adapter is an
// independent unit satisfying the same fetch contract; the orchestrator
// composes them by name through the Registry. Adapters are rate-limit-aware
// against their own host; the orchestrator never throttles for them.
package scrapers

import (
	"context"
	"sort"
	"sync"
	"time"

	"canopy/backend/internal/models"
)

// Query carries the per-run fetch parameters every adapter understands.
type Query struct {
	Location string
	Keywords string
	MaxPages int
}

type Scraper interface {
	Source() string
	Fetch(ctx context.Context, query Query) ([]models.RawListing, error)
}

// Registry maps source names to adapters.
type Registry struct {
	mu       sync.RWMutex
	scrapers map[string]Scraper
}

func NewRegistry() *Registry {
	return &Registry{scrapers: make(map[string]Scraper)}
}

func (r *Registry) Register(s Scraper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrapers[s.Source()] = s
}

func (r *Registry) Get(name string) (Scraper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scrapers[name]
	return s, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.scrapers))
	for name := range r.scrapers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// throttle enforces a minimum delay between requests to one host. Each
// adapter owns its own instance.
type throttle struct {
	mu    sync.Mutex
	delay time.Duration
	last  time.Time
}

func newThrottle(delay time.Duration) *throttle {
	return &throttle{delay: delay}
}

// wait blocks until the inter-request delay has elapsed, or the context is
// cancelled.
func (t *throttle) wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		if remaining := t.delay - time.Since(t.last); remaining > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(remaining):
			}
		}
	}

	t.last = time.Now()
	return nil
}
