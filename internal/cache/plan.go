package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"budgetbot/internal/core"
	"budgetbot/internal/planstore"
)

// DefaultPlanTTL bounds how long a loaded plan is served without a reload.
const DefaultPlanTTL = 10 * time.Second

// Entry is one loaded snapshot of the budget document. It is replaced whole
// on every refresh and never mutated.
type Entry struct {
	Value         *core.Document // nil when the store had no plan
	LoadedAt      time.Time
	SourceVersion core.Version
}

// IsValid reports whether entry may be served without reloading: it exists,
// is no older than ttl, and was loaded from the store's current version.
func IsValid(entry *Entry, now time.Time, ttl time.Duration, storeVersion core.Version) bool {
	if entry == nil {
		return false
	}
	if now.Sub(entry.LoadedAt) > ttl {
		return false
	}
	return entry.SourceVersion == storeVersion
}

func (e *Entry) document() (*core.Document, error) {
	if e.Value == nil {
		return nil, core.ErrNoPlan
	}
	return e.Value.Clone(), nil
}

// PlanCache is a read-through cache over a plan store. Concurrent refreshes
// collapse into a single store read.
type PlanCache struct {
	store planstore.Store
	ttl   time.Duration
	now   func() time.Time

	mu    sync.RWMutex
	entry *Entry
	gen   uint64

	group singleflight.Group
}

func NewPlanCache(store planstore.Store, ttl time.Duration) *PlanCache {
	if ttl <= 0 {
		ttl = DefaultPlanTTL
	}
	return &PlanCache{store: store, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (c *PlanCache) WithClock(now func() time.Time) *PlanCache {
	c.now = now
	return c
}

// Get returns a private copy of the current document, reloading from the
// store when forced or when the cached entry is no longer valid. If a reload
// fails the previous entry is served. core.ErrNoPlan means the store holds
// no plan.
func (c *PlanCache) Get(ctx context.Context, force bool) (*core.Document, error) {
	c.mu.RLock()
	entry, gen := c.entry, c.gen
	c.mu.RUnlock()

	if !force && entry != nil {
		version, err := c.store.Version(ctx)
		if err != nil {
			slog.DebugContext(ctx, "Plan version check failed, reloading", "error", err)
		} else if IsValid(entry, c.now(), c.ttl, version) {
			return entry.document()
		}
	}

	v, err, _ := c.group.Do("plan:"+strconv.FormatUint(gen, 10), func() (any, error) {
		return c.load(context.WithoutCancel(ctx), gen)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry).document()
}

func (c *PlanCache) load(ctx context.Context, gen uint64) (*Entry, error) {
	// Version first: a write landing between the two calls is caught by
	// the next version check.
	version, verr := c.store.Version(ctx)
	doc, err := c.store.Read(ctx)
	if err != nil && !errors.Is(err, core.ErrNoPlan) {
		c.mu.RLock()
		prev := c.entry
		c.mu.RUnlock()
		if prev != nil {
			slog.WarnContext(ctx, "Plan reload failed, serving cached copy",
				"error", err,
				"loaded_at", prev.LoadedAt)
			return prev, nil
		}
		return nil, fmt.Errorf("load budget plan: %w", err)
	}
	if verr != nil {
		version = 0
	}

	entry := &Entry{Value: doc, LoadedAt: c.now(), SourceVersion: version}

	c.mu.Lock()
	if c.gen == gen {
		c.entry = entry
	}
	c.mu.Unlock()
	return entry, nil
}

// Invalidate drops the cached entry. In-flight reloads started before the
// call do not repopulate the cache.
func (c *PlanCache) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.gen++
	c.mu.Unlock()
}

// Snapshot returns the current entry without touching the store.
func (c *PlanCache) Snapshot() (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return Entry{}, false
	}
	return *c.entry, true
}
