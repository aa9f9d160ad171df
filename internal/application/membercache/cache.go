// Package membercache keeps a rendered, per-phone summary of each caller's
// profile and appointments for the agent's system prompt.
package membercache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zatekoja/careline/internal/domain/repositories"
	"github.com/zatekoja/careline/internal/infrastructure/observability"
)

const loadTimeout = 10 * time.Second

// Cache is a process-wide member context cache keyed by phone number.
//
// Each phone has its own entry lock and a version counter. Invalidate bumps
// the version and clears the fresh flag; a load only publishes its result if
// the version is unchanged when it finishes, so data read before an
// invalidating commit can never be marked fresh.
type Cache struct {
	members      repositories.MemberRepository
	appointments repositories.AppointmentRepository
	metrics      *observability.Metrics

	mu      sync.Mutex
	entries map[string]*entry
	loads   singleflight.Group
}

type entry struct {
	mu      sync.Mutex
	info    string
	fresh   bool
	version uint64
}

// New creates an empty cache backed by the store repositories
func New(members repositories.MemberRepository, appointments repositories.AppointmentRepository, metrics *observability.Metrics) *Cache {
	return &Cache{
		members:      members,
		appointments: appointments,
		metrics:      metrics,
		entries:      make(map[string]*entry),
	}
}

func (c *Cache) entry(phone string) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[phone]
	if !ok {
		e = &entry{}
		c.entries[phone] = e
	}
	return e
}

// Get returns the rendered member context, recomputing it from the store
// when the entry is missing or stale. Store errors, including NOT_FOUND,
// are returned and never cached.
func (c *Cache) Get(ctx context.Context, phone string) (string, error) {
	e := c.entry(phone)

	e.mu.Lock()
	if e.fresh {
		info := e.info
		e.mu.Unlock()
		observability.RecordCacheHit(ctx, c.metrics, observability.CacheMemberContext)
		return info, nil
	}
	version := e.version
	e.mu.Unlock()

	observability.RecordCacheMiss(ctx, c.metrics, observability.CacheMemberContext)

	key := fmt.Sprintf("%s#%d", phone, version)
	v, err, _ := c.loads.Do(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return c.load(loadCtx, phone)
	})
	if err != nil {
		return "", err
	}
	info := v.(string)

	e.mu.Lock()
	if e.version == version {
		e.info = info
		e.fresh = true
	}
	e.mu.Unlock()

	return info, nil
}

// Invalidate marks the entry stale without evicting it
func (c *Cache) Invalidate(phone string) {
	e := c.entry(phone)

	e.mu.Lock()
	e.version++
	e.fresh = false
	e.mu.Unlock()
}

// IsFresh reports whether the next Get for phone would be served from memory
func (c *Cache) IsFresh(phone string) bool {
	c.mu.Lock()
	e, ok := c.entries[phone]
	c.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fresh
}

func (c *Cache) load(ctx context.Context, phone string) (string, error) {
	member, err := c.members.GetByPhone(ctx, phone)
	if err != nil {
		return "", err
	}

	appointments, err := c.appointments.ListByPhone(ctx, phone)
	if err != nil {
		return "", err
	}

	return Render(member, appointments), nil
}
