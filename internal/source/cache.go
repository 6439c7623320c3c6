package source

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"fleet-ops-report/internal/logger"
	"fleet-ops-report/internal/metrics"
	"fleet-ops-report/internal/models"
)

// Versioned is implemented by sources that can report a cheap content
// version. A cached batch whose version no longer matches is reloaded.
type Versioned interface {
	Version(ctx context.Context) (string, error)
}

// Cache is a read-through cache of source batches keyed by Source.Key. At
// most one load per key is in flight; concurrent callers share its result.
// Cached slices are shared and must be treated as read-only.
type Cache struct {
	mu          sync.Mutex
	generations map[string]uint64 // bumped by Invalidate, per key
	lru         *expirable.LRU[string, *entry]
	maxEntries  int
	ttl         time.Duration

	group   singleflight.Group
	metrics metrics.Recorder
	log     logger.Logger
}

type entry struct {
	records []models.EventRecord
	version string
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithMaxEntries caps the number of cached batches; 0 means unbounded.
func WithMaxEntries(n int) CacheOption {
	return func(c *Cache) { c.maxEntries = n }
}

// WithTTL expires batches older than ttl; 0 disables expiry.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

func WithMetrics(m metrics.Recorder) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

func WithLogger(l logger.Logger) CacheOption {
	return func(c *Cache) { c.log = l }
}

func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		generations: make(map[string]uint64),
		metrics:     metrics.NopRecorder{},
		log:         logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxEntries < 0 {
		c.maxEntries = 0
	}
	c.lru = expirable.NewLRU[string, *entry](c.maxEntries, func(key string, _ *entry) {
		c.metrics.CacheEviction()
	}, c.ttl)
	return c
}

// Get returns the batch for src, loading it on a miss. Load errors are
// returned to every waiting caller and are not cached. The load itself is
// detached from ctx so one caller giving up does not fail the others; each
// caller still stops waiting when its own ctx is done.
func (c *Cache) Get(ctx context.Context, src Source) ([]models.EventRecord, error) {
	key := src.Key()
	version, err := sourceVersion(ctx, src)
	if err != nil {
		return nil, err
	}
	if records, ok := c.lookup(key, version); ok {
		c.metrics.CacheHit(src.Kind())
		return records, nil
	}
	c.metrics.CacheMiss(src.Kind())

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// a flight that finished between lookup and DoChan already stored it
		if records, ok := c.lookup(key, version); ok {
			return records, nil
		}
		gen := c.generation(key)

		start := time.Now()
		records, err := src.Load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.store(key, &entry{records: records, version: version}, gen)
		c.metrics.RecordsLoaded(src.Kind(), len(records))
		c.log.Debugw("source loaded", map[string]any{
			"key":     key,
			"records": len(records),
			"took_ms": time.Since(start).Milliseconds(),
		})
		return records, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.log.Debugf("source %s: shared in-flight load", key)
		}
		return res.Val.([]models.EventRecord), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops key. A load of key already in flight will not be stored.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	c.generations[key]++
	c.mu.Unlock()
	c.lru.Remove(key)
	c.group.Forget(key)
}

// Len returns the number of cached batches.
func (c *Cache) Len() int {
	return c.lru.Len()
}

func sourceVersion(ctx context.Context, src Source) (string, error) {
	v, ok := src.(Versioned)
	if !ok {
		return "", nil
	}
	return v.Version(ctx)
}

func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key]
}

func (c *Cache) lookup(key, version string) ([]models.EventRecord, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if e.version != version {
		c.lru.Remove(key)
		return nil, false
	}
	return e.records, true
}

func (c *Cache) store(key string, e *entry, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generations[key] {
		return
	}
	c.lru.Add(key, e)
}
