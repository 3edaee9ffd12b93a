// Package cache implements an in-memory read cache with TTL expiry and
// optional live updates. Entries are keyed "<table>:<scope>"; the table
// segment names the remote change-stream a live entry listens to. The cache
// is an explicitly constructed, injectable object so tests can run isolated
// instances and control the clock.
package cache

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"glidepath/internal/logger"
	"glidepath/internal/remote"
)

// DefaultTTL is how long an entry stays fresh unless configured otherwise.
const DefaultTTL = 5 * time.Minute

// Options control a single Set call.
type Options struct {
	// Realtime subscribes the entry to its table's change-stream so remote
	// inserts, updates, and deletes patch the cached value in place.
	Realtime bool
}

// Config controls cache construction.
type Config struct {
	TTL time.Duration
	// Now is the clock used for expiry checks. Defaults to time.Now.
	Now func() time.Time
	// DisableRealtime turns every Realtime request into plain TTL caching.
	// Deployment kill-switch; entries are still cached, just never subscribed.
	DisableRealtime bool
}

type entry struct {
	data     interface{}
	storedAt time.Time
	sub      remote.Subscription
}

// Cache is a TTL cache over string keys. Expiry is checked lazily on read;
// there is no background sweeper.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	ttl        time.Duration
	now        func() time.Time
	remote     remote.Service
	noRealtime bool
}

// New creates a cache. svc may be nil, in which case Realtime requests
// degrade to plain TTL caching.
func New(svc remote.Service, cfg Config) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache{
		entries:    make(map[string]*entry),
		ttl:        cfg.TTL,
		now:        cfg.Now,
		remote:     svc,
		noRealtime: cfg.DisableRealtime,
	}
}

// Get returns the cached data for key, or nil and false on a miss. An entry
// older than the TTL is purged (releasing its subscription) and reported as
// a miss.
func (c *Cache) Get(key string) (interface{}, bool) {
	tableFromKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		c.removeLocked(key)
		return nil, false
	}
	return e.data, true
}

// Set stores data under key with a fresh timestamp. An existing entry's
// subscription survives the overwrite; a routine refresh must never silently
// drop a live stream. When opts.Realtime is set and no subscription exists
// yet, one is established for the key's table segment. Subscription failures
// are logged and swallowed: the entry stays valid, it just stops short of
// live updates.
func (c *Cache) Set(key string, data interface{}, opts Options) {
	table := tableFromKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.data = data
	e.storedAt = c.now()

	if opts.Realtime && !c.noRealtime && e.sub == nil && c.remote != nil {
		sub, err := c.remote.Subscribe(table, func(change remote.Change) {
			c.applyChange(key, change)
		})
		if err != nil {
			logger.Get().Warnw("cache subscription failed", "key", key, "error", err)
			return
		}
		e.sub = sub
	}
}

// Delete removes the entry for key, releasing its subscription first.
func (c *Cache) Delete(key string) {
	tableFromKey(key)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// Clear removes every entry and releases every subscription. Used on session
// teardown.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		c.removeLocked(key)
	}
}

// Len returns the number of live entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) removeLocked(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	if e.sub != nil {
		e.sub.Unsubscribe()
	}
	delete(c.entries, key)
}

// applyChange patches a cached value in place from a change notification.
// Collections get element-level insert/update/delete; a scalar record is
// replaced on a matching update and the whole entry is dropped on a matching
// delete.
func (c *Cache) applyChange(key string, change remote.Change) {
	if change.Row == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}

	rv := reflect.ValueOf(e.data)
	if rv.Kind() == reflect.Slice {
		if patched, ok := patchCollection(rv, change); ok {
			e.data = patched.Interface()
		}
		return
	}

	rec, ok := e.data.(remote.Record)
	if !ok || rec.RecordID() != change.Row.RecordID() {
		return
	}
	switch change.Kind {
	case remote.ChangeUpdate:
		if replacement, ok := coerce(change.Row, rv.Type()); ok {
			e.data = replacement.Interface()
		}
	case remote.ChangeDelete:
		c.removeLocked(key)
	}
}

// patchCollection returns the updated slice and whether anything changed.
func patchCollection(slice reflect.Value, change remote.Change) (reflect.Value, bool) {
	switch change.Kind {
	case remote.ChangeInsert:
		if elem, ok := coerce(change.Row, slice.Type().Elem()); ok {
			return reflect.Append(slice, elem), true
		}
	case remote.ChangeUpdate:
		for i := 0; i < slice.Len(); i++ {
			rec, ok := slice.Index(i).Interface().(remote.Record)
			if !ok || rec.RecordID() != change.Row.RecordID() {
				continue
			}
			if elem, ok := coerce(change.Row, slice.Type().Elem()); ok {
				out := reflect.MakeSlice(slice.Type(), slice.Len(), slice.Len())
				reflect.Copy(out, slice)
				out.Index(i).Set(elem)
				return out, true
			}
		}
	case remote.ChangeDelete:
		for i := 0; i < slice.Len(); i++ {
			rec, ok := slice.Index(i).Interface().(remote.Record)
			if !ok || rec.RecordID() != change.Row.RecordID() {
				continue
			}
			// Build a fresh slice; appending to a sub-slice of the original
			// would shift elements under snapshots handed out by Get.
			out := reflect.MakeSlice(slice.Type(), 0, slice.Len()-1)
			out = reflect.AppendSlice(out, slice.Slice(0, i))
			out = reflect.AppendSlice(out, slice.Slice(i+1, slice.Len()))
			return out, true
		}
	}
	return reflect.Value{}, false
}

// coerce adapts a change row to the target type, dereferencing a pointer row
// when the target holds values.
func coerce(row remote.Record, target reflect.Type) (reflect.Value, bool) {
	v := reflect.ValueOf(row)
	if v.Type() == target {
		return v, true
	}
	if v.Kind() == reflect.Ptr && v.Elem().Type() == target {
		return v.Elem(), true
	}
	return reflect.Value{}, false
}

// tableFromKey returns the table segment of a cache key. A key without one is
// a programming mistake and panics.
func tableFromKey(key string) string {
	table, _, ok := strings.Cut(key, ":")
	if !ok || table == "" {
		panic(fmt.Sprintf("cache: malformed key %q, want \"<table>:<scope>\"", key))
	}
	return table
}
