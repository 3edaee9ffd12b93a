package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"glidepath/internal/remote"
)

type fakeRow struct {
	ID   string
	Name string
}

func (r fakeRow) RecordID() string { return r.ID }

// fakeService is a remote.Service whose change feed is a plain Bus, with
// bookkeeping for how many subscriptions were opened and how many are live.
type fakeService struct {
	bus        *remote.Bus
	subErr     error
	subscribes int
	active     int
}

func newFakeService() *fakeService {
	return &fakeService{bus: remote.NewBus()}
}

func (f *fakeService) Query(ctx context.Context, table string, dest interface{}, opts remote.QueryOptions) error {
	return nil
}

func (f *fakeService) Insert(ctx context.Context, table string, record interface{}) error {
	return nil
}

func (f *fakeService) Update(ctx context.Context, table string, updates map[string]interface{}, filters ...remote.Filter) error {
	return nil
}

func (f *fakeService) Subscribe(table string, handler remote.ChangeHandler) (remote.Subscription, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.subscribes++
	f.active++
	return &countingSub{svc: f, inner: f.bus.Subscribe(table, handler)}, nil
}

func (f *fakeService) CurrentIdentity(ctx context.Context) (string, bool) {
	return "", false
}

type countingSub struct {
	svc   *fakeService
	inner remote.Subscription
	once  sync.Once
}

func (s *countingSub) Unsubscribe() {
	s.once.Do(func() {
		s.svc.active--
		s.inner.Unsubscribe()
	})
}

// clock is a manually advanced time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestCacheGetSet(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		c := New(nil, Config{})
		c.Set("budgets:current", fakeRow{ID: "1", Name: "march"}, Options{})

		got, ok := c.Get("budgets:current")
		if !ok {
			t.Fatal("expected hit")
		}
		if got.(fakeRow).Name != "march" {
			t.Errorf("expected march, got %v", got)
		}
	})

	t.Run("miss", func(t *testing.T) {
		c := New(nil, Config{})
		if _, ok := c.Get("budgets:none"); ok {
			t.Fatal("expected miss")
		}
	})

	t.Run("overwrite_refreshes_value", func(t *testing.T) {
		c := New(nil, Config{})
		c.Set("budgets:current", fakeRow{ID: "1", Name: "old"}, Options{})
		c.Set("budgets:current", fakeRow{ID: "1", Name: "new"}, Options{})

		got, _ := c.Get("budgets:current")
		if got.(fakeRow).Name != "new" {
			t.Errorf("expected new, got %v", got)
		}
		if c.Len() != 1 {
			t.Errorf("expected 1 entry, got %d", c.Len())
		}
	})

	t.Run("malformed_key_panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic on key without table segment")
			}
		}()
		c := New(nil, Config{})
		c.Set("no-table-segment", fakeRow{}, Options{})
	})
}

func TestCacheTTL(t *testing.T) {
	t.Run("fresh_within_ttl", func(t *testing.T) {
		clk := newClock()
		c := New(nil, Config{TTL: 5 * time.Minute, Now: clk.Now})
		c.Set("budgets:current", fakeRow{ID: "1"}, Options{})

		clk.Advance(5 * time.Minute)
		if _, ok := c.Get("budgets:current"); !ok {
			t.Fatal("expected hit exactly at TTL")
		}
	})

	t.Run("expired_entry_is_a_miss", func(t *testing.T) {
		clk := newClock()
		c := New(nil, Config{TTL: 5 * time.Minute, Now: clk.Now})
		c.Set("budgets:current", fakeRow{ID: "1"}, Options{})

		clk.Advance(5*time.Minute + time.Second)
		if _, ok := c.Get("budgets:current"); ok {
			t.Fatal("expected miss past TTL")
		}
		if c.Len() != 0 {
			t.Errorf("expected expired entry purged, got %d entries", c.Len())
		}
	})

	t.Run("expiry_releases_subscription", func(t *testing.T) {
		svc := newFakeService()
		clk := newClock()
		c := New(svc, Config{TTL: time.Minute, Now: clk.Now})
		c.Set("budgets:current", fakeRow{ID: "1"}, Options{Realtime: true})

		if svc.active != 1 {
			t.Fatalf("expected 1 live subscription, got %d", svc.active)
		}
		clk.Advance(2 * time.Minute)
		c.Get("budgets:current")
		if svc.active != 0 {
			t.Errorf("expected subscription released on expiry, got %d live", svc.active)
		}
	})

	t.Run("set_restores_freshness", func(t *testing.T) {
		clk := newClock()
		c := New(nil, Config{TTL: time.Minute, Now: clk.Now})
		c.Set("budgets:current", fakeRow{ID: "1"}, Options{})

		clk.Advance(50 * time.Second)
		c.Set("budgets:current", fakeRow{ID: "1"}, Options{})
		clk.Advance(50 * time.Second)

		if _, ok := c.Get("budgets:current"); !ok {
			t.Fatal("expected hit, Set should reset the entry's age")
		}
	})
}

func TestCacheSubscriptions(t *testing.T) {
	t.Run("set_preserves_existing_subscription", func(t *testing.T) {
		svc := newFakeService()
		c := New(svc, Config{})
		c.Set("budgets:current", fakeRow{ID: "1", Name: "a"}, Options{Realtime: true})
		c.Set("budgets:current", fakeRow{ID: "1", Name: "b"}, Options{Realtime: true})

		if svc.subscribes != 1 {
			t.Errorf("expected a single subscription across refreshes, got %d", svc.subscribes)
		}

		// The surviving subscription still patches the refreshed value.
		svc.bus.Publish(remote.Change{Kind: remote.ChangeUpdate, Table: "budgets", Row: fakeRow{ID: "1", Name: "c"}})
		got, _ := c.Get("budgets:current")
		if got.(fakeRow).Name != "c" {
			t.Errorf("expected patched value c, got %v", got)
		}
	})

	t.Run("delete_unsubscribes", func(t *testing.T) {
		svc := newFakeService()
		c := New(svc, Config{})
		c.Set("budgets:current", fakeRow{ID: "1"}, Options{Realtime: true})
		c.Delete("budgets:current")

		if svc.active != 0 {
			t.Errorf("expected 0 live subscriptions after delete, got %d", svc.active)
		}
		if _, ok := c.Get("budgets:current"); ok {
			t.Fatal("expected miss after delete")
		}
	})

	t.Run("clear_unsubscribes_everything", func(t *testing.T) {
		svc := newFakeService()
		c := New(svc, Config{})
		c.Set("budgets:a", fakeRow{ID: "1"}, Options{Realtime: true})
		c.Set("transactions:b", fakeRow{ID: "2"}, Options{Realtime: true})
		c.Clear()

		if svc.active != 0 {
			t.Errorf("expected 0 live subscriptions after clear, got %d", svc.active)
		}
		if c.Len() != 0 {
			t.Errorf("expected empty cache, got %d entries", c.Len())
		}
	})

	t.Run("subscribe_failure_keeps_entry", func(t *testing.T) {
		svc := newFakeService()
		svc.subErr = errors.New("stream unavailable")
		c := New(svc, Config{})
		c.Set("budgets:current", fakeRow{ID: "1", Name: "a"}, Options{Realtime: true})

		got, ok := c.Get("budgets:current")
		if !ok || got.(fakeRow).Name != "a" {
			t.Fatal("expected entry cached despite subscription failure")
		}
	})

	t.Run("no_subscription_without_realtime", func(t *testing.T) {
		svc := newFakeService()
		c := New(svc, Config{})
		c.Set("budgets:current", fakeRow{ID: "1"}, Options{})

		if svc.subscribes != 0 {
			t.Errorf("expected no subscription, got %d", svc.subscribes)
		}
	})

	t.Run("disable_realtime_overrides_options", func(t *testing.T) {
		svc := newFakeService()
		c := New(svc, Config{DisableRealtime: true})
		c.Set("budgets:current", fakeRow{ID: "1", Name: "a"}, Options{Realtime: true})

		if svc.subscribes != 0 {
			t.Errorf("expected no subscription with realtime disabled, got %d", svc.subscribes)
		}
		got, ok := c.Get("budgets:current")
		if !ok || got.(fakeRow).Name != "a" {
			t.Fatal("expected entry still cached without a subscription")
		}
	})
}

func TestCacheLiveCollection(t *testing.T) {
	setup := func(t *testing.T) (*fakeService, *Cache) {
		t.Helper()
		svc := newFakeService()
		c := New(svc, Config{})
		rows := []fakeRow{{ID: "1", Name: "rent"}, {ID: "2", Name: "food"}}
		c.Set("transactions:user-1", rows, Options{Realtime: true})
		return svc, c
	}

	t.Run("insert_appends", func(t *testing.T) {
		svc, c := setup(t)
		svc.bus.Publish(remote.Change{Kind: remote.ChangeInsert, Table: "transactions", Row: fakeRow{ID: "3", Name: "coffee"}})

		got, _ := c.Get("transactions:user-1")
		rows := got.([]fakeRow)
		if len(rows) != 3 || rows[2].Name != "coffee" {
			t.Errorf("expected coffee appended, got %v", rows)
		}
	})

	t.Run("update_replaces_matching_element", func(t *testing.T) {
		svc, c := setup(t)
		svc.bus.Publish(remote.Change{Kind: remote.ChangeUpdate, Table: "transactions", Row: fakeRow{ID: "2", Name: "groceries"}})

		got, _ := c.Get("transactions:user-1")
		rows := got.([]fakeRow)
		if len(rows) != 2 || rows[1].Name != "groceries" {
			t.Errorf("expected food replaced by groceries, got %v", rows)
		}
	})

	t.Run("delete_removes_matching_element", func(t *testing.T) {
		svc, c := setup(t)
		svc.bus.Publish(remote.Change{Kind: remote.ChangeDelete, Table: "transactions", Row: fakeRow{ID: "1"}})

		got, _ := c.Get("transactions:user-1")
		rows := got.([]fakeRow)
		if len(rows) != 1 || rows[0].ID != "2" {
			t.Errorf("expected only row 2 left, got %v", rows)
		}
	})

	t.Run("delete_leaves_prior_snapshots_intact", func(t *testing.T) {
		svc := newFakeService()
		c := New(svc, Config{})
		rows := []fakeRow{{ID: "1", Name: "rent"}, {ID: "2", Name: "food"}, {ID: "3", Name: "coffee"}}
		c.Set("transactions:user-1", rows, Options{Realtime: true})

		snapshot, _ := c.Get("transactions:user-1")
		before := snapshot.([]fakeRow)

		svc.bus.Publish(remote.Change{Kind: remote.ChangeDelete, Table: "transactions", Row: fakeRow{ID: "1"}})

		if len(before) != 3 || before[0].Name != "rent" || before[1].Name != "food" || before[2].Name != "coffee" {
			t.Errorf("expected earlier snapshot untouched by delete, got %v", before)
		}
		got, _ := c.Get("transactions:user-1")
		after := got.([]fakeRow)
		if len(after) != 2 || after[0].ID != "2" || after[1].ID != "3" {
			t.Errorf("expected rows 2 and 3 left, got %v", after)
		}
	})

	t.Run("unknown_row_is_ignored", func(t *testing.T) {
		svc, c := setup(t)
		svc.bus.Publish(remote.Change{Kind: remote.ChangeUpdate, Table: "transactions", Row: fakeRow{ID: "99", Name: "ghost"}})

		got, _ := c.Get("transactions:user-1")
		if len(got.([]fakeRow)) != 2 {
			t.Errorf("expected collection untouched, got %v", got)
		}
	})

	t.Run("pointer_row_patches_value_collection", func(t *testing.T) {
		svc, c := setup(t)
		svc.bus.Publish(remote.Change{Kind: remote.ChangeInsert, Table: "transactions", Row: &fakeRow{ID: "4", Name: "bus fare"}})

		got, _ := c.Get("transactions:user-1")
		rows := got.([]fakeRow)
		if len(rows) != 3 || rows[2].Name != "bus fare" {
			t.Errorf("expected pointer row coerced and appended, got %v", rows)
		}
	})
}

func TestCacheLiveScalar(t *testing.T) {
	t.Run("update_replaces_record", func(t *testing.T) {
		svc := newFakeService()
		c := New(svc, Config{})
		c.Set("budgets:current", fakeRow{ID: "1", Name: "march"}, Options{Realtime: true})

		svc.bus.Publish(remote.Change{Kind: remote.ChangeUpdate, Table: "budgets", Row: fakeRow{ID: "1", Name: "revised"}})
		got, _ := c.Get("budgets:current")
		if got.(fakeRow).Name != "revised" {
			t.Errorf("expected revised, got %v", got)
		}
	})

	t.Run("update_for_other_record_ignored", func(t *testing.T) {
		svc := newFakeService()
		c := New(svc, Config{})
		c.Set("budgets:current", fakeRow{ID: "1", Name: "march"}, Options{Realtime: true})

		svc.bus.Publish(remote.Change{Kind: remote.ChangeUpdate, Table: "budgets", Row: fakeRow{ID: "2", Name: "other"}})
		got, _ := c.Get("budgets:current")
		if got.(fakeRow).Name != "march" {
			t.Errorf("expected march untouched, got %v", got)
		}
	})

	t.Run("delete_drops_entry", func(t *testing.T) {
		svc := newFakeService()
		c := New(svc, Config{})
		c.Set("budgets:current", fakeRow{ID: "1"}, Options{Realtime: true})

		svc.bus.Publish(remote.Change{Kind: remote.ChangeDelete, Table: "budgets", Row: fakeRow{ID: "1"}})
		if _, ok := c.Get("budgets:current"); ok {
			t.Fatal("expected entry dropped on delete")
		}
		if svc.active != 0 {
			t.Errorf("expected subscription released, got %d live", svc.active)
		}
	})
}
