package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/abelbrown/localscout/internal/analytics"
	"github.com/abelbrown/localscout/internal/filter"
	"github.com/abelbrown/localscout/internal/persist"
)

// venue is a test item. Nil fields are absent.
type venue struct {
	name     string
	category string
	price    filter.PriceTier
	rating   *float64
}

func (v venue) FilterName() (string, bool) { return v.name, v.name != "" }
func (v venue) FilterCategory() (string, bool) { return v.category, v.category != "" }
func (v venue) FilterPrice() (filter.PriceTier, bool) {
	return v.price, v.price != 0
}
func (v venue) FilterRating() (float64, bool) {
	if v.rating == nil {
		return 0, false
	}
	return *v.rating, true
}
func (v venue) FilterOpen() (bool, bool) { return false, false }
func (v venue) FilterDistance() (float64, bool) { return 0, false }

func rating(r float64) *float64 { return &r }

func names(items []venue) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.name
	}
	return out
}

// recorder collects tracked events.
type recorder struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (r *recorder) Track(e analytics.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []analytics.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]analytics.Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// fixedClock returns a clock that advances one second per call.
func fixedClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func TestNewIsClean(t *testing.T) {
	c := New()

	if c.State() != Clean {
		t.Errorf("expected clean, got %s", c.State())
	}
	if c.HasPendingChanges() {
		t.Error("new controller should have no pending changes")
	}
	if !c.Filters().IsApplied || !c.PendingFilters().IsApplied {
		t.Error("both copies should start applied")
	}
	if !c.IsEmpty() || c.ActiveCount() != 0 {
		t.Error("new controller should have no active filters")
	}
}

func TestMutatorsOnlyTouchPending(t *testing.T) {
	c := New()
	before := c.Filters()

	c.SetQuery("arepa")
	c.ToggleCategory("food")
	c.SetPriceRange(filter.PriceBudget, filter.PriceModerate)
	c.SetDistance(filter.DistanceWalking)
	c.SetMinRating(4)
	c.SetTimeFilter(filter.TimeTonight)
	c.ToggleOpenNow()
	c.SetSort(filter.SortRating)

	if diff := cmp.Diff(before, c.Filters()); diff != "" {
		t.Errorf("applied changed without Apply (-before +after):\n%s", diff)
	}
	if c.Version() != 0 {
		t.Errorf("version should not move on edits, got %d", c.Version())
	}

	p := c.PendingFilters()
	if p.IsApplied {
		t.Error("pending should be unapplied after edits")
	}
	if p.Query != "arepa" || !p.HasCategory("food") || p.Price.Max != filter.PriceModerate ||
		p.Distance != filter.DistanceWalking || p.MinRating != 4 || p.Time != filter.TimeTonight ||
		!p.OpenNow || p.Sort != filter.SortRating {
		t.Errorf("pending missing edits: %+v", p)
	}
	if c.PendingActiveCount() != 7 {
		t.Errorf("expected 7 pending clauses, got %d", c.PendingActiveCount())
	}
}

func TestDirtyFlag(t *testing.T) {
	mutators := map[string]func(c *Controller){
		"query":    func(c *Controller) { c.SetQuery("x") },
		"category": func(c *Controller) { c.ToggleCategory("food") },
		"price":    func(c *Controller) { c.SetPriceRange(2, 3) },
		"distance": func(c *Controller) { c.SetDistance(filter.DistanceCity) },
		"rating":   func(c *Controller) { c.SetMinRating(3) },
		"time":     func(c *Controller) { c.SetTimeFilter(filter.TimeMorning) },
		"open":     func(c *Controller) { c.ToggleOpenNow() },
		"sort":     func(c *Controller) { c.SetSort(filter.SortDistance) },
	}

	for name, mutate := range mutators {
		t.Run(name, func(t *testing.T) {
			c := New()
			mutate(c)
			if !c.HasPendingChanges() {
				t.Fatal("expected pending changes after edit")
			}
			c.Apply()
			if c.HasPendingChanges() {
				t.Error("expected no pending changes after Apply")
			}
			mutate(c)
			if !c.HasPendingChanges() {
				t.Fatal("expected pending changes after second edit")
			}
			c.Reset()
			if c.HasPendingChanges() {
				t.Error("expected no pending changes after Reset")
			}
		})
	}
}

func TestApplyIsolatesSnapshot(t *testing.T) {
	c := New()

	c.SetQuery("x")
	c.Apply()
	applied := c.Filters()

	c.SetQuery("y")
	if got := c.Filters().Query; got != "x" {
		t.Errorf("applied query should stay %q until next Apply, got %q", "x", got)
	}
	if applied.Query != "x" {
		t.Errorf("earlier snapshot changed: %q", applied.Query)
	}

	c.Apply()
	if got := c.Filters().Query; got != "y" {
		t.Errorf("expected %q after second Apply, got %q", "y", got)
	}
	if applied.Query != "x" {
		t.Errorf("earlier snapshot changed after Apply: %q", applied.Query)
	}
}

func TestCategoryEditsDoNotAliasApplied(t *testing.T) {
	c := New()
	c.ToggleCategory("food")
	c.Apply()

	c.ToggleCategory("tour")
	c.ToggleCategory("food")

	got := c.Filters().Categories
	if len(got) != 1 || got[0] != "food" {
		t.Errorf("applied categories changed by pending edits: %v", got)
	}

	returned := c.Filters()
	returned.Categories[0] = "bar"
	if c.Filters().Categories[0] != "food" {
		t.Error("Filters returned a live reference")
	}
}

func TestApplyStampsBothCopies(t *testing.T) {
	c := New(WithClock(fixedClock()))
	c.SetSort(filter.SortPrice)
	c.Apply()

	applied, pending := c.Filters(), c.PendingFilters()
	if !applied.IsApplied || !pending.IsApplied {
		t.Error("both copies should be applied")
	}
	if applied.AppliedAt.IsZero() || !applied.AppliedAt.Equal(pending.AppliedAt) {
		t.Errorf("AppliedAt mismatch: applied=%v pending=%v", applied.AppliedAt, pending.AppliedAt)
	}
	if c.Version() != 1 {
		t.Errorf("expected version 1, got %d", c.Version())
	}
}

func TestResetReturnsToDefaults(t *testing.T) {
	c := New(WithClock(fixedClock()))
	c.SetQuery("museo")
	c.ToggleCategory("culture")
	c.SetMinRating(4.5)
	c.ToggleOpenNow()
	c.Apply()
	firstStamp := c.Filters().AppliedAt
	c.SetDistance(filter.DistanceRegion)

	c.Reset()

	if c.ActiveCount() != 0 {
		t.Errorf("expected 0 active after reset, got %d", c.ActiveCount())
	}
	if !c.IsEmpty() {
		t.Error("expected empty after reset")
	}
	if c.PendingActiveCount() != 0 {
		t.Error("pending should be reset too")
	}
	if !c.Filters().AppliedAt.After(firstStamp) {
		t.Error("reset should stamp a fresh AppliedAt")
	}
	if c.Version() != 2 {
		t.Errorf("expected version 2, got %d", c.Version())
	}
}

func TestResetUsesConfiguredDefaults(t *testing.T) {
	defaults := filter.Default()
	defaults.Sort = filter.SortDistance
	c := New(WithDefaults(defaults))

	c.SetSort(filter.SortRating)
	c.Apply()
	c.Reset()

	if got := c.Filters().Sort; got != filter.SortDistance {
		t.Errorf("expected sort %q after reset, got %q", filter.SortDistance, got)
	}
}

func TestDiscardDropsPendingEdits(t *testing.T) {
	rec := &recorder{}
	c := New(WithTracker(rec))
	c.SetQuery("keep")
	c.Apply()
	c.SetQuery("drop")

	c.Discard()

	if c.HasPendingChanges() {
		t.Error("expected clean after discard")
	}
	if got := c.PendingFilters().Query; got != "keep" {
		t.Errorf("expected pending query %q, got %q", "keep", got)
	}

	c.Discard()
	discards := 0
	for _, k := range rec.kinds() {
		if k == analytics.KindFilterDiscard {
			discards++
		}
	}
	if discards != 1 {
		t.Errorf("discard of a clean controller should not be tracked, got %d events", discards)
	}
}

func TestFilterItemsCategoryScenario(t *testing.T) {
	items := []venue{
		{name: "A", category: "food"},
		{name: "B", category: "tour"},
	}
	c := New()
	c.ToggleCategory("food")
	c.Apply()

	got := FilterItems(c, items)
	if diff := cmp.Diff([]string{"A"}, names(got)); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestFilterItemsPriceScenario(t *testing.T) {
	items := []venue{
		{name: "one", price: 1},
		{name: "two", price: 2},
		{name: "three", price: 3},
		{name: "four", price: 4},
	}
	c := New()
	c.SetPriceRange(2, 3)
	c.Apply()

	got := FilterItems(c, items)
	if diff := cmp.Diff([]string{"two", "three"}, names(got)); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}

	c.SetSort(filter.SortPrice)
	c.SetPriceRange(1, 4)
	c.Apply()
	reversed := []venue{items[3], items[2], items[1], items[0]}
	got = FilterItems(c, reversed)
	if diff := cmp.Diff([]string{"one", "two", "three", "four"}, names(got)); diff != "" {
		t.Errorf("price sort (-want +got):\n%s", diff)
	}
}

func TestFilterItemsMissingFieldScenario(t *testing.T) {
	items := []venue{
		{name: "C"},
		{name: "D", rating: rating(3)},
		{name: "E", rating: rating(4.5)},
	}
	c := New()
	c.SetMinRating(4)
	c.Apply()

	got := FilterItems(c, items)
	if diff := cmp.Diff([]string{"C", "E"}, names(got)); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestFilterItemsIgnoresPending(t *testing.T) {
	items := []venue{
		{name: "A", category: "food"},
		{name: "B", category: "tour"},
	}
	c := New()
	c.ToggleCategory("food")

	if got := FilterItems(c, items); len(got) != 2 {
		t.Errorf("unapplied edit leaked into results: %v", names(got))
	}
}

func TestFilterItemsStableByRating(t *testing.T) {
	items := []venue{
		{name: "1", rating: rating(5)},
		{name: "2", rating: rating(5)},
	}
	c := New()
	c.SetSort(filter.SortRating)
	c.Apply()

	got := FilterItems(c, items)
	if diff := cmp.Diff([]string{"1", "2"}, names(got)); diff != "" {
		t.Errorf("ties reordered (-want +got):\n%s", diff)
	}
}

func TestTrackerReceivesEvents(t *testing.T) {
	rec := &recorder{}
	c := New(WithTracker(rec))

	c.SetQuery("pizza")
	c.ToggleOpenNow()
	c.Apply()
	c.Reset()

	want := []analytics.Kind{
		analytics.KindFilterEdit,
		analytics.KindFilterEdit,
		analytics.KindFilterApply,
		analytics.KindFilterReset,
	}
	if diff := cmp.Diff(want, rec.kinds()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.events[1].Field != "open_now" || rec.events[1].Value != "true" {
		t.Errorf("unexpected toggle event: %+v", rec.events[1])
	}
	if rec.events[2].Count != 2 {
		t.Errorf("apply should report 2 active clauses, got %d", rec.events[2].Count)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	storage := persist.NewMemoryStorage()

	snap := persist.NewSnapshotter(storage, "scout.filters")
	c := New(WithSnapshotter(snap))
	c.SetQuery("café")
	c.ToggleCategory("coffee")
	c.SetSort(filter.SortRating)
	c.Apply()
	c.SetQuery("unapplied")
	snap.Close()

	snap2 := persist.NewSnapshotter(storage, "scout.filters")
	defer snap2.Close()
	restored := New(WithSnapshotter(snap2))

	got := restored.Filters()
	if got.Query != "café" || !got.HasCategory("coffee") || got.Sort != filter.SortRating {
		t.Errorf("restored wrong spec: %+v", got)
	}
	if restored.HasPendingChanges() {
		t.Error("restored controller should be clean")
	}
}

func TestRestoredUnorderedCategories(t *testing.T) {
	storage := persist.NewMemoryStorage()
	raw := `{"v":1,"spec":{"categories":["tour","food"],"price":{"min":1,"max":4},"distance":"any","time":"any","sort":"relevance","is_applied":true}}`
	_ = storage.Put(context.Background(), "scout.filters", []byte(raw))

	snap := persist.NewSnapshotter(storage, "scout.filters")
	defer snap.Close()
	c := New(WithSnapshotter(snap))

	items := []venue{
		{name: "A", category: "food"},
		{name: "B", category: "bar"},
		{name: "C", category: "tour"},
	}
	got := FilterItems(c, items)
	if diff := cmp.Diff([]string{"A", "C"}, names(got)); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestDefaultsWithUnorderedCategories(t *testing.T) {
	defaults := filter.Default()
	defaults.Categories = []string{"tour", "food"}
	c := New(WithDefaults(defaults))

	items := []venue{{name: "A", category: "food"}, {name: "B", category: "tour"}}
	got := FilterItems(c, items)
	if diff := cmp.Diff([]string{"A", "B"}, names(got)); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}

	// Toggling off one label leaves the other in force.
	c.ToggleCategory("tour")
	c.Apply()
	if diff := cmp.Diff([]string{"A"}, names(FilterItems(c, items))); diff != "" {
		t.Errorf("after toggle (-want +got):\n%s", diff)
	}
}

func TestPersistenceCorruptFallsBack(t *testing.T) {
	storage := persist.NewMemoryStorage()
	_ = storage.Put(context.Background(), "scout.filters", []byte("not json"))

	snap := persist.NewSnapshotter(storage, "scout.filters")
	defer snap.Close()
	c := New(WithSnapshotter(snap))

	if !c.IsEmpty() || c.HasPendingChanges() {
		t.Errorf("expected defaults, got %+v", c.Filters())
	}
}

func TestConcurrentEditsAndReads(t *testing.T) {
	c := New()
	items := []venue{{name: "A", category: "food"}, {name: "B", category: "tour"}}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.ToggleCategory("food")
				c.SetQuery("a")
				if j%10 == 0 {
					c.Apply()
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				spec := c.Filters()
				if !spec.IsApplied {
					t.Error("read an unapplied spec")
					return
				}
				_ = FilterItems(c, items)
			}
		}()
	}
	wg.Wait()
}

func TestStateString(t *testing.T) {
	if Clean.String() != "clean" || Dirty.String() != "dirty" || State(9).String() != "unknown" {
		t.Error("unexpected State strings")
	}
}
