package controller

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/localscout/internal/analytics"
	"github.com/abelbrown/localscout/internal/filter"
	"github.com/abelbrown/localscout/internal/persist"
)

// Controller holds the applied and pending filter specifications.
type Controller struct {
	mu      sync.RWMutex
	applied filter.Spec
	pending filter.Spec
	state   State
	version uint64

	defaults filter.Spec
	clock    func() time.Time
	snap     *persist.Snapshotter
	tracker  analytics.Tracker
	logger   *log.Logger
}

// edit runs fn on a private copy of pending, then installs the copy as the
// new, unapplied pending spec. fn returns the edited value for analytics.
// Inputs are not validated; the engine treats values it does not recognize
// as no restriction.
func (c *Controller) edit(field string, fn func(s *filter.Spec) string) {
	c.mu.Lock()
	next := c.pending.Clone()
	value := fn(&next)
	next.IsApplied = false
	c.pending = next
	c.state = Dirty
	c.mu.Unlock()

	c.tracker.Track(analytics.Event{Kind: analytics.KindFilterEdit, Field: field, Value: value})
}

// SetQuery sets the free-text query.
func (c *Controller) SetQuery(text string) {
	c.edit("query", func(s *filter.Spec) string {
		s.Query = text
		return text
	})
}

// ToggleCategory adds label to the category set, or removes it if present.
func (c *Controller) ToggleCategory(label string) {
	c.edit("category", func(s *filter.Spec) string {
		*s = s.WithCategoryToggled(label)
		return label
	})
}

// SetPriceRange sets the inclusive price tier range.
func (c *Controller) SetPriceRange(lo, hi filter.PriceTier) {
	c.edit("price", func(s *filter.Spec) string {
		s.Price = filter.PriceRange{Min: lo, Max: hi}
		return fmt.Sprintf("%d-%d", lo, hi)
	})
}

// SetDistance sets the maximum distance option.
func (c *Controller) SetDistance(d filter.Distance) {
	c.edit("distance", func(s *filter.Spec) string {
		s.Distance = d
		return string(d)
	})
}

// SetMinRating sets the rating floor. Zero disables the clause.
func (c *Controller) SetMinRating(n float64) {
	c.edit("rating", func(s *filter.Spec) string {
		s.MinRating = n
		return strconv.FormatFloat(n, 'g', -1, 64)
	})
}

// SetTimeFilter sets the time bucket.
func (c *Controller) SetTimeFilter(b filter.TimeBucket) {
	c.edit("time", func(s *filter.Spec) string {
		s.Time = b
		return string(b)
	})
}

// ToggleOpenNow flips the open-now restriction.
func (c *Controller) ToggleOpenNow() {
	c.edit("open_now", func(s *filter.Spec) string {
		s.OpenNow = !s.OpenNow
		return strconv.FormatBool(s.OpenNow)
	})
}

// SetSort sets the ordering key.
func (c *Controller) SetSort(o filter.SortOption) {
	c.edit("sort", func(s *filter.Spec) string {
		s.Sort = o
		return string(o)
	})
}

// Apply promotes pending to applied. This is the only way edits reach the
// views.
func (c *Controller) Apply() {
	c.mu.Lock()
	snap := c.pending.Clone()
	snap.IsApplied = true
	snap.AppliedAt = c.clock()
	c.applied = snap
	c.pending = snap.Clone()
	c.state = Clean
	c.version++
	applied := snap.Clone()
	c.mu.Unlock()

	active := filter.ActiveCount(applied)
	c.logger.Debug("filters applied", "active", active, "sort", applied.Sort)
	c.persist(applied)
	c.tracker.Track(analytics.Event{Kind: analytics.KindFilterApply, Count: active, Value: string(applied.Sort)})
}

// Reset sets both copies back to the defaults. A reset is applied
// immediately.
func (c *Controller) Reset() {
	c.mu.Lock()
	snap := c.defaults.Clone()
	snap.IsApplied = true
	snap.AppliedAt = c.clock()
	c.applied = snap
	c.pending = snap.Clone()
	c.state = Clean
	c.version++
	applied := snap.Clone()
	c.mu.Unlock()

	c.logger.Debug("filters reset")
	c.persist(applied)
	c.tracker.Track(analytics.Event{Kind: analytics.KindFilterReset})
}

// Discard drops pending edits, returning pending to the applied copy.
func (c *Controller) Discard() {
	c.mu.Lock()
	wasDirty := c.state == Dirty
	c.pending = c.applied.Clone()
	c.state = Clean
	c.mu.Unlock()

	if wasDirty {
		c.tracker.Track(analytics.Event{Kind: analytics.KindFilterDiscard})
	}
}

func (c *Controller) persist(spec filter.Spec) {
	if c.snap != nil {
		c.snap.Save(spec)
	}
}

// Filters returns a copy of the applied specification. Views render
// against this and nothing else.
func (c *Controller) Filters() filter.Spec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.applied.Clone()
}

// PendingFilters returns a copy of the specification being edited. It is
// for the filter editor only; views must not render against it.
func (c *Controller) PendingFilters() filter.Spec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending.Clone()
}

// State reports whether pending holds unapplied edits.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// HasPendingChanges reports whether anything was edited since the last
// Apply or Reset.
func (c *Controller) HasPendingChanges() bool {
	return c.State() == Dirty
}

// Version increases on every Apply and Reset. Views can compare it to skip
// recomputation when nothing new was applied.
func (c *Controller) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// ActiveCount returns the number of active clauses in the applied spec.
func (c *Controller) ActiveCount() int {
	return filter.ActiveCount(c.Filters())
}

// IsEmpty reports whether the applied spec restricts nothing.
func (c *Controller) IsEmpty() bool {
	return filter.IsEmpty(c.Filters())
}

// PendingActiveCount returns the number of active clauses being edited.
func (c *Controller) PendingActiveCount() int {
	return filter.ActiveCount(c.PendingFilters())
}

// Now returns the controller's reference time.
func (c *Controller) Now() time.Time {
	return c.clock()
}

// FilterItems filters and sorts items against the applied specification.
// Nothing is cached; the result is recomputed on every call.
func FilterItems[T filter.Item](c *Controller, items []T) []T {
	spec := c.Filters()
	if !spec.IsApplied {
		// Unreachable through the public API. Degrade to the defaults
		// rather than render against an unapplied spec.
		spec = c.defaults.Clone()
	}
	return filter.Apply(items, spec, c.Now())
}
