// Package controller owns the filter state that the list and map views
// render against.
//
// # Two copies
//
// The controller holds two filter specifications:
//
//	┌─────────┐  Set*/Toggle*  ┌─────────┐   Apply   ┌─────────┐
//	│  user   │ ─────────────> │ pending │ ────────> │ applied │ ──> list, map
//	└─────────┘                └─────────┘           └─────────┘
//
// Edits only ever touch pending. Views read applied through Filters or
// FilterItems and never see pending, so dragging the map or typing a query
// cannot make the list re-filter or the map re-cluster. Only Apply and
// Reset change what is rendered, and both views derive from the same
// snapshot, so they cannot disagree.
//
// # State
//
// The controller is Clean when pending equals applied and Dirty after any
// edit. Apply, Reset and Discard return it to Clean.
//
// # Concurrency
//
// A Controller is safe for concurrent use. Every mutator replaces pending
// with a fresh copy under the lock, and readers get copies, so no caller
// can observe or cause a partial edit.
package controller

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/localscout/internal/analytics"
	"github.com/abelbrown/localscout/internal/filter"
	"github.com/abelbrown/localscout/internal/logging"
	"github.com/abelbrown/localscout/internal/persist"
)

// State is the pending/applied relationship.
type State int

const (
	// Clean means pending equals applied.
	Clean State = iota
	// Dirty means pending holds edits that have not been applied.
	Dirty
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	}
	return "unknown"
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the reference clock used for AppliedAt stamps and time
// bucket matching.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithDefaults replaces the no-op specification used at startup and on
// Reset. Use it to start with a preferred sort order.
func WithDefaults(spec filter.Spec) Option {
	return func(c *Controller) {
		spec = spec.Clone()
		spec.IsApplied = true
		spec.AppliedAt = time.Time{}
		c.defaults = spec
	}
}

// WithSnapshotter persists every applied spec and restores the last one
// at construction.
func WithSnapshotter(s *persist.Snapshotter) Option {
	return func(c *Controller) { c.snap = s }
}

// WithTracker records filter interactions.
func WithTracker(t analytics.Tracker) Option {
	return func(c *Controller) {
		if t != nil {
			c.tracker = t
		}
	}
}

// WithLogger sets the logger. Defaults to the "filters" prefix of the
// application logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Clean controller with both copies set to the defaults, or
// to the restored snapshot when a Snapshotter is configured and holds one.
func New(opts ...Option) *Controller {
	c := &Controller{
		defaults: filter.Default(),
		clock:    time.Now,
		tracker:  analytics.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.WithPrefix("filters")
	}

	c.applied = c.defaults.Clone()
	c.applied.AppliedAt = c.clock()

	if c.snap != nil {
		if spec, ok := c.snap.Restore(context.Background()); ok {
			c.applied = spec
			c.logger.Debug("restored filters", "key", c.snap.Key(), "active", filter.ActiveCount(spec))
		}
	}

	c.pending = c.applied.Clone()
	c.state = Clean
	return c
}
