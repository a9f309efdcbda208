// Package filter provides pure predicate and sort functions for places.
// Nothing here holds state or returns errors.
//
// Every clause is permissive: an item missing the field a clause inspects
// passes that clause, and a clause holding an unrecognized value restricts
// nothing. Showing too much is preferred to silently hiding results.
package filter

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Item is anything the engine can filter. Each accessor reports ok=false
// when the item has no value for that field.
type Item interface {
	FilterName() (string, bool)
	FilterCategory() (string, bool)
	FilterPrice() (PriceTier, bool)
	FilterRating() (float64, bool)
	FilterOpen() (bool, bool)
	FilterDistance() (float64, bool)
}

// Scheduled is implemented by items that know their weekly opening hours.
// Items that don't implement it pass every time bucket.
type Scheduled interface {
	FilterHours() (Hours, bool)
}

// Matches reports whether item passes every active clause of spec,
// evaluating time buckets against the current time.
func Matches(item Item, spec Spec) bool {
	return MatchesAt(item, spec, time.Now())
}

// MatchesAt is Matches with an explicit reference clock.
func MatchesAt(item Item, spec Spec, now time.Time) bool {
	if item == nil {
		return true
	}
	return matchQuery(item, spec) &&
		matchCategory(item, spec) &&
		matchPrice(item, spec) &&
		matchDistance(item, spec) &&
		matchRating(item, spec) &&
		matchOpen(item, spec) &&
		matchTime(item, spec, now)
}

func matchQuery(item Item, spec Spec) bool {
	q := spec.normalizedQuery()
	if q == "" {
		return true
	}
	name, ok := item.FilterName()
	if !ok {
		return true
	}
	return strings.Contains(strings.ToLower(name), q)
}

func matchCategory(item Item, spec Spec) bool {
	if !spec.categoryActive() {
		return true
	}
	cat, ok := item.FilterCategory()
	if !ok || cat == "" {
		return true
	}
	return spec.HasCategory(cat)
}

func matchPrice(item Item, spec Spec) bool {
	if !spec.priceActive() {
		return true
	}
	tier, ok := item.FilterPrice()
	if !ok {
		return true
	}
	return spec.Price.Contains(tier)
}

func matchDistance(item Item, spec Spec) bool {
	radius, ok := spec.Distance.Radius()
	if !ok {
		return true
	}
	d, ok := item.FilterDistance()
	if !ok || math.IsNaN(d) {
		return true
	}
	return d <= radius
}

func matchRating(item Item, spec Spec) bool {
	if !spec.ratingActive() {
		return true
	}
	r, ok := item.FilterRating()
	if !ok || math.IsNaN(r) {
		return true
	}
	return r >= spec.MinRating
}

func matchOpen(item Item, spec Spec) bool {
	if !spec.OpenNow {
		return true
	}
	open, ok := item.FilterOpen()
	if !ok {
		return true
	}
	return open
}

func matchTime(item Item, spec Spec, now time.Time) bool {
	start, end, ok := spec.Time.Window(now)
	if !ok {
		return true
	}
	sched, ok := item.(Scheduled)
	if !ok {
		return true
	}
	hours, ok := sched.FilterHours()
	if !ok {
		return true
	}
	overlaps, known := hours.Overlaps(start, end)
	return !known || overlaps
}

// Sort returns a new slice ordered by opt. The input is never modified.
// Ties keep their input order. Items missing the sort key keep their
// relative order and follow the items that have it. SortRelevance and
// unrecognized options preserve input order.
func Sort[T Item](items []T, opt SortOption) []T {
	out := make([]T, len(items))
	copy(out, items)

	var less func(a, b T) bool
	switch opt {
	case SortDistance:
		less = byKey(func(it T) (float64, bool) { return it.FilterDistance() }, false)
	case SortRating:
		less = byKey(func(it T) (float64, bool) { return it.FilterRating() }, true)
	case SortPrice:
		less = byKey(func(it T) (float64, bool) {
			p, ok := it.FilterPrice()
			return float64(p), ok
		}, false)
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

// byKey builds a strict ordering over an optional numeric key. Items with
// a key sort before items without one.
func byKey[T Item](key func(T) (float64, bool), desc bool) func(a, b T) bool {
	return func(a, b T) bool {
		ka, oka := safeKey(key, a)
		kb, okb := safeKey(key, b)
		if oka != okb {
			return oka
		}
		if !oka {
			return false
		}
		if desc {
			return ka > kb
		}
		return ka < kb
	}
}

func safeKey[T Item](key func(T) (float64, bool), it T) (float64, bool) {
	if any(it) == nil {
		return 0, false
	}
	v, ok := key(it)
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Apply filters items against spec at now, then sorts by spec.Sort.
// The result is always non-nil.
func Apply[T Item](items []T, spec Spec, now time.Time) []T {
	kept := make([]T, 0, len(items))
	for _, it := range items {
		if any(it) == nil || MatchesAt(it, spec, now) {
			kept = append(kept, it)
		}
	}
	return Sort(kept, spec.Sort)
}
