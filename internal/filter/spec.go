package filter

import (
	"math"
	"sort"
	"strings"
	"time"
)

// PriceTier is a discrete price level. Higher is more expensive.
type PriceTier int

const (
	PriceBudget   PriceTier = 1
	PriceModerate PriceTier = 2
	PriceUpscale  PriceTier = 3
	PriceLuxury   PriceTier = 4
)

// String renders the tier the way a price badge shows it ("$", "$$", ...).
func (p PriceTier) String() string {
	if p < PriceBudget || p > PriceLuxury {
		return "?"
	}
	return strings.Repeat("$", int(p))
}

// PriceRange is an inclusive [Min, Max] range of price tiers.
type PriceRange struct {
	Min PriceTier `json:"min"`
	Max PriceTier `json:"max"`
}

// FullPriceRange covers every tier. It is the no-op value.
var FullPriceRange = PriceRange{Min: PriceBudget, Max: PriceLuxury}

// Valid reports whether the range is ordered and within the known tiers.
// Invalid ranges restrict nothing.
func (r PriceRange) Valid() bool {
	return r.Min >= PriceBudget && r.Max <= PriceLuxury && r.Min <= r.Max
}

// Contains reports whether tier lies within the range, inclusive.
func (r PriceRange) Contains(tier PriceTier) bool {
	return tier >= r.Min && tier <= r.Max
}

// Distance is a named maximum radius from the reference point.
type Distance string

const (
	DistanceAny     Distance = "any"
	DistanceWalking Distance = "walking"
	DistanceNearby  Distance = "nearby"
	DistanceCity    Distance = "city"
	DistanceRegion  Distance = "region"
)

// Distances lists the options in cycling order.
var Distances = []Distance{DistanceAny, DistanceWalking, DistanceNearby, DistanceCity, DistanceRegion}

var distanceRadiusKm = map[Distance]float64{
	DistanceWalking: 1,
	DistanceNearby:  3,
	DistanceCity:    10,
	DistanceRegion:  25,
}

// Radius returns the radius in kilometers. ok is false for DistanceAny and
// for unrecognized values, neither of which restricts anything.
func (d Distance) Radius() (km float64, ok bool) {
	km, ok = distanceRadiusKm[d]
	return km, ok
}

// TimeBucket is a time-of-day or day window an item should be open during.
type TimeBucket string

const (
	TimeAny       TimeBucket = "any"
	TimeMorning   TimeBucket = "morning"
	TimeAfternoon TimeBucket = "afternoon"
	TimeTonight   TimeBucket = "tonight"
	TimeWeekend   TimeBucket = "weekend"
)

// TimeBuckets lists the buckets in cycling order.
var TimeBuckets = []TimeBucket{TimeAny, TimeMorning, TimeAfternoon, TimeTonight, TimeWeekend}

// SortOption is the ordering key applied after filtering.
type SortOption string

const (
	SortRelevance SortOption = "relevance"
	SortDistance  SortOption = "distance"
	SortRating    SortOption = "rating"
	SortPrice     SortOption = "price"
)

// SortOptions lists the options in cycling order.
var SortOptions = []SortOption{SortRelevance, SortDistance, SortRating, SortPrice}

// Spec is a complete filter and sort configuration.
//
// Spec is a value type. Categories is the only reference field; use Clone
// before handing a Spec to code that may retain it.
type Spec struct {
	Query      string     `json:"query"`
	Categories []string   `json:"categories,omitempty"` // empty = no restriction
	Price      PriceRange `json:"price"`
	Distance   Distance   `json:"distance"`
	MinRating  float64    `json:"min_rating"`
	Time       TimeBucket `json:"time"`
	OpenNow    bool       `json:"open_now"`
	Sort       SortOption `json:"sort"`

	// IsApplied is true only on a snapshot views may render against.
	IsApplied bool `json:"is_applied"`
	// AppliedAt is informational; nothing depends on it for correctness.
	AppliedAt time.Time `json:"applied_at"`
}

// Default returns the shared no-op specification.
func Default() Spec {
	return Spec{
		Price:     FullPriceRange,
		Distance:  DistanceAny,
		Time:      TimeAny,
		Sort:      SortRelevance,
		IsApplied: true,
	}
}

// Clone returns a copy that shares no memory with s.
func (s Spec) Clone() Spec {
	if s.Categories != nil {
		s.Categories = append([]string(nil), s.Categories...)
	}
	return s
}

// HasCategory reports whether label is in the category set. The set may be
// in any order.
func (s Spec) HasCategory(label string) bool {
	for _, c := range s.Categories {
		if c == label {
			return true
		}
	}
	return false
}

// WithCategoryToggled returns a copy with label added to or removed from the
// category set. The receiver is not modified.
func (s Spec) WithCategoryToggled(label string) Spec {
	out := make([]string, 0, len(s.Categories)+1)
	found := false
	for _, c := range s.Categories {
		if c == label {
			found = true
			continue
		}
		out = append(out, c)
	}
	if !found {
		out = append(out, label)
		sort.Strings(out)
	}
	if len(out) == 0 {
		out = nil
	}
	s.Categories = out
	return s
}

// normalizedQuery is the query as matched: trimmed and lowercased.
func (s Spec) normalizedQuery() string {
	return strings.ToLower(strings.TrimSpace(s.Query))
}

func (s Spec) queryActive() bool    { return s.normalizedQuery() != "" }
func (s Spec) categoryActive() bool { return len(s.Categories) > 0 }
func (s Spec) priceActive() bool    { return s.Price.Valid() && s.Price != FullPriceRange }

func (s Spec) distanceActive() bool {
	_, ok := s.Distance.Radius()
	return ok
}

func (s Spec) ratingActive() bool {
	return s.MinRating > 0 && !math.IsNaN(s.MinRating) && !math.IsInf(s.MinRating, 0)
}

func (s Spec) timeActive() bool {
	switch s.Time {
	case TimeMorning, TimeAfternoon, TimeTonight, TimeWeekend:
		return true
	}
	return false
}

// ActiveClauses names the clauses that currently restrict results, in a
// fixed display order.
func ActiveClauses(s Spec) []string {
	var out []string
	if s.queryActive() {
		out = append(out, "query")
	}
	if s.categoryActive() {
		out = append(out, "category")
	}
	if s.priceActive() {
		out = append(out, "price")
	}
	if s.distanceActive() {
		out = append(out, "distance")
	}
	if s.ratingActive() {
		out = append(out, "rating")
	}
	if s.timeActive() {
		out = append(out, "time")
	}
	if s.OpenNow {
		out = append(out, "open")
	}
	return out
}

// ActiveCount returns how many clauses differ from their no-op default.
// Sort order is not a filter and is not counted.
func ActiveCount(s Spec) int {
	return len(ActiveClauses(s))
}

// IsEmpty reports whether no clause restricts results.
func IsEmpty(s Spec) bool {
	return ActiveCount(s) == 0
}
