package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abelbrown/localscout/internal/filter"
	"github.com/abelbrown/localscout/internal/geo"
)

// Place is a venue in the catalog. Pointer fields are nil when the source
// had no value, which the filter engine treats as "passes".
type Place struct {
	ID           string
	Name         string
	Category     string
	Neighborhood string
	PriceTier    *int
	Rating       *float64
	Open         *bool
	Lat          float64
	Lng          float64
	Hours        filter.Hours
	Added        time.Time

	// DistanceKm is computed from the reference point. Never stored.
	DistanceKm *float64
}

func (p Place) FilterName() (string, bool) { return p.Name, p.Name != "" }
func (p Place) FilterCategory() (string, bool) { return p.Category, p.Category != "" }

func (p Place) FilterPrice() (filter.PriceTier, bool) {
	if p.PriceTier == nil {
		return 0, false
	}
	return filter.PriceTier(*p.PriceTier), true
}

func (p Place) FilterRating() (float64, bool) {
	if p.Rating == nil {
		return 0, false
	}
	return *p.Rating, true
}

func (p Place) FilterOpen() (bool, bool) {
	if p.Open == nil {
		return false, false
	}
	return *p.Open, true
}

func (p Place) FilterDistance() (float64, bool) {
	if p.DistanceKm == nil {
		return 0, false
	}
	return *p.DistanceKm, true
}

func (p Place) FilterHours() (filter.Hours, bool) {
	return p.Hours, len(p.Hours) > 0
}

// Location returns the place's coordinate.
func (p Place) Location() geo.Point {
	return geo.Point{Lat: p.Lat, Lng: p.Lng}
}

// WithDistanceKm returns a copy of p carrying km as its distance.
func (p Place) WithDistanceKm(km float64) Place {
	p.DistanceKm = &km
	return p
}

// Record is the on-disk shape of a place in seed files.
type Record struct {
	ID           string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string   `json:"name" yaml:"name"`
	Category     string   `json:"category,omitempty" yaml:"category,omitempty"`
	Neighborhood string   `json:"neighborhood,omitempty" yaml:"neighborhood,omitempty"`
	Price        *int     `json:"price,omitempty" yaml:"price,omitempty"`
	Rating       *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	Open         *bool    `json:"open,omitempty" yaml:"open,omitempty"`
	Lat          float64  `json:"lat" yaml:"lat"`
	Lng          float64  `json:"lng" yaml:"lng"`
	Hours        []string `json:"hours,omitempty" yaml:"hours,omitempty"`
}

// Place converts the record. Hours lines use the ParseWindows format.
func (r Record) Place() (Place, error) {
	if strings.TrimSpace(r.Name) == "" {
		return Place{}, fmt.Errorf("record %q: missing name", r.ID)
	}
	p := Place{
		ID:           r.ID,
		Name:         strings.TrimSpace(r.Name),
		Category:     strings.ToLower(strings.TrimSpace(r.Category)),
		Neighborhood: r.Neighborhood,
		PriceTier:    r.Price,
		Rating:       r.Rating,
		Open:         r.Open,
		Lat:          r.Lat,
		Lng:          r.Lng,
	}
	for _, line := range r.Hours {
		ws, err := ParseWindows(line)
		if err != nil {
			return Place{}, fmt.Errorf("record %q: %w", r.Name, err)
		}
		p.Hours = append(p.Hours, ws...)
	}
	return p, nil
}

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWindows parses an opening-hours line such as "mon-fri 08:00-17:00",
// "sat 18:00-02:00" or "daily 10:00-22:00". Day ranges may wrap past
// Saturday ("fri-sun").
func ParseWindows(line string) ([]filter.Window, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) != 2 {
		return nil, fmt.Errorf("parse hours %q: want \"<days> <open>-<close>\"", line)
	}

	days, err := parseDays(fields[0])
	if err != nil {
		return nil, fmt.Errorf("parse hours %q: %w", line, err)
	}

	span := strings.SplitN(fields[1], "-", 2)
	if len(span) != 2 {
		return nil, fmt.Errorf("parse hours %q: want open-close", line)
	}
	open, err := parseClock(span[0])
	if err != nil {
		return nil, fmt.Errorf("parse hours %q: %w", line, err)
	}
	shut, err := parseClock(span[1])
	if err != nil {
		return nil, fmt.Errorf("parse hours %q: %w", line, err)
	}

	out := make([]filter.Window, 0, len(days))
	for _, d := range days {
		out = append(out, filter.Window{Day: d, Open: open, Close: shut})
	}
	return out, nil
}

func parseDays(s string) ([]time.Weekday, error) {
	if s == "daily" {
		return []time.Weekday{
			time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		}, nil
	}

	from, to, isRange := strings.Cut(s, "-")
	first, ok := dayNames[from]
	if !ok {
		return nil, fmt.Errorf("unknown day %q", from)
	}
	if !isRange {
		return []time.Weekday{first}, nil
	}
	last, ok := dayNames[to]
	if !ok {
		return nil, fmt.Errorf("unknown day %q", to)
	}

	var days []time.Weekday
	for d := first; ; d = (d + 1) % 7 {
		days = append(days, d)
		if d == last {
			break
		}
	}
	return days, nil
}

// parseClock parses "HH:MM" into minutes since midnight. "24:00" is
// accepted as end of day.
func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("bad time %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("bad time %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad time %q", s)
	}
	if h < 0 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("bad time %q", s)
	}
	return h*60 + m, nil
}
