// Package ui provides the Bubble Tea TUI for localscout.
package ui

import "github.com/abelbrown/localscout/internal/store"

// PlacesLoaded is sent when places are read from the store. Places carry
// their distance from the reference point.
type PlacesLoaded struct {
	Places     []store.Place
	Categories []string
	Err        error
}

// RefreshTick triggers a periodic reload. Time buckets and open-now data
// drift with the clock, so the views are recomputed on every load.
type RefreshTick struct{}
