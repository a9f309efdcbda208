// Package analytics records user interaction events as batched JSONL.
//
// A Service is constructed explicitly and handed to whoever needs it; there
// is no package-level instance. Start launches the flush goroutine and Stop
// flushes what is buffered and waits for it to exit.
package analytics

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Kind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type Kind string

const (
	// Filter events
	KindFilterEdit    Kind = "filter.edit"
	KindFilterApply   Kind = "filter.apply"
	KindFilterReset   Kind = "filter.reset"
	KindFilterDiscard Kind = "filter.discard"

	// Persistence events
	KindPersistError Kind = "persist.error"

	// View events
	KindMapPan     Kind = "map.pan"
	KindMapZoom    Kind = "map.zoom"
	KindViewSwitch Kind = "view.switch"

	// System events
	KindStartup  Kind = "sys.startup"
	KindShutdown Kind = "sys.shutdown"
)

// Event is one analytics record. Every field except Kind is optional.
type Event struct {
	Time      time.Time      `json:"t"`
	Kind      Kind           `json:"kind"`
	SessionID string         `json:"session_id,omitempty"`
	Field     string         `json:"field,omitempty"` // filter field or view name
	Value     string         `json:"value,omitempty"`
	Count     int            `json:"count,omitempty"`
	Err       string         `json:"err,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Tracker accepts events. Implementations must not block.
type Tracker interface {
	Track(e Event)
}

// Nop discards every event.
type Nop struct{}

// Track does nothing.
func (Nop) Track(Event) {}

// ReadEvents parses a JSONL event stream. Lines that fail to parse are
// skipped and counted in malformed.
func ReadEvents(r io.Reader) (events []Event, malformed int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			malformed++
			continue
		}
		events = append(events, e)
	}
	if err := sc.Err(); err != nil {
		return events, malformed, fmt.Errorf("read events: %w", err)
	}
	return events, malformed, nil
}
