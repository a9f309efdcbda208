package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/localscout/internal/analytics"
)

var eventsFlags struct {
	tail    int
	kind    string
	session string
	stats   bool
	rawJSON bool
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the analytics event log",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

func init() {
	f := eventsCmd.Flags()
	f.IntVar(&eventsFlags.tail, "tail", 50, "number of recent events to show")
	f.StringVar(&eventsFlags.kind, "kind", "", "filter by kind prefix (e.g. 'filter')")
	f.StringVar(&eventsFlags.session, "session-id", "", "filter by analytics session ID")
	f.BoolVar(&eventsFlags.stats, "stats", false, "count events per kind")
	f.BoolVar(&eventsFlags.rawJSON, "json", false, "print raw JSON lines")
}

func runEvents(cmd *cobra.Command, args []string) error {
	path := cfg.EventsPath()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("event log not found at %s; run scout first to generate events", path)
		}
		return err
	}
	defer f.Close()

	events, malformed, err := analytics.ReadEvents(f)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}

	var matched []analytics.Event
	for _, e := range events {
		if eventsFlags.kind != "" && !strings.HasPrefix(string(e.Kind), eventsFlags.kind) {
			continue
		}
		if eventsFlags.session != "" && e.SessionID != eventsFlags.session {
			continue
		}
		matched = append(matched, e)
	}

	out := cmd.OutOrStdout()
	if eventsFlags.stats {
		writeEventStats(out, matched)
	} else {
		if eventsFlags.tail > 0 && len(matched) > eventsFlags.tail {
			matched = matched[len(matched)-eventsFlags.tail:]
		}
		for _, e := range matched {
			if err := writeEvent(out, e); err != nil {
				return err
			}
		}
	}
	if malformed > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d malformed lines\n", malformed)
	}
	return nil
}

func writeEvent(w io.Writer, e analytics.Event) error {
	if eventsFlags.rawJSON {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	parts := []string{fmt.Sprintf("%s %-16s", e.Time.Format("2006-01-02 15:04:05"), e.Kind)}
	if e.Field != "" {
		parts = append(parts, e.Field+"="+e.Value)
	} else if e.Value != "" {
		parts = append(parts, e.Value)
	}
	if e.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", e.Count))
	}
	if e.Err != "" {
		parts = append(parts, "err="+e.Err)
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}

func writeEventStats(w io.Writer, events []analytics.Event) {
	counts := make(map[analytics.Kind]int)
	sessions := make(map[string]bool)
	for _, e := range events {
		counts[e.Kind]++
		if e.SessionID != "" {
			sessions[e.SessionID] = true
		}
	}

	kinds := make([]analytics.Kind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	fmt.Fprintf(w, "%d events across %d sessions\n\n", len(events), len(sessions))
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-16s %d\n", k, counts[k])
	}
}
