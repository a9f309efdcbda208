package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/localscout/internal/analytics"
	"github.com/abelbrown/localscout/internal/controller"
	"github.com/abelbrown/localscout/internal/filter"
)

// debugPanelChrome is the border plus vertical padding of DebugPanel.
const debugPanelChrome = 4

// debugOverlay renders filter state and recent interaction events.
// Returns "" when there is nothing to show.
func debugOverlay(ctrl *controller.Controller, recent *analytics.Recent, width, height int) string {
	if ctrl == nil {
		return ""
	}

	applied := ctrl.Filters()
	state := "clean"
	if ctrl.HasPendingChanges() {
		state = "dirty"
	}

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Filters"))
	lines = append(lines, fmt.Sprintf("  Version:    %d (%s)", ctrl.Version(), state))
	lines = append(lines, "  Applied:    "+clauseList(applied))
	if ctrl.HasPendingChanges() {
		lines = append(lines, "  Pending:    "+clauseList(ctrl.PendingFilters()))
	}
	lines = append(lines, "")

	if recent != nil {
		counts := recent.Counts()
		lines = append(lines, DebugHeaderStyle.Render("Activity"))
		lines = append(lines, fmt.Sprintf("  Filters:    %d edits, %d applies, %d resets, %d discards",
			counts[analytics.KindFilterEdit], counts[analytics.KindFilterApply],
			counts[analytics.KindFilterReset], counts[analytics.KindFilterDiscard]))
		lines = append(lines, fmt.Sprintf("  Map:        %d pans, %d zooms, %d switches",
			counts[analytics.KindMapPan], counts[analytics.KindMapZoom], counts[analytics.KindViewSwitch]))
		lines = append(lines, fmt.Sprintf("  Persist:    %d errors", counts[analytics.KindPersistError]))
		lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", recent.Len(), recent.Cap()))
		lines = append(lines, "")

		lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
		for _, e := range recent.Last(15) {
			line := fmt.Sprintf("  %6s  %-16s", formatAge(time.Since(e.Time)), string(e.Kind))
			if e.Field != "" {
				line += "  " + e.Field
			}
			if e.Value != "" {
				line += "=" + truncateRunes(e.Value, 30)
			}
			if e.Err != "" {
				line += "  ERR:" + truncateRunes(e.Err, 30)
			}
			lines = append(lines, line)
		}
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}
	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

func clauseList(s filter.Spec) string {
	clauses := filter.ActiveClauses(s)
	if len(clauses) == 0 {
		return "none"
	}
	return strings.Join(clauses, ", ")
}

// formatAge formats a duration compactly. Negative durations clamp to 0ms.
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

func debugStatusBar(width int) string {
	hint := StatusBarKey.Render(keys.Debug.Help().Key) + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + hint)
}
