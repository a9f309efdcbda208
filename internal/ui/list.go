package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/localscout/internal/filter"
	"github.com/abelbrown/localscout/internal/store"
)

// RenderList renders the filtered places with the cursor kept in view.
func RenderList(places []store.Place, cursor, width, height int) string {
	if len(places) == 0 {
		return HelpStyle.Render("No places match. Press 'f' to change filters or 'R' to reset.")
	}

	if height < 1 {
		height = 1
	}
	offset := 0
	if cursor >= height {
		offset = cursor - height + 1
	}

	var b strings.Builder
	for i := offset; i < len(places) && i < offset+height; i++ {
		b.WriteString(renderPlaceLine(places[i], i == cursor, width))
		b.WriteString("\n")
	}
	return b.String()
}

func renderPlaceLine(p store.Place, selected bool, width int) string {
	category := p.Category
	if category == "" {
		category = "?"
	}
	badge := CategoryBadge.Render(category)

	details := placeDetails(p)
	detailText := DetailText.Render(details)

	nameWidth := width - lipgloss.Width(badge) - lipgloss.Width(detailText) - 4
	if nameWidth < 12 {
		nameWidth = 12
	}
	name := truncateRunes(p.Name, nameWidth)

	style := NormalItem
	if selected {
		style = SelectedItem
	}
	left := badge + style.Render(name)

	pad := width - lipgloss.Width(left) - lipgloss.Width(detailText) - 1
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + detailText
}

// placeDetails formats price, rating and distance, skipping unknowns.
func placeDetails(p store.Place) string {
	var parts []string
	if tier, ok := p.FilterPrice(); ok {
		parts = append(parts, tier.String())
	}
	if r, ok := p.FilterRating(); ok {
		parts = append(parts, fmt.Sprintf("%.1f★", r))
	}
	if km, ok := p.FilterDistance(); ok {
		parts = append(parts, formatDistance(km))
	}
	if open, ok := p.FilterOpen(); ok && open {
		parts = append(parts, "open")
	}
	return strings.Join(parts, " · ")
}

func formatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%dm", int(km*1000))
	}
	return fmt.Sprintf("%.1fkm", km)
}

// RenderStatusBar renders the bottom bar: result count, active filter
// count, a pending marker and key hints.
func RenderStatusBar(visible, total int, spec filter.Spec, pending bool, mode viewMode, width int, loading string) string {
	var left string
	if loading != "" {
		left = " " + loading + " Loading... "
	} else {
		left = fmt.Sprintf(" %d/%d places ", visible, total)
	}
	if n := filter.ActiveCount(spec); n > 0 {
		left += fmt.Sprintf("· %d filters (%s) ", n, strings.Join(filter.ActiveClauses(spec), ","))
	}
	if pending {
		left += PendingMarker.Render("● unapplied") + " "
	}

	hints := []string{
		StatusBarKey.Render("f") + StatusBarText.Render(":filters"),
		StatusBarKey.Render("/") + StatusBarText.Render(":search"),
		StatusBarKey.Render("tab") + StatusBarText.Render(":"+mode.other().String()),
	}
	if mode == modeMap {
		hints = append(hints,
			StatusBarKey.Render("hjkl")+StatusBarText.Render(":pan"),
			StatusBarKey.Render("+/-")+StatusBarText.Render(":zoom"),
		)
	} else {
		hints = append(hints, StatusBarKey.Render("j/k")+StatusBarText.Render(":nav"))
	}
	hints = append(hints,
		StatusBarKey.Render("R")+StatusBarText.Render(":reset"),
		StatusBarKey.Render("q")+StatusBarText.Render(":quit"),
	)
	keyHints := strings.Join(hints, " ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(keyHints)
	if padding < 0 {
		padding = 0
	}
	return StatusBar.Width(width).Render(left + strings.Repeat(" ", padding) + keyHints)
}

// truncateRunes cuts s to at most n runes, ending in an ellipsis when cut.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
