package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/localscout/internal/filter"
)

// panelField is a row in the filter editor.
type panelField int

const (
	fieldQuery panelField = iota
	fieldCategory
	fieldPriceMin
	fieldPriceMax
	fieldDistance
	fieldRating
	fieldTime
	fieldOpenNow
	fieldSort
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldQuery:    "Search",
	fieldCategory: "Category",
	fieldPriceMin: "Price from",
	fieldPriceMax: "Price to",
	fieldDistance: "Distance",
	fieldRating:   "Min rating",
	fieldTime:     "Open",
	fieldOpenNow:  "Open now",
	fieldSort:     "Sort",
}

const ratingStep = 0.5

// handlePanelKey edits pending filters. Nothing here changes what the views
// render until Apply or Reset.
func (a App) handlePanelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.editingQuery {
		return a.handleQueryKey(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Discard):
		a.ctrl.Discard()
		a.panelOpen = false
		return a, nil

	case key.Matches(msg, keys.Apply):
		a.ctrl.Apply()
		a.panelOpen = false
		a.refresh()
		return a, nil

	case key.Matches(msg, keys.Reset):
		a.ctrl.Reset()
		a.refresh()
		return a, nil

	case key.Matches(msg, keys.Edit):
		return a.startQueryEdit()

	case key.Matches(msg, keys.Up):
		if a.field > 0 {
			a.field--
		}
		return a, nil

	case key.Matches(msg, keys.Down):
		if a.field < fieldCount-1 {
			a.field++
		}
		return a, nil

	case key.Matches(msg, keys.Left):
		a.stepField(-1)
		return a, nil

	case key.Matches(msg, keys.Right):
		a.stepField(1)
		return a, nil

	case key.Matches(msg, keys.Toggle):
		a.toggleField()
		return a, nil
	}

	return a, nil
}

func (a App) startQueryEdit() (tea.Model, tea.Cmd) {
	a.field = fieldQuery
	a.editingQuery = true
	a.query.SetValue(a.ctrl.PendingFilters().Query)
	a.query.CursorEnd()
	return a, a.query.Focus()
}

// handleQueryKey routes keys to the search input. Enter stores the text in
// pending; it does not apply.
func (a App) handleQueryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		a.ctrl.SetQuery(a.query.Value())
		a.editingQuery = false
		a.query.Blur()
		return a, nil
	case tea.KeyEsc:
		a.editingQuery = false
		a.query.Blur()
		a.query.SetValue(a.ctrl.PendingFilters().Query)
		return a, nil
	case tea.KeyCtrlC:
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.query, cmd = a.query.Update(msg)
	return a, cmd
}

// stepField moves the focused field's value by dir.
func (a *App) stepField(dir int) {
	p := a.ctrl.PendingFilters()

	switch a.field {
	case fieldCategory:
		if n := len(a.categories); n > 0 {
			a.catCursor = (a.catCursor + dir + n) % n
		}

	case fieldPriceMin, fieldPriceMax:
		r := p.Price
		if !r.Valid() {
			r = filter.FullPriceRange
		}
		if a.field == fieldPriceMin {
			r.Min = clampTier(r.Min + filter.PriceTier(dir))
			if r.Max < r.Min {
				r.Max = r.Min
			}
		} else {
			r.Max = clampTier(r.Max + filter.PriceTier(dir))
			if r.Min > r.Max {
				r.Min = r.Max
			}
		}
		a.ctrl.SetPriceRange(r.Min, r.Max)

	case fieldDistance:
		a.ctrl.SetDistance(cycle(filter.Distances, p.Distance, dir))

	case fieldRating:
		n := p.MinRating + float64(dir)*ratingStep
		if n < 0 {
			n = 0
		}
		if n > 5 {
			n = 5
		}
		a.ctrl.SetMinRating(n)

	case fieldTime:
		a.ctrl.SetTimeFilter(cycle(filter.TimeBuckets, p.Time, dir))

	case fieldOpenNow:
		a.ctrl.ToggleOpenNow()

	case fieldSort:
		a.ctrl.SetSort(cycle(filter.SortOptions, p.Sort, dir))
	}
}

func (a *App) toggleField() {
	switch a.field {
	case fieldCategory:
		if a.catCursor < len(a.categories) {
			a.ctrl.ToggleCategory(a.categories[a.catCursor])
		}
	case fieldOpenNow:
		a.ctrl.ToggleOpenNow()
	}
}

func clampTier(t filter.PriceTier) filter.PriceTier {
	if t < filter.PriceBudget {
		return filter.PriceBudget
	}
	if t > filter.PriceLuxury {
		return filter.PriceLuxury
	}
	return t
}

// cycle returns the option dir steps from cur. An unrecognized cur starts
// from the first option.
func cycle[T comparable](opts []T, cur T, dir int) T {
	i := 0
	for j, o := range opts {
		if o == cur {
			i = j
			break
		}
	}
	n := len(opts)
	return opts[((i+dir)%n+n)%n]
}

// renderPanel draws the filter editor against pending filters.
func (a App) renderPanel(width int) string {
	p := a.ctrl.PendingFilters()

	var b strings.Builder
	title := "Filters"
	if n := a.ctrl.PendingActiveCount(); n > 0 {
		title += fmt.Sprintf(" (%d active)", n)
	}
	if a.ctrl.HasPendingChanges() {
		title += " " + PendingMarker.Render("● unapplied")
	}
	b.WriteString(title)
	b.WriteString("\n\n")

	for f := panelField(0); f < fieldCount; f++ {
		label := FilterLabel.Render(fieldLabels[f])
		if f == a.field {
			label = FilterLabelActive.Render("▸ " + fieldLabels[f])
		}
		b.WriteString(label)
		b.WriteString(" ")
		b.WriteString(a.renderFieldValue(f, p))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(panelHelp())

	w := width - 4
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return FilterPanel.Width(w).Render(b.String())
}

func (a App) renderFieldValue(f panelField, p filter.Spec) string {
	switch f {
	case fieldQuery:
		if a.editingQuery {
			return a.query.View()
		}
		if p.Query == "" {
			return DetailText.Render("(none)")
		}
		return FilterValue.Render(fmt.Sprintf("%q", p.Query))

	case fieldCategory:
		if len(a.categories) == 0 {
			return DetailText.Render("(no categories)")
		}
		parts := make([]string, len(a.categories))
		for i, c := range a.categories {
			label := c
			if p.HasCategory(c) {
				label = FilterChecked.Render("✓" + c)
			}
			if f == a.field && i == a.catCursor {
				label = "[" + label + "]"
			}
			parts[i] = label
		}
		return strings.Join(parts, " ")

	case fieldPriceMin:
		return FilterValue.Render(p.Price.Min.String())
	case fieldPriceMax:
		return FilterValue.Render(p.Price.Max.String())
	case fieldDistance:
		if km, ok := p.Distance.Radius(); ok {
			return FilterValue.Render(fmt.Sprintf("%s (%g km)", p.Distance, km))
		}
		return FilterValue.Render(string(p.Distance))
	case fieldRating:
		if p.MinRating <= 0 {
			return FilterValue.Render("any")
		}
		return FilterValue.Render(fmt.Sprintf("%.1f★+", p.MinRating))
	case fieldTime:
		return FilterValue.Render(string(p.Time)) + bucketWindow(p.Time, a.ctrl.Now())
	case fieldOpenNow:
		if p.OpenNow {
			return FilterChecked.Render("yes")
		}
		return FilterValue.Render("no")
	case fieldSort:
		return FilterValue.Render(string(p.Sort))
	}
	return ""
}

// bucketWindow renders the interval a time bucket covers right now, or ""
// for buckets without one.
func bucketWindow(b filter.TimeBucket, now time.Time) string {
	start, end, ok := b.Window(now)
	if !ok {
		return ""
	}
	layout := "15:04"
	if end.Sub(start) > 24*time.Hour {
		layout = "Mon 15:04"
	}
	return DetailText.Render(fmt.Sprintf(" (%s-%s)", start.Format(layout), end.Format(layout)))
}

func panelHelp() string {
	hints := []key.Binding{keys.Apply, keys.Discard, keys.Reset, keys.Toggle, keys.Edit}
	parts := make([]string, 0, len(hints)+1)
	parts = append(parts, StatusBarKey.Render("←/→")+StatusBarText.Render(":change"))
	for _, h := range hints {
		parts = append(parts, StatusBarKey.Render(h.Help().Key)+StatusBarText.Render(":"+h.Help().Desc))
	}
	return strings.Join(parts, "  ")
}
