package ui

import (
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/localscout/internal/analytics"
	"github.com/abelbrown/localscout/internal/controller"
	"github.com/abelbrown/localscout/internal/filter"
	"github.com/abelbrown/localscout/internal/geo"
	"github.com/abelbrown/localscout/internal/store"
)

var origin = geo.Point{Lat: 6.2087, Lng: -75.5674}

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func testPlaces() []store.Place {
	places := []store.Place{
		{ID: "1", Name: "Arepa Stand", Category: "food", PriceTier: intPtr(1), Rating: floatPtr(4.1), Lat: 6.2090, Lng: -75.5670},
		{ID: "2", Name: "Museo", Category: "culture", PriceTier: intPtr(2), Rating: floatPtr(4.8), Lat: 6.2518, Lng: -75.5686},
		{ID: "3", Name: "Rooftop Bar", Category: "bar", PriceTier: intPtr(3), Lat: 6.2100, Lng: -75.5700},
		{ID: "4", Name: "Mystery Spot"},
	}
	return geo.WithDistances(places, origin)
}

// recorder collects tracked events.
type recorder struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (r *recorder) Track(e analytics.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(kind analytics.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, a App, msgs ...tea.Msg) App {
	t.Helper()
	for _, msg := range msgs {
		model, _ := a.Update(msg)
		a = model.(App)
	}
	return a
}

func loadedApp(t *testing.T, rec *recorder) (App, *controller.Controller) {
	t.Helper()
	ctrl := controller.New()
	opts := Options{Controller: ctrl, Origin: origin}
	if rec != nil {
		opts.Tracker = rec
	}
	a := NewApp(opts)
	a = send(t, a,
		tea.WindowSizeMsg{Width: 100, Height: 30},
		PlacesLoaded{Places: testPlaces(), Categories: []string{"bar", "culture", "food"}},
	)
	return a, ctrl
}

func visibleIDs(a App) []string {
	var ids []string
	for _, p := range a.Visible() {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestAppInit(t *testing.T) {
	called := false
	a := NewApp(Options{LoadPlaces: func() tea.Cmd {
		called = true
		return func() tea.Msg { return PlacesLoaded{} }
	}})

	if cmd := a.Init(); cmd == nil {
		t.Fatal("Init should return a command")
	}
	if !called {
		t.Error("Init should call LoadPlaces")
	}
}

func TestAppInitNilLoadPlaces(t *testing.T) {
	a := NewApp(Options{})
	if cmd := a.Init(); cmd != nil {
		t.Error("Init should return nil without a loader")
	}
}

func TestPlacesLoadedShowsEverything(t *testing.T) {
	a, _ := loadedApp(t, nil)

	if got := len(a.Visible()); got != 4 {
		t.Fatalf("default filters should show all 4 places, got %d", got)
	}
}

func TestPlacesLoadedError(t *testing.T) {
	a := NewApp(Options{})
	a = send(t, a, tea.WindowSizeMsg{Width: 80, Height: 20}, PlacesLoaded{Err: errTest})

	if !strings.Contains(a.View(), "boom") {
		t.Error("error should be rendered")
	}
	a = send(t, a, runes("j"))
	if strings.Contains(a.View(), "boom") {
		t.Error("key press should dismiss the error")
	}
}

func TestListNavigation(t *testing.T) {
	a, _ := loadedApp(t, nil)

	a = send(t, a, runes("j"), runes("j"))
	if a.Cursor() != 2 {
		t.Errorf("expected cursor 2, got %d", a.Cursor())
	}
	a = send(t, a, runes("G"))
	if a.Cursor() != 3 {
		t.Errorf("G should move to last, got %d", a.Cursor())
	}
	a = send(t, a, runes("j"))
	if a.Cursor() != 3 {
		t.Errorf("j at bottom should stay, got %d", a.Cursor())
	}
	a = send(t, a, runes("g"))
	if a.Cursor() != 0 {
		t.Errorf("g should move to top, got %d", a.Cursor())
	}
}

func TestPanelEditsDoNotReachViewsUntilApply(t *testing.T) {
	a, ctrl := loadedApp(t, nil)

	// Open panel, move to Category, toggle the first category ("bar").
	a = send(t, a, runes("f"), runes("j"), runes(" "))

	if !ctrl.HasPendingChanges() {
		t.Fatal("toggle should create pending changes")
	}
	if got := len(a.Visible()); got != 4 {
		t.Errorf("views changed before Apply: %v", visibleIDs(a))
	}
	if !strings.Contains(a.View(), "unapplied") {
		t.Error("panel should show the pending marker")
	}

	a = send(t, a, tea.KeyMsg{Type: tea.KeyEnter})

	if ctrl.HasPendingChanges() {
		t.Error("Apply should clear pending changes")
	}
	// "bar" keeps Rooftop Bar and the uncategorized spot.
	if got := strings.Join(visibleIDs(a), ","); got != "3,4" {
		t.Errorf("expected 3,4 after apply, got %s", got)
	}
}

func TestPanelDiscard(t *testing.T) {
	a, ctrl := loadedApp(t, nil)

	a = send(t, a, runes("f"), runes("j"), runes("j"), runes("j"), runes("h"))
	if !ctrl.HasPendingChanges() {
		t.Fatal("price edit should create pending changes")
	}

	a = send(t, a, tea.KeyMsg{Type: tea.KeyEsc})

	if ctrl.HasPendingChanges() {
		t.Error("esc should discard pending changes")
	}
	if got := ctrl.PendingFilters().Price; got != filter.FullPriceRange {
		t.Errorf("pending price should be back to full range, got %+v", got)
	}
	if len(a.Visible()) != 4 {
		t.Error("discard should not change views")
	}
	if strings.Contains(a.View(), "Price from") {
		t.Error("esc should close the panel")
	}
}

func TestSearchFlow(t *testing.T) {
	a, ctrl := loadedApp(t, nil)

	a = send(t, a, runes("/"), runes("m"), runes("u"), runes("s"))
	if ctrl.PendingFilters().Query != "" {
		t.Error("typing should not touch pending until enter")
	}

	a = send(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if got := ctrl.PendingFilters().Query; got != "mus" {
		t.Errorf("expected pending query %q, got %q", "mus", got)
	}
	if ctrl.Filters().Query != "" {
		t.Error("enter in the search box should not apply")
	}

	a = send(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	if got := strings.Join(visibleIDs(a), ","); got != "2" {
		t.Errorf("expected only the museum, got %s", got)
	}
}

func TestSearchEscapeKeepsPending(t *testing.T) {
	a, ctrl := loadedApp(t, nil)

	a = send(t, a, runes("/"), runes("x"), tea.KeyMsg{Type: tea.KeyEsc})
	if ctrl.HasPendingChanges() {
		t.Error("escaping the search box should not edit pending")
	}
	if !strings.Contains(a.View(), "Price from") {
		t.Error("escaping the search box should leave the panel open")
	}
}

func TestResetKey(t *testing.T) {
	a, ctrl := loadedApp(t, nil)
	ctrl.SetMinRating(4.5)
	ctrl.Apply()
	a = send(t, a, runes("r")) // no loader, no-op
	a = send(t, a, runes("R"))

	if ctrl.ActiveCount() != 0 {
		t.Error("R should reset filters")
	}
	if len(a.Visible()) != 4 {
		t.Errorf("reset should show everything, got %v", visibleIDs(a))
	}
}

func TestMapPanAndZoomDoNotTouchFilters(t *testing.T) {
	rec := &recorder{}
	a, ctrl := loadedApp(t, rec)
	before := ctrl.Filters()
	version := ctrl.Version()
	visible := visibleIDs(a)

	a = send(t, a, tea.KeyMsg{Type: tea.KeyTab})
	start := a.Viewport()
	a = send(t, a, runes("l"), runes("k"), runes("+"), runes("-"), runes("-"))

	if a.Viewport().Center == start.Center {
		t.Error("pan should move the viewport")
	}
	if a.Viewport().HalfWidthKm() <= start.HalfWidthKm() {
		t.Error("net zoom out should widen the viewport")
	}
	if ctrl.Version() != version || ctrl.HasPendingChanges() {
		t.Error("map movement reached the controller")
	}
	if ctrl.Filters().Query != before.Query || ctrl.ActiveCount() != 0 {
		t.Error("map movement changed filters")
	}
	if strings.Join(visibleIDs(a), ",") != strings.Join(visible, ",") {
		t.Error("map movement changed visible places")
	}

	if rec.count(analytics.KindViewSwitch) != 1 {
		t.Error("expected one view switch event")
	}
	if rec.count(analytics.KindMapPan) != 2 {
		t.Errorf("expected 2 pan events, got %d", rec.count(analytics.KindMapPan))
	}
	if rec.count(analytics.KindMapZoom) != 3 {
		t.Errorf("expected 3 zoom events, got %d", rec.count(analytics.KindMapZoom))
	}
}

func TestBothViewsRenderSameSnapshot(t *testing.T) {
	a, ctrl := loadedApp(t, nil)
	ctrl.ToggleCategory("culture")
	ctrl.Apply()
	a = send(t, a, runes("R")) // version moved twice; views follow the latest
	ctrl.ToggleCategory("culture")
	ctrl.Apply()
	a = send(t, a, runes("f"), tea.KeyMsg{Type: tea.KeyEsc})

	list := a.View()
	a = send(t, a, tea.KeyMsg{Type: tea.KeyTab})
	mapView := a.View()

	if !strings.Contains(list, "Museo") {
		t.Errorf("list should show the museum:\n%s", list)
	}
	if !strings.Contains(mapView, "▸ Museo") {
		t.Errorf("map should select the museum:\n%s", mapView)
	}
	if !strings.Contains(mapView, "2/4 places") {
		t.Errorf("status should count the same snapshot:\n%s", mapView)
	}
}

func TestStatusBarShowsActiveFilters(t *testing.T) {
	a, ctrl := loadedApp(t, nil)
	ctrl.SetMinRating(4)
	ctrl.ToggleOpenNow()
	ctrl.Apply()
	a = send(t, a, runes("f"), tea.KeyMsg{Type: tea.KeyEnter})

	view := a.View()
	if !strings.Contains(view, "2 filters") {
		t.Errorf("expected active filter count in status bar:\n%s", view)
	}
}

func TestCycle(t *testing.T) {
	if got := cycle(filter.SortOptions, filter.SortPrice, 1); got != filter.SortRelevance {
		t.Errorf("cycle should wrap forward, got %q", got)
	}
	if got := cycle(filter.SortOptions, filter.SortRelevance, -1); got != filter.SortPrice {
		t.Errorf("cycle should wrap backward, got %q", got)
	}
	if got := cycle(filter.Distances, filter.Distance("bogus"), 1); got != filter.DistanceWalking {
		t.Errorf("unknown value should start from the first option, got %q", got)
	}
}

func TestRenderMapPlotsOrigin(t *testing.T) {
	vp := geo.NewViewport(origin, 2)
	out := RenderMap(testPlaces()[1:], 1, vp, origin, 40, 12)

	if !strings.Contains(out, "+") {
		t.Error("map should plot the reference point")
	}
	if !strings.Contains(out, "B") {
		t.Error("map should plot the bar by its category initial")
	}
	if !strings.Contains(out, "▸ Rooftop Bar") {
		t.Errorf("legend should name the selected place:\n%s", out)
	}
	if RenderMap(nil, 0, vp, origin, 0, 0) != "" {
		t.Error("empty grid should render nothing")
	}
}

var errTest = testError("boom")

type testError string

func (e testError) Error() string { return string(e) }

func TestDebugOverlay(t *testing.T) {
	recent := analytics.NewRecent(16)
	ctrl := controller.New(controller.WithTracker(recent))
	a := NewApp(Options{Controller: ctrl, Tracker: recent, Recent: recent, Origin: origin})
	a = send(t, a,
		tea.WindowSizeMsg{Width: 100, Height: 40},
		PlacesLoaded{Places: testPlaces()},
	)

	ctrl.SetMinRating(4)
	ctrl.Apply()
	ctrl.ToggleOpenNow()

	a = send(t, a, runes("D"))
	view := a.View()
	for _, want := range []string{"[DEBUG]", "dirty", "Applied:    rating", "Pending:    rating, open", "1 applies", "filter.apply"} {
		if !strings.Contains(view, want) {
			t.Errorf("overlay missing %q:\n%s", want, view)
		}
	}

	// Keys other than close are swallowed while open.
	a = send(t, a, runes("f"))
	if a.panelOpen {
		t.Error("filter panel opened under the overlay")
	}
	a = send(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if strings.Contains(a.View(), "[DEBUG]") {
		t.Error("overlay still shown after esc")
	}
	if !ctrl.HasPendingChanges() {
		t.Error("closing the overlay discarded pending edits")
	}
}

func TestPanelShowsBucketWindowAndActiveCount(t *testing.T) {
	monday := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	ctrl := controller.New(controller.WithClock(func() time.Time { return monday }))
	a := NewApp(Options{Controller: ctrl, Origin: origin})
	a = send(t, a, tea.WindowSizeMsg{Width: 100, Height: 30}, PlacesLoaded{Places: testPlaces()})

	ctrl.SetTimeFilter(filter.TimeTonight)
	a = send(t, a, runes("f"))
	view := a.View()
	for _, want := range []string{"tonight (18:00-02:00)", "(1 active)"} {
		if !strings.Contains(view, want) {
			t.Errorf("panel missing %q:\n%s", want, view)
		}
	}

	ctrl.SetTimeFilter(filter.TimeWeekend)
	if view := a.View(); !strings.Contains(view, "weekend (Sat 00:00-Mon 00:00)") {
		t.Errorf("panel missing weekend window:\n%s", view)
	}
}
