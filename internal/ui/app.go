package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/localscout/internal/analytics"
	"github.com/abelbrown/localscout/internal/controller"
	"github.com/abelbrown/localscout/internal/geo"
	"github.com/abelbrown/localscout/internal/store"
)

// viewMode selects the main view.
type viewMode int

const (
	modeList viewMode = iota
	modeMap
)

func (m viewMode) String() string {
	if m == modeMap {
		return "map"
	}
	return "list"
}

func (m viewMode) other() viewMode {
	if m == modeMap {
		return modeList
	}
	return modeMap
}

// panFraction is how far one pan step moves, as a fraction of the
// viewport half-width.
const panFraction = 0.25

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold *store.Store. It receives places via messages.
//
// Both views render from visible, which is recomputed from the applied
// filters only when the controller's version moves or places are reloaded.
// Pending edits and map movement never touch it.
type App struct {
	ctrl       *controller.Controller
	tracker    analytics.Tracker
	recent     *analytics.Recent
	loadPlaces func() tea.Cmd
	origin     geo.Point

	places     []store.Place
	categories []string
	visible    []store.Place
	version    uint64

	mode     viewMode
	cursor   int
	viewport geo.Viewport

	panelOpen    bool
	field        panelField
	catCursor    int
	editingQuery bool
	query        textinput.Model

	debugOpen bool

	spinner spinner.Model
	loading bool
	err     error
	width   int
	height  int
	ready   bool
}

// Options configures an App. Recent, when set, backs the activity overlay
// and should also be reachable from Tracker.
type Options struct {
	Controller *controller.Controller
	Tracker    analytics.Tracker
	Recent     *analytics.Recent
	LoadPlaces func() tea.Cmd
	Origin     geo.Point
	ZoomKm     float64
}

// NewApp creates a new App. LoadPlaces returns a Cmd that reads places from
// the store and replies with PlacesLoaded.
func NewApp(opts Options) App {
	ctrl := opts.Controller
	if ctrl == nil {
		ctrl = controller.New()
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = analytics.Nop{}
	}
	zoom := opts.ZoomKm
	if zoom <= 0 {
		zoom = 2
	}

	q := textinput.New()
	q.Placeholder = "name or category"
	q.CharLimit = 80
	q.Width = 40
	q.Prompt = "/ "

	s := spinner.New()
	s.Spinner = spinner.Dot

	return App{
		ctrl:       ctrl,
		tracker:    tracker,
		recent:     opts.Recent,
		loadPlaces: opts.LoadPlaces,
		origin:     opts.Origin,
		viewport:   geo.NewViewport(opts.Origin, zoom),
		version:    ctrl.Version(),
		loading:    opts.LoadPlaces != nil,
		query:      q,
		spinner:    s,
	}
}

// Init initializes the App by loading places.
func (a App) Init() tea.Cmd {
	if a.loadPlaces != nil {
		return tea.Batch(a.loadPlaces(), a.spinner.Tick)
	}
	return nil
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Pick up applies made outside the UI.
	a.refresh()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.err != nil {
			a.err = nil
		}
		if a.debugOpen {
			return a.handleDebugKey(msg)
		}
		if a.panelOpen {
			return a.handlePanelKey(msg)
		}
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case PlacesLoaded:
		a.loading = false
		if msg.Err != nil {
			a.err = msg.Err
			return a, nil
		}
		a.places = msg.Places
		a.categories = msg.Categories
		if a.catCursor >= len(a.categories) {
			a.catCursor = 0
		}
		a.err = nil
		a.recompute()
		return a, nil

	case RefreshTick:
		if a.loadPlaces != nil {
			return a, a.loadPlaces()
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input outside the filter panel.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.SwitchView):
		a.mode = a.mode.other()
		a.tracker.Track(analytics.Event{Kind: analytics.KindViewSwitch, Value: a.mode.String()})
		return a, nil

	case key.Matches(msg, keys.Filters):
		a.panelOpen = true
		return a, nil

	case key.Matches(msg, keys.Debug):
		a.debugOpen = true
		return a, nil

	case key.Matches(msg, keys.Search):
		a.panelOpen = true
		return a.startQueryEdit()

	case key.Matches(msg, keys.Reset):
		a.ctrl.Reset()
		a.refresh()
		return a, nil

	case key.Matches(msg, keys.Refresh):
		if a.loadPlaces != nil {
			a.loading = true
			return a, tea.Batch(a.loadPlaces(), a.spinner.Tick)
		}
		return a, nil
	}

	if a.mode == modeMap {
		return a.handleMapKey(msg)
	}
	return a.handleListKey(msg)
}

// handleDebugKey closes the overlay on D or esc; everything else is ignored
// while it is open.
func (a App) handleDebugKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Debug), key.Matches(msg, keys.Discard):
		a.debugOpen = false
	}
	return a, nil
}

func (a App) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Down):
		if a.cursor < len(a.visible)-1 {
			a.cursor++
		}
	case key.Matches(msg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, keys.Top):
		a.cursor = 0
	case key.Matches(msg, keys.End):
		if len(a.visible) > 0 {
			a.cursor = len(a.visible) - 1
		}
	}
	return a, nil
}

// handleMapKey pans and zooms. The viewport is view state only; it never
// reaches the controller.
func (a App) handleMapKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := a.viewport
	switch {
	case key.Matches(msg, keys.Left):
		a.viewport = a.viewport.Pan(-panFraction, 0)
	case key.Matches(msg, keys.Right):
		a.viewport = a.viewport.Pan(panFraction, 0)
	case key.Matches(msg, keys.Up):
		a.viewport = a.viewport.Pan(0, panFraction)
	case key.Matches(msg, keys.Down):
		a.viewport = a.viewport.Pan(0, -panFraction)
	case key.Matches(msg, keys.ZoomIn):
		a.viewport = a.viewport.ZoomIn()
		a.trackZoom(before)
		return a, nil
	case key.Matches(msg, keys.ZoomOut):
		a.viewport = a.viewport.ZoomOut()
		a.trackZoom(before)
		return a, nil
	case key.Matches(msg, keys.Recenter):
		a.viewport = geo.NewViewport(a.origin, a.viewport.HalfWidthKm())
	default:
		return a, nil
	}
	if a.viewport.Center != before.Center {
		a.tracker.Track(analytics.Event{Kind: analytics.KindMapPan, Value: a.viewport.Center.String()})
	}
	return a, nil
}

func (a App) trackZoom(before geo.Viewport) {
	if a.viewport.HalfWidthKm() != before.HalfWidthKm() {
		a.tracker.Track(analytics.Event{Kind: analytics.KindMapZoom, Count: int(a.viewport.HalfWidthKm() * 1000)})
	}
}

// refresh recomputes visible if something new was applied.
func (a *App) refresh() {
	if v := a.ctrl.Version(); v != a.version {
		a.recompute()
	}
}

func (a *App) recompute() {
	a.version = a.ctrl.Version()
	a.visible = controller.FilterItems(a.ctrl, a.places)
	if a.cursor >= len(a.visible) {
		a.cursor = len(a.visible) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.debugOpen {
		overlay := debugOverlay(a.ctrl, a.recent, a.width, a.height-1)
		return overlay + "\n" + debugStatusBar(a.width)
	}

	contentHeight := a.height - 1
	if a.err != nil {
		contentHeight--
	}

	var content string
	switch {
	case a.panelOpen:
		content = a.renderPanel(a.width) + "\n"
	case a.mode == modeMap:
		content = RenderMap(a.visible, a.cursor, a.viewport, a.origin, a.width, contentHeight)
	default:
		content = RenderList(a.visible, a.cursor, a.width, contentHeight)
	}

	errorBar := ""
	if a.err != nil {
		errorBar = ErrorStyle.Width(a.width).Render("Error: "+a.err.Error()+" (press any key to dismiss)") + "\n"
	}

	loading := ""
	if a.loading {
		loading = a.spinner.View()
	}
	status := RenderStatusBar(len(a.visible), len(a.places), a.ctrl.Filters(), a.ctrl.HasPendingChanges(), a.mode, a.width, loading)

	return content + errorBar + status
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Visible returns the places both views render (for testing).
func (a App) Visible() []store.Place {
	return a.visible
}

// Viewport returns the map viewport (for testing).
func (a App) Viewport() geo.Viewport {
	return a.viewport
}
