package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorWarning   = lipgloss.Color("214") // Orange
)

// SelectedItem style for the currently highlighted place.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected places.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// CategoryBadge style for category labels.
var CategoryBadge = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

// DetailText style for price, rating and distance.
var DetailText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// PendingMarker style for the unapplied-changes indicator.
var PendingMarker = lipgloss.NewStyle().
	Foreground(colorWarning).
	Bold(true)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// FilterPanel style for the filter editor box.
var FilterPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(0, 1)

// FilterLabel style for field names in the filter editor.
var FilterLabel = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Width(12)

// FilterLabelActive style for the focused field name.
var FilterLabelActive = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true).
	Width(12)

// FilterValue style for field values.
var FilterValue = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

// FilterChecked style for selected categories and enabled toggles.
var FilterChecked = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// MapMarker style for places on the map.
var MapMarker = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// MapMarkerSelected style for the highlighted place on the map.
var MapMarkerSelected = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Bold(true)

// MapOrigin style for the reference point.
var MapOrigin = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// MapGrid style for empty map cells.
var MapGrid = lipgloss.NewStyle().
	Foreground(lipgloss.Color("236"))

// DebugPanel style for the activity overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorWarning).
	Padding(1, 2)

// DebugHeaderStyle style for overlay section headers.
var DebugHeaderStyle = lipgloss.NewStyle().
	Foreground(colorWarning).
	Bold(true)
