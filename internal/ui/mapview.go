package ui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/abelbrown/localscout/internal/geo"
	"github.com/abelbrown/localscout/internal/store"
)

// RenderMap plots places on a character grid. Each place is drawn as the
// first letter of its category; the selected place is highlighted and the
// reference point is '+'. Places without a location are not drawn.
func RenderMap(places []store.Place, selected int, vp geo.Viewport, origin geo.Point, width, height int) string {
	if width < 1 || height < 2 {
		return ""
	}
	gridH := height - 1 // legend line

	type cell struct {
		r     rune
		state int // 0 empty, 1 place, 2 selected, 3 origin
	}
	grid := make([][]cell, gridH)
	for y := range grid {
		grid[y] = make([]cell, width)
	}

	if x, y, ok := vp.Project(origin, width, gridH); ok {
		grid[y][x] = cell{r: '+', state: 3}
	}

	shown := 0
	for i, p := range places {
		loc := p.Location()
		if (loc == geo.Point{}) {
			continue
		}
		x, y, ok := vp.Project(loc, width, gridH)
		if !ok {
			continue
		}
		shown++
		state := 1
		if i == selected {
			state = 2
		}
		if grid[y][x].state == 2 {
			continue
		}
		grid[y][x] = cell{r: marker(p), state: state}
	}

	var b strings.Builder
	for _, row := range grid {
		for _, c := range row {
			switch c.state {
			case 1:
				b.WriteString(MapMarker.Render(string(c.r)))
			case 2:
				b.WriteString(MapMarkerSelected.Render(string(c.r)))
			case 3:
				b.WriteString(MapOrigin.Render(string(c.r)))
			default:
				b.WriteString(MapGrid.Render("·"))
			}
		}
		b.WriteString("\n")
	}

	legend := fmt.Sprintf(" %s  ±%gkm  %d/%d on screen", vp.Center, vp.HalfWidthKm(), shown, len(places))
	if selected >= 0 && selected < len(places) {
		legend += "  ▸ " + places[selected].Name
	}
	b.WriteString(DetailText.Render(legend))
	b.WriteString("\n")
	return b.String()
}

func marker(p store.Place) rune {
	for _, r := range p.Category {
		return unicode.ToUpper(r)
	}
	return '•'
}
