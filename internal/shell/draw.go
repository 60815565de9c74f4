package shell

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// Styles used by the shell.
var (
	styleDefault  = tcell.StyleDefault
	styleActive   = tcell.StyleDefault.Reverse(true)
	styleCategory = tcell.StyleDefault.Bold(true).Dim(true)
	styleSelected = tcell.StyleDefault.Reverse(true).Bold(true)
	styleStatus   = tcell.StyleDefault.Italic(true)
)

// drawString writes s at (x, y) one grapheme cluster at a time and clips
// at maxX. It returns the column after the last cluster drawn.
func drawString(screen tcell.Screen, x, y, maxX int, s string, style tcell.Style) int {
	state := -1
	for len(s) > 0 {
		var cluster string
		var width int
		cluster, s, width, state = uniseg.FirstGraphemeClusterInString(s, state)
		if width == 0 {
			continue
		}
		if x+width > maxX {
			break
		}
		runes := []rune(cluster)
		screen.SetContent(x, y, runes[0], runes[1:], style)
		x += width
	}
	return x
}

// clearRow blanks row y.
func clearRow(screen tcell.Screen, y, width int) {
	for x := 0; x < width; x++ {
		screen.SetContent(x, y, ' ', nil, styleDefault)
	}
}

// textWidth is the display width of s in cells.
func textWidth(s string) int {
	return uniseg.StringWidth(s)
}
