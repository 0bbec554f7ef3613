// Package clockface draws PCF2129 readings on small displays: a clock face
// rendered with tinyfont, and a scrolling tick log rendered with tinyterm.
package clockface

import (
	"fmt"
	"image/color"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"

	"github.com/ajanata/rtcdrivers/pcf2129"
)

var (
	On  = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	Off = color.RGBA{A: 0xFF}
)

// Displayer is the framebuffer a Face draws on.
type Displayer interface {
	Size() (x, y int16)
	SetPixel(x, y int16, c color.RGBA)
	Display() error
}

const (
	lineHeight = 12
	baseline   = 10 // from the top of a line
	margin     = 2
)

// Face shows the time on the first line and the date on the second when the
// display is tall enough.
type Face struct {
	display Displayer
	font    *tinyfont.Font
}

func NewFace(d Displayer) *Face {
	return &Face{
		display: d,
		font:    &proggy.TinySZ8pt7b,
	}
}

// Draw clears the display and renders dt. The fields are printed as stored,
// so registers holding invalid BCD still show something.
func (f *Face) Draw(dt pcf2129.DateTime) error {
	w, h := f.display.Size()
	for y := int16(0); y < h; y++ {
		for x := int16(0); x < w; x++ {
			f.display.SetPixel(x, y, Off)
		}
	}

	tinyfont.WriteLine(f.display, f.font, margin, baseline,
		fmt.Sprintf("%02x:%02x:%02x", dt.Hour, dt.Minute, dt.Second), On)
	if h >= 2*lineHeight {
		tinyfont.WriteLine(f.display, f.font, margin, lineHeight+baseline,
			fmt.Sprintf("20%02x-%02x-%02x", dt.Year, dt.Month, dt.Day), On)
	}
	return f.display.Display()
}

// NewTerminal returns a tinyterm terminal on d, configured with the face
// font. Anything written to it scrolls up the display.
func NewTerminal(d tinyterm.Displayer) *tinyterm.Terminal {
	term := tinyterm.NewTerminal(d)
	term.Configure(&tinyterm.Config{
		Font:       &proggy.TinySZ8pt7b,
		FontHeight: 10,
		FontOffset: 6,
	})
	return term
}
