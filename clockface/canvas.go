package clockface

import (
	"image/color"
	"strings"
)

// Canvas is an in-memory monochrome display. Any pixel with a non-zero
// colour is lit. It supports the hardware scrolling used by tinyterm: the
// scroll line is the framebuffer row shown at the top of the scroll area.
type Canvas struct {
	width, height int16
	pix           []bool

	top, bottom int16 // fixed areas
	scroll      int16
	displays    int
}

// NewCanvas returns a blank canvas of the given size.
func NewCanvas(width, height int16) *Canvas {
	return &Canvas{
		width:  width,
		height: height,
		pix:    make([]bool, int(width)*int(height)),
	}
}

func (c *Canvas) Size() (x, y int16) {
	return c.width, c.height
}

func (c *Canvas) SetPixel(x, y int16, col color.RGBA) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.pix[int(y)*int(c.width)+int(x)] = col.R|col.G|col.B != 0
}

// Pixel reports whether the framebuffer pixel at x, y is lit.
func (c *Canvas) Pixel(x, y int16) bool {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return false
	}
	return c.pix[int(y)*int(c.width)+int(x)]
}

// Display counts frames; there is nothing to flush.
func (c *Canvas) Display() error {
	c.displays++
	return nil
}

// Displays returns how many times Display was called.
func (c *Canvas) Displays() int { return c.displays }

func (c *Canvas) FillRectangle(x, y, width, height int16, col color.RGBA) error {
	for j := y; j < y+height; j++ {
		for i := x; i < x+width; i++ {
			c.SetPixel(i, j, col)
		}
	}
	return nil
}

// Clear turns every pixel off.
func (c *Canvas) Clear() {
	for i := range c.pix {
		c.pix[i] = false
	}
}

func (c *Canvas) SetScrollArea(topFixedArea, bottomFixedArea int16) {
	c.top, c.bottom = topFixedArea, bottomFixedArea
	c.scroll = topFixedArea
}

func (c *Canvas) SetScroll(line int16) {
	c.scroll = line
}

func (c *Canvas) StopScroll() {
	c.top, c.bottom, c.scroll = 0, 0, 0
}

// row maps a screen row to a framebuffer row, applying the scroll offset.
func (c *Canvas) row(y int16) int16 {
	lo, hi := c.top, c.height-c.bottom
	if y < lo || y >= hi || hi <= lo {
		return y
	}
	n := hi - lo
	off := (c.scroll - lo) % n
	if off < 0 {
		off += n
	}
	return lo + (y-lo+off)%n
}

// String renders the screen as seen, one text line per pixel row, with '#'
// for lit pixels and '.' for the others.
func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(int(c.height) * (int(c.width) + 1))
	for y := int16(0); y < c.height; y++ {
		fy := c.row(y)
		for x := int16(0); x < c.width; x++ {
			if c.Pixel(x, fy) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
