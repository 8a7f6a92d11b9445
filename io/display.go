package io

import (
	"fmt"
	"iter"
	"maps"
	"strings"
)

const (
	DISPLAY_WIDTH  = 64 // Pixels per row.
	DISPLAY_HEIGHT = 32 // Rows.
	SPRITE_WIDTH   = 8  // Pixels per sprite row.
)

var _display_defines = map[string]string{
	"DISPLAY_WIDTH":  fmt.Sprintf("%v", DISPLAY_WIDTH),
	"DISPLAY_HEIGHT": fmt.Sprintf("%v", DISPLAY_HEIGHT),
}

// Display is a monochrome frame buffer.
type Display struct {
	Pixels [DISPLAY_HEIGHT][DISPLAY_WIDTH]bool
	Dirty  bool // Set on any change, cleared by the renderer.
}

var _ Frame = (*Display)(nil)

// Defines returns an iter of defines for the display.
func (disp *Display) Defines() iter.Seq2[string, string] {
	return maps.All(_display_defines)
}

// Clear turns off every pixel.
func (disp *Display) Clear() {
	for row := range disp.Pixels {
		clear(disp.Pixels[row][:])
	}
	disp.Dirty = true
}

// Draw XORs a sprite onto the frame buffer. Pixels past an edge wrap
// around to the opposite edge.
func (disp *Display) Draw(x, y uint8, rows []byte) (collision bool) {
	for n, bits := range rows {
		py := (int(y) + n) % DISPLAY_HEIGHT
		for col := range SPRITE_WIDTH {
			if bits&(0x80>>col) == 0 {
				continue
			}
			px := (int(x) + col) % DISPLAY_WIDTH
			if disp.Pixels[py][px] {
				collision = true
			}
			disp.Pixels[py][px] = !disp.Pixels[py][px]
		}
	}

	if len(rows) > 0 {
		disp.Dirty = true
	}

	return
}

// Pixel reports whether the pixel at (x, y) is lit.
func (disp *Display) Pixel(x, y int) bool {
	return disp.Pixels[y%DISPLAY_HEIGHT][x%DISPLAY_WIDTH]
}

// Lit returns the number of lit pixels.
func (disp *Display) Lit() (count int) {
	for _, row := range disp.Pixels {
		for _, on := range row {
			if on {
				count++
			}
		}
	}
	return
}

// String returns the frame as text, '#' for lit and '.' for dark.
func (disp *Display) String() string {
	var text strings.Builder
	for _, row := range disp.Pixels {
		for _, on := range row {
			if on {
				text.WriteByte('#')
			} else {
				text.WriteByte('.')
			}
		}
		text.WriteByte('\n')
	}
	return text.String()
}
