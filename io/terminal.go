package io

import (
	"io"

	"github.com/fatih/color"
)

// Terminal renders a Display as block characters.
type Terminal struct {
	Output io.Writer
	Color  bool   // Force ANSI color, even if Output is not a tty.
	Lit    string // Text for a lit pixel, "█" if empty.
	Dark   string // Text for a dark pixel, " " if empty.
}

// Render draws the whole frame and clears its Dirty flag.
func (term *Terminal) Render(disp *Display) (err error) {
	lit := color.New(color.FgHiGreen, color.Bold)
	dark := color.New(color.BgBlack)
	if term.Color {
		lit.EnableColor()
		dark.EnableColor()
	} else {
		lit.DisableColor()
		dark.DisableColor()
	}

	litText := term.Lit
	if len(litText) == 0 {
		litText = "█"
	}
	darkText := term.Dark
	if len(darkText) == 0 {
		darkText = " "
	}

	for _, row := range disp.Pixels {
		for _, on := range row {
			if on {
				_, err = lit.Fprint(term.Output, litText)
			} else {
				_, err = dark.Fprint(term.Output, darkText)
			}
			if err != nil {
				return
			}
		}
		_, err = io.WriteString(term.Output, "\n")
		if err != nil {
			return
		}
	}

	disp.Dirty = false

	return
}
