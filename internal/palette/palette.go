// Package palette assigns display colours to chat senders.
package palette

import (
	"fmt"
	"image/color"

	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/lucasb-eyer/go-colorful"
)

// Palette is an immutable, ordered list of sender colours plus the colour
// used when no sender colour applies.
type Palette struct {
	colors   []color.Color
	fallback color.Color
}

func New(fallback color.Color, colors ...color.Color) Palette {
	return Palette{
		colors:   append([]color.Color(nil), colors...),
		fallback: fallback,
	}
}

// DefaultFallback colours senders that are not in the observed set.
var DefaultFallback color.Color = charmtone.Ash

var defaultColors = []color.Color{
	charmtone.Malibu,
	charmtone.Julep,
	charmtone.Zest,
	charmtone.Coral,
	charmtone.Dolly,
	charmtone.Bok,
	charmtone.Sardine,
	charmtone.Mustard,
	charmtone.Guac,
}

// Default returns the built-in sender palette.
func Default() Palette {
	return New(DefaultFallback, defaultColors...)
}

// Parse builds a palette from hex strings such as "#ff6f91". An empty
// fallback means DefaultFallback and no hexes means the built-in colours.
func Parse(fallback string, hexes []string) (Palette, error) {
	fb := DefaultFallback
	if fallback != "" {
		c, err := colorful.Hex(fallback)
		if err != nil {
			return Palette{}, fmt.Errorf("invalid fallback color %q: %w", fallback, err)
		}
		fb = c
	}
	if len(hexes) == 0 {
		return New(fb, defaultColors...), nil
	}
	colors := make([]color.Color, 0, len(hexes))
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return Palette{}, fmt.Errorf("invalid palette color %q: %w", h, err)
		}
		colors = append(colors, c)
	}
	return New(fb, colors...), nil
}

func (p Palette) Len() int {
	return len(p.colors)
}

func (p Palette) Fallback() color.Color {
	return p.fallback
}

// ColorFor maps a sender index to a colour, cycling through the palette.
// A negative index means the sender is unknown.
func (p Palette) ColorFor(index int) color.Color {
	if index < 0 || len(p.colors) == 0 {
		return p.fallback
	}
	return p.colors[index%len(p.colors)]
}
