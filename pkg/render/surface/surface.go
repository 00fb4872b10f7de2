// Package surface defines the drawing capability templates paint onto.
//
// A [Surface] exposes exactly the primitives the templates need: a
// full-surface vertical gradient, text measurement and text drawing, plus a
// small drawing state (font, color, opacity, glow). State changes are made
// inside [Scoped] so that a layer's styling can never leak into the next one:
//
//	surface.Scoped(s, func() {
//	    s.SetAlpha(0.25)
//	    s.DrawString("Lumerath-Seal", x, y)
//	})
//	// opacity is back to whatever it was before the layer
//
// Two implementations are provided. [Canvas] rasterizes with fogleman/gg and
// blurs glow halos with disintegration/imaging. [Recorder] only records the
// operations it receives, which makes layer order and state isolation
// directly observable in tests.
package surface

import (
	"image/color"
	"math"

	"github.com/matzehuels/codexrender/pkg/fonts"
)

// Stop is one color stop of a gradient. Offset is in [0, 1].
type Stop struct {
	Offset float64
	Color  color.Color
}

// Glow describes a blurred color halo drawn behind glyphs.
// Blur follows the canvas shadowBlur convention: the Gaussian sigma is Blur/2.
type Glow struct {
	Color color.Color
	Blur  float64
}

// Surface is a canvas-like drawing target.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (width, height int)

	// FillVerticalGradient fills the whole surface with a top-to-bottom gradient.
	FillVerticalGradient(stops []Stop)

	SetFont(spec fonts.Spec)
	SetColor(c color.Color)
	SetAlpha(a float64)
	SetGlow(g *Glow)

	// MeasureString returns the advance width of s in the current font.
	MeasureString(s string) float64

	// DrawString draws s with its baseline starting at (x, y).
	DrawString(s string, x, y float64)

	// Save pushes the drawing state; Restore pops it.
	Save()
	Restore()
}

// Scoped runs fn between Save and Restore. The restore happens even if fn
// panics.
func Scoped(s Surface, fn func()) {
	s.Save()
	defer s.Restore()
	fn()
}

// state is the part of the drawing state Save/Restore manage.
type state struct {
	font  fonts.Spec
	color color.Color
	alpha float64
	glow  *Glow
}

func defaultState() state {
	return state{color: color.Black, alpha: 1}
}

// withAlpha scales the alpha channel of c by a.
func withAlpha(c color.Color, a float64) color.Color {
	if a >= 1 {
		return c
	}
	a = math.Max(0, a)
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(math.Round(float64(n.A) * a))
	return n
}
