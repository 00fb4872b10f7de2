package surface

import (
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/codexrender/pkg/fonts"
)

// Canvas is a raster [Surface] backed by a gg context.
//
// A Canvas owns its font faces and must not be shared between goroutines.
// Call Close when done to release the faces.
type Canvas struct {
	dc    *gg.Context
	faces *fonts.Faces
	state state
	stack []state
	err   error
}

// NewCanvas allocates a transparent width×height canvas drawing with set.
func NewCanvas(width, height int, set *fonts.Set) *Canvas {
	return &Canvas{
		dc:    gg.NewContext(width, height),
		faces: set.NewFaces(),
		state: defaultState(),
	}
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (int, int) {
	return c.dc.Width(), c.dc.Height()
}

// FillVerticalGradient fills the canvas top to bottom.
func (c *Canvas) FillVerticalGradient(stops []Stop) {
	w, h := c.Size()
	grad := gg.NewLinearGradient(0, 0, 0, float64(h))
	for _, s := range stops {
		grad.AddColorStop(s.Offset, withAlpha(s.Color, c.state.alpha))
	}
	c.dc.SetFillStyle(grad)
	c.dc.DrawRectangle(0, 0, float64(w), float64(h))
	c.dc.Fill()
}

// SetFont selects the face for subsequent text operations.
// A face that cannot be created is recorded and reported by Err.
func (c *Canvas) SetFont(spec fonts.Spec) {
	face, err := c.faces.Face(spec)
	if err != nil {
		if c.err == nil {
			c.err = err
		}
		return
	}
	c.dc.SetFontFace(face)
	c.state.font = spec
}

func (c *Canvas) SetColor(col color.Color) { c.state.color = col }
func (c *Canvas) SetAlpha(a float64)       { c.state.alpha = a }
func (c *Canvas) SetGlow(g *Glow)          { c.state.glow = g }

// MeasureString returns the advance width of s.
func (c *Canvas) MeasureString(s string) float64 {
	w, _ := c.dc.MeasureString(s)
	return w
}

// DrawString draws s at baseline (x, y), with a glow halo underneath when one
// is set.
func (c *Canvas) DrawString(s string, x, y float64) {
	if s == "" {
		return
	}
	if c.state.glow != nil {
		c.drawGlow(s, x, y, *c.state.glow)
	}
	c.dc.SetColor(withAlpha(c.state.color, c.state.alpha))
	c.dc.DrawString(s, x, y)
}

// drawGlow renders s into a padded offscreen layer, blurs it and composites
// the halo over the canvas at the glyphs' position.
func (c *Canvas) drawGlow(s string, x, y float64, g Glow) {
	if c.state.font.Size <= 0 {
		return
	}
	face, err := c.faces.Face(c.state.font)
	if err != nil {
		return
	}
	m := face.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	pad := int(math.Ceil(g.Blur * 1.5))
	w := int(math.Ceil(c.MeasureString(s)))

	layer := gg.NewContext(w+2*pad, ascent+descent+2*pad)
	layer.SetFontFace(face)
	layer.SetColor(withAlpha(g.Color, c.state.alpha))
	layer.DrawString(s, float64(pad), float64(pad+ascent))

	halo := imaging.Blur(layer.Image(), g.Blur/2)
	c.dc.DrawImage(halo, int(math.Round(x))-pad, int(math.Round(y))-ascent-pad)
}

// Save pushes the drawing state.
func (c *Canvas) Save() {
	c.dc.Push()
	c.stack = append(c.stack, c.state)
}

// Restore pops the drawing state. Unbalanced calls are ignored.
func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.dc.Pop()
	c.state = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// Err returns the first font error seen while drawing.
func (c *Canvas) Err() error { return c.err }

// Image returns the underlying raster.
func (c *Canvas) Image() image.Image { return c.dc.Image() }

// EncodePNG writes the canvas as a single-frame PNG.
func (c *Canvas) EncodePNG(w io.Writer) error { return c.dc.EncodePNG(w) }

// Close releases the canvas' font faces.
func (c *Canvas) Close() error { return c.faces.Close() }

var _ Surface = (*Canvas)(nil)
