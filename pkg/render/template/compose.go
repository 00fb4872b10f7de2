package template

import (
	"github.com/matzehuels/codexrender/pkg/entry"
	"github.com/matzehuels/codexrender/pkg/render/layout"
	"github.com/matzehuels/codexrender/pkg/render/surface"
)

// Options toggles optional layers.
type Options struct {
	Watermark bool
}

// Compose paints c onto s. It never fails: empty strings are skipped.
func (t Template) Compose(s surface.Surface, c entry.Content, opts Options) {
	w, h := s.Size()
	width, height := float64(w), float64(h)

	surface.Scoped(s, func() {
		s.FillVerticalGradient(t.Background)
	})

	surface.Scoped(s, func() {
		s.SetFont(t.TitleFont)
		s.SetColor(t.TitleColor)
		s.SetAlpha(1)
		s.DrawString(c.Title, t.Margin, t.Margin+t.TitleOffset)
	})

	surface.Scoped(s, func() {
		s.SetFont(t.BodyFont)
		s.SetColor(t.BodyColor)
		s.SetAlpha(t.BodyAlpha)
		p := layout.Paragraph{Top: t.Margin + t.BodyOffset, LineHeight: t.LineHeight}
		for _, line := range p.Layout(c.Body, width-2*t.Margin, s.MeasureString).Lines {
			s.DrawString(line.Text, t.Margin, line.Y)
		}
	})

	if c.Emphasis != "" {
		surface.Scoped(s, func() {
			s.SetFont(t.EmphasisFont)
			s.SetColor(t.EmphasisColor)
			s.SetAlpha(1)
			glow := t.Glow
			s.SetGlow(&glow)
			x := (width - s.MeasureString(c.Emphasis)) / 2
			s.DrawString(c.Emphasis, x, height-t.Margin-t.EmphasisLift)
		})
	}

	if opts.Watermark {
		label := c.Watermark
		if label == "" {
			label = entry.DefaultWatermark
		}
		surface.Scoped(s, func() {
			s.SetFont(t.WatermarkFont)
			s.SetColor(t.WatermarkColor)
			s.SetAlpha(t.WatermarkAlpha)
			s.DrawString(label, width-t.Margin-t.WatermarkInset, height-t.Margin+t.WatermarkDrop)
		})
	}
}
