// Package layout wraps paragraph text into lines that fit a maximum width.
//
// # Overview
//
// The engine is deliberately ignorant of fonts and drawing surfaces. Callers
// pass a [MeasureFunc] that reports the rendered width of a string under the
// active font, and receive plain lines back:
//
//	lines := layout.Wrap(body, 920, func(s string) float64 {
//	    w, _ := dc.MeasureString(s)
//	    return w
//	})
//
// [Paragraph] adds vertical placement on top of [Wrap]: each line gets a
// baseline at a fixed line height below the paragraph top.
//
//	block := layout.Paragraph{Top: 180, LineHeight: 40}.Layout(body, 920, measure)
//	for _, l := range block.Lines {
//	    dc.DrawString(l.Text, 80, l.Y)
//	}
//
// # Wrapping Policy
//
// Text is split on runs of whitespace. Tokens are accumulated greedily into
// the current line while the joined line still measures within the width.
// A token that alone exceeds the width is placed on its own line and is never
// split or truncated.
//
// Wrapping is a pure function of its inputs: the same text, width and
// measurement function always produce the same lines.
package layout
