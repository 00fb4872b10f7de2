// Package render groups the drawing packages used to compose codex cards.
//
//   - [surface]: the drawing surface interface, a gg-backed canvas that
//     encodes to PNG, and a recorder for tests
//   - [layout]: greedy word wrapping against a measuring function
//   - [template]: the parchment, open-weave and spiral card templates
//
// A render creates one canvas, hands it to a template, and encodes it:
//
//	canvas := surface.NewCanvas(w, h, fontSet)
//	defer canvas.Close()
//	tpl.Compose(canvas, content, template.Options{Watermark: true})
//	var buf bytes.Buffer
//	err := canvas.EncodePNG(&buf)
package render
