package surface

import (
	"image/color"
	"unicode/utf8"

	"github.com/matzehuels/codexrender/pkg/fonts"
)

// OpKind identifies a recorded drawing operation.
type OpKind int

const (
	OpGradient OpKind = iota
	OpText
)

// Op is one recorded drawing operation together with the state it ran under.
type Op struct {
	Kind  OpKind
	Stops []Stop
	Text  string
	X, Y  float64
	Font  fonts.Spec
	Color color.Color
	Alpha float64
	Glow  *Glow
	Depth int
}

// Recorder is a [Surface] that records operations instead of drawing.
// Widths come from Measure, or from a fixed half-em advance per rune when
// Measure is nil.
type Recorder struct {
	Width, Height int
	Measure       func(s string, spec fonts.Spec) float64
	Ops           []Op

	state state
	stack []state
}

// NewRecorder returns a width×height recorder.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{Width: width, Height: height, state: defaultState()}
}

func (r *Recorder) Size() (int, int) { return r.Width, r.Height }

func (r *Recorder) FillVerticalGradient(stops []Stop) {
	r.Ops = append(r.Ops, r.op(Op{Kind: OpGradient, Stops: append([]Stop(nil), stops...)}))
}

func (r *Recorder) SetFont(spec fonts.Spec) { r.state.font = spec }
func (r *Recorder) SetColor(c color.Color)  { r.state.color = c }
func (r *Recorder) SetAlpha(a float64)      { r.state.alpha = a }
func (r *Recorder) SetGlow(g *Glow)         { r.state.glow = g }

func (r *Recorder) MeasureString(s string) float64 {
	if r.Measure != nil {
		return r.Measure(s, r.state.font)
	}
	return float64(utf8.RuneCountInString(s)) * r.state.font.Size / 2
}

func (r *Recorder) DrawString(s string, x, y float64) {
	if s == "" {
		return
	}
	r.Ops = append(r.Ops, r.op(Op{Kind: OpText, Text: s, X: x, Y: y}))
}

func (r *Recorder) Save() { r.stack = append(r.stack, r.state) }

func (r *Recorder) Restore() {
	if len(r.stack) == 0 {
		return
	}
	r.state = r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
}

// Depth reports how many Save calls are outstanding.
func (r *Recorder) Depth() int { return len(r.stack) }

// Texts returns the recorded text operations in draw order.
func (r *Recorder) Texts() []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == OpText {
			out = append(out, op)
		}
	}
	return out
}

func (r *Recorder) op(o Op) Op {
	o.Font = r.state.font
	o.Color = r.state.color
	o.Alpha = r.state.alpha
	o.Glow = r.state.glow
	o.Depth = len(r.stack)
	return o
}

var _ Surface = (*Recorder)(nil)
