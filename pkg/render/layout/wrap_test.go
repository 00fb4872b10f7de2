package layout

import (
	"reflect"
	"strings"
	"testing"
)

// monospace measures every rune as one unit wide.
func monospace(s string) float64 { return float64(len([]rune(s))) }

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth float64
		want     []string
	}{
		{"empty", "", 10, nil},
		{"whitespace only", " \t\n  ", 10, nil},
		{"single word", "lantern", 10, []string{"lantern"}},
		{"fits on one line", "a lantern", 10, []string{"a lantern"}},
		{"exact fit", "abcd efgh", 9, []string{"abcd efgh"}},
		{"breaks greedily", "a lantern with no flame", 10, []string{"a lantern", "with no", "flame"}},
		{"collapses whitespace runs", "a   lantern\t\twith\nno", 10, []string{"a lantern", "with no"}},
		{"long token alone", "a incandescence b", 5, []string{"a", "incandescence", "b"}},
		{"long first token", "incandescence b", 5, []string{"incandescence", "b"}},
		{"zero width", "a b c", 0, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.text, tt.maxWidth, monospace)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Wrap(%q, %v) = %q, want %q", tt.text, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestWrapLinesFitOrAreSingleTokens(t *testing.T) {
	text := "A lantern with no flame still casts a shadow of intent. " +
		"Unquenchable-hyphenated-monstrosity sits beside small words like a and of."
	for _, maxWidth := range []float64{1, 4, 8, 13, 21, 34, 55, 200} {
		for _, line := range Wrap(text, maxWidth, monospace) {
			if monospace(line) <= maxWidth {
				continue
			}
			if len(strings.Fields(line)) != 1 {
				t.Errorf("maxWidth %v: line %q is too wide and holds more than one token", maxWidth, line)
			}
		}
	}
}

func TestWrapPreservesTokens(t *testing.T) {
	text := "the hollow lantern remembers every hand that carried it"
	lines := Wrap(text, 12, monospace)
	if got := strings.Join(lines, " "); got != text {
		t.Errorf("rejoined lines = %q, want %q", got, text)
	}
}

func TestWrapDeterministic(t *testing.T) {
	text := "Sovren khal itharu. The weave holds what the spiral forgets."
	a := Wrap(text, 17, monospace)
	b := Wrap(text, 17, monospace)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Wrap is not deterministic: %q vs %q", a, b)
	}
}

func TestParagraphLayout(t *testing.T) {
	p := Paragraph{Top: 180, LineHeight: 40}

	t.Run("baselines", func(t *testing.T) {
		b := p.Layout("a lantern with no flame", 10, monospace)
		want := []Line{
			{Text: "a lantern", Y: 180},
			{Text: "with no", Y: 220},
			{Text: "flame", Y: 260},
		}
		if !reflect.DeepEqual(b.Lines, want) {
			t.Errorf("Lines = %+v, want %+v", b.Lines, want)
		}
		if b.FinalBaselineY != 260 {
			t.Errorf("FinalBaselineY = %v, want 260", b.FinalBaselineY)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		b := p.Layout("", 10, monospace)
		if len(b.Lines) != 0 {
			t.Errorf("Lines = %+v, want none", b.Lines)
		}
		if b.FinalBaselineY != 180 {
			t.Errorf("FinalBaselineY = %v, want 180", b.FinalBaselineY)
		}
	})
}
