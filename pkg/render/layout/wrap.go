package layout

import "strings"

// MeasureFunc returns the rendered width of s under the caller's active font.
type MeasureFunc func(s string) float64

// Line is one wrapped line and the baseline it is drawn at.
type Line struct {
	Text string
	Y    float64
}

// Block is a laid-out paragraph.
type Block struct {
	Lines []Line

	// FinalBaselineY is the baseline of the last line, or the paragraph top
	// when the text produced no lines.
	FinalBaselineY float64
}

// Paragraph places wrapped lines top-to-bottom at a fixed line height.
type Paragraph struct {
	Top        float64
	LineHeight float64
}

// Wrap splits text into lines no wider than maxWidth according to measure.
// Whitespace-only input yields no lines.
func Wrap(text string, maxWidth float64, measure MeasureFunc) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	var lines []string
	line := ""
	for _, tok := range tokens {
		candidate := tok
		if line != "" {
			candidate = line + " " + tok
		}
		if line != "" && measure(candidate) > maxWidth {
			lines = append(lines, line)
			line = tok
			continue
		}
		line = candidate
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// Layout wraps text and assigns each line its baseline.
func (p Paragraph) Layout(text string, maxWidth float64, measure MeasureFunc) Block {
	wrapped := Wrap(text, maxWidth, measure)
	b := Block{
		Lines:          make([]Line, 0, len(wrapped)),
		FinalBaselineY: p.Top,
	}
	for i, s := range wrapped {
		y := p.Top + float64(i)*p.LineHeight
		b.Lines = append(b.Lines, Line{Text: s, Y: y})
		b.FinalBaselineY = y
	}
	return b
}
