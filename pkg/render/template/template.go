// Package template composes codex entries onto a drawing surface.
//
// A [Template] is a value: a palette plus the geometry of the five layers every
// codex card is made of. Compose paints them in a fixed order:
//
//  1. a vertical background gradient over the whole surface
//  2. the title, bold, at the top-left margin
//  3. the body, wrapped to the content width by the layout engine
//  4. the emphasis phrase, centered near the bottom with a glow halo
//  5. the watermark label in the bottom-right corner at low opacity
//
// Each layer runs inside [surface.Scoped], so a layer's font, opacity or glow
// is never visible to the layer after it.
//
// Templates are looked up by name from a closed registry:
//
//	tpl, err := template.Lookup("parchment")
//	if err != nil {
//	    return err // INVALID_CONFIGURATION
//	}
//	tpl.Compose(canvas, rec.Resolve(id), template.Options{Watermark: true})
package template

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/matzehuels/codexrender/pkg/errors"
	"github.com/matzehuels/codexrender/pkg/fonts"
	"github.com/matzehuels/codexrender/pkg/render/surface"
)

// Default is the template used when none is requested.
const Default = "parchment"

// Template describes how an entry is painted. All lengths are in pixels.
type Template struct {
	Name       string
	Background []surface.Stop

	// Margin is the inset of the title, body and watermark from the edges.
	Margin float64

	TitleFont     fonts.Spec
	BodyFont      fonts.Spec
	EmphasisFont  fonts.Spec
	WatermarkFont fonts.Spec

	TitleColor     color.Color
	BodyColor      color.Color
	EmphasisColor  color.Color
	WatermarkColor color.Color

	// TitleOffset is the title baseline below the top margin.
	TitleOffset float64
	// BodyOffset is the first body baseline below the top margin.
	BodyOffset float64
	LineHeight float64

	BodyAlpha      float64
	WatermarkAlpha float64

	Glow surface.Glow

	// EmphasisLift is the emphasis baseline above the bottom margin.
	EmphasisLift float64
	// WatermarkInset is the watermark start left of the right margin.
	WatermarkInset float64
	// WatermarkDrop is the watermark baseline below the bottom margin.
	WatermarkDrop float64
}

// base holds the geometry and typography shared by every template.
func base() Template {
	return Template{
		Margin:         80,
		TitleFont:      fonts.Spec{Size: 48, Bold: true},
		BodyFont:       fonts.Spec{Size: 26},
		EmphasisFont:   fonts.Spec{Size: 28},
		WatermarkFont:  fonts.Spec{Size: 18},
		WatermarkColor: color.White,
		TitleOffset:    40,
		BodyOffset:     100,
		LineHeight:     40,
		BodyAlpha:      0.95,
		WatermarkAlpha: 0.25,
		EmphasisLift:   20,
		WatermarkInset: 220,
		WatermarkDrop:  10,
	}
}

var registry = map[string]func() Template{
	"parchment":  parchment,
	"open-weave": openWeave,
	"spiral":     spiral,
}

func parchment() Template {
	t := base()
	t.Name = "parchment"
	t.Background = []surface.Stop{
		{Offset: 0, Color: mustHex("#3b2f2f")},
		{Offset: 0.25, Color: mustHex("#5a463d")},
		{Offset: 1, Color: mustHex("#e7d4b5")},
	}
	t.TitleColor = mustHex("#f5deb3")
	t.BodyColor = mustHex("#f5deb3")
	t.EmphasisColor = mustHex("#ffe7b3")
	t.Glow = surface.Glow{Color: rgba(255, 240, 200, 0.75), Blur: 12}
	return t
}

func openWeave() Template {
	t := base()
	t.Name = "open-weave"
	t.Background = []surface.Stop{
		{Offset: 0, Color: mustHex("#1f2a36")},
		{Offset: 0.25, Color: mustHex("#2f4858")},
		{Offset: 1, Color: mustHex("#d9e4dd")},
	}
	t.TitleColor = mustHex("#e8f1f2")
	t.BodyColor = mustHex("#e8f1f2")
	t.EmphasisColor = mustHex("#cdeeff")
	t.Glow = surface.Glow{Color: rgba(180, 230, 255, 0.7), Blur: 14}
	return t
}

func spiral() Template {
	t := base()
	t.Name = "spiral"
	t.Background = []surface.Stop{
		{Offset: 0, Color: mustHex("#2b1b33")},
		{Offset: 0.25, Color: mustHex("#4a2f55")},
		{Offset: 1, Color: mustHex("#e9d8f0")},
	}
	t.TitleColor = mustHex("#f6e7ff")
	t.BodyColor = mustHex("#f6e7ff")
	t.EmphasisColor = mustHex("#ffd6f2")
	t.Glow = surface.Glow{Color: rgba(255, 200, 240, 0.7), Blur: 16}
	return t
}

// Lookup returns the named template. Unknown names are an
// INVALID_CONFIGURATION error.
func Lookup(name string) (Template, error) {
	build, ok := registry[name]
	if !ok {
		return Template{}, apperrors.New(apperrors.ErrCodeInvalidConfiguration,
			"unsupported template %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return build(), nil
}

// Names returns the registered template names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Valid reports whether name is a registered template.
func Valid(name string) bool {
	_, ok := registry[name]
	return ok
}

// ParseHexColor parses a "#RRGGBB" hex color string into a color.NRGBA.
func ParseHexColor(hex string) (color.NRGBA, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: must be 6 hex digits", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func mustHex(hex string) color.NRGBA {
	c, err := ParseHexColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// rgba builds a non-premultiplied color with a fractional alpha.
func rgba(r, g, b uint8, a float64) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: uint8(a*255 + 0.5)}
}
