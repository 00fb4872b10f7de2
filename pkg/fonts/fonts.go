// Package fonts provides the serif faces templates draw with.
//
// The default faces are Latin Modern Roman (regular and bold), embedded in
// the binary through the go-fonts/latin-modern packages, so rendering works
// without any system fonts installed. Deployments can point the set at their
// own TrueType/OpenType files instead (for example Georgia).
//
// Parsed fonts are immutable and shared. Faces are not safe for concurrent
// use, so every render asks the set for its own [Faces] cache:
//
//	faces := set.NewFaces()
//	defer faces.Close()
//	face, err := faces.Face(fonts.Spec{Size: 48, Bold: true})
package fonts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// DPI is the resolution faces are created at. At 72 DPI one point is one
// pixel, which keeps template sizes in canvas units.
const DPI = 72

// Family names the default serif family.
const Family = "Latin Modern Roman"

// Spec selects a face from a [Set].
type Spec struct {
	Size float64
	Bold bool
}

// Set holds the parsed regular and bold serif fonts.
type Set struct {
	regular     *opentype.Font
	bold        *opentype.Font
	fingerprint string
}

var (
	defaultSet     *Set
	defaultSetErr  error
	defaultSetOnce sync.Once
)

// Default returns the embedded Latin Modern set.
// The fonts are parsed once on first access.
func Default() (*Set, error) {
	defaultSetOnce.Do(func() {
		defaultSet, defaultSetErr = FromBytes(lmroman10regular.TTF, lmroman10bold.TTF)
	})
	return defaultSet, defaultSetErr
}

// FromBytes parses raw font data into a set.
func FromBytes(regular, bold []byte) (*Set, error) {
	r, err := opentype.Parse(regular)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	b, err := opentype.Parse(bold)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	h := sha256.New()
	h.Write(regular)
	h.Write(bold)
	return &Set{regular: r, bold: b, fingerprint: hex.EncodeToString(h.Sum(nil))[:16]}, nil
}

// Fingerprint identifies the font data the set was built from. Two sets
// parsed from the same bytes share a fingerprint.
func (s *Set) Fingerprint() string { return s.fingerprint }

// Load builds a set from font files. An empty path falls back to the
// corresponding embedded face, so a deployment may override only one of them.
func Load(regularPath, boldPath string) (*Set, error) {
	if regularPath == "" && boldPath == "" {
		return Default()
	}
	regular, err := readOr(regularPath, lmroman10regular.TTF)
	if err != nil {
		return nil, err
	}
	bold, err := readOr(boldPath, lmroman10bold.TTF)
	if err != nil {
		return nil, err
	}
	return FromBytes(regular, bold)
}

func readOr(path string, fallback []byte) ([]byte, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	return data, nil
}

// NewFaces returns an empty face cache bound to this set.
func (s *Set) NewFaces() *Faces {
	return &Faces{set: s, faces: make(map[Spec]font.Face)}
}

// Faces caches faces created from a [Set] for the duration of one render.
// A Faces value must not be shared between goroutines.
type Faces struct {
	set   *Set
	faces map[Spec]font.Face
}

// Face returns the face for spec, creating it on first use.
func (f *Faces) Face(spec Spec) (font.Face, error) {
	if face, ok := f.faces[spec]; ok {
		return face, nil
	}
	src := f.set.regular
	if spec.Bold {
		src = f.set.bold
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    spec.Size,
		DPI:     DPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face at %.1fpt: %w", spec.Size, err)
	}
	f.faces[spec] = face
	return face, nil
}

// Close releases every cached face.
func (f *Faces) Close() error {
	for spec, face := range f.faces {
		face.Close()
		delete(f.faces, spec)
	}
	return nil
}
