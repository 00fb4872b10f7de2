package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"golang.org/x/image/font"
)

func TestDefault(t *testing.T) {
	a, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	b, _ := Default()
	if a != b {
		t.Error("Default() should return the same parsed set")
	}
}

func TestFacesCache(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	faces := set.NewFaces()
	defer faces.Close()

	f1, err := faces.Face(Spec{Size: 26})
	if err != nil {
		t.Fatalf("Face() error: %v", err)
	}
	f2, _ := faces.Face(Spec{Size: 26})
	if f1 != f2 {
		t.Error("Face() should return the cached face for an identical spec")
	}

	bold, _ := faces.Face(Spec{Size: 26, Bold: true})
	if bold == f1 {
		t.Error("bold and regular specs should produce different faces")
	}
}

func TestFaceSizeScalesWidth(t *testing.T) {
	set, _ := Default()
	faces := set.NewFaces()
	defer faces.Close()

	small, _ := faces.Face(Spec{Size: 18})
	large, _ := faces.Face(Spec{Size: 48})

	ws := font.MeasureString(small, "The Hollow Lantern")
	wl := font.MeasureString(large, "The Hollow Lantern")
	if wl <= ws {
		t.Errorf("48pt width %v should exceed 18pt width %v", wl, ws)
	}
}

func TestLoad(t *testing.T) {
	t.Run("no paths uses default", func(t *testing.T) {
		set, err := Load("", "")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		def, _ := Default()
		if set != def {
			t.Error("Load with no paths should return the default set")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.ttf"), ""); err == nil {
			t.Error("Load should fail for a missing font file")
		}
	})

	t.Run("invalid font data", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.ttf")
		if err := os.WriteFile(path, []byte("not a font"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path, ""); err == nil {
			t.Error("Load should fail for invalid font data")
		}
	})
}

func TestFingerprint(t *testing.T) {
	def, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	same, err := FromBytes(lmroman10regular.TTF, lmroman10bold.TTF)
	if err != nil {
		t.Fatal(err)
	}
	if def.Fingerprint() != same.Fingerprint() {
		t.Error("sets parsed from the same bytes should share a fingerprint")
	}
	swapped, err := FromBytes(lmroman10bold.TTF, lmroman10regular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	if swapped.Fingerprint() == def.Fingerprint() {
		t.Error("different font data should change the fingerprint")
	}
	if len(def.Fingerprint()) != 16 {
		t.Errorf("Fingerprint() length = %d, want 16", len(def.Fingerprint()))
	}
}
