package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/codexrender/pkg/cache"
	"github.com/matzehuels/codexrender/pkg/entry"
	apperrors "github.com/matzehuels/codexrender/pkg/errors"
	"github.com/matzehuels/codexrender/pkg/observability"
	"github.com/matzehuels/codexrender/pkg/sink"
)

var fixedClock = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

func newTestRunner(t *testing.T, recs ...entry.Record) (*Runner, *sink.MemorySink) {
	t.Helper()
	out := sink.NewMemorySink()
	r := NewRunner(entry.NewMemoryStore(recs...), out, nil, log.New(io.Discard))
	r.Namer.Clock = fixedClock
	return r, out
}

func smallConfig(id string) Config {
	cfg := DefaultConfig(id)
	cfg.Width, cfg.Height = 600, 700
	return cfg
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}

func TestRenderEndToEnd(t *testing.T) {
	r, out := newTestRunner(t, entry.Record{
		ID:      "e1",
		Title:   "The Gate",
		Body:    strings.Repeat("lorem ipsum dolor sit amet ", 20),
		Sovlang: "ka-ri",
	})
	r.Namer.Mode = NamingTimestamp

	res, err := r.Render(context.Background(), DefaultConfig("e1"))
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if res.FileIdentity != "e1-2024-05-01T12-00-00-000Z" {
		t.Errorf("FileIdentity = %q", res.FileIdentity)
	}
	if res.FileName != res.FileIdentity+".png" {
		t.Errorf("FileName = %q", res.FileName)
	}
	if res.Locator != "/media/e1-2024-05-01T12-00-00-000Z.png" {
		t.Errorf("Locator = %q", res.Locator)
	}

	img := decodePNG(t, res.Image)
	if b := img.Bounds(); b.Dx() != 1080 || b.Dy() != 1350 {
		t.Errorf("image is %dx%d, want 1080x1350", b.Dx(), b.Dy())
	}

	stored, err := out.Open(context.Background(), res.FileName)
	if err != nil {
		t.Fatalf("sink has no %s: %v", res.FileName, err)
	}
	if !bytes.Equal(stored, res.Image) {
		t.Error("stored bytes differ from the returned image")
	}
}

func TestComposeDeterministic(t *testing.T) {
	r, _ := newTestRunner(t, entry.Record{ID: "e1", Title: "T", Body: "some body text", Sovlang: "glow"})
	ctx := context.Background()

	a, err := r.Compose(ctx, smallConfig("e1"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Compose(ctx, smallConfig("e1"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Image, b.Image) {
		t.Error("identical inputs produced different PNG bytes")
	}
	if a.FileName != "" || a.Locator != "" {
		t.Error("Compose must not name or store")
	}
}

func TestComposeFallbacks(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		bare     entry.Record
		explicit entry.Record
	}{
		{
			name:     "title falls back to entry id",
			bare:     entry.Record{ID: "e9", Body: "b"},
			explicit: entry.Record{ID: "e9", Title: "e9", Body: "b"},
		},
		{
			name:     "watermark falls back to default label",
			bare:     entry.Record{ID: "e9", Title: "T"},
			explicit: entry.Record{ID: "e9", Title: "T", Design: entry.Design{Watermark: entry.DefaultWatermark}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r1, _ := newTestRunner(t, tt.bare)
			r2, _ := newTestRunner(t, tt.explicit)
			a, err := r1.Compose(ctx, smallConfig("e9"))
			if err != nil {
				t.Fatal(err)
			}
			b, err := r2.Compose(ctx, smallConfig("e9"))
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(a.Image, b.Image) {
				t.Error("fallback rendering differs from the explicit value")
			}
		})
	}
}

func TestWatermarkToggleConfinedToCorner(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRunner(t, entry.Record{ID: "e1", Title: "T", Body: "short body", Sovlang: "phrase"})

	on := smallConfig("e1")
	off := on
	off.Watermark = false

	a, err := r.Compose(ctx, on)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Compose(ctx, off)
	if err != nil {
		t.Fatal(err)
	}
	imgOn, imgOff := decodePNG(t, a.Image), decodePNG(t, b.Image)

	const margin = 80
	minX, minY := on.Width-margin-230, on.Height-margin-20
	var diffs int
	bounds := imgOn.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if imgOn.At(x, y) == imgOff.At(x, y) {
				continue
			}
			diffs++
			if x < minX || y < minY {
				t.Fatalf("pixel (%d,%d) differs outside the watermark corner", x, y)
			}
		}
	}
	if diffs == 0 {
		t.Error("watermark toggle changed no pixels")
	}
}

func TestRenderEntryNotFound(t *testing.T) {
	r, out := newTestRunner(t)
	_, err := r.Render(context.Background(), DefaultConfig("missing"))
	if !apperrors.Is(err, apperrors.ErrCodeEntryNotFound) {
		t.Fatalf("Render() error = %v, want ENTRY_NOT_FOUND", err)
	}
	if out.Len() != 0 {
		t.Errorf("sink holds %d files after a failed render", out.Len())
	}
}

func TestRenderInvalidConfiguration(t *testing.T) {
	r, out := newTestRunner(t, entry.Record{ID: "e1"})
	tests := []Config{
		{EntryID: "e1", Template: "mosaic", Width: 10, Height: 10, Watermark: true},
		{EntryID: "e1", Template: "parchment", Width: -5, Height: 10},
	}
	for _, cfg := range tests {
		_, err := r.Render(context.Background(), cfg)
		if !apperrors.Is(err, apperrors.ErrCodeInvalidConfiguration) {
			t.Errorf("Render(%+v) error = %v, want INVALID_CONFIGURATION", cfg, err)
		}
	}
	if out.Len() != 0 {
		t.Errorf("sink holds %d files after rejected renders", out.Len())
	}
}

func TestRenderLongestEntryID(t *testing.T) {
	longest := strings.Repeat("a", 200)
	r, out := newTestRunner(t, entry.Record{ID: longest})

	res, err := r.Render(context.Background(), smallConfig(longest))
	if err != nil {
		t.Fatalf("Render() with a %d-byte id: %v", len(longest), err)
	}
	if len(res.FileName) > 255 {
		t.Errorf("file name is %d bytes, want <= 255", len(res.FileName))
	}
	if _, err := out.Open(context.Background(), res.FileName); err != nil {
		t.Errorf("Open(%q): %v", res.FileName, err)
	}

	_, err = r.Render(context.Background(), smallConfig(longest+"a"))
	if !apperrors.Is(err, apperrors.ErrCodeInvalidID) {
		t.Errorf("Render() with a 201-byte id error = %v, want INVALID_ID", err)
	}
	if out.Len() != 1 {
		t.Errorf("sink holds %d files, want 1", out.Len())
	}
}

type failingSink struct{}

func (failingSink) Store(context.Context, string, []byte) error  { return errors.New("disk full") }
func (failingSink) Open(context.Context, string) ([]byte, error) { return nil, errors.New("disk full") }
func (failingSink) Locator(name string) string                   { return name }

func TestRenderSinkFailure(t *testing.T) {
	r, _ := newTestRunner(t, entry.Record{ID: "e1"})
	r.Sink = failingSink{}
	_, err := r.Render(context.Background(), smallConfig("e1"))
	if !apperrors.Is(err, apperrors.ErrCodeSinkFailure) {
		t.Errorf("Render() error = %v, want SINK_FAILURE", err)
	}
}

func TestRenderConcurrentIdentitiesDistinct(t *testing.T) {
	r, out := newTestRunner(t, entry.Record{ID: "e1", Title: "T"})
	const n = 8

	var wg sync.WaitGroup
	names := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg := DefaultConfig("e1")
			cfg.Width, cfg.Height = 200, 250
			res, err := r.Render(context.Background(), cfg)
			errs[i] = err
			if err == nil {
				names[i] = res.FileName
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("render %d: %v", i, errs[i])
		}
		if seen[names[i]] {
			t.Errorf("duplicate file name %s", names[i])
		}
		seen[names[i]] = true
	}
	if out.Len() != n {
		t.Errorf("sink holds %d files, want %d", out.Len(), n)
	}
}

func TestRenderUsesImageCache(t *testing.T) {
	r, _ := newTestRunner(t, entry.Record{ID: "e1", Title: "T"})
	r.Cache = cache.NewMemoryCache(4)
	ctx := context.Background()

	first, err := r.Render(ctx, smallConfig("e1"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Render(ctx, smallConfig("e1"))
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHit || !second.CacheHit {
		t.Errorf("CacheHit = %v, %v; want false, true", first.CacheHit, second.CacheHit)
	}
	if !bytes.Equal(first.Image, second.Image) {
		t.Error("cached image differs from the composed one")
	}
	if first.FileName == second.FileName {
		t.Error("cached renders still need their own file identity")
	}

	other := smallConfig("e1")
	other.Template = "spiral"
	third, err := r.Render(ctx, other)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheHit {
		t.Error("a different template must not hit the cache")
	}
}

type recordingHooks struct {
	observability.NoopRenderHooks
	mu    sync.Mutex
	calls []string
}

func (h *recordingHooks) OnRenderComplete(_ context.Context, entryID, tpl string, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, fmt.Sprintf("%s/%s/%v", entryID, tpl, apperrors.GetCode(err)))
}

func TestRenderHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetRenderHooks(hooks)
	t.Cleanup(observability.Reset)

	r, _ := newTestRunner(t, entry.Record{ID: "e1"})
	r.Render(context.Background(), smallConfig("e1"))
	r.Render(context.Background(), smallConfig("nope"))

	want := []string{"e1/parchment/", "nope/parchment/ENTRY_NOT_FOUND"}
	if len(hooks.calls) != len(want) {
		t.Fatalf("hook calls = %v, want %v", hooks.calls, want)
	}
	for i := range want {
		if hooks.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, hooks.calls[i], want[i])
		}
	}
}
