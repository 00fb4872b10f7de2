package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/codexrender/pkg/cache"
	"github.com/matzehuels/codexrender/pkg/entry"
	apperrors "github.com/matzehuels/codexrender/pkg/errors"
	"github.com/matzehuels/codexrender/pkg/fonts"
	"github.com/matzehuels/codexrender/pkg/observability"
	"github.com/matzehuels/codexrender/pkg/render/surface"
	"github.com/matzehuels/codexrender/pkg/render/template"
	"github.com/matzehuels/codexrender/pkg/sink"
)

// Runner executes renders against an entry store and an output sink.
//
// The Runner holds no per-render state. Every call composes onto its own
// canvas with its own font faces, so multiple goroutines can share one
// Runner.
type Runner struct {
	Entries entry.Store
	Sink    sink.Sink
	Cache   cache.Cache
	// CacheTTL is how long composed images stay cached.
	CacheTTL time.Duration
	Fonts    *fonts.Set
	Namer    *Namer
	Logger   *log.Logger
}

// NewRunner creates a runner. A nil cache disables image caching and a nil
// logger means log.Default(). Fonts default to the embedded set and names to
// NamingUnique; set the fields directly to change them.
func NewRunner(entries entry.Store, out sink.Sink, c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Entries:  entries,
		Sink:     out,
		Cache:    c,
		CacheTTL: cache.TTLImage,
		Namer:    NewNamer(NamingUnique),
		Logger:   logger,
	}
}

// Render runs the whole pipeline and stores the image.
//
// Nothing is written when validation, lookup, composition or encoding fails.
// Once the entry has been loaded the render runs to completion even if ctx
// is cancelled.
func (r *Runner) Render(ctx context.Context, cfg Config) (*Result, error) {
	start := time.Now()
	cfg.SetDefaults()
	observability.Render().OnRenderStart(ctx, cfg.EntryID, cfg.Template)

	result, err := r.compose(ctx, cfg)
	if err == nil {
		err = r.store(ctx, cfg, result)
	}

	size := 0
	if result != nil {
		size = result.Stats.Bytes
	}
	observability.Render().OnRenderComplete(ctx, cfg.EntryID, cfg.Template, size, time.Since(start), err)
	if err != nil {
		r.Logger.Warn("render failed", "entry", cfg.EntryID, "template", cfg.Template, "code", apperrors.GetCode(err), "err", err)
		return nil, err
	}

	r.Logger.Info("rendered entry",
		"entry", cfg.EntryID,
		"template", cfg.Template,
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"file", result.FileName,
		"bytes", result.Stats.Bytes,
		"cached", result.CacheHit,
		"duration", time.Since(start))
	return result, nil
}

// Compose validates cfg, resolves the entry and returns the encoded image
// without naming or storing it.
func (r *Runner) Compose(ctx context.Context, cfg Config) (*Result, error) {
	cfg.SetDefaults()
	return r.compose(ctx, cfg)
}

func (r *Runner) compose(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tpl, err := template.Lookup(cfg.Template)
	if err != nil {
		return nil, err
	}
	if r.Entries == nil {
		return nil, apperrors.New(apperrors.ErrCodeInternal, "runner has no entry store")
	}

	rec, err := r.Entries.Get(ctx, cfg.EntryID)
	if err != nil {
		if apperrors.GetCode(err) == "" {
			err = apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "load entry %s", cfg.EntryID)
		}
		return nil, err
	}
	content := rec.Resolve(cfg.EntryID)

	set, err := r.fontSet()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "load fonts")
	}

	key := cache.ImageKey(content, cache.ImageKeyOpts{
		Template:  tpl.Name,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Watermark: cfg.Watermark,
		Fonts:     set.Fingerprint(),
	})
	// Cache errors only cost a recompose.
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		r.Logger.Debug("image cache hit", "entry", cfg.EntryID, "template", tpl.Name)
		return &Result{Image: data, CacheHit: true, Stats: Stats{Bytes: len(data)}}, nil
	}

	result := &Result{}

	composeStart := time.Now()
	canvas := surface.NewCanvas(cfg.Width, cfg.Height, set)
	defer canvas.Close()
	tpl.Compose(canvas, content, template.Options{Watermark: cfg.Watermark})
	if err := canvas.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "compose %s", cfg.EntryID)
	}
	result.Stats.ComposeTime = time.Since(composeStart)

	encodeStart := time.Now()
	var buf bytes.Buffer
	if err := canvas.EncodePNG(&buf); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeEncodingFailure, err, "encode png")
	}
	result.Stats.EncodeTime = time.Since(encodeStart)
	result.Image = buf.Bytes()
	result.Stats.Bytes = buf.Len()

	if err := r.Cache.Set(ctx, key, result.Image, r.CacheTTL); err != nil {
		r.Logger.Debug("image cache write failed", "entry", cfg.EntryID, "err", err)
	}

	r.Logger.Debug("composed entry",
		"entry", cfg.EntryID,
		"compose", result.Stats.ComposeTime,
		"encode", result.Stats.EncodeTime)
	return result, nil
}

func (r *Runner) store(ctx context.Context, cfg Config, result *Result) error {
	if r.Sink == nil {
		return apperrors.New(apperrors.ErrCodeInternal, "runner has no output sink")
	}
	namer := r.Namer
	if namer == nil {
		namer = NewNamer(NamingUnique)
	}
	result.FileIdentity = namer.Identity(cfg.EntryID)
	result.FileName = result.FileIdentity + ".png"

	storeStart := time.Now()
	err := r.Sink.Store(ctx, result.FileName, result.Image)
	result.Stats.StoreTime = time.Since(storeStart)
	observability.Sink().OnStore(ctx, result.FileName, len(result.Image), result.Stats.StoreTime, err)
	if err != nil {
		if apperrors.GetCode(err) == "" || apperrors.Is(err, apperrors.ErrCodeInvalidName) {
			err = apperrors.Wrap(apperrors.ErrCodeSinkFailure, err, "store %s", result.FileName)
		}
		return err
	}
	result.Locator = r.Sink.Locator(result.FileName)
	return nil
}

func (r *Runner) fontSet() (*fonts.Set, error) {
	if r.Fonts != nil {
		return r.Fonts, nil
	}
	return fonts.Default()
}

// Close releases the entry store and the cache.
func (r *Runner) Close() error {
	var first error
	if r.Entries != nil {
		first = r.Entries.Close()
	}
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
