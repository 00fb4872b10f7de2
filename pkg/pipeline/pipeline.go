// Package pipeline turns a codex entry into a stored PNG.
//
// This package implements the render pipeline shared by the CLI and the HTTP
// API, so both produce identical images and file names for the same request.
//
// # Stages
//
//  1. Validate: reject unknown templates and non-positive dimensions before
//     anything is allocated
//  2. Resolve: load the entry record and apply its fallbacks
//  3. Compose: paint the template onto a fresh canvas
//  4. Encode: serialize the canvas as PNG
//  5. Name: derive a file identity from the entry id and the render time
//  6. Store: hand the bytes to the output sink and return its locator
//
// [Runner.Compose] runs stages 1-4 only; [Runner.Render] runs all six.
//
// # Usage
//
//	runner := pipeline.NewRunner(store, out, nil, logger)
//	result, err := runner.Render(ctx, pipeline.DefaultConfig("e1"))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Locator) // /media/e1-2024-05-01T12-00-00-000Z-1a2b3c4d.png
//
// Errors carry codes from pkg/errors: ENTRY_NOT_FOUND, INVALID_CONFIGURATION,
// ENCODING_FAILURE and SINK_FAILURE.
package pipeline

import (
	"time"

	apperrors "github.com/matzehuels/codexrender/pkg/errors"
	"github.com/matzehuels/codexrender/pkg/render/template"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default image width in pixels.
	DefaultWidth = 1080

	// DefaultHeight is the default image height in pixels.
	DefaultHeight = 1350

	// MaxDimension is the largest accepted width or height.
	MaxDimension = 8192

	// DefaultTemplate is the template used when none is requested.
	DefaultTemplate = template.Default
)

// =============================================================================
// Config - Render Configuration
// =============================================================================

// Config describes one render. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	EntryID   string `json:"entryId"`
	Template  string `json:"template,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Watermark bool   `json:"watermark"`
}

// DefaultConfig returns the default render of entryID: parchment, 1080×1350,
// watermark on.
func DefaultConfig(entryID string) Config {
	return Config{
		EntryID:   entryID,
		Template:  DefaultTemplate,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Watermark: true,
	}
}

// SetDefaults fills an empty template and zero dimensions. The watermark flag
// has no unset state and is left alone.
func (c *Config) SetDefaults() {
	if c.Template == "" {
		c.Template = DefaultTemplate
	}
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
}

// Validate reports an INVALID_CONFIGURATION error for an empty entry id, an
// unknown template, or dimensions outside 1..MaxDimension.
func (c Config) Validate() error {
	if c.EntryID == "" {
		return apperrors.New(apperrors.ErrCodeInvalidConfiguration, "entry id is required")
	}
	if !template.Valid(c.Template) {
		_, err := template.Lookup(c.Template)
		return err
	}
	if c.Width <= 0 || c.Height <= 0 {
		return apperrors.New(apperrors.ErrCodeInvalidConfiguration,
			"dimensions must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Width > MaxDimension || c.Height > MaxDimension {
		return apperrors.New(apperrors.ErrCodeInvalidConfiguration,
			"dimensions exceed %d, got %dx%d", MaxDimension, c.Width, c.Height)
	}
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a render.
type Result struct {
	// Image is the encoded PNG.
	Image []byte

	// FileIdentity is the stored file name without extension. Empty for
	// Compose results.
	FileIdentity string

	// FileName is FileIdentity + ".png".
	FileName string

	// Locator is the sink's retrieval address for FileName.
	Locator string

	// CacheHit reports whether Image came from the image cache.
	CacheHit bool

	Stats Stats
}

// Stats contains timing and size information.
type Stats struct {
	ComposeTime time.Duration
	EncodeTime  time.Duration
	StoreTime   time.Duration
	Bytes       int
}
