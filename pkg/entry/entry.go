// Package entry holds codex entry records and the stores they live in.
//
// A [Record] is the raw document as authored: every field except the id is
// optional. Before anything is drawn a record is resolved into [Content],
// which has every fallback applied, so the compositor never has to reason
// about missing fields.
//
// Stores implement [Store]. [FileStore] reads the codex directory used by the
// HTTP service; the redisstore and mongostore subpackages provide networked
// backends with the same contract.
package entry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
)

// DefaultWatermark is the corner label used when a record names none.
const DefaultWatermark = "Lumerath-Seal"

// Design carries per-entry presentation overrides.
type Design struct {
	Watermark string `json:"watermark,omitempty" yaml:"watermark,omitempty" bson:"watermark,omitempty"`
}

// Record is a codex entry as stored.
type Record struct {
	ID      string `json:"id" yaml:"id" bson:"id"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty" bson:"title,omitempty"`
	Body    string `json:"body,omitempty" yaml:"body,omitempty" bson:"body,omitempty"`
	Sovlang string `json:"sovlang,omitempty" yaml:"sovlang,omitempty" bson:"sovlang,omitempty"`
	Design  Design `json:"design,omitzero" yaml:"design,omitempty" bson:"design,omitempty"`
}

// Content is a record with every fallback applied.
type Content struct {
	Title     string
	Body      string
	Emphasis  string // empty means no emphasis line
	Watermark string
}

// Resolve applies fallbacks. requestedID is the id the caller asked for; it
// becomes the title when the record has none.
func (r Record) Resolve(requestedID string) Content {
	c := Content{
		Title:     r.Title,
		Body:      r.Body,
		Emphasis:  r.Sovlang,
		Watermark: r.Design.Watermark,
	}
	if c.Title == "" {
		c.Title = requestedID
	}
	if c.Watermark == "" {
		c.Watermark = DefaultWatermark
	}
	return c
}

// Summary is the listing view of a record.
type Summary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Summary returns the listing view; the title falls back to the id.
func (r Record) Summary() Summary {
	s := Summary{ID: r.ID, Title: r.Title}
	if s.Title == "" {
		s.Title = r.ID
	}
	return s
}

// Store loads and saves entry records.
//
// Get returns an error with code ENTRY_NOT_FOUND when no record exists for id.
// List returns summaries sorted by id.
type Store interface {
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context) ([]Summary, error)
	Save(ctx context.Context, rec Record) error
	Close() error
}

// Filter keeps the summaries whose id matches the doublestar pattern.
// An empty pattern keeps everything.
func Filter(summaries []Summary, pattern string) ([]Summary, error) {
	if pattern == "" {
		return summaries, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	var out []Summary
	for _, s := range summaries {
		if ok, _ := doublestar.Match(pattern, s.ID); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// SortSummaries orders summaries by id in place.
func SortSummaries(summaries []Summary) {
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeJSON parses a JSON record. A leading UTF-8 byte order mark is ignored.
func DecodeJSON(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &rec); err != nil {
		return Record{}, fmt.Errorf("decode entry json: %w", err)
	}
	return rec, nil
}

// DecodeYAML parses a YAML record.
func DecodeYAML(data []byte) (Record, error) {
	var rec Record
	if err := yaml.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &rec); err != nil {
		return Record{}, fmt.Errorf("decode entry yaml: %w", err)
	}
	return rec, nil
}

// EncodeJSON renders a record as indented JSON with a trailing newline.
func EncodeJSON(rec Record) ([]byte, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	return append(data, '\n'), nil
}
