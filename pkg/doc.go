// Package pkg provides the libraries behind codexrender, which turns codex
// entries into share images.
//
// # Overview
//
// The pkg directory is organized by stage:
//
//  1. [entry] - Entry records and the stores that hold them (files, redis, mongo)
//  2. [render] - Drawing: the surface, text layout and the card templates
//  3. [pipeline] - Orchestration (validate → load → compose → encode → store)
//  4. [sink] - Where encoded images are written and how they are addressed
//  5. [server] - The HTTP API over the pipeline
//
// Supporting packages: [cache] keeps composed images, [config] loads
// settings, [fonts] parses the typefaces, [errors] carries error codes and
// [observability] exposes hooks for metrics.
//
// # Data Flow
//
//	entry id + template + size
//	         ↓
//	entry.Store.Get → Record.Resolve
//	         ↓
//	template.Compose onto surface.Canvas
//	         ↓
//	PNG bytes → sink.Sink.Store → locator (/media/<name>.png)
package pkg
