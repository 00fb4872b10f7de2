// Package sink persists rendered images and tells callers where to find them.
//
// A [Sink] stores bytes under a plain file name and returns a locator, the
// address a client uses to fetch the file (for the HTTP service, a path
// under /media/). Stores of the same name overwrite; the last writer wins.
package sink

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/matzehuels/codexrender/internal/atomicfile"
	apperrors "github.com/matzehuels/codexrender/pkg/errors"
)

// DefaultPrefix is the locator prefix used by the HTTP service.
const DefaultPrefix = "/media/"

// Sink persists named blobs.
type Sink interface {
	// Store writes data under name. A reader never observes a partial file.
	Store(ctx context.Context, name string, data []byte) error
	// Open returns the bytes stored under name, or a NOT_FOUND error.
	Open(ctx context.Context, name string) ([]byte, error)
	// Locator returns the retrieval address for name.
	Locator(name string) string
}

// =============================================================================
// FileSink
// =============================================================================

// FileSink stores files in a directory.
type FileSink struct {
	dir    string
	prefix string
}

// NewFileSink returns a sink writing into dir, creating it if needed.
// Locators are prefix joined with the file name; an empty prefix means
// DefaultPrefix.
func NewFileSink(dir, prefix string) (*FileSink, error) {
	if dir == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidConfiguration, "output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeSinkFailure, err, "create output directory")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &FileSink{dir: dir, prefix: prefix}, nil
}

// Dir returns the output directory.
func (s *FileSink) Dir() string { return s.dir }

// Path returns the local path for name.
func (s *FileSink) Path(name string) string { return filepath.Join(s.dir, name) }

func (s *FileSink) Store(_ context.Context, name string, data []byte) error {
	if err := apperrors.ValidateFileName(name); err != nil {
		return err
	}
	if err := atomicfile.Write(s.Path(name), data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSinkFailure, err, "store %s", name)
	}
	return nil
}

func (s *FileSink) Open(_ context.Context, name string) ([]byte, error) {
	if err := apperrors.ValidateFileName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "file %q not found", name)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeSinkFailure, err, "open %s", name)
	}
	return data, nil
}

func (s *FileSink) Locator(name string) string { return joinLocator(s.prefix, name) }

// =============================================================================
// MemorySink
// =============================================================================

// MemorySink keeps files in memory. It is safe for concurrent use.
type MemorySink struct {
	mu     sync.RWMutex
	files  map[string][]byte
	prefix string
}

// NewMemorySink returns an empty sink whose locators use DefaultPrefix.
func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte), prefix: DefaultPrefix}
}

func (s *MemorySink) Store(_ context.Context, name string, data []byte) error {
	if err := apperrors.ValidateFileName(name); err != nil {
		return err
	}
	buf := append([]byte(nil), data...)
	s.mu.Lock()
	s.files[name] = buf
	s.mu.Unlock()
	return nil
}

func (s *MemorySink) Open(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.files[name]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "file %q not found", name)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemorySink) Locator(name string) string { return joinLocator(s.prefix, name) }

// Len returns the number of stored files.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Names returns the stored file names in no particular order.
func (s *MemorySink) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.files))
	for n := range s.files {
		names = append(names, n)
	}
	return names
}

func joinLocator(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

var (
	_ Sink = (*FileSink)(nil)
	_ Sink = (*MemorySink)(nil)
)
