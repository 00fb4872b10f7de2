package entry

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/codexrender/internal/atomicfile"
	apperrors "github.com/matzehuels/codexrender/pkg/errors"
)

// decoders maps the file extensions a FileStore reads, in lookup order.
var decoders = []struct {
	ext    string
	decode func([]byte) (Record, error)
}{
	{".json", DecodeJSON},
	{".yaml", DecodeYAML},
	{".yml", DecodeYAML},
}

// FileStore reads records from <dir>/<id>.json (or .yaml/.yml) and saves them
// as JSON.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidConfiguration, "codex directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "create codex directory")
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store reads from.
func (s *FileStore) Dir() string { return s.dir }

// Get loads the record for id. The id field is filled from the file name when
// the document omits it.
func (s *FileStore) Get(_ context.Context, id string) (Record, error) {
	if err := apperrors.ValidateEntryID(id); err != nil {
		return Record{}, err
	}
	for _, d := range decoders {
		data, err := os.ReadFile(filepath.Join(s.dir, id+d.ext))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Record{}, apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "read entry %s", id)
		}
		rec, err := d.decode(data)
		if err != nil {
			return Record{}, apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "parse entry %s", id)
		}
		if rec.ID == "" {
			rec.ID = id
		}
		return rec, nil
	}
	return Record{}, apperrors.New(apperrors.ErrCodeEntryNotFound, "entry %q not found", id)
}

// List summarizes every record in the directory, skipping files whose
// names are not valid entry ids. When the same id exists in
// more than one format the JSON document wins, matching Get.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "read codex directory")
	}

	seen := make(map[string]bool)
	var out []Summary
	for _, de := range dirents {
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		id, ok := trimKnownExt(de.Name())
		if !ok || seen[id] {
			continue
		}
		// Files whose names are not valid ids cannot be fetched either.
		if apperrors.ValidateEntryID(id) != nil {
			continue
		}
		seen[id] = true

		rec, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, rec.Summary())
	}
	SortSummaries(out)
	return out, nil
}

// Save writes rec to <dir>/<id>.json atomically.
func (s *FileStore) Save(_ context.Context, rec Record) error {
	if err := apperrors.ValidateEntryID(rec.ID); err != nil {
		return err
	}
	data, err := EncodeJSON(rec)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "encode entry %s", rec.ID)
	}
	if err := atomicfile.Write(filepath.Join(s.dir, rec.ID+".json"), data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "write entry %s", rec.ID)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

func trimKnownExt(name string) (string, bool) {
	for _, d := range decoders {
		if strings.HasSuffix(name, d.ext) {
			return strings.TrimSuffix(name, d.ext), true
		}
	}
	return "", false
}

var _ Store = (*FileStore)(nil)
