package entry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/matzehuels/codexrender/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileStoreGet(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "e1.json", "\ufeff"+`{"id":"e1","title":"Gate","body":"text"}`)
	writeFile(t, dir, "e2.yaml", "title: Weave\n")
	writeFile(t, dir, "bad.json", "{not json")

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	rec, err := s.Get(ctx, "e1")
	if err != nil {
		t.Fatalf("Get(e1) error: %v", err)
	}
	if rec.Title != "Gate" || rec.Body != "text" {
		t.Errorf("Get(e1) = %+v", rec)
	}

	rec, err = s.Get(ctx, "e2")
	if err != nil {
		t.Fatalf("Get(e2) error: %v", err)
	}
	if rec.ID != "e2" {
		t.Errorf("Get(e2).ID = %q, want id filled from file name", rec.ID)
	}

	tests := []struct {
		id   string
		code apperrors.Code
	}{
		{"missing", apperrors.ErrCodeEntryNotFound},
		{"../etc/passwd", apperrors.ErrCodeInvalidID},
		{"", apperrors.ErrCodeInvalidID},
		{"bad", apperrors.ErrCodeStoreFailure},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := s.Get(ctx, tt.id)
			if !apperrors.Is(err, tt.code) {
				t.Errorf("Get(%q) error = %v, want code %s", tt.id, err, tt.code)
			}
		})
	}
}

func TestFileStoreListAndSave(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `{"id":"b","title":"Bee"}`)
	writeFile(t, dir, "a.yml", "body: only body\n")
	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, ".hidden.json", `{}`)
	writeFile(t, dir, "notes..v2.json", `{"title":"Stray"}`)

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := s.Save(ctx, Record{ID: "c", Title: "Sea"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	want := []Summary{{ID: "a", Title: "a"}, {ID: "b", Title: "Bee"}, {ID: "c", Title: "Sea"}}
	if len(got) != len(want) {
		t.Fatalf("List() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	rec, err := s.Get(ctx, "c")
	if err != nil || rec.Title != "Sea" {
		t.Errorf("Get(c) after Save = %+v, %v", rec, err)
	}

	if err := s.Save(ctx, Record{ID: "a/b"}); !apperrors.Is(err, apperrors.ErrCodeInvalidID) {
		t.Errorf("Save(a/b) error = %v, want INVALID_ID", err)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Record{ID: "e1", Title: "Gate"})

	if _, err := s.Get(ctx, "nope"); !apperrors.Is(err, apperrors.ErrCodeEntryNotFound) {
		t.Errorf("Get(nope) error = %v, want ENTRY_NOT_FOUND", err)
	}
	if err := s.Save(ctx, Record{ID: "a0"}); err != nil {
		t.Fatal(err)
	}
	list, _ := s.List(ctx)
	if len(list) != 2 || list[0].ID != "a0" {
		t.Errorf("List() = %+v, want sorted [a0 e1]", list)
	}
}
