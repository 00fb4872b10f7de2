package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newTestCLI(t *testing.T) (*CLI, string) {
	t.Helper()
	mediaRoot := t.TempDir()
	c := New(io.Discard, LogInfo)
	c.Getenv = func(key string) string {
		if key == "MEDIA_ROOT" {
			return mediaRoot
		}
		return ""
	}
	return c, mediaRoot
}

func execute(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeEntry(t *testing.T, mediaRoot, name, content string) {
	t.Helper()
	dir := filepath.Join(mediaRoot, "codex")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRenderToOutputDir(t *testing.T) {
	c, mediaRoot := newTestCLI(t)
	writeEntry(t, mediaRoot, "e1.json", `{"id":"e1","title":"Gate","body":"Through the gate.","sovlang":"ka"}`)

	if _, err := execute(t, c, "render", "e1", "--width", "200", "--height", "250"); err != nil {
		t.Fatalf("render: %v", err)
	}

	files, err := os.ReadDir(filepath.Join(mediaRoot, "generated"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("generated holds %d files, want 1", len(files))
	}
	name := files[0].Name()
	if !strings.HasPrefix(name, "e1-") || !strings.HasSuffix(name, ".png") {
		t.Errorf("file name = %q", name)
	}
}

func TestRenderToFile(t *testing.T) {
	c, mediaRoot := newTestCLI(t)
	writeEntry(t, mediaRoot, "e1.yaml", "title: Gate\nbody: Through the gate.\n")

	out := filepath.Join(t.TempDir(), "card.png")
	if _, err := execute(t, c, "render", "e1", "-t", "spiral", "--width", "120", "--height", "150", "--no-watermark", "-o", out); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
	if _, err := os.Stat(filepath.Join(mediaRoot, "generated")); err == nil {
		if files, _ := os.ReadDir(filepath.Join(mediaRoot, "generated")); len(files) != 0 {
			t.Error("--output must not also store through the sink")
		}
	}
}

func TestRenderToStdout(t *testing.T) {
	c, mediaRoot := newTestCLI(t)
	writeEntry(t, mediaRoot, "e1.json", `{"title":"Gate"}`)

	out, err := execute(t, c, "render", "e1", "--width", "100", "--height", "100", "-o", "-")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(out, "\x89PNG") {
		t.Error("stdout is not a PNG")
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown entry", []string{"render", "ghost"}, "ENTRY_NOT_FOUND"},
		{"unknown template", []string{"render", "e1", "-t", "mosaic"}, "INVALID_CONFIGURATION"},
		{"negative width", []string{"render", "e1", "--width=-5"}, "INVALID_CONFIGURATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mediaRoot := newTestCLI(t)
			writeEntry(t, mediaRoot, "e1.json", `{"title":"Gate"}`)
			_, err := execute(t, c, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestEntriesCommands(t *testing.T) {
	c, mediaRoot := newTestCLI(t)
	writeEntry(t, mediaRoot, "lore-1.json", `{"title":"First"}`)
	writeEntry(t, mediaRoot, "song-1.json", `{"title":"Song"}`)

	out, err := execute(t, c, "entries", "list", "--match", "lore-*")
	if err != nil {
		t.Fatalf("entries list: %v", err)
	}
	if out != "lore-1\tFirst\n" {
		t.Errorf("entries list = %q", out)
	}

	doc := filepath.Join(t.TempDir(), "hymn.yml")
	if err := os.WriteFile(doc, []byte("title: Hymn\nsovlang: hal\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, c, "entries", "import", doc); err != nil {
		t.Fatalf("entries import: %v", err)
	}

	out, err = execute(t, c, "entries", "show", "hymn")
	if err != nil {
		t.Fatalf("entries show: %v", err)
	}
	if !strings.Contains(out, `"title": "Hymn"`) || !strings.Contains(out, `"id": "hymn"`) {
		t.Errorf("entries show = %s", out)
	}
}

func TestReadEntryFileRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entry.txt")
	if err := os.WriteFile(path, []byte("title"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readEntryFile(path); err == nil {
		t.Error("expected an error for a .txt document")
	}
}

func TestTemplatesCommand(t *testing.T) {
	c, _ := newTestCLI(t)
	out, err := execute(t, c, "templates")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("templates = %q", out)
	}
	for _, l := range lines {
		if strings.Contains(l, "parchment") && !strings.HasPrefix(l, "*") {
			t.Errorf("default template not marked: %q", l)
		}
	}
}

func TestConfigInitAndShow(t *testing.T) {
	c, _ := newTestCLI(t)
	path := filepath.Join(t.TempDir(), "codexrender.toml")

	if _, err := execute(t, c, "config", "init", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := execute(t, c, "config", "init", path); err == nil {
		t.Error("config init must not overwrite an existing file")
	}

	out, err := execute(t, c, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"[render]", `template = "parchment"`, "[cache]"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestSetupRejectsBadConfig(t *testing.T) {
	c, _ := newTestCLI(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[render]\ntemplate = \"mosaic\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, c, "--config", path, "templates"); err == nil {
		t.Error("expected an invalid template in the config file to fail")
	}
}

func TestCompleteEntryIDs(t *testing.T) {
	c, mediaRoot := newTestCLI(t)
	writeEntry(t, mediaRoot, "lore-1.json", `{}`)
	writeEntry(t, mediaRoot, "lore-2.yaml", "title: Two\n")
	writeEntry(t, mediaRoot, "song-1.json", `{}`)

	cmd := c.renderCommand()
	cmd.SetContext(context.Background())

	ids, directive := c.completeEntryIDs(cmd, nil, "lore")
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v", directive)
	}
	if strings.Join(ids, ",") != "lore-1,lore-2" {
		t.Errorf("completions = %v, want [lore-1 lore-2]", ids)
	}

	if ids, _ := c.completeEntryIDs(cmd, []string{"lore-1"}, ""); len(ids) != 0 {
		t.Errorf("second argument completions = %v, want none", ids)
	}
}

func TestCompletionScripts(t *testing.T) {
	c, _ := newTestCLI(t)

	out, err := execute(t, c, "__complete", "render", "--template", "")
	if err != nil {
		t.Fatalf("__complete: %v", err)
	}
	for _, name := range []string{"parchment", "open-weave", "spiral"} {
		if !strings.Contains(out, name) {
			t.Errorf("template completions missing %q:\n%s", name, out)
		}
	}

	out, err = execute(t, c, "completion", "bash")
	if err != nil {
		t.Fatalf("completion bash: %v", err)
	}
	if !strings.Contains(out, "codexrender") {
		t.Error("bash completion script does not mention codexrender")
	}
}
