package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/localnerve/chapterviewer/internal/book"
	"github.com/localnerve/chapterviewer/internal/manifest"
)

// writeBook lays out <site>/book1 with one chapter of two sections.
func writeBook(t *testing.T) (site, bookPath string) {
	t.Helper()
	site = t.TempDir()
	bookPath = filepath.Join(site, "book1")
	files := map[string]string{
		"C1/title.txt":    "Los mercados",
		"C1/S1/title.txt": "Apertura",
		"C1/S1/main.txt":  "Sócrates: uno\nGlaucón: dos\nSócrates: tres\nSócrates: cuatro\n",
		"C1/S1/a.mp3":     "",
		"C1/S1/b.mp3":     "",
		"C1/S2/main.txt":  "Texto sin diálogo\n",
	}
	for name, body := range files {
		path := filepath.Join(bookPath, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return site, bookPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestManifestUpdate(t *testing.T) {
	_, bookPath := writeBook(t)

	out, err := run(t, "--book-path", bookPath, "manifest", "update", "--dry-run")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(out, "would update 1") {
		t.Errorf("unexpected dry run output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(bookPath, "C1", "S1", manifest.AudioDocument)); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote a manifest")
	}

	if _, err := run(t, "--book-path", bookPath, "manifest", "update"); err != nil {
		t.Fatalf("update: %v", err)
	}
	files, err := manifest.ReadManifest(filepath.Join(bookPath, "C1", "S1"))
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if len(files) != 2 || files[0] != "a.mp3" || files[1] != "b.mp3" {
		t.Fatalf("unexpected manifest %v", files)
	}

	out, err = run(t, "--book-path", bookPath, "manifest", "update", "--json")
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	var result struct {
		Stats manifest.UpdateStats `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if result.Stats.Updated != 0 || result.Stats.Folders != 3 {
		t.Errorf("expected nothing to update on a second run, got %+v", result.Stats)
	}
}

func TestManifestDiagnose(t *testing.T) {
	_, bookPath := writeBook(t)

	out, err := run(t, "--book-path", bookPath, "manifest", "diagnose", "--json")
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	var report manifest.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got := report.Mismatched(); len(got) != 1 || got[0] != "C1-S1" {
		t.Errorf("expected C1-S1 to mismatch, got %v", got)
	}

	out, err = run(t, "--book-path", bookPath, "manifest", "diagnose")
	if err != nil {
		t.Fatalf("diagnose table: %v", err)
	}
	if !strings.Contains(out, "C1-S1") || !strings.Contains(out, "Mismatched: C1-S1") {
		t.Errorf("unexpected diagnosis output:\n%s", out)
	}
}

func TestStructureGenerate(t *testing.T) {
	site, bookPath := writeBook(t)

	if _, err := run(t, "--book-path", bookPath, "structure", "generate", "--title", "Prueba"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(site, book.StructureDocument))
	if err != nil {
		t.Fatalf("read structure: %v", err)
	}
	structure, err := book.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if structure.Title != "Prueba" || len(structure.Chapters) != 1 || len(structure.Chapters[0].Sections) != 2 {
		t.Fatalf("unexpected structure %+v", structure)
	}
	if structure.Chapters[0].Title != "Los mercados" {
		t.Errorf("expected chapter title from title.txt, got %q", structure.Chapters[0].Title)
	}

	out, err := run(t, "--book-path", bookPath, "structure", "generate", "--tree")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	for _, want := range []string{"C1  Los mercados", "S1  Apertura", "S2  Sección 2  (no audio)"} {
		if !strings.Contains(out, want) {
			t.Errorf("tree is missing %q:\n%s", want, out)
		}
	}
}

func TestCharacters(t *testing.T) {
	_, bookPath := writeBook(t)

	out, err := run(t, "--book-path", bookPath, "characters", "--min-lines", "2", "--out", "-")
	if err != nil {
		t.Fatalf("characters: %v", err)
	}
	var index map[string][]string
	if err := json.Unmarshal([]byte(out), &index); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got := index["C1/S1"]; len(got) != 1 || got[0] != "Sócrates" {
		t.Errorf("expected only Sócrates to reach two lines, got %v", index)
	}
	if _, ok := index["C1/S2"]; ok {
		t.Errorf("expected no entry for a section without dialogue")
	}
}

func TestSettingsFile(t *testing.T) {
	site, bookPath := writeBook(t)
	settingsPath := filepath.Join(t.TempDir(), "bookctl.toml")
	doc := "book_path = '" + filepath.ToSlash(bookPath) + "'\nmin_lines = 1\nknown = ['Glaucón']\n"
	if err := os.WriteFile(settingsPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	if _, err := run(t, "--config", settingsPath, "characters"); err != nil {
		t.Fatalf("characters: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(site, "section-characters.json"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	var index map[string][]string
	if err := json.Unmarshal(raw, &index); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := index["C1/S1"]; len(got) != 1 || got[0] != "Glaucón" {
		t.Errorf("expected settings to restrict speakers to Glaucón, got %v", index)
	}

	if _, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.toml"), "characters"); err == nil {
		t.Errorf("expected an error for a missing settings file")
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("unknown_key = 1\n"), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	if _, err := run(t, "--config", bad, "characters"); err == nil {
		t.Errorf("expected an error for an unknown settings key")
	}
}

func TestTodoGrid(t *testing.T) {
	site, bookPath := writeBook(t)
	if _, err := run(t, "--book-path", bookPath, "manifest", "update"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := run(t, "--book-path", bookPath, "structure", "generate"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	out, err := run(t, "--book-path", bookPath, "todo", "--source", site)
	if err != nil {
		t.Fatalf("todo: %v", err)
	}
	if !strings.Contains(out, "C1") || !strings.Contains(out, "S2") {
		t.Errorf("grid is missing headers:\n%s", out)
	}
	if !strings.Contains(out, "Total: 2 archivos de audio") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}
