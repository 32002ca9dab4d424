package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/localnerve/chapterviewer/internal/book"
	"github.com/localnerve/chapterviewer/internal/source"
)

func testStructure() *book.Structure {
	return &book.Structure{
		Title: "t",
		Chapters: []book.Chapter{
			{ID: "C1", Sections: []book.Section{{ID: "S1"}, {ID: "S2"}}},
			{ID: "C2"},
		},
	}
}

// flakySource fails for one document and counts fetches.
type flakySource struct {
	inner source.Source
	fail  string
	mu    sync.Mutex
	calls int
}

func (f *flakySource) Fetch(ctx context.Context, name string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if name == f.fail {
		return nil, errors.New("connection reset")
	}
	return f.inner.Fetch(ctx, name)
}

func TestListFiles(t *testing.T) {
	l := NewAudioLoader(source.NewFSSource(fstest.MapFS{
		"book1/C1/audio_manifest.json":    {Data: []byte(`["b.mp3","a.mp3"]`)},
		"book1/C1/S1/audio_manifest.json": {Data: []byte(`{"not":"a list"}`)},
	}), "")
	ctx := context.Background()

	if got := l.ListFiles(ctx, "book1/C1/"); !reflect.DeepEqual(got, []string{"b.mp3", "a.mp3"}) {
		t.Errorf("expected manifest order, got %v", got)
	}
	if got := l.ListFiles(ctx, "book1/C1/S1/"); got == nil || len(got) != 0 {
		t.Errorf("expected empty list for a malformed manifest, got %v", got)
	}
	if got := l.ListFiles(ctx, "book1/C9/"); got == nil || len(got) != 0 {
		t.Errorf("expected empty list for a missing manifest, got %v", got)
	}
}

func TestLoadAllKeysEveryTarget(t *testing.T) {
	src := &flakySource{
		inner: source.NewFSSource(fstest.MapFS{
			"book1/C1/S1/audio_manifest.json": {Data: []byte(`["x.mp3"]`)},
			"book1/C1/S2/audio_manifest.json": {Data: []byte(`["y.mp3"]`)},
		}),
		fail: "book1/C1/S2/audio_manifest.json",
	}
	l := NewAudioLoader(src, "book1")

	got := l.LoadAll(context.Background(), testStructure())
	want := map[string][]string{
		"C1":    {},
		"C1-S1": {"x.mp3"},
		"C1-S2": {},
		"C2":    {},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if src.calls != 4 {
		t.Errorf("expected one lookup per target, got %d", src.calls)
	}
	if l.Cache().Len() != 4 || l.Cache().Total() != 1 {
		t.Errorf("unexpected cache state %v", l.Cache().Snapshot())
	}
	if files := l.Files("C1", "S1"); !reflect.DeepEqual(files, []string{"x.mp3"}) {
		t.Errorf("unexpected cached files %v", files)
	}
}

func TestRefreshDropsStaleKeys(t *testing.T) {
	l := NewAudioLoader(source.NewFSSource(fstest.MapFS{}), "")
	l.Cache().Set("C7-S1", []string{"old.mp3"})

	l.Refresh(context.Background(), testStructure())
	if _, ok := l.Cache().Get("C7-S1"); ok {
		t.Error("expected stale key to be dropped")
	}
	if l.Cache().Len() != 4 {
		t.Errorf("expected 4 keys, got %v", l.Cache().Keys())
	}
}

func TestAudioFiles(t *testing.T) {
	l := NewAudioLoader(source.NewFSSource(fstest.MapFS{
		"book1/C1/S1/audio_manifest.json": {Data: []byte(`["dialogue.mp3","mi_clip_final.WAV"]`)},
	}), "")

	refs := l.AudioFiles(context.Background(), "C1", "S1")
	want := []AudioFileRef{
		{Path: "book1/C1/S1/dialogue.mp3", Name: "dialogue.mp3", DisplayName: "Diálogo"},
		{Path: "book1/C1/S1/mi_clip_final.WAV", Name: "mi_clip_final.WAV", DisplayName: "Mi Clip Final"},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("expected %+v, got %+v", want, refs)
	}
	if _, ok := l.Cache().Get("C1-S1"); !ok {
		t.Error("expected on-demand listing to be cached")
	}
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"chapter_summary_end.mp3": "Resumen del capítulo (final)",
		"1-escena.ogg":            "1. Escena",
		"intro.m4a":               "Introducción",
		"voz_de_Platón.mp3":       "Voz De Platón",
	}
	for in, want := range cases {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(root, n)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestUpdaterRun(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"C1/b.mp3", "C1/a.wav", "C1/notes.txt",
		"C1/S1/x.flac",
		"Intro/hello.ogg",
		"Other/skip.mp3",
	)
	if err := os.WriteFile(filepath.Join(root, "C1", "S1", AudioDocument), []byte(`["x.flac"]`), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, changes, err := NewUpdater(root, false, nil).Run()
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if stats.Folders != 3 || stats.Updated != 2 || stats.Unchanged != 1 || stats.Errors != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if len(changes) != 2 {
		t.Errorf("expected 2 changes, got %+v", changes)
	}

	got, err := ReadManifest(filepath.Join(root, "C1"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"a.wav", "b.mp3"}) {
		t.Errorf("unexpected manifest %v", got)
	}
	if _, err := os.Stat(filepath.Join(root, "Other", AudioDocument)); !os.IsNotExist(err) {
		t.Error("expected unrelated folders to be left alone")
	}
	if _, err := os.Stat(filepath.Join(root, lockName)); !os.IsNotExist(err) {
		t.Error("expected lock file to be removed")
	}
}

func TestUpdaterDryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "C1/S1/a.mp3")

	stats, changes, err := NewUpdater(root, true, nil).Run()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Updated != 1 || len(changes) != 1 {
		t.Errorf("expected one proposed change, got %+v %+v", stats, changes)
	}
	if _, err := os.Stat(filepath.Join(root, "C1", "S1", AudioDocument)); !os.IsNotExist(err) {
		t.Error("dry run must not write manifests")
	}
}

func TestDiagnose(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "C1/S1/a.mp3", "C1/S2/b.mp3", "C1/S3/keep.txt")
	raw, _ := json.Marshal([]string{"a.mp3"})
	for _, dir := range []string{"S1", "S3"} {
		if err := os.WriteFile(filepath.Join(root, "C1", dir, AudioDocument), raw, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s := &book.Structure{Chapters: []book.Chapter{{
		ID:       "C1",
		Sections: []book.Section{{ID: "S1"}, {ID: "S2"}, {ID: "S3"}, {ID: "S4"}},
	}}}
	r := Diagnose(root, s)

	want := []Status{StatusMatch, StatusMismatch, StatusOrphan, StatusMissingFolder}
	for i, d := range r.Sections {
		if d.Status != want[i] {
			t.Errorf("%s: expected %s, got %s", d.Key, want[i], d.Status)
		}
	}
	if r.ActualFiles != 2 || r.ManifestFiles != 2 {
		t.Errorf("unexpected totals %d/%d", r.ActualFiles, r.ManifestFiles)
	}
	if got := r.Mismatched(); !reflect.DeepEqual(got, []string{"C1-S2"}) {
		t.Errorf("unexpected mismatches %v", got)
	}
}
