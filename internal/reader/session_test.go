package reader

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"testing/fstest"
	"time"

	"github.com/localnerve/chapterviewer/internal/backend"
	"github.com/localnerve/chapterviewer/internal/book"
	"github.com/localnerve/chapterviewer/internal/collab"
	"github.com/localnerve/chapterviewer/internal/properties"
	"github.com/localnerve/chapterviewer/internal/source"
	"github.com/localnerve/chapterviewer/internal/types"
)

const oneSection = `{"title":"B","chapters":[{"id":"C1","title":"I","sections":[{"id":"S1","title":"Uno"}]}]}`

const twoChapters = `{"title":"B","chapters":[
  {"id":"C1","title":"I","sections":[{"id":"S1","title":"Uno"},{"id":"S2","title":"Dos"}]},
  {"id":"C2","title":"II","sections":[{"id":"S1","title":"Tres"}]}
]}`

func openSession(t *testing.T, files fstest.MapFS) *Session {
	t.Helper()
	s := New(Config{Collab: collab.Config{StartupTimeout: time.Second, RetryInterval: time.Millisecond}},
		source.NewFSSource(files), backend.NewMemory())
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(context.Background()); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return s
}

func await(t *testing.T, p collab.Pending) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Wait(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestOpenEmptyBackendNoManifests(t *testing.T) {
	s := openSession(t, fstest.MapFS{book.StructureDocument: {Data: []byte(oneSection)}})

	snap := s.Store().Snapshot()
	if len(snap.Marks[types.KindDeleted]) != 0 || len(snap.Marks[types.KindCompleted]) != 0 {
		t.Errorf("expected empty marks, got %+v", snap.Marks)
	}
	if snap.Marks[types.KindDeleted] == nil || snap.Marks[types.KindCompleted] == nil {
		t.Error("expected defined mark records")
	}
	audio := s.AudioManifests()
	files, ok := audio["C1-S1"]
	if !ok || files == nil || len(files) != 0 {
		t.Errorf("expected C1-S1 to be an empty listing, got %v (present %v)", files, ok)
	}
	if len(audio) != 2 {
		t.Errorf("expected one key per chapter and section, got %v", audio)
	}
	if s.UsingFallback() {
		t.Error("expected the served structure")
	}
}

func TestOpenFallsBackWithoutStructure(t *testing.T) {
	s := openSession(t, fstest.MapFS{})
	if !s.UsingFallback() || len(s.Structure().Chapters) != 1 {
		t.Errorf("expected fallback structure, got %+v", s.Structure())
	}
}

func TestSubscribersSeeMutations(t *testing.T) {
	s := openSession(t, fstest.MapFS{book.StructureDocument: {Data: []byte(oneSection)}})

	var seen []Change
	unsubscribe := s.Subscribe(func(c Change) { seen = append(seen, c) })
	var other int
	s.Subscribe(func(Change) { other++ })

	await(t, s.MarkCompleted("book1/C1/S1/a.mp3", "a.mp3", true))
	unsubscribe()
	await(t, s.MarkConfirmed("book1/C1/S1/a.mp3", "a.mp3", true))

	want := []Change{{Type: ChangeMark, Kind: types.KindCompleted, Path: "book1/C1/S1/a.mp3"}}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("expected %v, got %v", want, seen)
	}
	if other != 2 {
		t.Errorf("expected the remaining view to see both changes, got %d", other)
	}
}

func TestVisibleAudioFilesHidesDeleted(t *testing.T) {
	s := openSession(t, fstest.MapFS{
		book.StructureDocument:            {Data: []byte(oneSection)},
		"book1/C1/S1/audio_manifest.json": {Data: []byte(`["a.mp3","b.mp3"]`)},
	})
	ctx := context.Background()

	await(t, s.DeleteFile("book1/C1/S1/a.mp3", "a.mp3"))
	refs := s.VisibleAudioFiles(ctx, "C1", "S1")
	if len(refs) != 1 || refs[0].Name != "b.mp3" {
		t.Errorf("expected only b.mp3, got %+v", refs)
	}

	await(t, s.RestoreFile("book1/C1/S1/a.mp3"))
	if got := len(s.VisibleAudioFiles(ctx, "C1", "S1")); got != 2 {
		t.Errorf("expected restored file to be visible, got %d", got)
	}
}

func TestTodoGrid(t *testing.T) {
	s := openSession(t, fstest.MapFS{
		book.StructureDocument:            {Data: []byte(twoChapters)},
		"book1/C1/S2/audio_manifest.json": {Data: []byte(`["x.mp3","y.mp3"]`)},
		"book1/C2/S1/audio_manifest.json": {Data: []byte(`["z.mp3"]`)},
	})
	p, err := s.SetTodoStatus("C1", "S2", collab.TodoInProgress)
	if err != nil {
		t.Fatal(err)
	}
	await(t, p)

	grid, err := s.TodoGrid()
	if err != nil {
		t.Fatal(err)
	}
	if grid.MaxSections != 2 || len(grid.Rows) != 2 || len(grid.Columns) != 2 || grid.TotalFiles != 3 {
		t.Fatalf("unexpected grid shape %+v", grid)
	}
	c1s2 := grid.Rows[1].Cells[0]
	if !c1s2.Exists || !reflect.DeepEqual(c1s2.Files, []string{"x.mp3", "y.mp3"}) || c1s2.Status != collab.TodoInProgress {
		t.Errorf("unexpected C1-S2 cell %+v", c1s2)
	}
	if c2s2 := grid.Rows[1].Cells[1]; c2s2.Exists {
		t.Errorf("C2 has no S2, got %+v", c2s2)
	}
	if c1s1 := grid.Rows[0].Cells[0]; c1s1.Status != collab.TodoPending || len(c1s1.Files) != 0 {
		t.Errorf("unexpected C1-S1 cell %+v", c1s1)
	}
	if grid.Summary() == "" {
		t.Error("expected a summary line")
	}
}

func TestPropertyOperations(t *testing.T) {
	s := openSession(t, fstest.MapFS{
		book.StructureDocument:           {Data: []byte(oneSection)},
		"book1/C1/S1/text_manifest.json": {Data: []byte(`["narrador.txt","socrates.txt"]`)},
		"book1/C1/text_manifest.json":    {Data: []byte(`["intro.txt"]`)},
	})
	ctx := context.Background()

	if _, _, err := s.AutoAssignProperty(ctx, "C1", "S1", "a.mp3"); !errors.Is(err, properties.ErrNeedsChoice) {
		t.Errorf("expected a choice for two properties, got %v", err)
	}
	prop, p, err := s.AutoAssignProperty(ctx, "C1", "", "i.mp3")
	if err != nil {
		t.Fatal(err)
	}
	await(t, p)
	if prop != "intro" {
		t.Errorf("expected intro, got %q", prop)
	}

	p, err = s.AssignProperty(ctx, "C1", "S1", "socrates", "a.mp3")
	if err != nil {
		t.Fatal(err)
	}
	await(t, p)
	await(t, s.UnassignProperty("C1-intro"))

	want := map[string]string{"C1-S1-socrates": "a.mp3"}
	if got := s.Store().Assignments(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRecentChanges(t *testing.T) {
	s := openSession(t, fstest.MapFS{book.StructureDocument: {Data: []byte(oneSection)}})

	await(t, s.MarkCompleted("book1/C1/S1/a.mp3", "a.mp3", true))
	time.Sleep(5 * time.Millisecond)
	_, p, err := s.AddComment("book1/C1/S1/b.mp3", "b.mp3", "otra toma")
	if err != nil {
		t.Fatal(err)
	}
	await(t, p)

	all := s.RecentChanges(0)
	if len(all) != 2 {
		t.Fatalf("expected 2 changes, got %+v", all)
	}
	if all[0].Kind != types.KindComments || all[0].Comment != "otra toma" {
		t.Errorf("expected the comment first, got %+v", all[0])
	}
	if all[1].Ago == "" {
		t.Error("expected a relative time")
	}
	if got := s.RecentChanges(1); len(got) != 1 {
		t.Errorf("expected limit to apply, got %d", len(got))
	}
}

func TestRefreshManifestsNeedsOpen(t *testing.T) {
	s := New(Config{}, source.NewFSSource(fstest.MapFS{}), backend.NewMemory())
	defer s.Close(context.Background())
	if err := s.RefreshManifests(context.Background()); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
	if _, err := s.TodoGrid(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}
