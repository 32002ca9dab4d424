package properties

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/localnerve/chapterviewer/internal/backend"
	"github.com/localnerve/chapterviewer/internal/collab"
	"github.com/localnerve/chapterviewer/internal/types"
)

type staticLister map[string][]string

func (s staticLister) Files(chapterID, sectionID string) []string {
	return s[types.ManifestKey(chapterID, sectionID)]
}

func newEngine(t *testing.T, texts staticLister) (*Engine, *collab.Store, *backend.Memory) {
	t.Helper()
	kv := backend.NewMemory()
	store := collab.NewStore(kv, collab.Config{RetryInterval: time.Millisecond})
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return NewEngine(store, texts), store, kv
}

// mustWait returns a checker taking a mutation's (Pending, error) pair so
// calls read mustWait(t)(e.Assign(...)).
func mustWait(t *testing.T) func(collab.Pending, error) {
	return func(p collab.Pending, err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Wait(ctx); err != nil {
			t.Fatal(err)
		}
	}
}

func TestAvailableProperties(t *testing.T) {
	e, _, _ := newEngine(t, staticLister{"C1-S1": {"narrator.txt", "socrates.md", "glaucon"}})
	if got := e.AvailableProperties("C1", "S1"); !reflect.DeepEqual(got, []string{"narrator", "socrates", "glaucon"}) {
		t.Errorf("unexpected properties %v", got)
	}
	if got := e.AvailableProperties("C2", ""); got == nil || len(got) != 0 {
		t.Errorf("expected empty list, got %v", got)
	}
}

func TestReassignLeavesOneMapping(t *testing.T) {
	e, store, _ := newEngine(t, nil)
	ctx := context.Background()

	mustWait(t)(e.Assign(ctx, "C1", "S1", "narrator", "a.mp3"))
	mustWait(t)(e.Assign(ctx, "C1", "S1", "narrator", "b.mp3"))

	want := map[string]string{"C1-S1-narrator": "b.mp3"}
	if got := store.Assignments(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAssignIsIdempotent(t *testing.T) {
	e, store, kv := newEngine(t, nil)
	ctx := context.Background()

	mustWait(t)(e.Assign(ctx, "C1", "S1", "narrator", "a.mp3"))
	first, _ := kv.Load(ctx, types.KindPropertyAssignments)
	p, err := e.Assign(ctx, "C1", "S1", "narrator", "a.mp3")
	if err != nil || !p.Done() {
		t.Errorf("expected a no-op, got %v", err)
	}
	second, _ := kv.Load(ctx, types.KindPropertyAssignments)
	if string(first) != string(second) || len(store.Assignments()) != 1 {
		t.Errorf("expected unchanged table, got %s then %s", first, second)
	}
}

func TestAssignMovesFileBetweenProperties(t *testing.T) {
	e, store, _ := newEngine(t, nil)
	ctx := context.Background()

	mustWait(t)(e.Assign(ctx, "C1", "S1", "narrator", "a.mp3"))
	mustWait(t)(e.Assign(ctx, "C1", "S2", "narrator", "a.mp3"))
	mustWait(t)(e.Assign(ctx, "C1", "S1", "socrates", "a.mp3"))

	want := map[string]string{
		"C1-S1-socrates": "a.mp3",
		"C1-S2-narrator": "a.mp3",
	}
	if got := store.Assignments(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if prop, ok := e.PropertyOfFileIn("C1", "S1", "a.mp3"); !ok || prop != "socrates" {
		t.Errorf("unexpected scoped lookup %q %v", prop, ok)
	}
	if key, ok := e.PropertyOfFile("a.mp3"); !ok || key != "C1-S1-socrates" {
		t.Errorf("unexpected lookup %q %v", key, ok)
	}
	if got := e.AssignedFile("C1", "S2", "narrator"); got != "a.mp3" {
		t.Errorf("unexpected assigned file %q", got)
	}
	if got := e.Assignments("C1", "S2"); !reflect.DeepEqual(got, map[string]string{"narrator": "a.mp3"}) {
		t.Errorf("unexpected target assignments %v", got)
	}
}

func TestUnassign(t *testing.T) {
	e, store, _ := newEngine(t, nil)
	mustWait(t)(e.Assign(context.Background(), "C1", "", "intro", "i.mp3"))
	mustWait(t)(e.Unassign("C1-intro"), nil)
	if len(store.Assignments()) != 0 {
		t.Errorf("expected empty table, got %v", store.Assignments())
	}
	if p := e.Unassign("C1-intro"); !p.Done() {
		t.Error("expected unassigning an absent key to be a no-op")
	}
}

func TestAutoAssign(t *testing.T) {
	e, store, _ := newEngine(t, staticLister{
		"C1-S1": {"narrator.txt"},
		"C1-S2": {"narrator.txt", "socrates.txt"},
	})
	ctx := context.Background()

	prop, p, err := e.AutoAssign(ctx, "C1", "S1", "a.mp3")
	mustWait(t)(p, err)
	if prop != "narrator" || e.AssignedFile("C1", "S1", "narrator") != "a.mp3" {
		t.Errorf("expected auto-assignment to narrator, got %q", prop)
	}

	_, _, err = e.AutoAssign(ctx, "C1", "S2", "b.mp3")
	if !errors.Is(err, ErrNeedsChoice) {
		t.Fatalf("expected ErrNeedsChoice, got %v", err)
	}
	var choice *ChoiceError
	if !errors.As(err, &choice) || len(choice.Candidates) != 2 {
		t.Errorf("expected two candidates, got %v", err)
	}
	if len(store.Assignments()) != 1 {
		t.Errorf("expected no assignment for an ambiguous target, got %v", store.Assignments())
	}
}

func TestAssignRejectsBlank(t *testing.T) {
	e, _, _ := newEngine(t, nil)
	if _, err := e.Assign(context.Background(), "C1", "S1", " ", "a.mp3"); !errors.Is(err, ErrInvalidAssignment) {
		t.Errorf("expected ErrInvalidAssignment, got %v", err)
	}
}
