// Package collab holds the collaborative edit state of a book: file marks,
// comments, property assignments and to-do statuses. Reads are served from
// memory. Mutations apply to memory first and persist the whole record in the
// background. Each kind keeps one save in flight and at most one newer
// snapshot waiting, so a slow backend never holds up a mutation.
package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/localnerve/chapterviewer/internal/backend"
	"github.com/localnerve/chapterviewer/internal/types"
)

// Config tunes loading and persistence.
type Config struct {
	// StartupTimeout bounds LoadAll.
	StartupTimeout time.Duration
	// MaxRetries is the number of retries after a failed save.
	MaxRetries uint64
	// RetryInterval is the first backoff interval.
	RetryInterval time.Duration
	// SaveTimeout bounds a single save attempt.
	SaveTimeout time.Duration
}

// DefaultConfig returns the defaults used by NewStore for zero fields.
func DefaultConfig() Config {
	return Config{
		StartupTimeout: 5000 * time.Millisecond,
		MaxRetries:     3,
		RetryInterval:  500 * time.Millisecond,
		SaveTimeout:    defaultSaveTimeout,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.StartupTimeout <= 0 {
		c.StartupTimeout = d.StartupTimeout
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = d.RetryInterval
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = d.SaveTimeout
	}
	return c
}

// Store is the in-memory collaborative state backed by a KeyValue backend.
type Store struct {
	backend backend.KeyValue
	cfg     Config
	now     func() time.Time

	mu          sync.RWMutex
	marks       map[types.Kind]map[string]Mark
	comments    map[string][]Comment
	assignments map[string]string
	todo        map[string]TodoEntry
	loaded      map[types.Kind]bool

	qmu       sync.RWMutex
	slots     map[types.Kind]*saveSlot
	closed    bool
	closeOnce sync.Once
	workers   sync.WaitGroup
}

// NewStore builds an empty store and starts its save workers. Call Close to
// flush and stop them.
func NewStore(kv backend.KeyValue, cfg Config) *Store {
	s := &Store{
		backend:     kv,
		cfg:         cfg.withDefaults(),
		now:         time.Now,
		marks:       make(map[types.Kind]map[string]Mark),
		comments:    map[string][]Comment{},
		assignments: map[string]string{},
		todo:        map[string]TodoEntry{},
		loaded:      make(map[types.Kind]bool),
		slots:       make(map[types.Kind]*saveSlot),
	}
	for _, k := range types.MarkKinds() {
		s.marks[k] = map[string]Mark{}
	}
	s.startWorkers()
	return s
}

// Loaded reports whether kind was read from the backend at least once.
func (s *Store) Loaded(kind types.Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded[kind]
}

// Load reads one kind from the backend. On failure the current value is kept.
func (s *Store) Load(ctx context.Context, kind types.Kind) {
	raw, err := s.backend.Load(ctx, kind)
	if err != nil {
		log.Printf("Could not load %s, keeping current state: %v", kind, err)
		return
	}
	s.apply(kind, raw)
}

// LoadReport lists how each kind fared in LoadAll.
type LoadReport struct {
	Loaded   []types.Kind
	Failed   []types.Kind
	TimedOut []types.Kind
}

// LoadAll reads every kind concurrently within the startup timeout. Results
// are applied only while LoadAll runs; kinds still outstanding at the timeout
// keep their current (initially empty) value and their late results are
// dropped.
func (s *Store) LoadAll(ctx context.Context) LoadReport {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer cancel()

	type result struct {
		kind types.Kind
		raw  json.RawMessage
		err  error
	}

	kinds := types.Kinds()
	results := make(chan result, len(kinds))
	for _, k := range kinds {
		go func() {
			raw, err := s.backend.Load(ctx, k)
			results <- result{kind: k, raw: raw, err: err}
		}()
	}

	var report LoadReport
	outstanding := make(map[types.Kind]bool, len(kinds))
	for _, k := range kinds {
		outstanding[k] = true
	}

wait:
	for len(outstanding) > 0 {
		select {
		case r := <-results:
			delete(outstanding, r.kind)
			if r.err != nil {
				log.Printf("Could not load %s, keeping current state: %v", r.kind, r.err)
				report.Failed = append(report.Failed, r.kind)
				continue
			}
			s.apply(r.kind, r.raw)
			report.Loaded = append(report.Loaded, r.kind)
		case <-ctx.Done():
			break wait
		}
	}

	for _, k := range kinds {
		if outstanding[k] {
			report.TimedOut = append(report.TimedOut, k)
		}
	}
	if len(report.TimedOut) > 0 {
		log.Printf("State load timed out after %s, using defaults for %v", s.cfg.StartupTimeout, report.TimedOut)
	}
	return report
}

func (s *Store) apply(kind types.Kind, raw json.RawMessage) {
	empty := isEmptyDocument(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch {
	case kind.IsMark():
		m := map[string]Mark{}
		if !empty {
			m, err = decodeMarks(raw)
		}
		if err == nil {
			s.marks[kind] = m
		}
	case kind == types.KindComments:
		c := map[string][]Comment{}
		if !empty {
			c, err = decodeComments(raw)
		}
		if err == nil {
			s.comments = c
		}
	case kind == types.KindPropertyAssignments:
		a := map[string]string{}
		if !empty {
			a, err = decodeAssignments(raw)
		}
		if err == nil {
			s.assignments = a
		}
	case kind == types.KindTodoStatus:
		t := map[string]TodoEntry{}
		if !empty {
			t, err = decodeTodo(raw)
		}
		if err == nil {
			s.todo = t
		}
	default:
		err = fmt.Errorf("%w: %s", types.ErrUnknownKind, kind)
	}

	if err != nil {
		log.Printf("Could not decode %s, keeping current state: %v", kind, err)
		return
	}
	s.loaded[kind] = true
}

func (s *Store) encodeLocked(kind types.Kind) (json.RawMessage, error) {
	switch {
	case kind.IsMark():
		return encodeMarks(kind, s.marks[kind])
	case kind == types.KindComments:
		return json.Marshal(s.comments)
	case kind == types.KindPropertyAssignments:
		return json.Marshal(s.assignments)
	case kind == types.KindTodoStatus:
		return json.Marshal(s.todo)
	}
	return nil, fmt.Errorf("%w: %s", types.ErrUnknownKind, kind)
}

// persistLocked snapshots each kind and queues its save.
func (s *Store) persistLocked(kinds ...types.Kind) Pending {
	var p Pending
	for _, k := range kinds {
		raw, err := s.encodeLocked(k)
		if err != nil {
			p.jobs = append(p.jobs, failedPending(k, err).jobs...)
			continue
		}
		p.jobs = append(p.jobs, s.enqueueLocked(k, raw))
	}
	return p
}

// IsSet reports whether path carries a mark of kind.
func (s *Store) IsSet(kind types.Kind, path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.marks[kind][path]
	return ok
}

// Mark returns the mark of kind on path.
func (s *Store) Mark(kind types.Kind, path string) (Mark, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.marks[kind][path]
	return m, ok
}

// Marks copies the marks of kind.
func (s *Store) Marks(kind types.Kind) map[string]Mark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.marks[kind])
}

// SetMark marks path with kind, or removes the mark when set is false. The
// completed and not-completed marks exclude each other.
func (s *Store) SetMark(kind types.Kind, path, name string, set bool) Pending {
	if !kind.IsMark() {
		return failedPending(kind, fmt.Errorf("%w: %s is not a mark", types.ErrUnknownKind, kind))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []types.Kind
	if set {
		s.marks[kind][path] = Mark{At: s.now().UTC(), Name: name}
		changed = append(changed, kind)
		if other, ok := exclusive(kind); ok {
			if _, present := s.marks[other][path]; present {
				delete(s.marks[other], path)
				changed = append(changed, other)
			}
		}
	} else if _, present := s.marks[kind][path]; present {
		delete(s.marks[kind], path)
		changed = append(changed, kind)
	}
	return s.persistLocked(changed...)
}

func exclusive(kind types.Kind) (types.Kind, bool) {
	switch kind {
	case types.KindCompleted:
		return types.KindNotCompleted, true
	case types.KindNotCompleted:
		return types.KindCompleted, true
	}
	return "", false
}

// ClearMark removes the mark of kind from path.
func (s *Store) ClearMark(kind types.Kind, path string) Pending {
	return s.SetMark(kind, path, "", false)
}

// MarkCompleted toggles the completed mark.
func (s *Store) MarkCompleted(path, name string, completed bool) Pending {
	return s.SetMark(types.KindCompleted, path, name, completed)
}

// MarkNotCompleted toggles the not-completed mark.
func (s *Store) MarkNotCompleted(path, name string, notCompleted bool) Pending {
	return s.SetMark(types.KindNotCompleted, path, name, notCompleted)
}

// MarkConfirmed toggles the confirmed mark.
func (s *Store) MarkConfirmed(path, name string, confirmed bool) Pending {
	return s.SetMark(types.KindConfirmed, path, name, confirmed)
}

// MarkDeleted records a deletion.
func (s *Store) MarkDeleted(path, name string) Pending {
	return s.SetMark(types.KindDeleted, path, name, true)
}

// Restore undoes a deletion.
func (s *Store) Restore(path string) Pending {
	return s.ClearMark(types.KindDeleted, path)
}

// ErrEmptyComment is returned for blank comments.
var ErrEmptyComment = errors.New("empty comment")

// AddComment appends a comment to path's thread.
func (s *Store) AddComment(path, fileName, text string) (Comment, Pending, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, Pending{}, ErrEmptyComment
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := Comment{
		ID:        uuid.NewString(),
		Comment:   text,
		Timestamp: s.now().UTC(),
		FileName:  fileName,
	}
	s.comments[path] = append(s.comments[path], c)
	return c, s.persistLocked(types.KindComments), nil
}

// Comments copies path's thread.
func (s *Store) Comments(path string) []Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.comments[path])
}

// Assignment returns the file assigned to a property key.
func (s *Store) Assignment(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.assignments[key]
	return f, ok
}

// Assignments copies the property table.
func (s *Store) Assignments() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.assignments)
}

// UpdateAssignments runs fn on the live property table under the store lock.
// When fn reports a change the table is persisted.
func (s *Store) UpdateAssignments(fn func(table map[string]string) bool) Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !fn(s.assignments) {
		return Pending{}
	}
	return s.persistLocked(types.KindPropertyAssignments)
}

// SetTodoStatus records the status of a manifest key.
func (s *Store) SetTodoStatus(key string, status TodoStatus) (Pending, error) {
	if _, err := ParseTodoStatus(string(status)); err != nil {
		return Pending{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.todo[key]; ok && cur.Status == status {
		return Pending{}, nil
	}
	s.todo[key] = TodoEntry{Status: status, UpdatedAt: s.now().UTC()}
	return s.persistLocked(types.KindTodoStatus), nil
}

// TodoStatusOf returns the status of key, pending when unset.
func (s *Store) TodoStatusOf(key string) TodoEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.todo[key]; ok {
		return e
	}
	return TodoEntry{Status: TodoPending}
}

// Snapshot is a deep copy of the whole state.
type Snapshot struct {
	Marks       map[types.Kind]map[string]Mark
	Comments    map[string][]Comment
	Assignments map[string]string
	Todo        map[string]TodoEntry
}

// Snapshot copies the state for views.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Marks:       make(map[types.Kind]map[string]Mark, len(s.marks)),
		Comments:    make(map[string][]Comment, len(s.comments)),
		Assignments: maps.Clone(s.assignments),
		Todo:        maps.Clone(s.todo),
	}
	for k, m := range s.marks {
		snap.Marks[k] = maps.Clone(m)
	}
	for p, c := range s.comments {
		snap.Comments[p] = slices.Clone(c)
	}
	return snap
}
