// Package reader composes the book pipeline into one session: structure,
// manifests, collaborative state, property assignments and the speaker index.
// A session is constructed explicitly, opened once and closed on teardown.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/localnerve/chapterviewer/internal/backend"
	"github.com/localnerve/chapterviewer/internal/book"
	"github.com/localnerve/chapterviewer/internal/characters"
	"github.com/localnerve/chapterviewer/internal/collab"
	"github.com/localnerve/chapterviewer/internal/manifest"
	"github.com/localnerve/chapterviewer/internal/properties"
	"github.com/localnerve/chapterviewer/internal/source"
	"github.com/localnerve/chapterviewer/internal/types"
)

// ErrNotOpen is returned by operations that need a loaded structure.
var ErrNotOpen = errors.New("reader session is not open")

// Config configures a session.
type Config struct {
	BookRoot string
	Collab   collab.Config
}

// ChangeType names a mutation.
type ChangeType string

const (
	ChangeMark      ChangeType = "mark"
	ChangeComment   ChangeType = "comment"
	ChangeProperty  ChangeType = "property"
	ChangeTodo      ChangeType = "todo"
	ChangeManifests ChangeType = "manifests"
	ChangeStateLoad ChangeType = "state-load"
)

// Change is published to subscribers after every mutation.
type Change struct {
	Type ChangeType
	Kind types.Kind
	Path string
	Key  string
}

// Session is one reader's view of the book.
type Session struct {
	cfg   Config
	repo  *book.Repository
	src   source.Source
	audio *manifest.Loader
	texts *manifest.Loader
	store *collab.Store
	props *properties.Engine

	mu        sync.RWMutex
	structure *book.Structure
	speakers  *characters.Index

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// New builds a session reading documents from src and persisting state to kv.
func New(cfg Config, src source.Source, kv backend.KeyValue) *Session {
	if cfg.BookRoot == "" {
		cfg.BookRoot = manifest.DefaultBookRoot
	}
	texts := manifest.NewTextLoader(src, cfg.BookRoot)
	store := collab.NewStore(kv, cfg.Collab)
	return &Session{
		cfg:      cfg,
		repo:     book.NewRepository(src),
		src:      src,
		audio:    manifest.NewAudioLoader(src, cfg.BookRoot),
		texts:    texts,
		store:    store,
		props:    properties.NewEngine(store, texts),
		speakers: characters.NewIndex(nil),
		subs:     make(map[int]func(Change)),
	}
}

// Open loads the structure, then the collaborative state, manifests and the
// speaker index concurrently. Only an unusable structure fails.
func (s *Session) Open(ctx context.Context) error {
	structure, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load book structure: %w", err)
	}
	s.mu.Lock()
	s.structure = structure
	s.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		report := s.store.LoadAll(ctx)
		log.Printf("State loaded: %d kinds, %d failed, %d timed out",
			len(report.Loaded), len(report.Failed), len(report.TimedOut))
		return nil
	})
	g.Go(func() error {
		s.audio.LoadAll(ctx, structure)
		return nil
	})
	g.Go(func() error {
		s.texts.LoadAll(ctx, structure)
		return nil
	})
	g.Go(func() error {
		idx := characters.Load(ctx, s.src)
		s.mu.Lock()
		s.speakers = idx
		s.mu.Unlock()
		return nil
	})
	_ = g.Wait()

	s.publish(Change{Type: ChangeStateLoad})
	return nil
}

// Close waits for queued saves and stops the store.
func (s *Session) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}

// Structure returns the loaded structure, nil before Open.
func (s *Session) Structure() *book.Structure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.structure
}

// UsingFallback reports whether the built-in structure is in use.
func (s *Session) UsingFallback() bool {
	return s.repo.UsingFallback()
}

// Repository exposes structure lookups.
func (s *Session) Repository() *book.Repository {
	return s.repo
}

// Store exposes the collaborative state.
func (s *Session) Store() *collab.Store {
	return s.store
}

// Properties exposes the assignment engine.
func (s *Session) Properties() *properties.Engine {
	return s.props
}

// Characters returns the speakers of a section.
func (s *Session) Characters(chapterID, sectionID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.speakers.Characters(chapterID, sectionID)
}

// AudioManifests copies the audio manifest cache.
func (s *Session) AudioManifests() map[string][]string {
	return s.audio.Cache().Snapshot()
}

// TextManifests copies the text manifest cache.
func (s *Session) TextManifests() map[string][]string {
	return s.texts.Cache().Snapshot()
}

// Subscribe registers fn for every Change. The returned func unsubscribes.
func (s *Session) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Session) publish(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// RefreshManifests relists every audio and text manifest.
func (s *Session) RefreshManifests(ctx context.Context) error {
	structure := s.Structure()
	if structure == nil {
		return ErrNotOpen
	}
	var g errgroup.Group
	g.Go(func() error {
		s.audio.Refresh(ctx, structure)
		return nil
	})
	g.Go(func() error {
		s.texts.Refresh(ctx, structure)
		return nil
	})
	_ = g.Wait()
	s.publish(Change{Type: ChangeManifests})
	return nil
}

// VisibleAudioFiles lists a target's clips without deleted ones.
func (s *Session) VisibleAudioFiles(ctx context.Context, chapterID, sectionID string) []manifest.AudioFileRef {
	refs := s.audio.AudioFiles(ctx, chapterID, sectionID)
	visible := refs[:0]
	for _, r := range refs {
		if !s.store.IsSet(types.KindDeleted, r.Path) {
			visible = append(visible, r)
		}
	}
	return visible
}
