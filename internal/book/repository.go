// Package book owns the static book structure: chapters, sections and the
// text files they point at.
package book

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/localnerve/chapterviewer/data"
	"github.com/localnerve/chapterviewer/internal/source"
)

// StructureDocument is the conventional name of the structure document.
const StructureDocument = "book-structure.json"

var (
	// ErrNotFound is returned by the lookups for unknown ids.
	ErrNotFound = errors.New("not found")
	// ErrNoContent means neither the structure document nor the fallback is usable.
	ErrNoContent = errors.New("no usable book structure")
)

// Repository loads the structure once and serves lookups from it.
type Repository struct {
	src      source.Source
	name     string
	fallback []byte

	mu        sync.RWMutex
	structure *Structure
	fromFile  bool
}

// Option customizes a Repository.
type Option func(*Repository)

// WithDocument overrides the structure document name.
func WithDocument(name string) Option {
	return func(r *Repository) {
		if name != "" {
			r.name = name
		}
	}
}

// WithFallback overrides the built-in fallback structure.
func WithFallback(doc []byte) Option {
	return func(r *Repository) {
		r.fallback = doc
	}
}

// NewRepository builds a repository reading from src.
func NewRepository(src source.Source, opts ...Option) *Repository {
	r := &Repository{
		src:      src,
		name:     StructureDocument,
		fallback: data.FallbackStructure,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load fetches the structure document. When the fetch or decode fails it
// falls back to the built-in structure; only an unusable fallback is an error.
func (r *Repository) Load(ctx context.Context) (*Structure, error) {
	structure, err := r.fetch(ctx)
	fromFile := err == nil
	if err != nil {
		log.Printf("Using fallback book structure: %v", err)
		structure, err = Parse(r.fallback)
		if err != nil {
			return nil, fmt.Errorf("%w: fallback: %w", ErrNoContent, err)
		}
	}

	r.mu.Lock()
	r.structure = structure
	r.fromFile = fromFile
	r.mu.Unlock()

	log.Printf("Loaded book structure %q with %d chapters", structure.Title, len(structure.Chapters))
	return structure, nil
}

func (r *Repository) fetch(ctx context.Context) (*Structure, error) {
	if r.src == nil {
		return nil, fmt.Errorf("no structure source configured")
	}
	raw, err := source.FetchFresh(ctx, r.src, r.name)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes and validates a structure document.
func Parse(raw []byte) (*Structure, error) {
	var s Structure
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode book structure: %w", err)
	}
	if len(s.Chapters) == 0 {
		return nil, fmt.Errorf("book structure has no chapters")
	}
	seen := make(map[string]struct{}, len(s.Chapters))
	for _, ch := range s.Chapters {
		if ch.ID == "" {
			return nil, fmt.Errorf("book structure has a chapter without id")
		}
		if _, dup := seen[ch.ID]; dup {
			return nil, fmt.Errorf("duplicate chapter id %q", ch.ID)
		}
		seen[ch.ID] = struct{}{}

		secs := make(map[string]struct{}, len(ch.Sections))
		for _, sec := range ch.Sections {
			if _, dup := secs[sec.ID]; dup || sec.ID == "" {
				return nil, fmt.Errorf("invalid or duplicate section id %q in chapter %s", sec.ID, ch.ID)
			}
			secs[sec.ID] = struct{}{}
		}
	}
	return &s, nil
}

// Structure returns the loaded structure, nil before Load.
func (r *Repository) Structure() *Structure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.structure
}

// UsingFallback reports whether the last Load used the built-in structure.
func (r *Repository) UsingFallback() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.structure != nil && !r.fromFile
}

// ChapterByID looks up a chapter.
func (r *Repository) ChapterByID(id string) (*Chapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.structure != nil {
		for i := range r.structure.Chapters {
			if r.structure.Chapters[i].ID == id {
				ch := r.structure.Chapters[i]
				return &ch, nil
			}
		}
	}
	return nil, fmt.Errorf("chapter %q: %w", id, ErrNotFound)
}

// SectionByID looks up a section within a chapter.
func (r *Repository) SectionByID(chapterID, sectionID string) (*Section, error) {
	ch, err := r.ChapterByID(chapterID)
	if err != nil {
		return nil, err
	}
	for i := range ch.Sections {
		if ch.Sections[i].ID == sectionID {
			sec := ch.Sections[i]
			return &sec, nil
		}
	}
	return nil, fmt.Errorf("section %q in chapter %q: %w", sectionID, chapterID, ErrNotFound)
}

// Text reads the text file of a chapter or section.
func (r *Repository) Text(ctx context.Context, t Target) (string, error) {
	var file string
	if t.SectionID == "" {
		ch, err := r.ChapterByID(t.ChapterID)
		if err != nil {
			return "", err
		}
		file = ch.TextFile
	} else {
		sec, err := r.SectionByID(t.ChapterID, t.SectionID)
		if err != nil {
			return "", err
		}
		file = sec.TextFile
	}
	raw, err := r.src.Fetch(ctx, file)
	if err != nil {
		return "", fmt.Errorf("load text %s: %w", file, err)
	}
	return string(raw), nil
}
