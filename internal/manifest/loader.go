// Package manifest reads the per-folder file listings (audio_manifest.json,
// text_manifest.json) for every chapter and section of a book and keeps them
// in a shared cache.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/localnerve/chapterviewer/internal/book"
	"github.com/localnerve/chapterviewer/internal/source"
	"github.com/localnerve/chapterviewer/internal/types"
)

const (
	// AudioDocument lists the audio clips of a folder.
	AudioDocument = "audio_manifest.json"
	// TextDocument lists the text fragments (properties) of a folder.
	TextDocument = "text_manifest.json"
	// DefaultBookRoot is the site folder holding the chapter folders.
	DefaultBookRoot = "book1"
)

var manifestMisses = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chapterviewer_manifest_misses_total",
	Help: "Manifest lookups that produced an empty listing because the document was unreadable.",
}, []string{"document"})

// Loader lists one manifest document kind across the folders of a book.
type Loader struct {
	src      source.Source
	bookRoot string
	document string
	cache    *Cache
}

// NewLoader builds a loader for the manifest named document.
func NewLoader(src source.Source, bookRoot, document string) *Loader {
	if bookRoot == "" {
		bookRoot = DefaultBookRoot
	}
	return &Loader{
		src:      src,
		bookRoot: bookRoot,
		document: document,
		cache:    NewCache(),
	}
}

// NewAudioLoader lists audio_manifest.json documents.
func NewAudioLoader(src source.Source, bookRoot string) *Loader {
	return NewLoader(src, bookRoot, AudioDocument)
}

// NewTextLoader lists text_manifest.json documents.
func NewTextLoader(src source.Source, bookRoot string) *Loader {
	return NewLoader(src, bookRoot, TextDocument)
}

// Cache exposes the shared cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Document is the manifest file name this loader reads.
func (l *Loader) Document() string {
	return l.document
}

// Folder is the folder path of a target.
func (l *Loader) Folder(chapterID, sectionID string) string {
	return types.FolderPath(l.bookRoot, chapterID, sectionID)
}

// ListFiles returns the manifest entries of folder in manifest order. A
// missing, unreadable or malformed manifest yields an empty listing.
func (l *Loader) ListFiles(ctx context.Context, folder string) []string {
	name := folder + l.document
	raw, err := l.src.Fetch(ctx, name)
	if err != nil {
		if !errors.Is(err, source.ErrNotExist) {
			log.Printf("Could not load manifest %s: %v", name, err)
			manifestMisses.WithLabelValues(l.document).Inc()
		}
		return []string{}
	}

	var files []string
	if err := json.Unmarshal(raw, &files); err != nil {
		log.Printf("Invalid manifest %s: %v", name, err)
		manifestMisses.WithLabelValues(l.document).Inc()
		return []string{}
	}
	if files == nil {
		files = []string{}
	}
	return files
}

// LoadAll lists every chapter and section of s concurrently. Each result is
// written to the cache as soon as it arrives; the returned map holds exactly
// one entry per manifest key.
func (l *Loader) LoadAll(ctx context.Context, s *book.Structure) map[string][]string {
	if s == nil {
		return map[string][]string{}
	}
	targets := s.Targets()

	results := make([][]string, len(targets))
	var g errgroup.Group
	for i, t := range targets {
		g.Go(func() error {
			files := l.ListFiles(ctx, l.Folder(t.ChapterID, t.SectionID))
			l.cache.Set(types.ManifestKey(t.ChapterID, t.SectionID), files)
			results[i] = files
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string][]string, len(targets))
	for i, t := range targets {
		out[types.ManifestKey(t.ChapterID, t.SectionID)] = results[i]
	}
	return out
}

// Refresh clears the cache and lists everything again.
func (l *Loader) Refresh(ctx context.Context, s *book.Structure) map[string][]string {
	l.cache.Reset()
	return l.LoadAll(ctx, s)
}

// Files returns the cached listing for a target, empty when not loaded.
func (l *Loader) Files(chapterID, sectionID string) []string {
	files, _ := l.cache.Get(types.ManifestKey(chapterID, sectionID))
	return files
}

// AudioFiles returns the clips of a target as references. A target that was
// not part of the last LoadAll is listed on demand and cached.
func (l *Loader) AudioFiles(ctx context.Context, chapterID, sectionID string) []AudioFileRef {
	key := types.ManifestKey(chapterID, sectionID)
	folder := l.Folder(chapterID, sectionID)

	files, ok := l.cache.Get(key)
	if !ok {
		files = l.ListFiles(ctx, folder)
		l.cache.Set(key, files)
	}

	refs := make([]AudioFileRef, 0, len(files))
	for _, f := range files {
		refs = append(refs, NewAudioFileRef(folder, f))
	}
	return refs
}
