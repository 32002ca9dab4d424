// Package characters indexes who speaks in each section of the book.
package characters

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"strings"

	"github.com/localnerve/chapterviewer/internal/source"
)

// Document is the conventional name of the index document.
const Document = "section-characters.json"

// Index maps "C1/S1" to the speakers of that section.
type Index struct {
	sections map[string][]string
}

// NewIndex wraps a ready-made mapping.
func NewIndex(sections map[string][]string) *Index {
	if sections == nil {
		sections = map[string][]string{}
	}
	return &Index{sections: sections}
}

// SectionKey is the index key of a section.
func SectionKey(chapterID, sectionID string) string {
	return chapterID + "/" + sectionID
}

// Load reads the index document from src. Any failure yields an empty index.
func Load(ctx context.Context, src source.Source) *Index {
	raw, err := src.Fetch(ctx, Document)
	if err != nil {
		if !errors.Is(err, source.ErrNotExist) {
			log.Printf("Could not load %s: %v", Document, err)
		}
		return NewIndex(nil)
	}
	var sections map[string][]string
	if err := json.Unmarshal(raw, &sections); err != nil {
		log.Printf("Invalid %s: %v", Document, err)
		return NewIndex(nil)
	}
	return NewIndex(sections)
}

// Characters returns the speakers of a section, empty when unknown.
func (i *Index) Characters(chapterID, sectionID string) []string {
	names := i.sections[SectionKey(chapterID, sectionID)]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Appearances maps every speaker to the sorted sections they speak in.
func (i *Index) Appearances() map[string][]string {
	out := map[string][]string{}
	for key, names := range i.sections {
		for _, n := range names {
			out[n] = append(out[n], key)
		}
	}
	for _, keys := range out {
		sort.Strings(keys)
	}
	return out
}

// Len is the number of indexed sections.
func (i *Index) Len() int {
	return len(i.sections)
}

// MarshalJSON writes the document form.
func (i *Index) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.sections)
}

// Has reports whether name speaks in the section.
func (i *Index) Has(chapterID, sectionID, name string) bool {
	for _, n := range i.sections[SectionKey(chapterID, sectionID)] {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
