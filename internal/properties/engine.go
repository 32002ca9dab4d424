// Package properties maps named text slots of a chapter or section to the
// audio clip that voices them. A property holds at most one clip and a clip
// belongs to at most one property of its target.
package properties

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/localnerve/chapterviewer/internal/collab"
	"github.com/localnerve/chapterviewer/internal/types"
)

// ErrNeedsChoice is returned by AutoAssign when the target does not have
// exactly one property to pick.
var ErrNeedsChoice = errors.New("property choice required")

// ErrInvalidAssignment is returned when the property or file name is blank.
var ErrInvalidAssignment = errors.New("property and audio file are required")

// ChoiceError carries the candidates of an ambiguous AutoAssign.
type ChoiceError struct {
	Candidates []string
}

func (e *ChoiceError) Error() string {
	if len(e.Candidates) == 0 {
		return "no properties available"
	}
	return fmt.Sprintf("choose one of %s", strings.Join(e.Candidates, ", "))
}

func (e *ChoiceError) Unwrap() error {
	return ErrNeedsChoice
}

// Lister returns the cached text manifest of a target.
type Lister interface {
	Files(chapterID, sectionID string) []string
}

// Engine applies assignment rules on top of the collaborative store.
type Engine struct {
	store *collab.Store
	texts Lister
}

// NewEngine builds an engine reading available properties from texts.
func NewEngine(store *collab.Store, texts Lister) *Engine {
	return &Engine{store: store, texts: texts}
}

// AvailableProperties lists the text manifest entries of the target without
// their extension, in manifest order.
func (e *Engine) AvailableProperties(chapterID, sectionID string) []string {
	files := e.texts.Files(chapterID, sectionID)
	props := make([]string, 0, len(files))
	for _, f := range files {
		name := strings.TrimSuffix(f, path.Ext(f))
		if name != "" {
			props = append(props, name)
		}
	}
	return props
}

// Assign points property at audioFile. The property's previous clip is
// released and any other property of the same target holding audioFile is
// cleared.
func (e *Engine) Assign(ctx context.Context, chapterID, sectionID, property, audioFile string) (collab.Pending, error) {
	if err := ctx.Err(); err != nil {
		return collab.Pending{}, err
	}
	if strings.TrimSpace(property) == "" || strings.TrimSpace(audioFile) == "" {
		return collab.Pending{}, ErrInvalidAssignment
	}
	key := types.PropertyKey(chapterID, sectionID, property)
	prefix := types.ManifestKey(chapterID, sectionID) + "-"

	return e.store.UpdateAssignments(func(table map[string]string) bool {
		changed := false
		for k, f := range table {
			if k != key && f == audioFile && strings.HasPrefix(k, prefix) {
				delete(table, k)
				changed = true
			}
		}
		if table[key] != audioFile {
			table[key] = audioFile
			changed = true
		}
		return changed
	}), nil
}

// Unassign removes the mapping of propertyKey when present.
func (e *Engine) Unassign(propertyKey string) collab.Pending {
	return e.store.UpdateAssignments(func(table map[string]string) bool {
		if _, ok := table[propertyKey]; !ok {
			return false
		}
		delete(table, propertyKey)
		return true
	})
}

// AssignedFile returns the clip of a property, empty when unassigned.
func (e *Engine) AssignedFile(chapterID, sectionID, property string) string {
	f, _ := e.store.Assignment(types.PropertyKey(chapterID, sectionID, property))
	return f
}

// PropertyOfFile returns the first property key (in key order) holding
// audioFile anywhere in the book.
func (e *Engine) PropertyOfFile(audioFile string) (string, bool) {
	table := e.store.Assignments()
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if table[k] == audioFile {
			return k, true
		}
	}
	return "", false
}

// PropertyOfFileIn returns the property name of the target holding audioFile.
func (e *Engine) PropertyOfFileIn(chapterID, sectionID, audioFile string) (string, bool) {
	for k, f := range e.store.Assignments() {
		if f != audioFile {
			continue
		}
		if prop, ok := types.SplitPropertyKey(k, chapterID, sectionID); ok {
			return prop, true
		}
	}
	return "", false
}

// Assignments lists property -> clip for one target.
func (e *Engine) Assignments(chapterID, sectionID string) map[string]string {
	out := map[string]string{}
	for k, f := range e.store.Assignments() {
		if prop, ok := types.SplitPropertyKey(k, chapterID, sectionID); ok {
			out[prop] = f
		}
	}
	return out
}

// AutoAssign assigns audioFile when the target has exactly one property.
// Otherwise nothing changes and a *ChoiceError wrapping ErrNeedsChoice lists
// the candidates.
func (e *Engine) AutoAssign(ctx context.Context, chapterID, sectionID, audioFile string) (string, collab.Pending, error) {
	props := e.AvailableProperties(chapterID, sectionID)
	if len(props) != 1 {
		return "", collab.Pending{}, &ChoiceError{Candidates: props}
	}
	p, err := e.Assign(ctx, chapterID, sectionID, props[0], audioFile)
	return props[0], p, err
}
