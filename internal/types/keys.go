package types

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names one collaborative record. The string value is the wire name used
// by the state service and the issue store labels.
type Kind string

const (
	KindDeleted             Kind = "deleted-files-history"
	KindCompleted           Kind = "completed-files"
	KindNotCompleted        Kind = "not-completed-files"
	KindConfirmed           Kind = "confirmed-files"
	KindComments            Kind = "file-comments"
	KindPropertyAssignments Kind = "property-assignments"
	KindTodoStatus          Kind = "todo-v2-status"
)

// ErrUnknownKind is returned by ParseKind for names outside Kinds().
var ErrUnknownKind = errors.New("unknown record kind")

var allKinds = []Kind{
	KindDeleted,
	KindCompleted,
	KindNotCompleted,
	KindConfirmed,
	KindComments,
	KindPropertyAssignments,
	KindTodoStatus,
}

// Kinds returns every record kind in load order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// MarkKinds returns the kinds whose entries are path -> {<action>_at, name}.
func MarkKinds() []Kind {
	return []Kind{KindDeleted, KindCompleted, KindNotCompleted, KindConfirmed}
}

// IsMark reports whether k is one of MarkKinds.
func (k Kind) IsMark() bool {
	switch k {
	case KindDeleted, KindCompleted, KindNotCompleted, KindConfirmed:
		return true
	}
	return false
}

// TimestampField is the JSON field holding the action time for mark kinds.
func (k Kind) TimestampField() string {
	switch k {
	case KindDeleted:
		return "deleted_at"
	case KindCompleted:
		return "completed_at"
	case KindNotCompleted:
		return "not_completed_at"
	case KindConfirmed:
		return "confirmed_at"
	}
	return "updated_at"
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind validates a wire name.
func ParseKind(name string) (Kind, error) {
	name = strings.TrimSpace(name)
	for _, k := range allKinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// ManifestKey is "chapterId" or "chapterId-sectionId". Every manifest cache,
// to-do status and property key is built from it.
func ManifestKey(chapterID, sectionID string) string {
	if sectionID == "" {
		return chapterID
	}
	return chapterID + "-" + sectionID
}

// PropertyKey is "chapterId[-sectionId]-property".
func PropertyKey(chapterID, sectionID, property string) string {
	return ManifestKey(chapterID, sectionID) + "-" + property
}

// SplitPropertyKey recovers the manifest key prefix and property name of a key
// built by PropertyKey, given the target it is expected to belong to.
func SplitPropertyKey(key, chapterID, sectionID string) (string, bool) {
	prefix := ManifestKey(chapterID, sectionID) + "-"
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	prop := strings.TrimPrefix(key, prefix)
	if prop == "" {
		return "", false
	}
	return prop, true
}

// FolderPath is the folder holding media and manifests for a target, with a
// trailing slash: "book1/C1/" or "book1/C1/S1/".
func FolderPath(bookRoot, chapterID, sectionID string) string {
	root := strings.Trim(bookRoot, "/")
	parts := make([]string, 0, 3)
	if root != "" {
		parts = append(parts, root)
	}
	parts = append(parts, chapterID)
	if sectionID != "" {
		parts = append(parts, sectionID)
	}
	return strings.Join(parts, "/") + "/"
}
