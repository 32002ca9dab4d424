package reader

import (
	"context"

	"github.com/localnerve/chapterviewer/internal/collab"
	"github.com/localnerve/chapterviewer/internal/types"
)

func (s *Session) mark(kind types.Kind, path, name string, set bool) collab.Pending {
	p := s.store.SetMark(kind, path, name, set)
	s.publish(Change{Type: ChangeMark, Kind: kind, Path: path})
	return p
}

// MarkCompleted toggles the completed mark of a clip.
func (s *Session) MarkCompleted(path, name string, completed bool) collab.Pending {
	return s.mark(types.KindCompleted, path, name, completed)
}

// MarkNotCompleted toggles the not-completed mark of a clip.
func (s *Session) MarkNotCompleted(path, name string, notCompleted bool) collab.Pending {
	return s.mark(types.KindNotCompleted, path, name, notCompleted)
}

// MarkConfirmed toggles the confirmed mark of a clip.
func (s *Session) MarkConfirmed(path, name string, confirmed bool) collab.Pending {
	return s.mark(types.KindConfirmed, path, name, confirmed)
}

// DeleteFile hides a clip from every view.
func (s *Session) DeleteFile(path, name string) collab.Pending {
	return s.mark(types.KindDeleted, path, name, true)
}

// RestoreFile makes a deleted clip visible again.
func (s *Session) RestoreFile(path string) collab.Pending {
	return s.mark(types.KindDeleted, path, "", false)
}

// AddComment appends to a clip's comment thread.
func (s *Session) AddComment(path, fileName, text string) (collab.Comment, collab.Pending, error) {
	c, p, err := s.store.AddComment(path, fileName, text)
	if err != nil {
		return c, p, err
	}
	s.publish(Change{Type: ChangeComment, Kind: types.KindComments, Path: path})
	return c, p, nil
}

// AssignProperty points a property of a target at a clip.
func (s *Session) AssignProperty(ctx context.Context, chapterID, sectionID, property, audioFile string) (collab.Pending, error) {
	p, err := s.props.Assign(ctx, chapterID, sectionID, property, audioFile)
	if err != nil {
		return p, err
	}
	s.publish(Change{
		Type: ChangeProperty,
		Kind: types.KindPropertyAssignments,
		Key:  types.PropertyKey(chapterID, sectionID, property),
	})
	return p, nil
}

// AutoAssignProperty assigns a clip when the target has a single property.
func (s *Session) AutoAssignProperty(ctx context.Context, chapterID, sectionID, audioFile string) (string, collab.Pending, error) {
	prop, p, err := s.props.AutoAssign(ctx, chapterID, sectionID, audioFile)
	if err != nil {
		return prop, p, err
	}
	s.publish(Change{
		Type: ChangeProperty,
		Kind: types.KindPropertyAssignments,
		Key:  types.PropertyKey(chapterID, sectionID, prop),
	})
	return prop, p, nil
}

// UnassignProperty clears a property key.
func (s *Session) UnassignProperty(propertyKey string) collab.Pending {
	p := s.props.Unassign(propertyKey)
	s.publish(Change{Type: ChangeProperty, Kind: types.KindPropertyAssignments, Key: propertyKey})
	return p
}

// SetTodoStatus records the progress of a chapter or section.
func (s *Session) SetTodoStatus(chapterID, sectionID string, status collab.TodoStatus) (collab.Pending, error) {
	key := types.ManifestKey(chapterID, sectionID)
	p, err := s.store.SetTodoStatus(key, status)
	if err != nil {
		return p, err
	}
	s.publish(Change{Type: ChangeTodo, Kind: types.KindTodoStatus, Key: key})
	return p, nil
}
