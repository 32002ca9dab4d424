package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/localnerve/chapterviewer/internal/types"
)

// Mark records that an action (delete, complete, not-complete, confirm) was
// applied to an audio file.
type Mark struct {
	At   time.Time
	Name string
}

// Comment is one entry of a file's comment thread.
type Comment struct {
	ID        string    `json:"id"`
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`
	FileName  string    `json:"fileName"`
}

// TodoStatus is the progress of one chapter or section.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in-progress"
	TodoDone       TodoStatus = "done"
)

// ErrInvalidStatus is returned for statuses outside the three known values.
var ErrInvalidStatus = errors.New("invalid to-do status")

// ParseTodoStatus validates a status name.
func ParseTodoStatus(s string) (TodoStatus, error) {
	switch st := TodoStatus(strings.TrimSpace(s)); st {
	case TodoPending, TodoInProgress, TodoDone:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// TodoEntry is the stored status of a manifest key.
type TodoEntry struct {
	Status    TodoStatus `json:"status"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func encodeMarks(kind types.Kind, marks map[string]Mark) (json.RawMessage, error) {
	field := kind.TimestampField()
	out := make(map[string]map[string]string, len(marks))
	for path, m := range marks {
		out[path] = map[string]string{
			field:  m.At.UTC().Format(time.RFC3339Nano),
			"name": m.Name,
		}
	}
	return json.Marshal(out)
}

// decodeMarks accepts any "*_at" field as the action time, so records written
// by older clients with a different field name still load.
func decodeMarks(raw json.RawMessage) (map[string]Mark, error) {
	var in map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	out := make(map[string]Mark, len(in))
	for path, fields := range in {
		var m Mark
		if name, ok := fields["name"]; ok {
			_ = json.Unmarshal(name, &m.Name)
		}
		for k, v := range fields {
			if !strings.HasSuffix(k, "_at") {
				continue
			}
			var ts string
			if json.Unmarshal(v, &ts) == nil {
				if at, err := time.Parse(time.RFC3339, ts); err == nil {
					m.At = at
					break
				}
			}
		}
		out[path] = m
	}
	return out, nil
}

func decodeComments(raw json.RawMessage) (map[string][]Comment, error) {
	out := map[string][]Comment{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string][]Comment{}
	}
	return out, nil
}

func decodeAssignments(raw json.RawMessage) (map[string]string, error) {
	out := map[string]string{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}

func decodeTodo(raw json.RawMessage) (map[string]TodoEntry, error) {
	out := map[string]TodoEntry{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]TodoEntry{}
	}
	return out, nil
}

func isEmptyDocument(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}
