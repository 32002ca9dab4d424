package reader

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/localnerve/chapterviewer/internal/collab"
	"github.com/localnerve/chapterviewer/internal/types"
)

// GridColumn is a chapter column of the to-do grid.
type GridColumn struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// GridCell is one chapter/section intersection.
type GridCell struct {
	Exists       bool              `json:"exists"`
	Key          string            `json:"key,omitempty"`
	SectionTitle string            `json:"sectionTitle,omitempty"`
	Files        []string          `json:"files"`
	Status       collab.TodoStatus `json:"status,omitempty"`
}

// GridRow is a section number across chapters.
type GridRow struct {
	Section string     `json:"section"`
	Cells   []GridCell `json:"cells"`
}

// TodoGrid is the chapter x section overview of audio clips.
type TodoGrid struct {
	Columns     []GridColumn `json:"columns"`
	Rows        []GridRow    `json:"rows"`
	MaxSections int          `json:"maxSections"`
	TotalFiles  int          `json:"totalFiles"`
}

// Summary is the one-line total shown under the grid.
func (g TodoGrid) Summary() string {
	return fmt.Sprintf("Total: %d archivos de audio encontrados en %d secciones y %d capítulos",
		g.TotalFiles, g.MaxSections, len(g.Columns))
}

// TodoGrid builds the grid from the structure and the audio manifest cache.
// Row i holds section "S<i>" of each chapter.
func (s *Session) TodoGrid() (TodoGrid, error) {
	structure := s.Structure()
	if structure == nil {
		return TodoGrid{}, ErrNotOpen
	}
	cache := s.audio.Cache()

	grid := TodoGrid{MaxSections: structure.MaxSections(), TotalFiles: cache.Total()}
	for _, ch := range structure.Chapters {
		grid.Columns = append(grid.Columns, GridColumn{ID: ch.ID, Title: ch.Title})
	}
	for i := 1; i <= grid.MaxSections; i++ {
		secID := fmt.Sprintf("S%d", i)
		row := GridRow{Section: secID}
		for _, ch := range structure.Chapters {
			cell := GridCell{Files: []string{}}
			for _, sec := range ch.Sections {
				if sec.ID != secID {
					continue
				}
				key := types.ManifestKey(ch.ID, sec.ID)
				files, _ := cache.Get(key)
				cell = GridCell{
					Exists:       true,
					Key:          key,
					SectionTitle: sec.Title,
					Files:        files,
					Status:       s.store.TodoStatusOf(key).Status,
				}
				break
			}
			row.Cells = append(row.Cells, cell)
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, nil
}

// RecentChange is one entry of the activity feed.
type RecentChange struct {
	Kind    types.Kind `json:"kind"`
	Path    string     `json:"path"`
	Name    string     `json:"name"`
	Comment string     `json:"comment,omitempty"`
	At      time.Time  `json:"at"`
	Ago     string     `json:"ago"`
}

// RecentChanges lists the newest marks and comments, newest first. A limit
// of zero or less returns everything.
func (s *Session) RecentChanges(limit int) []RecentChange {
	snap := s.store.Snapshot()
	var out []RecentChange
	for kind, marks := range snap.Marks {
		for path, m := range marks {
			out = append(out, RecentChange{Kind: kind, Path: path, Name: m.Name, At: m.At})
		}
	}
	for path, thread := range snap.Comments {
		for _, c := range thread {
			out = append(out, RecentChange{
				Kind:    types.KindComments,
				Path:    path,
				Name:    c.FileName,
				Comment: c.Comment,
				At:      c.Timestamp,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.After(out[j].At)
		}
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Kind < out[j].Kind
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Ago = humanize.Time(out[i].At)
	}
	return out
}
