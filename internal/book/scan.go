package book

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultTitle is used when a scan is not given a title.
const DefaultTitle = "Economía Conversada"

const synopsisDir = "SINOPSIS"

// structureAudioExtensions are the clip types linked from the structure document.
var structureAudioExtensions = []string{".mp3", ".wav", ".ogg", ".m4a"}

// Scan builds a structure from a book directory laid out as
// <root>/C<n>/S<n>, reading title.txt and description.txt where present.
// Paths in the result are relative to the site root, prefixed with the base
// name of root ("book1/C1/chapter.txt").
func Scan(root, title string) (*Structure, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("book directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("book directory %s is not a directory", root)
	}
	if title == "" {
		title = DefaultTitle
	}
	prefix := filepath.Base(filepath.Clean(root))

	chapterDirs, err := subdirs(root, func(name string) bool { return strings.HasPrefix(name, "C") })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(chapterDirs, func(i, j int) bool {
		return numericSuffix(chapterDirs[i]) < numericSuffix(chapterDirs[j])
	})

	structure := &Structure{Title: title, Chapters: make([]Chapter, 0, len(chapterDirs))}
	for _, chDir := range chapterDirs {
		chPath := filepath.Join(root, chDir)
		chTitle := readTrimmed(filepath.Join(chPath, "title.txt"))
		if chTitle == "" {
			chTitle = "Capítulo " + chDir[1:]
		}
		chapter := Chapter{
			ID:        chDir,
			Title:     chTitle,
			TextFile:  joinSite(prefix, chDir, "chapter.txt"),
			AudioFile: firstAudio(chPath, prefix, chDir),
		}

		sectionDirs, err := subdirs(chPath, func(name string) bool { return strings.HasPrefix(name, "S") })
		if err != nil {
			return nil, err
		}
		sort.SliceStable(sectionDirs, func(i, j int) bool {
			gi, ni := sectionOrder(sectionDirs[i])
			gj, nj := sectionOrder(sectionDirs[j])
			if gi != gj {
				return gi < gj
			}
			return ni < nj
		})

		for _, secDir := range sectionDirs {
			secPath := filepath.Join(chPath, secDir)
			section := Section{
				ID:        secDir,
				AudioFile: firstAudio(secPath, prefix, chDir, secDir),
			}
			if secDir == synopsisDir {
				section.Title = readTrimmed(filepath.Join(secPath, "title.txt"))
				if section.Title == "" {
					section.Title = "Sinopsis"
				}
				section.TextFile = joinSite(prefix, chDir, secDir, "sinopsis.txt")
			} else {
				section.Title = readTrimmed(filepath.Join(secPath, "title.txt"))
				if section.Title == "" {
					section.Title = "Sección " + secDir[1:]
				}
				section.TextFile = joinSite(prefix, chDir, secDir, "main.txt")
				if desc := readTrimmed(filepath.Join(secPath, "description.txt")); desc != "" {
					section.Description = &desc
				}
			}
			chapter.Sections = append(chapter.Sections, section)
		}
		structure.Chapters = append(structure.Chapters, chapter)
	}
	return structure, nil
}

// sectionOrder sorts S<n> numerically, then SINOPSIS, then anything else.
func sectionOrder(name string) (int, int) {
	if n, err := strconv.Atoi(name[1:]); err == nil {
		return 0, n
	}
	if name == synopsisDir {
		return 1, 0
	}
	return 2, 0
}

func numericSuffix(name string) int {
	n, err := strconv.Atoi(name[1:])
	if err != nil {
		return 0
	}
	return n
}

func subdirs(dir string, keep func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && keep(e.Name()) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

func readTrimmed(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func firstAudio(dir string, parts ...string) *string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range structureAudioExtensions {
			if ext == want {
				p := joinSite(append(parts, e.Name())...)
				return &p
			}
		}
	}
	return nil
}

func joinSite(parts ...string) string {
	return strings.Join(parts, "/")
}
