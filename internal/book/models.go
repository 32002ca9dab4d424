package book

// Structure is the book-structure.json document
type Structure struct {
	Title    string    `json:"title"`
	Chapters []Chapter `json:"chapters"`
}

// Chapter represents a book chapter
type Chapter struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	TextFile  string    `json:"textFile"`
	AudioFile *string   `json:"audioFile"`
	Sections  []Section `json:"sections"`
}

// Section represents a section within a chapter
type Section struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	TextFile    string  `json:"textFile"`
	AudioFile   *string `json:"audioFile"`
	Description *string `json:"description"`
}

// Target identifies a chapter, or a section when SectionID is set. Manifests,
// to-do statuses and property assignments all hang off targets.
type Target struct {
	ChapterID string
	SectionID string
}

// Targets lists every chapter followed by its sections, in document order.
func (s *Structure) Targets() []Target {
	if s == nil {
		return nil
	}
	out := make([]Target, 0, len(s.Chapters)*4)
	for _, ch := range s.Chapters {
		out = append(out, Target{ChapterID: ch.ID})
		for _, sec := range ch.Sections {
			out = append(out, Target{ChapterID: ch.ID, SectionID: sec.ID})
		}
	}
	return out
}

// MaxSections is the largest section count of any chapter.
func (s *Structure) MaxSections() int {
	max := 0
	if s == nil {
		return max
	}
	for _, ch := range s.Chapters {
		if len(ch.Sections) > max {
			max = len(ch.Sections)
		}
	}
	return max
}
