package characters

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DefaultMinLines is how many lines a speaker needs in a section.
const DefaultMinLines = 3

// Known lists the speakers of the book.
var Known = []string{
	"Sócrates", "Glaucón", "Teofrasto", "Aristóteles", "Entrevistador",
	"Adam Smith", "Entrevistadora", "John Nash", "Jean Tirole",
	"Thomas Philippon", "George Akerlof", "Ronald Coase", "Moderadora",
	"Joseph Stiglitz", "Frédéric Bastiat", "Gary Becker", "Presentadora",
	"Ernesto Schargrodsky", "Joseph Schumpeter", "Karl Marx",
	"Milton Friedman", "Rafael Di Tella", "Moderador", "Elinor Ostrom",
	"Yuval Noah Harari",
}

const (
	upper = `A-ZÁÉÍÓÚÜÑ`
	word  = `\w` + upper + `áéíóúüñ\-\.`
)

// speakerLine matches "Name:" or "_Name_:" at the start of a line.
var speakerLine = regexp.MustCompile(`(?m)^_?([` + upper + `][` + word + `]*(?:[ \t]+[` + upper + `][` + word + `]*)*)_?[ \t]*:`)

// ExtractSpeakers returns every name that opens a line with a colon, in
// order of first appearance.
func ExtractSpeakers(text string) []string {
	seen := map[string]bool{}
	var ordered []string
	for _, m := range speakerLine.FindAllStringSubmatch(text, -1) {
		if name := m[1]; !seen[name] {
			seen[name] = true
			ordered = append(ordered, name)
		}
	}
	return ordered
}

// FindSpeakers returns the names that open at least minLines lines as
// "Name:", in order of first appearance. With a non-empty known list only
// those names count.
func FindSpeakers(text string, known []string, minLines int) []string {
	if minLines <= 0 {
		minLines = DefaultMinLines
	}
	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[k] = true
	}

	counts := map[string]int{}
	var order []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		name, _, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.Trim(strings.TrimSpace(name), "_")
		if name == "" {
			continue
		}
		if len(allowed) > 0 {
			if !allowed[name] {
				continue
			}
		} else if !speakerLine.MatchString(name + ":") {
			continue
		}
		if counts[name] == 0 {
			order = append(order, name)
		}
		counts[name]++
	}

	var out []string
	for _, name := range order {
		if counts[name] >= minLines {
			out = append(out, name)
		}
	}
	return out
}

// Analyze reads <bookPath>/<chapter>/<section>/main.txt for every section and
// returns the index of sections that have speakers.
func Analyze(bookPath string, known []string, minLines int) (*Index, error) {
	chapters, err := os.ReadDir(bookPath)
	if err != nil {
		return nil, err
	}
	sections := map[string][]string{}
	for _, ch := range chapters {
		if !ch.IsDir() {
			continue
		}
		secs, err := os.ReadDir(filepath.Join(bookPath, ch.Name()))
		if err != nil {
			return nil, err
		}
		for _, sec := range secs {
			if !sec.IsDir() {
				continue
			}
			raw, err := os.ReadFile(filepath.Join(bookPath, ch.Name(), sec.Name(), "main.txt"))
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				return nil, err
			}
			if names := FindSpeakers(string(raw), known, minLines); len(names) > 0 {
				sections[SectionKey(ch.Name(), sec.Name())] = names
			}
		}
	}
	return NewIndex(sections), nil
}

// SortedKeys lists the indexed sections.
func (i *Index) SortedKeys() []string {
	keys := make([]string, 0, len(i.sections))
	for k := range i.sections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
