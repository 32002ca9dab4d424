package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"github.com/localnerve/chapterviewer/internal/book"
)

// lockName guards concurrent updates of one book directory.
const lockName = ".audio_manifest.lock"

// ErrLocked is returned when another update holds the book lock.
var ErrLocked = errors.New("manifest update already running")

// WriterAudioExtensions are the clip types written to audio manifests.
var WriterAudioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".flac"}

// specialFolders are top level folders that also carry a manifest.
var specialFolders = []string{"Intro"}

// UpdateStats summarizes an update run.
type UpdateStats struct {
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Errors    int `json:"errors"`
	Folders   int `json:"totalFolders"`
}

// Change describes one manifest that differs from its folder.
type Change struct {
	Folder   string   `json:"folder"`
	Current  []string `json:"current"`
	Proposed []string `json:"proposed"`
}

// Updater rewrites audio manifests from the files present on disk.
type Updater struct {
	bookPath string
	dryRun   bool
	out      io.Writer
}

// NewUpdater builds an updater for bookPath. Progress lines go to out.
func NewUpdater(bookPath string, dryRun bool, out io.Writer) *Updater {
	if out == nil {
		out = io.Discard
	}
	return &Updater{bookPath: bookPath, dryRun: dryRun, out: out}
}

// AudioFilesIn returns the sorted clip names of dir.
func AudioFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	files := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(WriterAudioExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// ReadManifest reads dir's audio manifest. A missing file is an empty list.
func ReadManifest(dir string) ([]string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, AudioDocument))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return []string{}, err
	}
	var files []string
	if err := json.Unmarshal(raw, &files); err != nil {
		return []string{}, err
	}
	if files == nil {
		files = []string{}
	}
	return files, nil
}

func sameSet(a, b []string) bool {
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	other := make(map[string]struct{}, len(b))
	for _, v := range b {
		if _, ok := seen[v]; !ok {
			return false
		}
		other[v] = struct{}{}
	}
	return len(seen) == len(other)
}

// UpdateFolder syncs one folder. It returns the change when the manifest
// differed, nil when it already matched.
func (u *Updater) UpdateFolder(dir string) (*Change, error) {
	files, err := AudioFilesIn(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	current, err := ReadManifest(dir)
	if err != nil {
		log.Printf("Warning: could not read existing manifest in %s: %v", dir, err)
	}
	if sameSet(files, current) {
		return nil, nil
	}

	change := &Change{Folder: dir, Current: current, Proposed: files}
	if u.dryRun {
		fmt.Fprintf(u.out, "Would update %s:\n  Current: %v\n  New:     %v\n", filepath.Join(dir, AudioDocument), current, files)
		return change, nil
	}

	raw, err := json.MarshalIndent(files, "", "")
	if err != nil {
		return nil, err
	}
	target := filepath.Join(dir, AudioDocument)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", target, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return nil, fmt.Errorf("replace %s: %w", target, err)
	}
	fmt.Fprintf(u.out, "Updated %s: %v\n", target, files)
	return change, nil
}

// Folders lists every chapter, section and special folder of the book.
func Folders(bookPath string) ([]string, error) {
	entries, err := os.ReadDir(bookPath)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, ch := range entries {
		if !ch.IsDir() || !strings.HasPrefix(ch.Name(), "C") {
			continue
		}
		chDir := filepath.Join(bookPath, ch.Name())
		dirs = append(dirs, chDir)
		secs, err := os.ReadDir(chDir)
		if err != nil {
			return nil, err
		}
		for _, sec := range secs {
			if sec.IsDir() && strings.HasPrefix(sec.Name(), "S") {
				dirs = append(dirs, filepath.Join(chDir, sec.Name()))
			}
		}
	}
	for _, e := range entries {
		if e.IsDir() && slices.Contains(specialFolders, e.Name()) {
			dirs = append(dirs, filepath.Join(bookPath, e.Name()))
		}
	}
	return dirs, nil
}

// Run updates every folder under the book lock.
func (u *Updater) Run() (UpdateStats, []Change, error) {
	var stats UpdateStats

	lock := flock.New(filepath.Join(u.bookPath, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return stats, nil, fmt.Errorf("lock %s: %w", u.bookPath, err)
	}
	if !locked {
		return stats, nil, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Printf("Failed to release manifest lock: %v", err)
		}
		_ = os.Remove(lock.Path())
	}()

	dirs, err := Folders(u.bookPath)
	if err != nil {
		return stats, nil, fmt.Errorf("scan %s: %w", u.bookPath, err)
	}

	var changes []Change
	for _, dir := range dirs {
		stats.Folders++
		change, err := u.UpdateFolder(dir)
		switch {
		case err != nil:
			log.Printf("Error processing %s: %v", dir, err)
			stats.Errors++
		case change != nil:
			stats.Updated++
			changes = append(changes, *change)
		default:
			stats.Unchanged++
		}
	}
	return stats, changes, nil
}

// Status classifies a section during diagnosis.
type Status string

const (
	StatusMatch         Status = "match"
	StatusMismatch      Status = "mismatch"
	StatusOrphan        Status = "manifest-without-files"
	StatusEmpty         Status = "empty"
	StatusMissingFolder Status = "missing-folder"
	StatusBadManifest   Status = "unreadable-manifest"
)

// Diagnosis is the comparison result for one section folder.
type Diagnosis struct {
	Key      string   `json:"key"`
	Status   Status   `json:"status"`
	Actual   []string `json:"actual"`
	Manifest []string `json:"manifest"`
}

// Report is the whole diagnosis.
type Report struct {
	Sections      []Diagnosis `json:"sections"`
	ActualFiles   int         `json:"actualFiles"`
	ManifestFiles int         `json:"manifestFiles"`
}

// Mismatched lists the keys whose manifest disagrees with the folder.
func (r Report) Mismatched() []string {
	var keys []string
	for _, d := range r.Sections {
		if d.Status == StatusMismatch {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

// Diagnose compares every section folder named by s with its manifest.
func Diagnose(bookPath string, s *book.Structure) Report {
	var r Report
	if s == nil {
		return r
	}
	for _, ch := range s.Chapters {
		for _, sec := range ch.Sections {
			d := Diagnosis{Key: ch.ID + "-" + sec.ID, Actual: []string{}, Manifest: []string{}}
			dir := filepath.Join(bookPath, ch.ID, sec.ID)
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				d.Status = StatusMissingFolder
				r.Sections = append(r.Sections, d)
				continue
			}

			actual, err := AudioFilesIn(dir)
			if err != nil {
				log.Printf("Could not list %s: %v", dir, err)
			} else {
				d.Actual = actual
			}
			manifest, err := ReadManifest(dir)
			d.Manifest = manifest
			r.ActualFiles += len(d.Actual)
			r.ManifestFiles += len(d.Manifest)

			switch {
			case err != nil:
				d.Status = StatusBadManifest
			case len(d.Actual) > 0 && sameSet(d.Actual, d.Manifest):
				d.Status = StatusMatch
			case len(d.Actual) > 0:
				d.Status = StatusMismatch
			case len(d.Manifest) > 0:
				d.Status = StatusOrphan
			default:
				d.Status = StatusEmpty
			}
			r.Sections = append(r.Sections, d)
		}
	}
	return r
}
