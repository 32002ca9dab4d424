// settings.go
//
// Collaborative state service and content pipeline for the chapter viewer
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of chapterviewer.
// chapterviewer is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// chapterviewer is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with chapterviewer.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/localnerve/chapterviewer/internal/book"
	"github.com/localnerve/chapterviewer/internal/characters"
)

const defaultSettingsFile = "bookctl.toml"

// settings is the bookctl.toml document. Flags override it.
type settings struct {
	BookPath string   `toml:"book_path"`
	Title    string   `toml:"title"`
	Source   string   `toml:"source"`
	ProxyURL string   `toml:"proxy_url"`
	MinLines int      `toml:"min_lines"`
	Known    []string `toml:"known"`
}

func defaultSettings() settings {
	return settings{
		BookPath: "book1",
		Title:    book.DefaultTitle,
		MinLines: characters.DefaultMinLines,
		Known:    append([]string(nil), characters.Known...),
	}
}

// loadSettings reads path over the defaults. A missing default file is not an
// error; a missing file named on the command line is.
func loadSettings(path string) (settings, error) {
	s := defaultSettings()
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = defaultSettingsFile
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return s.withEnv(), nil
		}
		return s, fmt.Errorf("open settings %s: %w", path, err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if s.MinLines <= 0 {
		s.MinLines = characters.DefaultMinLines
	}
	if len(s.Known) == 0 {
		s.Known = append([]string(nil), characters.Known...)
	}
	return s.withEnv(), nil
}

// withEnv fills unset locations from the server environment.
func (s settings) withEnv() settings {
	if dir := os.Getenv("BOOK_DIR"); dir != "" && (s.BookPath == "" || s.BookPath == "book1") {
		s.BookPath = dir
	}
	if s.ProxyURL == "" {
		s.ProxyURL = os.Getenv("GITHUB_PROXY_URL")
	}
	return s
}

// sourceLocation is the site root the book folder lives in, unless set.
func (s settings) sourceLocation() string {
	if s.Source != "" {
		return s.Source
	}
	return filepath.Dir(filepath.Clean(s.BookPath))
}

// bookRoot is the folder name of the book under the site root.
func (s settings) bookRoot() string {
	return filepath.Base(filepath.Clean(s.BookPath))
}
