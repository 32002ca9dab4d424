// todo_command.go
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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/localnerve/chapterviewer/internal/backend"
	"github.com/localnerve/chapterviewer/internal/collab"
	"github.com/localnerve/chapterviewer/internal/reader"
	"github.com/localnerve/chapterviewer/internal/source"
)

func newTodoCommand(ctx *commandContext) *cobra.Command {
	var sourceFlag string
	var proxyFlag string
	var recent int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "todo",
		Short: "Show the section grid with clip counts and to-do status",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			if sourceFlag != "" {
				s.Source = sourceFlag
			}
			if proxyFlag != "" {
				s.ProxyURL = proxyFlag
			}

			var kv backend.KeyValue = backend.NewMemory()
			if s.ProxyURL != "" {
				kv = backend.NewProxyClient(s.ProxyURL, nil)
			}
			session := reader.New(reader.Config{BookRoot: s.bookRoot(), Collab: collab.DefaultConfig()},
				source.New(s.sourceLocation(), nil), kv)

			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}
			if err := session.Open(runCtx); err != nil {
				return err
			}
			defer func() { _ = session.Close(context.Background()) }()

			grid, err := session.TodoGrid()
			if err != nil {
				return err
			}
			var changes []reader.RecentChange
			if recent > 0 {
				changes = session.RecentChanges(recent)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Grid   reader.TodoGrid       `json:"grid"`
					Recent []reader.RecentChange `json:"recent,omitempty"`
				}{grid, changes})
			}

			renderTodoGrid(out, grid, shouldColorize(out))
			if len(changes) > 0 {
				rows := make([][]string, 0, len(changes))
				for _, c := range changes {
					rows = append(rows, []string{c.Ago, string(c.Kind), c.Path, c.Comment})
				}
				fmt.Fprintln(out, renderTable([]string{"When", "Kind", "File", "Comment"}, rows, nil))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "", "Site folder or URL serving the book documents")
	cmd.Flags().StringVar(&proxyFlag, "proxy", "", "State proxy endpoint (default in-memory state)")
	cmd.Flags().IntVar(&recent, "recent", 0, "Also list this many recent marks and comments")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the grid as JSON")
	return cmd
}

func renderTodoGrid(out io.Writer, grid reader.TodoGrid, colorize bool) {
	headers := make([]string, 0, len(grid.Columns)+1)
	headers = append(headers, "")
	aligns := []columnAlignment{alignLeft}
	for _, col := range grid.Columns {
		headers = append(headers, col.ID)
		aligns = append(aligns, alignRight)
	}

	rows := make([][]string, 0, len(grid.Rows))
	for _, r := range grid.Rows {
		row := []string{r.Section}
		for _, cell := range r.Cells {
			row = append(row, todoCell(cell, colorize))
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	fmt.Fprintln(out, grid.Summary())
}

func todoCell(cell reader.GridCell, colorize bool) string {
	if !cell.Exists {
		return ""
	}
	label := strconv.Itoa(len(cell.Files))
	switch cell.Status {
	case collab.TodoDone:
		return paint(label+" ✓", text.FgGreen, colorize)
	case collab.TodoInProgress:
		return paint(label+" …", text.FgYellow, colorize)
	default:
		return label
	}
}
