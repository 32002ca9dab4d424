package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/localnerve/chapterviewer/internal/characters"
)

func newCharactersCommand(ctx *commandContext) *cobra.Command {
	var minLines int
	var outFlag string
	var list bool

	cmd := &cobra.Command{
		Use:   "characters",
		Short: "Index the speakers of every section into section-characters.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("min-lines") {
				minLines = s.MinLines
			}
			idx, err := characters.Analyze(s.BookPath, s.Known, minLines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				rows := make([][]string, 0, idx.Len())
				for _, key := range idx.SortedKeys() {
					chapter, section, _ := strings.Cut(key, "/")
					rows = append(rows, []string{key, strings.Join(idx.Characters(chapter, section), ", ")})
				}
				fmt.Fprintln(out, renderTable([]string{"Section", "Speakers"}, rows, nil))
			}

			raw, err := idx.MarshalJSON()
			if err != nil {
				return err
			}
			if outFlag == "-" {
				_, err = fmt.Fprintln(out, string(raw))
				return err
			}
			target := outFlag
			if target == "" {
				target = filepath.Join(s.sourceLocation(), characters.Document)
			}
			if err := os.WriteFile(target, append(raw, '\n'), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}
			fmt.Fprintf(out, "Wrote %s: %d sections with speakers\n", target, idx.Len())
			return nil
		},
	}

	cmd.Flags().IntVar(&minLines, "min-lines", characters.DefaultMinLines, "Lines a speaker needs to count in a section")
	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output file, - for stdout (default <site>/section-characters.json)")
	cmd.Flags().BoolVar(&list, "list", false, "Also print the index as a table")
	return cmd
}
