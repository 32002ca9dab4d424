package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disiqueira/gotree/v3"
	"github.com/spf13/cobra"

	"github.com/localnerve/chapterviewer/internal/book"
)

func newStructureCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "structure",
		Short: "Work with the book structure document",
	}
	cmd.AddCommand(newStructureGenerateCommand(ctx))
	return cmd
}

func newStructureGenerateCommand(ctx *commandContext) *cobra.Command {
	var outFlag string
	var titleFlag string
	var tree bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Scan the book folder and write book-structure.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			title := s.Title
			if titleFlag != "" {
				title = titleFlag
			}
			structure, err := book.Scan(s.BookPath, title)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if tree {
				fmt.Fprint(out, structureTree(structure))
				return nil
			}

			raw, err := json.MarshalIndent(structure, "", "  ")
			if err != nil {
				return err
			}
			raw = append(raw, '\n')
			if outFlag == "-" {
				_, err = out.Write(raw)
				return err
			}
			target := outFlag
			if target == "" {
				target = filepath.Join(s.sourceLocation(), book.StructureDocument)
			}
			if err := os.WriteFile(target, raw, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}
			sections := 0
			for _, ch := range structure.Chapters {
				sections += len(ch.Sections)
			}
			fmt.Fprintf(out, "Wrote %s: %d chapters, %d sections\n", target, len(structure.Chapters), sections)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output file, - for stdout (default <site>/book-structure.json)")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Book title")
	cmd.Flags().BoolVar(&tree, "tree", false, "Print the structure as a tree instead of writing it")
	return cmd
}

func structureTree(s *book.Structure) string {
	root := gotree.New(s.Title)
	for _, ch := range s.Chapters {
		chNode := root.Add(fmt.Sprintf("%s  %s", ch.ID, ch.Title))
		for _, sec := range ch.Sections {
			label := fmt.Sprintf("%s  %s", sec.ID, sec.Title)
			if sec.AudioFile == nil {
				label += "  (no audio)"
			}
			chNode.Add(label)
		}
	}
	return root.Print()
}
