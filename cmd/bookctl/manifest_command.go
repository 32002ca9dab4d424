package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/localnerve/chapterviewer/internal/book"
	"github.com/localnerve/chapterviewer/internal/manifest"
)

func newManifestCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Maintain the audio manifests of the section folders",
	}
	cmd.AddCommand(newManifestUpdateCommand(ctx))
	cmd.AddCommand(newManifestDiagnoseCommand(ctx))
	return cmd
}

func newManifestUpdateCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Rewrite audio_manifest.json from the clips present in each folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			progress := out
			if asJSON {
				progress = nil
			}
			stats, changes, err := manifest.NewUpdater(s.BookPath, dryRun, progress).Run()
			if errors.Is(err, manifest.ErrLocked) {
				return fmt.Errorf("%s: another update holds the lock", s.BookPath)
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					DryRun  bool                 `json:"dryRun"`
					Stats   manifest.UpdateStats `json:"stats"`
					Changes []manifest.Change    `json:"changes"`
				}{dryRun, stats, changes})
			}

			if len(changes) > 0 {
				rows := make([][]string, 0, len(changes))
				for _, c := range changes {
					rows = append(rows, []string{
						c.Folder,
						strconv.Itoa(len(c.Current)),
						strconv.Itoa(len(c.Proposed)),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Folder", "Current", "Proposed"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignRight}))
			}
			verb := "updated"
			if dryRun {
				verb = "would update"
			}
			fmt.Fprintf(out, "%d folders: %s %d, unchanged %d, errors %d\n",
				stats.Folders, verb, stats.Updated, stats.Unchanged, stats.Errors)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without writing manifests")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func newManifestDiagnoseCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Compare every section manifest with the clips in its folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			structure, err := book.Scan(s.BookPath, s.Title)
			if err != nil {
				return err
			}
			report := manifest.Diagnose(s.BookPath, structure)
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			colorize := shouldColorize(out)
			var rows [][]string
			for _, d := range report.Sections {
				if !all && d.Status == manifest.StatusMatch {
					continue
				}
				rows = append(rows, []string{
					d.Key,
					paint(string(d.Status), statusColor(d.Status), colorize),
					strconv.Itoa(len(d.Actual)),
					strconv.Itoa(len(d.Manifest)),
				})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Section", "Status", "Files", "Manifest"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight}))
			}
			fmt.Fprintf(out, "%d sections, %d clips on disk, %d in manifests\n",
				len(report.Sections), report.ActualFiles, report.ManifestFiles)
			if bad := report.Mismatched(); len(bad) > 0 {
				fmt.Fprintf(out, "Mismatched: %s\n", strings.Join(bad, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include matching sections")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func statusColor(st manifest.Status) text.Color {
	switch st {
	case manifest.StatusMatch:
		return text.FgGreen
	case manifest.StatusMismatch, manifest.StatusBadManifest:
		return text.FgRed
	default:
		return text.FgYellow
	}
}
