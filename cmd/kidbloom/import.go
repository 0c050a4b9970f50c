package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"kidbloom/internal/config"
	"kidbloom/internal/exporter"
	"kidbloom/internal/importer"
	"kidbloom/internal/model"
	"kidbloom/internal/store"
)

func newImportCmd(opts *globalOptions) *cobra.Command {
	var (
		mode       string
		yes        bool
		noSnapshot bool
	)

	cmd := &cobra.Command{
		Use:   "import <collection|auto> <file.xlsx>",
		Short: "Import a spreadsheet into a collection",
		Long: "Parses the first sheet of the workbook, prints a preview with row errors and,\n" +
			"after confirmation, adds the records to the collection or replaces it.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			importMode, err := model.ParseImportMode(mode)
			if err != nil {
				return err
			}
			var collection model.Collection
			if args[0] != "auto" {
				if collection, err = model.ParseCollection(args[0]); err != nil {
					return err
				}
			}

			cfg, _, _, err := opts.load()
			if err != nil {
				return err
			}
			if _, err := config.EnsureDataDir(cfg); err != nil {
				return err
			}
			st, err := store.New(config.DBPath(cfg))
			if err != nil {
				return err
			}
			defer st.Close()

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			run := importRun{
				filename:     filepath.Base(args[1]),
				reader:       f,
				collection:   collection,
				mode:         importMode,
				yes:          yes,
				previewLimit: cfg.Import.PreviewLimit,
				errorLimit:   cfg.Import.ErrorDisplayLimit,
			}
			if cfg.Import.SnapshotBeforeReplace && !noSnapshot {
				exp := exporter.NewExporter(st)
				run.snapshot = func(ctx context.Context, c model.Collection) (string, error) {
					path, _, err := exp.SaveSnapshot(ctx, c, config.ExportsDir(cfg))
					return path, err
				}
			}
			return runImport(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), importer.NewCoordinator(st, st), run)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "add", "add (append) or replace (delete every existing record first)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "commit without asking")
	cmd.Flags().BoolVar(&noSnapshot, "no-snapshot", false, "skip the export of the collection taken before a replace")
	return cmd
}

type importRun struct {
	filename     string
	reader       io.Reader
	collection   model.Collection
	mode         model.ImportMode
	yes          bool
	previewLimit int
	errorLimit   int
	// snapshot, when set, saves the collection before a replace deletes it
	snapshot func(ctx context.Context, c model.Collection) (string, error)
}

func runImport(ctx context.Context, out io.Writer, in io.Reader, coord *importer.Coordinator, run importRun) error {
	var (
		parsed  *importer.Parsed
		failure error
	)
	for ev := range coord.Parse(ctx, importer.ParseOptions{
		Filename:   run.filename,
		Reader:     run.reader,
		Collection: run.collection,
	}) {
		switch ev.Type {
		case "done":
			parsed, _ = ev.Data.(*importer.Parsed)
		case "error":
			failure = ev.Err
		default:
			fmt.Fprintf(out, "  %s\n", ev.Message)
		}
	}
	if failure != nil {
		return failure
	}

	pv := importer.Summarize(parsed, run.previewLimit, run.errorLimit)
	printPreview(out, pv)

	if pv.TotalRecords == 0 {
		fmt.Fprintln(out, "Nothing to import.")
		return importer.ErrEmptyBatch
	}

	if !run.yes {
		prompt := fmt.Sprintf("Add %d records to %s?", pv.TotalRecords, pv.Collection)
		if run.mode == model.ImportModeReplace {
			prompt = fmt.Sprintf("Delete every existing record in %s and insert %d new ones?", pv.Collection, pv.TotalRecords)
		}
		if !confirm(out, in, prompt) {
			fmt.Fprintln(out, "Import cancelled, nothing was written.")
			return nil
		}
	}

	if run.mode == model.ImportModeReplace && run.snapshot != nil {
		path, err := run.snapshot(ctx, parsed.Collection)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved the current %s to %s\n", parsed.Collection, path)
	}

	result, err := coord.Commit(ctx, parsed, run.mode)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %d records into %s (%s mode", result.Inserted, result.Collection, result.Mode)
	if result.Mode == model.ImportModeReplace.String() {
		fmt.Fprintf(out, ", %d removed", result.Deleted)
	}
	fmt.Fprintln(out, ").")
	return nil
}

func printPreview(out io.Writer, pv importer.Preview) {
	fmt.Fprintf(out, "%s: %d records, %d errors (%s)\n", pv.Filename, pv.TotalRecords, pv.TotalErrors, pv.Collection)
	for i, rec := range pv.Records {
		fmt.Fprintf(out, "  %2d. %s\n", i+1, recordLabel(rec))
	}
	if pv.TotalRecords > len(pv.Records) {
		fmt.Fprintf(out, "      ... and %d more\n", pv.TotalRecords-len(pv.Records))
	}
	for _, line := range pv.ErrorLines() {
		fmt.Fprintf(out, "  ! %s\n", line)
	}
}

func recordLabel(rec model.Record) string {
	switch r := rec.(type) {
	case model.ActivityRecord:
		return fmt.Sprintf("%s  %s  (%d pts)", r.ScheduledDate, r.Title, r.Points)
	case model.StoryMusicRecord:
		return fmt.Sprintf("[%s] %s", r.Type, r.Title)
	case model.ShopProductRecord:
		if r.Price.Valid {
			return fmt.Sprintf("%s  %s", r.Name, r.Price.Decimal.StringFixed(0))
		}
		return r.Name
	}
	return fmt.Sprintf("%v", rec)
}

func confirm(out io.Writer, in io.Reader, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
