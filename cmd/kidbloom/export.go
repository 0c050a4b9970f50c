package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kidbloom/internal/config"
	"kidbloom/internal/exporter"
	"kidbloom/internal/model"
	"kidbloom/internal/store"
)

func newExportCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <collection>",
		Short: "Write every record of a collection to a workbook that can be imported again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, err := model.ParseCollection(args[0])
			if err != nil {
				return err
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

			exp := exporter.NewExporter(st)
			if output == "" {
				path, n, err := exp.SaveSnapshot(cmd.Context(), collection, config.ExportsDir(cfg))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", n, path)
				return nil
			}

			wb, n, err := exp.Export(cmd.Context(), exporter.ExportOptions{
				Collection: collection,
				Progress: func(ev exporter.ProgressEvent) {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %3d%% %s\n", ev.Percent, ev.Stage)
				},
			})
			if err != nil {
				return err
			}
			defer wb.Close()
			if err := wb.SaveAs(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", n, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: a timestamped file in the exports directory)")
	return cmd
}
