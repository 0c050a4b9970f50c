package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kidbloom/internal/model"
	"kidbloom/internal/service/excel"
)

func newTemplateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template <collection>",
		Short: "Write the import template of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, err := model.ParseCollection(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				output = excel.TemplateFilename(collection)
			}

			wb, err := excel.NewTemplateWorkbook(collection)
			if err != nil {
				return err
			}
			defer wb.Close()

			if err := wb.SaveAs(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: the template's standard name)")
	return cmd
}
