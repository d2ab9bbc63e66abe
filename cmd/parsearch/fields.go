package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vegasq/parsearch/output"
	"github.com/vegasq/parsearch/reader"
)

func newFieldsCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "fields <source>",
		Short: "List the queryable fields of a data source and their conditions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := output.New(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			catalog := a.cfg.Catalog()
			ref, err := resolveSource(catalog, args[0])
			if err != nil {
				return err
			}
			registry, err := reader.NewParquetSource(catalog).Registry(ref)
			if err != nil {
				return err
			}

			t := &output.Table{Columns: []string{"name", "type", "conditions"}}
			for _, f := range registry.Fields() {
				conditions := make([]string, len(f.Conditions))
				for i, c := range f.Conditions {
					conditions[i] = string(c)
				}
				t.Rows = append(t.Rows, []interface{}{f.Name, string(f.Type), strings.Join(conditions, " ")})
			}
			t.Total = int64(len(t.Rows))
			return formatter.Format(t)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: "+strings.Join(output.Formats, ", "))
	return cmd
}
