package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"gocorr/domain/correlation"
)

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "methods",
		Short:       "List the correlation methods",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noConfig: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl := table.NewWriter()
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"Method", "Description", "Estimate", "Bayesian", "Factors"})
			for _, m := range correlation.Methods() {
				info := m.Info()
				tbl.AppendRow(table.Row{info.Name, info.Label, info.EstimateName, yes(info.Bayesian), yes(info.Nominal)})
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
			return err
		},
	}
}

func yes(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
