package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"gocorr/adapters/excel"
	"gocorr/adapters/rng"
	"gocorr/adapters/stats/engine"
	"gocorr/app"
	"gocorr/domain/correlation"
	"gocorr/internal/report"
	"gocorr/ports"
)

func newCorrelateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correlate <file.csv|file.xlsx>",
		Short: "Correlate the columns of a CSV or Excel file",
		Long: `Correlate every pair of eligible columns of a CSV or Excel file.

Example: gocorr correlate survey.xlsx --method spearman --group-by site --format markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := c.cfg.ColumnTypes()
			if err != nil {
				return err
			}
			reader := excel.NewDataReader(excel.Config{
				Path:     args[0],
				Sheet:    c.cfg.Data.Sheet,
				Types:    types,
				Coercion: c.cfg.Data.Coercion,
			}, c.logger)
			return c.run(cmd.Context(), reader)
		},
	}
	addAnalysisFlags(cmd.Flags())
	cmd.Flags().String("sheet", "", "worksheet of an Excel file (default first sheet)")
	return cmd
}

// run executes one request and renders it to stdout
func (c *cli) run(ctx context.Context, reader ports.DatasetReader) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	opts, err := c.cfg.Options()
	if err != nil {
		return err
	}
	value, err := correlation.ParseMatrixValue(c.cfg.Output.Value)
	if err != nil {
		return err
	}

	svc := app.NewCorrelationService(engine.New(rng.New(), c.logger), c.logger)
	res, err := svc.Run(ctx, app.CorrelationRequest{Reader: reader, Options: opts})
	if err != nil {
		return err
	}
	return report.Write(c.out, res.Table, report.Options{
		Format: report.Format(c.cfg.Output.Format),
		Digits: c.cfg.Output.Digits,
		Value:  value,
	})
}
