package main

import (
	"github.com/spf13/cobra"

	"gocorr/adapters/postgres"
	apperrors "gocorr/internal/errors"
)

func newQueryCmd(c *cli) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "query --dsn <url> --sql <query>",
		Short: "Correlate the result set of a PostgreSQL query",
		Long: `Correlate the columns returned by a SQL query. The DSN may also come
from GOCORR_DATABASE_URL or database.url in the config file.

Example: gocorr query --sql "SELECT age, income, region FROM survey" --include-factors`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Database.URL == "" {
				return apperrors.ConfigInvalid("database URL is required (--dsn or GOCORR_DATABASE_URL)", nil)
			}
			if query == "" {
				return apperrors.InvalidInput("--sql is required")
			}
			types, err := c.cfg.ColumnTypes()
			if err != nil {
				return err
			}

			db, err := postgres.Open(cmd.Context(), c.cfg.Database.URL)
			if err != nil {
				return apperrors.DatabaseError("failed to open database", err)
			}
			defer db.Close()

			return c.run(cmd.Context(), postgres.NewQueryReader(db, query, nil, types, c.logger))
		},
	}
	addAnalysisFlags(cmd.Flags())
	cmd.Flags().String("dsn", "", "PostgreSQL connection URL")
	cmd.Flags().StringVar(&query, "sql", "", "query whose columns are correlated")
	return cmd
}
