package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"borrower-etl/apperrors"
	"borrower-etl/config"
	"borrower-etl/pipeline"
	"borrower-etl/utils"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X borrower-etl/cli.Version=..."
var Version = "dev"

// NewRootCommand builds the borrower-etl command. Every flag is optional;
// unset flags fall back to environment, config file, then defaults.
func NewRootCommand(stdout io.Writer) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "borrower-etl",
		Short: "Load a borrower file into SQL and report on repayment",
		Long: `borrower-etl reads a borrower file (CSV, TSV or XLSX), normalizes phone
numbers, amounts, rates and dates, replaces the "borrowers" table with the
result and writes four fixed aggregates to a text report:

  a. average loan amount of borrowers with 5 or fewer days left on their EMI
  b. top 10 borrowers by loan amount
  c. borrowers with no delayed payment
  d. count, average amount and average rate per loan type

Environment variables use the ETL_ prefix, e.g. ETL_STORAGE_DSN.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := utils.NewLogger(utils.ParseLevel(cfg.Logger.Level))
			p := pipeline.New(cfg, logger, pipeline.WithConsole(stdout))

			_, err = p.Run(cmd.Context())
			if errors.Is(err, apperrors.ErrNotFound) {
				logger.Error("Input file not found at %s, nothing was loaded or reported", cfg.Input.Path)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default ./etl.yaml if present)")
	flags.StringP("input", "i", "", "borrower file to read (.csv, .tsv or .xlsx)")
	flags.String("delimiter", "", "field separator for delimited input (default \",\")")
	flags.String("driver", "", "storage driver: sqlite, postgres or pgx (default \"sqlite\")")
	flags.String("db", "", "database file name or connection string (default \"debt_collection.db\")")
	flags.StringP("output", "o", "", "report file (default \"analysis_results.txt\")")
	flags.String("log-level", "", "debug, info, warn or error (default \"info\")")
	flags.String("metrics-file", "", "write Prometheus metrics to this file after a successful run")

	return cmd
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand(os.Stdout)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
