// Command rowloader wires a field-mapping schema, a CSV row source and a
// MongoDB connection together end-to-end, exercising every package in
// this module the way a real ETL step would.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "rowloader: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "rowloader",
		Short: "Load CSV rows into MongoDB through a declarative field-mapping schema",
		Example: `rowloader --schema schema.yaml --columns columns.yaml --rows data.csv --mongo-url mongodb://localhost:27017/app
rowloader --schema schema.yaml --columns columns.yaml --rows data.csv --mongo-url mongodb://localhost:27017/app --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.SchemaPath, "schema", "", "path to the field-mapping schema YAML file (required)")
	flags.StringVar(&opts.ColumnsPath, "columns", "", "path to the CSV column-type YAML file (required)")
	flags.StringVar(&opts.RowsPath, "rows", "", "path to the CSV row file (required)")
	flags.StringVar(&opts.MongoURL, "mongo-url", "", "MongoDB connection URL (required unless --dry-run)")
	flags.IntVar(&opts.Workers, "workers", 4, "number of rows to process concurrently")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "build documents without connecting to MongoDB")
	for _, name := range []string{"schema", "columns", "rows"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

type runOptions struct {
	SchemaPath  string
	ColumnsPath string
	RowsPath    string
	MongoURL    string
	Workers     int
	DryRun      bool
}
