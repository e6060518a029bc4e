package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	tableprof "github.com/studioevoque/tableprof"
	"github.com/studioevoque/tableprof/profile"
	"github.com/studioevoque/tableprof/profile/sketch"
)

// config holds the environment-supplied defaults; flags override them.
type config struct {
	Workers          int     `env:"TABLEPROF_WORKERS"`
	BatchSize        int     `env:"TABLEPROF_BATCH_SIZE" envDefault:"1024"`
	HLLPrecision     int     `env:"TABLEPROF_HLL_PRECISION" envDefault:"14"`
	QuantileAccuracy float64 `env:"TABLEPROF_QUANTILE_ACCURACY" envDefault:"0.01"`
	FrequentItems    int     `env:"TABLEPROF_FREQUENT_ITEMS" envDefault:"32"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Error("invalid environment", "error", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:          "tableprof",
		Short:        "Profile tabular datasets into mergeable statistical summaries",
		SilenceUsage: true,
	}

	root.AddCommand(
		profileCmd(logger, &cfg),
		mergeCmd(),
		showCmd(),
		recommendCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func profileCmd(logger *slog.Logger, cfg *config) *cobra.Command {
	var (
		output      string
		format      string
		compression string
		delimiter   string
		noHeader    bool
		include     []string
		exclude     []string
		dbURL       string
		dbQuery     string
	)

	cmd := &cobra.Command{
		Use:   "profile [file]",
		Short: "Profile a CSV or Parquet file, or a SQL query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &tableprof.Request{
				Format:      format,
				Compression: compression,
				Delimiter:   delimiter,
				NoHeader:    noHeader,
				Workers:     cfg.Workers,
				BatchSize:   cfg.BatchSize,
				Include:     include,
				Exclude:     exclude,
				Sketch: sketch.Config{
					HLLPrecision:     cfg.HLLPrecision,
					QuantileAccuracy: cfg.QuantileAccuracy,
					FrequentItems:    cfg.FrequentItems,
				},
				Logger: logger,
			}

			if len(args) > 0 {
				req.Path = args[0]
			}

			ctx := context.Background()

			p, err := runProfile(ctx, req, dbURL, dbQuery)
			if err != nil {
				return err
			}

			if output == "" {
				return printJSON(cmd, p.Summary())
			}

			return tableprof.Save(output, p)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the profile to this file instead of printing a summary.")
	cmd.Flags().StringVar(&format, "format", "", "Input format: csv or parquet. Detected from the path when empty.")
	cmd.Flags().StringVar(&compression, "compression", "", "Compression used: gzip or bzip2.")
	cmd.Flags().StringVar(&delimiter, "csv.delim", ",", "CSV delimiter.")
	cmd.Flags().BoolVar(&noHeader, "csv.noheader", false, "No CSV header present.")
	cmd.Flags().StringSliceVar(&include, "include", nil, "Columns to explicitly include.")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Columns to exclude.")
	cmd.Flags().StringVar(&dbURL, "db", "", "Database URL. Profiles a query result instead of a file.")
	cmd.Flags().StringVar(&dbQuery, "query", "", "Query to profile when --db is set.")

	return cmd
}

func runProfile(ctx context.Context, req *tableprof.Request, dbURL, dbQuery string) (*profile.DatasetProfile, error) {
	if dbURL != "" {
		if dbQuery == "" {
			return nil, fmt.Errorf("--query is required with --db")
		}

		db, err := sql.Open("postgres", dbURL)
		if err != nil {
			return nil, fmt.Errorf("cannot open db connection: %w", err)
		}
		defer db.Close()

		return tableprof.ProfileQuery(ctx, db, dbQuery, req)
	}

	return tableprof.Profile(ctx, req)
}

func mergeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge <profile>...",
		Short: "Merge partial profiles into one",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged, err := tableprof.Load(args[0])
			if err != nil {
				return err
			}

			for _, path := range args[1:] {
				p, err := tableprof.Load(path)
				if err != nil {
					return err
				}

				merged, err = merged.Merge(p)
				if err != nil {
					return fmt.Errorf("merging %s: %w", path, err)
				}
			}

			if output == "" {
				return printJSON(cmd, merged.Summary())
			}

			return tableprof.Save(output, merged)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the merged profile to this file.")

	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <profile>",
		Short: "Print a profile's per-feature statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := tableprof.Load(args[0])
			if err != nil {
				return err
			}

			return printJSON(cmd, map[string]any{
				"session_id":   p.SessionID,
				"timestamp":    p.Timestamp,
				"num_examples": p.NumExamples,
				"size_bytes":   p.SizeBytes,
				"features":     p.Summary(),
			})
		},
	}
}

func recommendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend <profile>",
		Short: "Recommend ML feature types from a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := tableprof.Load(args[0])
			if err != nil {
				return err
			}

			return printJSON(cmd, tableprof.Recommend(p))
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
