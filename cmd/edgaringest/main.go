package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oakline-data/edgaringest/internal/config"
	"github.com/oakline-data/edgaringest/internal/edgarmodel"
	"github.com/oakline-data/edgaringest/internal/fetcher"
	"github.com/oakline-data/edgaringest/internal/fiscal"
	"github.com/oakline-data/edgaringest/internal/locator"
	"github.com/oakline-data/edgaringest/internal/orchestrator"
	"github.com/oakline-data/edgaringest/internal/sink"
	"github.com/oakline-data/edgaringest/internal/supervisor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "edgaringest",
	Short: "Fetches, parses, and serializes SEC EDGAR filings for LLM consumption",
	Long:  "Walks a ticker's 10-K/10-Q/20-F history, extracts XBRL facts and narrative text, attributes each filing to a fiscal year/period, and commits one artifact per filing to a sink.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if v, _ := cmd.Flags().GetString("email"); v != "" {
			cfg.Fetcher.Contact = v
		}
		if v, _ := cmd.Flags().GetBool("skip-upload"); v {
			cfg.Sink.SkipUpload = v
		}
		if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
			cfg.Run.Workers = v
		}

		logger, err := config.InitLogger(cfg.Log)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		zap.ReplaceGlobals(logger)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("email", "", "contact email for the SEC User-Agent header (or EDGAR_FETCHER_CONTACT)")
	rootCmd.PersistentFlags().Bool("skip-upload", false, "write artifacts to a local directory instead of the configured sink")
	rootCmd.PersistentFlags().Int("workers", 0, "concurrent ticker workers, 1-5 (default from config, normally 3)")
	_ = viper.BindPFlag("fetcher.contact", rootCmd.PersistentFlags().Lookup("email"))

	rootCmd.AddCommand(ingestCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the ingest pipeline for one or more tickers",
	RunE:  runIngest,
}

var (
	tickersFlag []string
	tickerFlag  []string
	filingTypes []string
	startYear   int
	endYear     int
)

func init() {
	ingestCmd.Flags().StringSliceVar(&tickersFlag, "tickers", nil, "comma-separated ticker symbols")
	ingestCmd.Flags().StringArrayVar(&tickerFlag, "ticker", nil, "a ticker symbol; repeatable")
	ingestCmd.Flags().StringArrayVar(&filingTypes, "filing-type", []string{"10-K", "10-Q"}, "SEC form types to ingest; repeatable")
	ingestCmd.Flags().IntVar(&startYear, "start-year", 0, "only filings filed in or after this year")
	ingestCmd.Flags().IntVar(&endYear, "end-year", 0, "only filings filed in or before this year")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	tickers := append(append([]string{}, tickersFlag...), tickerFlag...)
	if len(tickers) == 0 {
		return fmt.Errorf("at least one --ticker or --tickers is required")
	}

	logger := zap.L()

	f, err := fetcher.New(fetcher.Config{
		Organization: cfg.Fetcher.Organization,
		Contact:      cfg.Fetcher.Contact,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("build fetcher: %w", err)
	}

	registry, err := fiscal.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		return fmt.Errorf("load fiscal registry: %w", err)
	}

	sk, err := buildSink(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("build sink: %w", err)
	}

	orc := orchestrator.New(locator.New(f), f, registry, sk, logger)
	sup := supervisor.New(orc, cfg.Run.Workers, logger)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := orchestrator.Options{
		FilingTypes: parseFilingTypes(filingTypes),
		StartYear:   startYear,
		EndYear:     endYear,
	}

	report := sup.Run(ctx, tickers, opts)
	fmt.Print(report.Format())

	if len(report.Errors()) > 0 {
		os.Exit(1)
	}
	return nil
}

func parseFilingTypes(raw []string) []edgarmodel.FilingType {
	types := make([]edgarmodel.FilingType, 0, len(raw))
	for _, r := range raw {
		types = append(types, edgarmodel.FilingType(r))
	}
	return types
}

// buildSink wires the configured LocalSink or the Postgres-metadata
// variant depending on --skip-upload.
func buildSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (sink.Sink, error) {
	local := sink.NewLocalSink(cfg.Sink.LocalDir)
	if cfg.Sink.SkipUpload || cfg.Sink.DatabaseURL == "" {
		return local, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Sink.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect metadata database: %w", err)
	}
	return sink.NewPostgresMetadataSink(local, pool, logger), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
