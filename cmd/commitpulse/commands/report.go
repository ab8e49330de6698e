// Package commands implements the commitpulse CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/commitpulse/internal/aggregate"
	"github.com/Sumatoshi-tech/commitpulse/internal/alias"
	"github.com/Sumatoshi-tech/commitpulse/internal/config"
	"github.com/Sumatoshi-tech/commitpulse/internal/fetch"
	"github.com/Sumatoshi-tech/commitpulse/internal/report"
	"github.com/Sumatoshi-tech/commitpulse/internal/trend"
	"github.com/Sumatoshi-tech/commitpulse/pkg/observability"
	"github.com/Sumatoshi-tech/commitpulse/pkg/version"
)

const (
	reportCmdUse   = "report"
	reportCmdShort = "Fetch contributor activity and render reports"

	outputDirPerm = 0o750

	// reportBaseName is the output file name without extension.
	reportBaseName = "activity-report"
)

// reportFlags holds the command-line overrides for the report run.
type reportFlags struct {
	configPath string
	formats    []string
	outputDir  string
	verbose    bool
	quiet      bool
	logJSON    bool
}

// NewReportCommand creates the report subcommand.
func NewReportCommand() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   reportCmdUse,
		Short: reportCmdShort,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "config file path")
	cmd.Flags().StringSliceVarP(&flags.formats, "format", "f", nil,
		"output formats, overrides config ("+strings.Join(report.Formats(), ", ")+")")
	cmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "output directory, overrides config")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "warnings and errors only")
	cmd.Flags().BoolVar(&flags.logJSON, "log-json", false, "emit logs as JSON")

	return cmd
}

func runReport(ctx context.Context, flags reportFlags) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return err
	}

	applyOverrides(cfg, flags)

	providers, err := observability.Init(observability.Config{
		ServiceName:    "commitpulse",
		ServiceVersion: version.Version,
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:       logLevel(flags.verbose, flags.quiet),
		LogJSON:        flags.logJSON,
	})
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown failed", "error", shutdownErr)
		}
	}()

	logger := providers.Logger
	slog.SetDefault(logger)

	data, err := collect(ctx, cfg, logger)
	if err != nil {
		return err
	}

	return render(cfg, data, logger)
}

func applyOverrides(cfg *config.Config, flags reportFlags) {
	if len(flags.formats) > 0 {
		cfg.Report.Formats = flags.formats
	}

	if flags.outputDir != "" {
		cfg.Report.OutputDir = flags.outputDir
	}
}

func logLevel(verbose, quiet bool) slog.Level {
	switch {
	case quiet:
		return slog.LevelWarn
	case verbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func collect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (report.Data, error) {
	table, err := alias.LoadFile(cfg.Aliases.Path)
	if err != nil {
		return report.Data{}, err
	}

	stats := table.Summary()
	logger.Info("alias table loaded",
		"canonical_authors", stats.CanonicalAuthors, "total_aliases", stats.TotalAliases)

	cache, err := fetch.NewCache(cfg.Fetch.CacheDir, 0, logger)
	if err != nil {
		return report.Data{}, fmt.Errorf("init cache: %w", err)
	}

	client := fetch.NewClient(fetch.Options{
		Token:  cfg.GitHub.Token,
		Cache:  cache,
		Logger: logger,
	})

	service := fetch.NewService(client, table, logger)

	engine, err := service.Collect(ctx, fetch.Request{
		Owner:         cfg.GitHub.Owner,
		Repos:         cfg.GitHub.Repos,
		Weeks:         cfg.Fetch.Weeks,
		Workers:       cfg.Fetch.Workers,
		CommitDetails: cfg.Fetch.CommitDetails,
	})
	if err != nil {
		return report.Data{}, err
	}

	engine.Finalize()

	snap := engine.Snapshot()
	dropSkippedAuthors(&snap, cfg.Report.SkipAuthors)

	return report.Data{
		Snapshot:    snap,
		Trends:      trend.Summarize(snap),
		GeneratedAt: time.Now().UTC(),
		Owner:       cfg.GitHub.Owner,
		Repos:       cfg.GitHub.Repos,
		Weeks:       cfg.Fetch.Weeks,
		TopAuthors:  cfg.Report.TopAuthors,
	}, nil
}

// dropSkippedAuthors removes configured authors (bots, mirrors) from the
// snapshot before trends are derived. Matching is case-insensitive against
// the canonical name.
func dropSkippedAuthors(snap *aggregate.Snapshot, skip []string) {
	if len(skip) == 0 {
		return
	}

	skipSet := make(map[string]struct{}, len(skip))
	for _, name := range skip {
		skipSet[strings.ToLower(name)] = struct{}{}
	}

	for author := range snap.Aggregates {
		if _, skipped := skipSet[strings.ToLower(author)]; skipped {
			delete(snap.Aggregates, author)
		}
	}
}

func render(cfg *config.Config, data report.Data, logger *slog.Logger) error {
	err := os.MkdirAll(cfg.Report.OutputDir, outputDirPerm)
	if err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, format := range cfg.Report.Formats {
		renderer, newErr := report.New(format)
		if newErr != nil {
			return newErr
		}

		// The table format is a terminal summary, not a file artifact.
		if format == report.FormatTable {
			renderErr := renderer.Render(data, os.Stdout)
			if renderErr != nil {
				return renderErr
			}

			continue
		}

		path := filepath.Join(cfg.Report.OutputDir, reportBaseName+report.Extension(format))

		writeErr := renderToFile(renderer, data, path)
		if writeErr != nil {
			return writeErr
		}

		logger.Info("report written", "format", format, "path", path)
	}

	return nil
}

func renderToFile(renderer report.Renderer, data report.Data, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	renderErr := renderer.Render(data, f)
	closeErr := f.Close()

	if renderErr != nil {
		return renderErr
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}

	return nil
}
