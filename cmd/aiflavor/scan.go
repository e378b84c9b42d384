package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nao1215/aiflavor/internal/config"
	"github.com/nao1215/aiflavor/internal/i18n"
	"github.com/nao1215/aiflavor/internal/log"
	"github.com/nao1215/aiflavor/internal/model"
	"github.com/nao1215/aiflavor/internal/pipeline"
	"github.com/nao1215/aiflavor/internal/report"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Score the AI flavor of one or more websites",
		Long: `Scan collects a snapshot of each page and scores its design from 0 to 100.

The score adds up five features:
- Large rounded corners (up to 25 points)
- Purple color scheme (up to 30 points)
- Gradient backgrounds (up to 20 points)
- Modern button styling (up to 15 points)
- AI-related keywords (up to 10 points)

A page that cannot be loaded scores 0 and is reported as failed; the other
targets of a batch are still scanned. Results are saved to the record
database unless --no-db is given.

Examples:
  # Scan a single site
  aiflavor scan example.com

  # Scan several sites, two at a time
  aiflavor scan -b 2 example.com example.org example.net

  # Scan the URLs listed in a file (one per line, # starts a comment)
  aiflavor scan --list urls.txt

  # Analyze the HTML and CSS without starting Chrome
  aiflavor scan --collector static example.com

  # Scan only the listed sites that were not scanned before
  aiflavor scan --skip-seen --list urls.txt

  # Write an HTML report card
  aiflavor scan --html -o report.html example.com

  # Output a Chinese JSON report
  aiflavor scan --lang zh-CN --json example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Target flags
	cmd.Flags().StringP("list", "l", "",
		"Read target URLs from a file, one per line (- reads standard input)")

	// Collection flags
	cmd.Flags().String("collector", config.CollectorBrowser,
		"How pages are collected: browser (headless Chrome) or static (HTML and CSS only)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Time limit for each page")
	cmd.Flags().Duration("settle-delay", config.DefaultSettleDelay,
		"Wait after the page body is ready before measuring (browser collector)")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")
	cmd.Flags().String("user-agent", "",
		"User-Agent header sent with requests")
	cmd.Flags().String("chrome-path", "",
		"Path to the Chrome or Chromium binary")
	cmd.Flags().Int("max-elements", config.DefaultMaxElements,
		"Maximum number of elements measured per page")

	// Batch scanning flags
	cmd.Flags().IntP("batch-size", "b", config.DefaultBatchSize,
		"Number of concurrent scans")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown and --html)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json and --html)")
	cmd.Flags().Bool("html", false,
		"Output an HTML report card (mutually exclusive with --json and --markdown)")
	cmd.Flags().StringP("report-file", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("color", true,
		"Color the text report by score when writing to a terminal")

	// Storage flags
	cmd.Flags().Bool("no-db", false,
		"Do not save results to the record database or the scan history")
	cmd.Flags().Bool("skip-seen", false,
		"Skip targets that were scanned successfully in an earlier run")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildScanConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	lang, err := resolveLanguage(cfg)
	if err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cmd, cfg, lang, logger)
}

// buildScanConfig creates a Config from the configuration file and the
// scan flags. Flags left at their defaults do not override the file.
func buildScanConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()

	if flags.Changed("collector") {
		if cfg.Collector, err = flags.GetString("collector"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("settle-delay") {
		if cfg.SettleDelay, err = flags.GetDuration("settle-delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("chrome-path") {
		if cfg.ChromePath, err = flags.GetString("chrome-path"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("batch-size") {
		if cfg.BatchSize, err = flags.GetInt("batch-size"); err != nil {
			return nil, err
		}
	}

	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxElements, err = flags.GetInt("max-elements"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.HTMLReport, err = flags.GetBool("html"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report-file"); err != nil {
		return nil, err
	}
	if cfg.Color, err = flags.GetBool("color"); err != nil {
		return nil, err
	}

	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	if cfg.SkipSeen, err = flags.GetBool("skip-seen"); err != nil {
		return nil, err
	}

	listFile, err := flags.GetString("list")
	if err != nil {
		return nil, err
	}
	cfg.Targets = append(cfg.Targets, args...)
	if listFile != "" {
		listed, err := readTargetList(cmd.InOrStdin(), listFile)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, listed...)
	}

	return cfg, nil
}

// readTargetList reads one target per line. Blank lines and lines starting
// with '#' are skipped. The path "-" reads from stdin.
func readTargetList(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
		if err != nil {
			return nil, fmt.Errorf("failed to open target list: %w", err)
		}
		defer f.Close()
		r = f
	}

	var targets []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}
	return targets, nil
}

// newLogger creates the secure logger on stderr. JSON reports get JSON logs.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	if cfg.JSONReport {
		return log.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	return log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
}

// runScan executes the scan and writes the report.
func runScan(ctx context.Context, cmd *cobra.Command, cfg *config.Config, lang i18n.Language, logger *slog.Logger) error {
	logger.Info("starting scan",
		"targets", len(cfg.Targets),
		"collector", cfg.Collector,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var (
		store pipeline.RecordStore
		seen  *pipeline.SeenFilter
	)
	if cfg.SaveToDB {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
		store = db

		if seen, err = pipeline.OpenSeenFilter(filepath.Join(cfg.DBDir, pipeline.SeenFilterFile)); err != nil {
			return err
		}
	}

	writer, closeReport, err := openReport(cmd, cfg, lang)
	if err != nil {
		return err
	}
	defer closeReport()

	stderr := cmd.ErrOrStderr()
	batchOpts := []pipeline.BatchOption{
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLanguage(lang),
		pipeline.WithBatchLogger(logger),
		pipeline.WithProgress(func(p pipeline.Progress) {
			printProgress(stderr, p)
		}),
	}
	if seen != nil {
		batchOpts = append(batchOpts, pipeline.WithSeenFilter(seen), pipeline.WithSkipSeen(cfg.SkipSeen))
	}
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DefaultPipeline(cfg, store, lang, pipeline.WithLogger(logger))
		},
		batchOpts...,
	)

	startTime := time.Now()
	detections, scanErr := bp.ProcessBatch(ctx, cfg.Targets)
	logger.Info("scan finished", "elapsed", time.Since(startTime).Round(time.Millisecond))

	records := make([]*model.DetectionRecord, 0, len(detections))
	for _, d := range detections {
		if r := d.Record(); r != nil {
			records = append(records, r)
		}
	}

	if _, err := writer.Write(records); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if seen != nil {
		if err := seen.Save(); err != nil {
			return err
		}
	}
	return scanErr
}

// printProgress writes one line per finished detection.
func printProgress(w io.Writer, p pipeline.Progress) {
	d := p.Detection
	switch {
	case d.Result == nil || d.Result.Failed:
		reason := d.CollectError
		if reason == "" && d.Result != nil {
			reason = d.Result.Details
		}
		fmt.Fprintf(w, "[%d/%d] %s: failed: %s\n", p.Done, p.Total, d.URL, reason)
	default:
		fmt.Fprintf(w, "[%d/%d] %s: %d/100\n", p.Done, p.Total, d.URL, d.Result.Score)
	}
}

// openReport returns the writer for the selected report format.
//
// Without --report-file the report goes to stdout. With it, the report goes
// to the file and a compact summary is still printed to stdout. The returned
// function closes the file.
func openReport(cmd *cobra.Command, cfg *config.Config, lang i18n.Language) (report.Writer, func(), error) {
	stdout := cmd.OutOrStdout()
	if cfg.ReportFile == "" {
		return newReportWriter(cfg, stdout, lang), func() {}, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports of sites behind a login can contain private page text.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}

	writer := report.NewMultiWriter(
		newReportWriter(cfg, f, lang),
		report.NewSimpleWriter(stdout, lang, report.WithCompact(true), report.WithColor(cfg.Color)),
	)
	return writer, func() { _ = f.Close() }, nil
}

// newReportWriter creates the writer for the report format selected in cfg.
func newReportWriter(cfg *config.Config, w io.Writer, lang i18n.Language) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w, lang)
	case cfg.HTMLReport:
		return report.NewHTMLWriter(w, lang)
	default:
		return report.NewSimpleWriter(w, lang,
			report.WithColor(cfg.Color),
			report.WithVerbose(cfg.Verbose),
		)
	}
}
