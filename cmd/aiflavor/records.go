package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/aiflavor/internal/config"
	"github.com/nao1215/aiflavor/internal/database"
	"github.com/nao1215/aiflavor/internal/i18n"
	"github.com/nao1215/aiflavor/internal/model"
	"github.com/nao1215/aiflavor/internal/report"
	"github.com/spf13/cobra"
)

// errRecordNotFound is returned when a record ID does not exist.
var errRecordNotFound = errors.New("record not found")

// dateLayout is the format of --since and --until.
const dateLayout = "2006-01-02"

// defaultListLimit is how many records "records list" shows by default.
const defaultListLimit = 20

// NewRecordsCmd creates the records command and its subcommands.
func NewRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Manage saved detection records",
		Long: `Records lists, searches, shows, exports and deletes the detection records
saved by 'aiflavor scan'.

Examples:
  # Show the latest records
  aiflavor records list

  # Records with a strong AI flavor scanned this year
  aiflavor records list --since 2025-01-01 --min-score 70

  # Show one record as Markdown
  aiflavor records show 01JNB0Z9X2E3F4G5H6J7K8M9N0 --markdown

  # Export every record as JSON
  aiflavor records export -o records.json`,
	}

	cmd.AddCommand(newRecordsListCmd())
	cmd.AddCommand(newRecordsShowCmd())
	cmd.AddCommand(newRecordsSearchCmd())
	cmd.AddCommand(newRecordsDeleteCmd())
	cmd.AddCommand(newRecordsClearCmd())
	cmd.AddCommand(newRecordsExportCmd())
	cmd.AddCommand(newRecordsStatsCmd())

	return cmd
}

// recordStore bundles what the records subcommands need.
type recordStore struct {
	*database.RecordDB
	cfg  *config.Config
	lang i18n.Language
}

// openRecordStore loads the configuration and opens the record database.
func openRecordStore(cmd *cobra.Command) (*recordStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	lang, err := resolveLanguage(cfg)
	if err != nil {
		return nil, err
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	return &recordStore{RecordDB: db, cfg: cfg, lang: lang}, nil
}

func newRecordsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved records, newest first",
		Args:  cobra.NoArgs,
		RunE:  runRecordsList,
	}
	cmd.Flags().IntP("limit", "n", defaultListLimit, "Maximum number of records (0 lists all)")
	cmd.Flags().String("since", "", "Only records detected on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("until", "", "Only records detected on or before this date (YYYY-MM-DD)")
	cmd.Flags().Int("min-score", 0, "Only records scoring at least this much")
	cmd.Flags().Int("max-score", 100, "Only records scoring at most this much")
	cmd.Flags().BoolP("json", "j", false, "Output records as JSON")
	return cmd
}

func runRecordsList(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	minScore, err := flags.GetInt("min-score")
	if err != nil {
		return err
	}
	maxScore, err := flags.GetInt("max-score")
	if err != nil {
		return err
	}
	since, err := flags.GetString("since")
	if err != nil {
		return err
	}
	until, err := flags.GetString("until")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}

	byDate := since != "" || until != ""
	byScore := flags.Changed("min-score") || flags.Changed("max-score")

	var from, to time.Time
	if byDate {
		if from, to, err = parseDateRange(since, until, time.Now()); err != nil {
			return err
		}
	}

	store, err := openRecordStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	var records []*model.DetectionRecord
	switch {
	case byDate:
		records, err = store.RecordsByDateRange(ctx, from, to)
	case byScore:
		records, err = store.RecordsByScoreRange(ctx, minScore, maxScore)
	default:
		records, err = store.ListRecords(ctx, limit)
	}
	if err != nil {
		return err
	}

	if byDate && byScore {
		records = slices.DeleteFunc(records, func(r *model.DetectionRecord) bool {
			return r.Score < minScore || r.Score > maxScore
		})
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return writeRecordList(cmd.OutOrStdout(), store.lang, records, jsonOutput)
}

// parseDateRange converts --since and --until into an inclusive time range.
// An empty since means the beginning of time, an empty until means now.
func parseDateRange(since, until string, now time.Time) (time.Time, time.Time, error) {
	from, to := time.Time{}, now
	if since != "" {
		t, err := time.ParseInLocation(dateLayout, since, time.Local)
		if err != nil {
			return from, to, fmt.Errorf("invalid --since %q: expected YYYY-MM-DD", since)
		}
		from = t
	}
	if until != "" {
		t, err := time.ParseInLocation(dateLayout, until, time.Local)
		if err != nil {
			return from, to, fmt.Errorf("invalid --until %q: expected YYYY-MM-DD", until)
		}
		to = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if from.After(to) {
		return from, to, database.ErrInvalidRange
	}
	return from, to, nil
}

// writeRecordList writes records one per line, or as a JSON array.
func writeRecordList(w io.Writer, lang i18n.Language, records []*model.DetectionRecord, jsonOutput bool) error {
	var writer report.Writer
	if jsonOutput {
		writer = report.NewJSONWriter(w, report.WithPrettyPrint())
	} else {
		writer = report.NewSimpleWriter(w, lang, report.WithCompact(true), report.WithColor(true))
	}
	_, err := writer.Write(records)
	return err
}

func newRecordsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the report card of a record",
		Args:  cobra.ExactArgs(1),
		RunE:  runRecordsShow,
	}
	cmd.Flags().BoolP("json", "j", false, "Output JSON (mutually exclusive with --markdown and --html)")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown (mutually exclusive with --json and --html)")
	cmd.Flags().Bool("html", false, "Output an HTML report card (mutually exclusive with --json and --markdown)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown", "html")
	return cmd
}

func runRecordsShow(cmd *cobra.Command, args []string) error {
	store, err := openRecordStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	record, err := store.GetRecord(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: %s", errRecordNotFound, args[0])
	}

	if err := readFormatFlags(cmd, store.cfg); err != nil {
		return err
	}
	store.cfg.Color = true
	_, err = newReportWriter(store.cfg, cmd.OutOrStdout(), store.lang).Write([]*model.DetectionRecord{record})
	return err
}

// readFormatFlags copies --json, --markdown and --html into cfg.
func readFormatFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	cfg.HTMLReport, err = cmd.Flags().GetBool("html")
	return err
}

func newRecordsSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find records whose URL, title or details contain a text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			store, err := openRecordStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.SearchRecords(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeRecordList(cmd.OutOrStdout(), store.lang, records, jsonOutput)
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output records as JSON")
	return cmd
}

func newRecordsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete records by ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openRecordStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			var missing []string
			for _, id := range args {
				deleted, err := store.DeleteRecord(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !deleted {
					missing = append(missing, id)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			if len(missing) > 0 {
				return fmt.Errorf("%w: %s", errRecordNotFound, strings.Join(missing, ", "))
			}
			return nil
		},
	}
}

func newRecordsClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, err := cmd.Flags().GetBool("yes")
			if err != nil {
				return err
			}
			if !yes {
				return errors.New("refusing to delete every record without --yes")
			}

			store, err := openRecordStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.ClearRecords(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d records\n", n)
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Confirm deleting every record")
	return cmd
}

func newRecordsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every record as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			store, err := openRecordStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if output == "" {
				return store.Export(cmd.Context(), cmd.OutOrStdout())
			}

			if dir := filepath.Dir(output); dir != "" && dir != "." {
				if err := os.MkdirAll(dir, 0750); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}
			f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := store.Export(cmd.Context(), f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported records to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write the export to a file instead of stdout")
	return cmd
}

func newRecordsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record database statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openRecordStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			writeStats(cmd.OutOrStdout(), store.Path(), stats)
			return nil
		},
	}
}

// writeStats prints the storage statistics.
func writeStats(w io.Writer, path string, stats *model.StorageStats) {
	fmt.Fprintf(w, "Database: %s\n", path)
	fmt.Fprintf(w, "Records:  %d\n", stats.TotalRecords)
	fmt.Fprintf(w, "Size:     %s\n", humanize.Bytes(uint64(max(stats.TotalSize, 0))))
	if stats.TotalRecords == 0 {
		return
	}
	fmt.Fprintf(w, "Oldest:   %s (%s)\n", stats.OldestRecord.Local().Format(time.DateTime), humanize.Time(stats.OldestRecord))
	fmt.Fprintf(w, "Newest:   %s (%s)\n", stats.NewestRecord.Local().Format(time.DateTime), humanize.Time(stats.NewestRecord))
}
