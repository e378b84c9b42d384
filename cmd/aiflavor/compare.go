package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/aiflavor/internal/collector"
	"github.com/nao1215/aiflavor/internal/model"
	"github.com/nao1215/aiflavor/internal/report"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command.
// This command compares two detection records stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [url]",
		Short: "Compare two detections of a website",
		Long: `Compare shows how the AI flavor score of a website changed between two scans.

It reports the change of the total score, the change of every feature score,
and whether the page itself changed. When the page is unchanged but the score
moved, the difference comes from a different version of the detection rules.

With a URL, the latest two records of that URL are compared. Use --from and
--to to compare two specific records instead ('aiflavor records list' shows
the IDs).

Examples:
  # Compare the latest two scans of a site
  aiflavor compare example.com

  # Compare two specific records
  aiflavor compare --from 01JNB0Z9X2E3F4G5H6J7K8M9N0 --to 01JNC4Q0S1T2V3W4X5Y6Z7A8B9

  # Output the comparison as Markdown
  aiflavor compare --markdown example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// Comparison target flags
	cmd.Flags().String("from", "", "ID of the older record")
	cmd.Flags().String("to", "", "ID of the newer record")
	cmd.MarkFlagsRequiredTogether("from", "to")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")
	cmd.Flags().Bool("html", false,
		"Output comparison result as an HTML page")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown", "html")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	fromID, err := cmd.Flags().GetString("from")
	if err != nil {
		return err
	}
	toID, err := cmd.Flags().GetString("to")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	byID := fromID != "" && toID != ""
	var url string
	switch {
	case byID && len(args) > 0:
		return errors.New("specify either a URL or --from and --to, not both")
	case !byID && len(args) == 0:
		return errors.New("a URL or --from and --to is required")
	case !byID:
		if url, err = collector.NormalizeURL(args[0]); err != nil {
			return err
		}
	}

	store, err := openRecordStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	var before, after *model.DetectionRecord
	if byID {
		before, after, err = recordsByID(cmd.Context(), store, fromID, toID)
	} else {
		before, after, err = latestRecords(cmd.Context(), store, url)
	}
	if err != nil {
		return err
	}

	comparison, err := report.Compare(before, after)
	if err != nil {
		return err
	}

	if err := readFormatFlags(cmd, store.cfg); err != nil {
		return err
	}
	store.cfg.Color = true
	_, err = newReportWriter(store.cfg, cmd.OutOrStdout(), store.lang).WriteComparison(comparison)
	return err
}

// recordsByID loads the two records named by --from and --to.
func recordsByID(ctx context.Context, store *recordStore, fromID, toID string) (*model.DetectionRecord, *model.DetectionRecord, error) {
	before, err := store.GetRecord(ctx, fromID)
	if err != nil {
		return nil, nil, err
	}
	if before == nil {
		return nil, nil, fmt.Errorf("%w: %s", errRecordNotFound, fromID)
	}
	after, err := store.GetRecord(ctx, toID)
	if err != nil {
		return nil, nil, err
	}
	if after == nil {
		return nil, nil, fmt.Errorf("%w: %s", errRecordNotFound, toID)
	}
	return before, after, nil
}

// latestRecords loads the newest two records of url, oldest first.
func latestRecords(ctx context.Context, store *recordStore, url string) (*model.DetectionRecord, *model.DetectionRecord, error) {
	records, err := store.LatestForURL(ctx, url, 2)
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("%w: found %d record(s) for %s, scan it again with 'aiflavor scan'",
			report.ErrNothingToCompare, len(records), url)
	}
	return records[1], records[0], nil
}
