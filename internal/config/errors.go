package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and can be matched with
// errors.Is().
var (
	// ErrNoTarget is returned when no URL or list file is specified.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --list")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when more than one of --json,
	// --markdown and --html is specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: use only one of --json, --markdown and --html")

	// ErrUnknownCollector is returned for a collector other than browser or static.
	ErrUnknownCollector = errors.New("unknown collector: must be \"browser\" or \"static\"")

	// ErrInvalidSettleDelay is returned when the settle delay is negative.
	ErrInvalidSettleDelay = errors.New("invalid settle delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxElements is returned when the element cap is outside 1..1000.
	ErrInvalidMaxElements = errors.New("invalid max elements: must be between 1 and 1000")

	// ErrInvalidViewport is returned when a viewport dimension is not positive.
	ErrInvalidViewport = errors.New("invalid viewport: width and height must be positive")

	// ErrSkipSeenWithoutDB is returned when --skip-seen is combined with
	// --no-db, which disables the scan history.
	ErrSkipSeenWithoutDB = errors.New("--skip-seen needs the scan history: remove --no-db")
)
