package config

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "aiflavor"

	// DefaultTimeout bounds one scan, from navigation to the last script
	// evaluation. Heavy single-page applications need several seconds
	// just to render.
	DefaultTimeout = 60 * time.Second

	// DefaultBatchSize is the number of targets scanned concurrently.
	// Every browser scan starts its own headless Chrome, so this stays small.
	DefaultBatchSize = 4

	// DefaultSettleDelay is how long the browser collector waits after the
	// body is ready, so that client-side rendering and transitions finish.
	DefaultSettleDelay = 2 * time.Second

	// DefaultViewportWidth and DefaultViewportHeight size the headless window.
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800

	// DefaultUserAgent identifies aiflavor in HTTP requests made by the
	// static collector. The browser collector keeps Chrome's own agent
	// unless one is configured.
	DefaultUserAgent = "aiflavor/1.0 (+https://github.com/nao1215/aiflavor)"

	// DefaultMaxBodySize limits the HTML read by the static collector.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultMaxElements is the element cap applied by both collectors.
	DefaultMaxElements = 1000
)

// Collector names accepted by Config.Collector.
const (
	// CollectorBrowser renders the page in headless Chrome.
	CollectorBrowser = "browser"
	// CollectorStatic fetches the HTML and resolves inline and embedded styles.
	CollectorStatic = "static"
)

// Collectors lists every supported collector name.
var Collectors = []string{CollectorBrowser, CollectorStatic}

// Config holds all configuration options for aiflavor.
// It is populated from the configuration file and CLI flags and passed
// through the application rather than kept in global state.
type Config struct {
	// Timeout bounds each individual scan.
	Timeout time.Duration

	// Verbose enables debug logging.
	Verbose bool

	// BatchSize is the number of concurrent scans when processing multiple targets.
	BatchSize int

	// Collector selects how page snapshots are obtained: "browser" or "static".
	Collector string

	// Language is the locale of feature names, descriptions and reports.
	// Empty means detect from the environment.
	Language string

	// SettleDelay is the browser collector's wait after the page body is ready.
	SettleDelay time.Duration

	// ViewportWidth and ViewportHeight size the browser window.
	ViewportWidth  int
	ViewportHeight int

	// UserAgent overrides the User-Agent header. Empty keeps the collector default.
	UserAgent string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form used by
	// the static collector, or passed to Chrome as --proxy-server.
	ProxyAddress string

	// MaxBodySize is the maximum HTML size in bytes the static collector reads.
	MaxBodySize int64

	// MaxElements caps the number of elements in a snapshot.
	MaxElements int

	// ChromePath points at a Chrome or Chromium binary. Empty lets chromedp search.
	ChromePath string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .aiflavor.yaml in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	SiteConfigs *File

	// JSONReport, MarkdownReport and HTMLReport select the report format.
	// At most one may be set. None selects the plain text report.
	JSONReport     bool
	MarkdownReport bool
	HTMLReport     bool

	// Color enables ANSI styling of the plain text report.
	Color bool

	// ReportFile is the output file path for the report. Empty means stdout.
	ReportFile string

	// Targets is the list of URLs to scan.
	Targets []string

	// DBDir is the directory holding the SQLite record store.
	// Defaults to the XDG data directory (~/.local/share/aiflavor on Linux).
	DBDir string

	// SaveToDB indicates whether scan results are persisted. It also
	// enables the scan history kept next to the record store.
	SaveToDB bool

	// SkipSeen leaves out targets the scan history already holds.
	SkipSeen bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:        DefaultTimeout,
		BatchSize:      DefaultBatchSize,
		Collector:      CollectorBrowser,
		SettleDelay:    DefaultSettleDelay,
		ViewportWidth:  DefaultViewportWidth,
		ViewportHeight: DefaultViewportHeight,
		MaxBodySize:    DefaultMaxBodySize,
		MaxElements:    DefaultMaxElements,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
	}
}

// XDGDataDir returns the XDG data directory for aiflavor.
// On Linux: ~/.local/share/aiflavor
// On macOS: ~/Library/Application Support/aiflavor
// On Windows: %LOCALAPPDATA%\aiflavor
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for aiflavor.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration used by the scan command and returns
// the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.reportFormatCount() > 1 {
		return ErrConflictingReportFormats
	}
	if !slices.Contains(Collectors, c.Collector) {
		return ErrUnknownCollector
	}
	if c.SettleDelay < 0 {
		return ErrInvalidSettleDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxElements <= 0 || c.MaxElements > DefaultMaxElements {
		return ErrInvalidMaxElements
	}
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return ErrInvalidViewport
	}
	if c.SkipSeen && !c.SaveToDB {
		return ErrSkipSeenWithoutDB
	}
	return nil
}

func (c *Config) reportFormatCount() int {
	n := 0
	for _, set := range []bool{c.JSONReport, c.MarkdownReport, c.HTMLReport} {
		if set {
			n++
		}
	}
	return n
}

// ApplyFile copies the scan settings of a configuration file into c.
// isSet reports whether a setting was given explicitly on the command line,
// in which case the file value is ignored. A nil isSet applies every value.
func (c *Config) ApplyFile(f *File, isSet func(name string) bool) {
	if f == nil {
		return
	}
	c.SiteConfigs = f
	if isSet == nil {
		isSet = func(string) bool { return false }
	}
	s := f.Scan
	if s.Timeout > 0 && !isSet("timeout") {
		c.Timeout = s.Timeout
	}
	if s.BatchSize > 0 && !isSet("batch-size") {
		c.BatchSize = s.BatchSize
	}
	if s.Collector != "" && !isSet("collector") {
		c.Collector = s.Collector
	}
	if s.Language != "" && !isSet("lang") {
		c.Language = s.Language
	}
	if s.SettleDelay > 0 && !isSet("settle-delay") {
		c.SettleDelay = s.SettleDelay
	}
	if s.Proxy != "" && !isSet("proxy") {
		c.ProxyAddress = s.Proxy
	}
	if s.ChromePath != "" && !isSet("chrome-path") {
		c.ChromePath = s.ChromePath
	}
	if s.DBDir != "" && !isSet("db-dir") {
		c.DBDir = s.DBDir
	}
	if s.Viewport.Width > 0 && s.Viewport.Height > 0 {
		c.ViewportWidth = s.Viewport.Width
		c.ViewportHeight = s.Viewport.Height
	}
}
