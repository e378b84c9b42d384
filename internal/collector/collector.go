package collector

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/nao1215/aiflavor/internal/config"
	"github.com/nao1215/aiflavor/internal/model"
)

// ErrUnknownCollector is returned by New for an unsupported collector name.
var ErrUnknownCollector = errors.New("unknown collector")

// Collector turns a URL into a page snapshot.
// Implementations must honor ctx cancellation and never return a nil
// snapshot together with a nil error.
type Collector interface {
	// Collect loads the page at url and snapshots its elements and text.
	Collect(ctx context.Context, url string) (*model.PageSnapshot, error)

	// Name returns the collector name, "browser" or "static".
	Name() string

	// Metadata describes the collection environment for detection records.
	Metadata() model.RecordMetadata
}

// settings holds the options shared by all collectors.
type settings struct {
	userAgent   string
	width       int
	height      int
	settleDelay time.Duration
	proxy       string
	maxBodySize int64
	maxElements int
	headers     map[string]string
	cookie      string
	chromePath  string
}

func defaultSettings() settings {
	return settings{
		width:       config.DefaultViewportWidth,
		height:      config.DefaultViewportHeight,
		settleDelay: config.DefaultSettleDelay,
		maxBodySize: config.DefaultMaxBodySize,
		maxElements: model.MaxElements,
	}
}

// Option configures a collector.
type Option func(*settings)

// WithUserAgent sets the User-Agent. Empty keeps the collector default.
func WithUserAgent(ua string) Option {
	return func(s *settings) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithViewport sets the browser window size.
func WithViewport(width, height int) Option {
	return func(s *settings) {
		if width > 0 && height > 0 {
			s.width, s.height = width, height
		}
	}
}

// WithSettleDelay sets how long the browser waits after the body is ready.
func WithSettleDelay(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.settleDelay = d
		}
	}
}

// WithProxy routes traffic through a SOCKS5 proxy at "host:port".
func WithProxy(addr string) Option {
	return func(s *settings) {
		s.proxy = addr
	}
}

// WithMaxBodySize limits the HTML and stylesheet bytes read by the static
// collector. Zero keeps the default.
func WithMaxBodySize(n int64) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxBodySize = n
		}
	}
}

// WithMaxElements caps the snapshot size. Values above model.MaxElements
// are clamped.
func WithMaxElements(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxElements = min(n, model.MaxElements)
		}
	}
}

// WithHeaders adds request headers. Later calls add to and override earlier ones.
func WithHeaders(h map[string]string) Option {
	return func(s *settings) {
		if len(h) == 0 {
			return
		}
		if s.headers == nil {
			s.headers = make(map[string]string, len(h))
		}
		maps.Copy(s.headers, h)
	}
}

// WithCookie sends a Cookie header with every request.
func WithCookie(cookie string) Option {
	return func(s *settings) {
		s.cookie = cookie
	}
}

// WithChromePath sets the Chrome executable used by the browser collector.
func WithChromePath(path string) Option {
	return func(s *settings) {
		s.chromePath = path
	}
}

// requestHeaders returns the configured headers with the cookie folded in.
func (s *settings) requestHeaders() map[string]string {
	h := maps.Clone(s.headers)
	if s.cookie != "" {
		if h == nil {
			h = make(map[string]string, 1)
		}
		h["Cookie"] = s.cookie
	}
	return h
}

func (s *settings) metadata(name string) model.RecordMetadata {
	return model.RecordMetadata{
		UserAgent: s.userAgent,
		Viewport:  model.Viewport{Width: s.width, Height: s.height},
		Collector: name,
	}
}

// New creates a collector by name.
func New(name string, opts ...Option) (Collector, error) {
	switch name {
	case config.CollectorBrowser:
		return NewBrowser(opts...), nil
	case config.CollectorStatic:
		return NewStatic(opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollector, name)
	}
}

// Factory builds the collector for each target, applying per-site settings
// from the configuration file on top of the global ones.
type Factory struct {
	cfg *config.Config
}

// NewFactory creates a Factory for cfg.
func NewFactory(cfg *config.Config) *Factory {
	return &Factory{cfg: cfg}
}

// For returns the collector to use for target.
func (f *Factory) For(target string) (Collector, error) {
	site := f.cfg.SiteConfigs.GetSiteConfig(target)

	name := f.cfg.Collector
	if site.Collector != "" {
		name = site.Collector
	}
	ua := f.cfg.UserAgent
	if site.UserAgent != "" {
		ua = site.UserAgent
	}
	settle := f.cfg.SettleDelay
	if site.SettleDelay > 0 {
		settle = site.SettleDelay
	}

	return New(name,
		WithUserAgent(ua),
		WithViewport(f.cfg.ViewportWidth, f.cfg.ViewportHeight),
		WithSettleDelay(settle),
		WithProxy(f.cfg.ProxyAddress),
		WithMaxBodySize(f.cfg.MaxBodySize),
		WithMaxElements(f.cfg.MaxElements),
		WithChromePath(f.cfg.ChromePath),
		WithHeaders(site.Headers),
		WithCookie(site.Cookie),
	)
}
