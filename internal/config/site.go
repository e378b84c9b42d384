package config

import (
	"maps"
	"net/url"
	"strings"
	"time"
)

// SiteConfig holds settings for a single host.
type SiteConfig struct {
	// Cookie is sent with every request to the site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Collector overrides the global collector for this site.
	Collector string `yaml:"collector,omitempty"`

	// SettleDelay overrides the global settle delay for this site.
	SettleDelay time.Duration `yaml:"settleDelay,omitempty"`

	// UserAgent overrides the global User-Agent for this site.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// ViewportConfig sizes the browser window.
type ViewportConfig struct {
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`
}

// ScanConfig holds file-level defaults for the scan command.
// Zero values leave the built-in defaults untouched.
type ScanConfig struct {
	Timeout     time.Duration  `yaml:"timeout,omitempty"`
	BatchSize   int            `yaml:"batchSize,omitempty"`
	Collector   string         `yaml:"collector,omitempty"`
	Language    string         `yaml:"language,omitempty"`
	SettleDelay time.Duration  `yaml:"settleDelay,omitempty"`
	Proxy       string         `yaml:"proxy,omitempty"`
	ChromePath  string         `yaml:"chromePath,omitempty"`
	DBDir       string         `yaml:"dbDir,omitempty"`
	Viewport    ViewportConfig `yaml:"viewport,omitempty"`
}

// File represents the structure of the .aiflavor.yaml configuration file.
type File struct {
	// Scan holds defaults for scan settings that CLI flags can override.
	Scan ScanConfig `yaml:"scan,omitempty"`

	// Sites maps host names (e.g. "example.com") to their configurations.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults is applied to every site unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the merged configuration for a target.
// target may be a bare host or a full URL; matching uses the lowercased
// host without port, and falls back to the host without a "www." prefix.
func (cf *File) GetSiteConfig(target string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	host := siteKey(target)
	site, ok := cf.Sites[host]
	if !ok {
		site, ok = cf.Sites[strings.TrimPrefix(host, "www.")]
	}
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.Collector != "" {
		result.Collector = site.Collector
	}
	if site.SettleDelay != 0 {
		result.SettleDelay = site.SettleDelay
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	return result
}

// siteKey extracts the lookup key for a target.
func siteKey(target string) string {
	target = strings.TrimSpace(target)
	if strings.Contains(target, "://") {
		if u, err := url.Parse(target); err == nil {
			return strings.ToLower(u.Hostname())
		}
	}
	host := target
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return strings.ToLower(host)
}
