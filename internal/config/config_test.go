package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with the documented
// defaults. Changing a default should break this test.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 60 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 60*time.Second {
			t.Errorf("expected Timeout to be 60s, got %v", cfg.Timeout)
		}
	})

	t.Run("default BatchSize is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 4 {
			t.Errorf("expected BatchSize to be 4, got %d", cfg.BatchSize)
		}
	})

	t.Run("default Collector is browser", func(t *testing.T) {
		t.Parallel()
		if cfg.Collector != CollectorBrowser {
			t.Errorf("expected Collector to be %q, got %q", CollectorBrowser, cfg.Collector)
		}
	})

	t.Run("default MaxElements is 1000", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxElements != 1000 {
			t.Errorf("expected MaxElements to be 1000, got %d", cfg.MaxElements)
		}
	})

	t.Run("default viewport is 1280x800", func(t *testing.T) {
		t.Parallel()
		if cfg.ViewportWidth != 1280 || cfg.ViewportHeight != 800 {
			t.Errorf("expected viewport 1280x800, got %dx%d", cfg.ViewportWidth, cfg.ViewportHeight)
		}
	})

	t.Run("results are saved by default", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("defaults pass validation once a target is set", func(t *testing.T) {
		t.Parallel()
		c := NewConfig()
		c.Targets = []string{"https://example.com"}
		if err := c.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

// TestConfigValidate tests the Validate method. Each case breaks one rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"https://example.com"}
		return cfg
	}

	testCases := []struct {
		name     string
		mutate   func(*Config)
		expected error
	}{
		{"valid config", func(*Config) {}, nil},
		{"multiple targets", func(c *Config) { c.Targets = []string{"a.com", "b.com"} }, nil},
		{"static collector", func(c *Config) { c.Collector = CollectorStatic }, nil},
		{"single report format", func(c *Config) { c.HTMLReport = true }, nil},
		{"zero settle delay", func(c *Config) { c.SettleDelay = 0 }, nil},
		{"nil targets", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, ErrInvalidTimeout},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"markdown and html", func(c *Config) { c.MarkdownReport, c.HTMLReport = true, true }, ErrConflictingReportFormats},
		{"unknown collector", func(c *Config) { c.Collector = "curl" }, ErrUnknownCollector},
		{"empty collector", func(c *Config) { c.Collector = "" }, ErrUnknownCollector},
		{"negative settle delay", func(c *Config) { c.SettleDelay = -time.Millisecond }, ErrInvalidSettleDelay},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"zero max elements", func(c *Config) { c.MaxElements = 0 }, ErrInvalidMaxElements},
		{"too many max elements", func(c *Config) { c.MaxElements = 1001 }, ErrInvalidMaxElements},
		{"zero viewport width", func(c *Config) { c.ViewportWidth = 0 }, ErrInvalidViewport},
		{"skip seen with history", func(c *Config) { c.SkipSeen = true }, nil},
		{"skip seen without history", func(c *Config) { c.SkipSeen, c.SaveToDB = true, false }, ErrSkipSeenWithoutDB},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.expected == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, err)
			}
		})
	}
}

// TestApplyFile tests merging file settings into a Config.
func TestApplyFile(t *testing.T) {
	t.Parallel()

	file := &File{
		Scan: ScanConfig{
			Timeout:     30 * time.Second,
			BatchSize:   2,
			Collector:   CollectorStatic,
			Language:    "zh-CN",
			SettleDelay: 500 * time.Millisecond,
			Proxy:       "127.0.0.1:1080",
			DBDir:       "/var/lib/aiflavor",
			Viewport:    ViewportConfig{Width: 1920, Height: 1080},
		},
	}

	t.Run("file values replace defaults", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.ApplyFile(file, nil)

		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected timeout 30s, got %v", cfg.Timeout)
		}
		if cfg.BatchSize != 2 {
			t.Errorf("expected batch size 2, got %d", cfg.BatchSize)
		}
		if cfg.Collector != CollectorStatic {
			t.Errorf("expected static collector, got %q", cfg.Collector)
		}
		if cfg.Language != "zh-CN" {
			t.Errorf("expected zh-CN, got %q", cfg.Language)
		}
		if cfg.ProxyAddress != "127.0.0.1:1080" {
			t.Errorf("expected proxy, got %q", cfg.ProxyAddress)
		}
		if cfg.DBDir != "/var/lib/aiflavor" {
			t.Errorf("expected db dir, got %q", cfg.DBDir)
		}
		if cfg.ViewportWidth != 1920 || cfg.ViewportHeight != 1080 {
			t.Errorf("expected 1920x1080, got %dx%d", cfg.ViewportWidth, cfg.ViewportHeight)
		}
		if cfg.SiteConfigs != file {
			t.Error("expected SiteConfigs to reference the file")
		}
	})

	t.Run("explicit flags win over file values", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Collector = CollectorBrowser
		cfg.Timeout = 5 * time.Second
		cfg.ApplyFile(file, func(name string) bool {
			return name == "collector" || name == "timeout"
		})

		if cfg.Collector != CollectorBrowser {
			t.Errorf("expected browser collector to be kept, got %q", cfg.Collector)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("expected timeout 5s to be kept, got %v", cfg.Timeout)
		}
		if cfg.BatchSize != 2 {
			t.Errorf("expected batch size from file, got %d", cfg.BatchSize)
		}
	})

	t.Run("empty scan section keeps defaults", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.ApplyFile(&File{}, nil)
		if cfg.Timeout != DefaultTimeout || cfg.Collector != CollectorBrowser {
			t.Errorf("defaults changed: %+v", cfg)
		}
	})

	t.Run("nil file is ignored", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.ApplyFile(nil, nil)
		if cfg.SiteConfigs != nil {
			t.Error("expected SiteConfigs to stay nil")
		}
	})
}

// TestGetSiteConfig tests the GetSiteConfig method of File.
func TestGetSiteConfig(t *testing.T) {
	t.Parallel()

	t.Run("nil file returns empty config", func(t *testing.T) {
		t.Parallel()
		var file *File
		cfg := file.GetSiteConfig("example.com")
		if cfg.Cookie != "" || cfg.Headers != nil {
			t.Errorf("expected empty config, got %+v", cfg)
		}
	})

	t.Run("unknown site returns defaults", func(t *testing.T) {
		t.Parallel()
		file := &File{
			Defaults: SiteConfig{Cookie: "default=abc", UserAgent: "bot"},
			Sites:    map[string]SiteConfig{"example.com": {Cookie: "session=xyz"}},
		}
		cfg := file.GetSiteConfig("other.com")
		if cfg.Cookie != "default=abc" || cfg.UserAgent != "bot" {
			t.Errorf("expected defaults, got %+v", cfg)
		}
	})

	t.Run("site values override defaults", func(t *testing.T) {
		t.Parallel()
		file := &File{
			Defaults: SiteConfig{Cookie: "default=abc", Collector: CollectorBrowser, SettleDelay: time.Second},
			Sites: map[string]SiteConfig{
				"example.com": {Cookie: "session=xyz", Collector: CollectorStatic},
			},
		}
		cfg := file.GetSiteConfig("example.com")
		if cfg.Cookie != "session=xyz" {
			t.Errorf("expected site cookie, got %q", cfg.Cookie)
		}
		if cfg.Collector != CollectorStatic {
			t.Errorf("expected site collector, got %q", cfg.Collector)
		}
		if cfg.SettleDelay != time.Second {
			t.Errorf("expected default settle delay, got %v", cfg.SettleDelay)
		}
	})

	t.Run("headers are merged without touching defaults", func(t *testing.T) {
		t.Parallel()
		file := &File{
			Defaults: SiteConfig{Headers: map[string]string{"Accept-Language": "en", "X-Env": "prod"}},
			Sites: map[string]SiteConfig{
				"example.com": {Headers: map[string]string{"X-Env": "staging", "Authorization": "Bearer t"}},
			},
		}
		cfg := file.GetSiteConfig("example.com")
		if len(cfg.Headers) != 3 {
			t.Fatalf("expected 3 headers, got %v", cfg.Headers)
		}
		if cfg.Headers["X-Env"] != "staging" {
			t.Errorf("expected site header to win, got %q", cfg.Headers["X-Env"])
		}
		if file.Defaults.Headers["X-Env"] != "prod" || len(file.Defaults.Headers) != 2 {
			t.Errorf("defaults were modified: %v", file.Defaults.Headers)
		}
	})

	t.Run("matches full URLs and www prefix", func(t *testing.T) {
		t.Parallel()
		file := &File{
			Sites: map[string]SiteConfig{"example.com": {Cookie: "session=xyz"}},
		}
		for _, target := range []string{
			"https://example.com/pricing",
			"https://WWW.Example.com:8443/",
			"example.com:80/path",
			"www.example.com",
		} {
			if got := file.GetSiteConfig(target).Cookie; got != "session=xyz" {
				t.Errorf("GetSiteConfig(%q) cookie = %q, expected session=xyz", target, got)
			}
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.aiflavor.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)

		content := `scan:
  collector: static
  timeout: 45s
  batchSize: 8
  language: zh-CN
  viewport:
    width: 1440
    height: 900
defaults:
  userAgent: "aiflavor-test"
sites:
  example.com:
    cookie: "session=xyz"
    settleDelay: 3s
    headers:
      Authorization: "Bearer token"
`
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Scan.Collector != CollectorStatic {
			t.Errorf("expected static collector, got %q", cfg.Scan.Collector)
		}
		if cfg.Scan.Timeout != 45*time.Second {
			t.Errorf("expected timeout 45s, got %v", cfg.Scan.Timeout)
		}
		if cfg.Scan.BatchSize != 8 {
			t.Errorf("expected batch size 8, got %d", cfg.Scan.BatchSize)
		}
		if cfg.Scan.Viewport.Width != 1440 {
			t.Errorf("expected viewport width 1440, got %d", cfg.Scan.Viewport.Width)
		}
		if cfg.Defaults.UserAgent != "aiflavor-test" {
			t.Errorf("expected default user agent, got %q", cfg.Defaults.UserAgent)
		}

		site, ok := cfg.Sites["example.com"]
		if !ok {
			t.Fatal("expected example.com in sites")
		}
		if site.SettleDelay != 3*time.Second {
			t.Errorf("expected settle delay 3s, got %v", site.SettleDelay)
		}
		if site.Headers["Authorization"] != "Bearer token" {
			t.Errorf("expected Authorization header")
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)

		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)

		if err := os.WriteFile(configPath, []byte("defaults:\n  cookie: a=b\n"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), "custom.yaml")

		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()
		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
	} {
		t.Run(name+" dir ends with the app name", func(t *testing.T) {
			t.Parallel()
			if filepath.Base(dir) != AppName {
				t.Errorf("expected %q to end with %q", dir, AppName)
			}
		})
	}
}
