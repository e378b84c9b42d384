package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/aiflavor/internal/config"
	"github.com/nao1215/aiflavor/internal/model"
)

const landingPage = `<!DOCTYPE html>
<html>
<head>
  <title>  Acme AI Platform </title>
  <link rel="stylesheet" href="/theme.css">
  <style>
    html { --brand: #8b5cf6; --radius: 16px; }
    .card { border-radius: var(--radius); background-color: var(--brand); }
    .card:hover { background-color: red; }
    .hero { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); }
    @media (min-width: 640px) { .cta { box-shadow: 0 4px 14px rgba(139, 92, 246, 0.4); } }
    .muted { color: gray !important; }
  </style>
  <script>var ignored = "<div class=card>";</script>
</head>
<body>
  <div class="hero">
    <h1>Build faster with Machine Learning</h1>
    <div class="card">One</div>
    <div class="card" style="border-radius: 4px">Two</div>
    <p class="muted" style="color: black">Muted</p>
    <button class="cta btn">Get started</button>
    <a role="button" href="/signup">Sign up</a>
    <input type="submit" value="Go">
    <span class="pill">pill</span>
    <img src="/logo.png" width="120" height="40">
  </div>
  <noscript>Enable JavaScript</noscript>
</body>
</html>`

const themeCSS = `.pill { border-radius: 9999px; cursor: pointer; transition: all 0.2s ease; }`

// newSite serves the landing page and its stylesheet.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, landingPage)
	})
	mux.HandleFunc("/theme.css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		fmt.Fprint(w, themeCSS)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	})
	mux.HandleFunc("/data.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// findElement returns the first element whose class contains class.
func findElement(t *testing.T, snapshot *model.PageSnapshot, tag, class string) model.ElementSnapshot {
	t.Helper()
	for _, e := range snapshot.Elements {
		if e.TagName == tag && strings.Contains(e.ClassName, class) {
			return e
		}
	}
	t.Fatalf("no %s element with class %q in snapshot", tag, class)
	return model.ElementSnapshot{}
}

func TestStaticCollect(t *testing.T) {
	t.Parallel()

	srv := newSite(t)
	c, err := NewStatic()
	if err != nil {
		t.Fatalf("failed to create collector: %v", err)
	}
	snapshot, err := c.Collect(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	t.Run("title and text are lowercased", func(t *testing.T) {
		t.Parallel()
		if snapshot.Title != "acme ai platform" {
			t.Errorf("unexpected title %q", snapshot.Title)
		}
		if !strings.Contains(snapshot.Text, "build faster with machine learning") {
			t.Errorf("unexpected text %q", snapshot.Text)
		}
		for _, hidden := range []string{"enable javascript", "ignored"} {
			if strings.Contains(snapshot.Text, hidden) {
				t.Errorf("text should not contain %q: %q", hidden, snapshot.Text)
			}
		}
	})

	t.Run("custom properties are resolved", func(t *testing.T) {
		t.Parallel()
		card := findElement(t, snapshot, "DIV", "card")
		if card.BorderRadius != "16px" || card.BackgroundColor != "#8b5cf6" {
			t.Errorf("unexpected card styles: %+v", card)
		}
	})

	t.Run("inline style overrides stylesheet", func(t *testing.T) {
		t.Parallel()
		var radii []string
		for _, e := range snapshot.Elements {
			if e.ClassName == "card" {
				radii = append(radii, e.BorderRadius)
			}
		}
		if len(radii) != 2 || radii[0] != "16px" || radii[1] != "4px" {
			t.Errorf("expected [16px 4px], got %v", radii)
		}
	})

	t.Run("important beats inline", func(t *testing.T) {
		t.Parallel()
		muted := findElement(t, snapshot, "P", "muted")
		if muted.Color != "gray" {
			t.Errorf("expected gray, got %q", muted.Color)
		}
	})

	t.Run("gradient shorthand fills background image", func(t *testing.T) {
		t.Parallel()
		hero := findElement(t, snapshot, "DIV", "hero")
		if !strings.HasPrefix(hero.BackgroundImage, "linear-gradient(") || hero.Gradient != hero.BackgroundImage {
			t.Errorf("unexpected hero styles: %+v", hero)
		}
	})

	t.Run("media query rules apply", func(t *testing.T) {
		t.Parallel()
		cta := findElement(t, snapshot, "BUTTON", "cta")
		if !strings.Contains(cta.BoxShadow, "rgba(139, 92, 246") {
			t.Errorf("unexpected box shadow %q", cta.BoxShadow)
		}
		if !cta.IsButton {
			t.Error("expected button tag to be flagged")
		}
	})

	t.Run("linked stylesheet applies", func(t *testing.T) {
		t.Parallel()
		pill := findElement(t, snapshot, "SPAN", "pill")
		if pill.BorderRadius != "9999px" || pill.Cursor != "pointer" || pill.Transition != "all 0.2s ease" {
			t.Errorf("unexpected pill styles: %+v", pill)
		}
		if !pill.IsButton {
			t.Error("expected pointer cursor to flag a button")
		}
	})

	t.Run("button detection", func(t *testing.T) {
		t.Parallel()
		var roleButton, submit bool
		for _, e := range snapshot.Elements {
			if e.TagName == "A" && e.Role == "button" {
				roleButton = e.IsButton
			}
			if e.TagName == "INPUT" {
				submit = e.IsButton
			}
		}
		if !roleButton || !submit {
			t.Errorf("expected role=button and submit input to be buttons, got %v %v", roleButton, submit)
		}
	})

	t.Run("dimensions from attributes", func(t *testing.T) {
		t.Parallel()
		for _, e := range snapshot.Elements {
			if e.TagName == "IMG" {
				if e.Width != 120 || e.Height != 40 {
					t.Errorf("expected 120x40, got %vx%v", e.Width, e.Height)
				}
				return
			}
		}
		t.Error("image not found")
	})

	t.Run("hover rules do not apply", func(t *testing.T) {
		t.Parallel()
		for _, e := range snapshot.Elements {
			if e.BackgroundColor == "red" {
				t.Errorf("hover style leaked into %+v", e)
			}
		}
	})

	t.Run("elements start at the document root", func(t *testing.T) {
		t.Parallel()
		if len(snapshot.Elements) == 0 || snapshot.Elements[0].TagName != "HTML" {
			t.Fatalf("expected the html element first, got %+v", snapshot.Elements)
		}
		tags := make(map[string]bool)
		for _, e := range snapshot.Elements {
			tags[e.TagName] = true
		}
		for _, tag := range []string{"HEAD", "TITLE", "LINK", "STYLE", "SCRIPT", "BODY", "NOSCRIPT"} {
			if !tags[tag] {
				t.Errorf("expected a %s element in the snapshot", tag)
			}
		}
	})

	t.Run("url is recorded", func(t *testing.T) {
		t.Parallel()
		if snapshot.URL != srv.URL+"/" {
			t.Errorf("expected %q, got %q", srv.URL+"/", snapshot.URL)
		}
	})
}

func TestStaticCollectRequests(t *testing.T) {
	t.Parallel()

	t.Run("sends configured headers and cookie", func(t *testing.T) {
		t.Parallel()

		received := make(chan http.Header, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received <- r.Header.Clone()
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html><body><p>hi</p></body></html>")
		}))
		t.Cleanup(srv.Close)

		c, err := NewStatic(
			WithUserAgent("aiflavor-test"),
			WithCookie("session=abc"),
			WithHeaders(map[string]string{"Authorization": "Bearer t"}),
		)
		if err != nil {
			t.Fatalf("failed to create collector: %v", err)
		}
		if _, err := c.Collect(context.Background(), srv.URL); err != nil {
			t.Fatalf("collect failed: %v", err)
		}
		h := <-received
		if h.Get("User-Agent") != "aiflavor-test" || h.Get("Cookie") != "session=abc" || h.Get("Authorization") != "Bearer t" {
			t.Errorf("unexpected headers: %v", h)
		}
	})

	t.Run("follows redirects and records the final URL", func(t *testing.T) {
		t.Parallel()
		srv := newSite(t)
		c, _ := NewStatic()
		snapshot, err := c.Collect(context.Background(), srv.URL+"/moved")
		if err != nil {
			t.Fatalf("collect failed: %v", err)
		}
		if snapshot.URL != srv.URL+"/" {
			t.Errorf("expected final URL %q, got %q", srv.URL+"/", snapshot.URL)
		}
	})

	t.Run("element cap", func(t *testing.T) {
		t.Parallel()
		srv := newSite(t)
		c, _ := NewStatic(WithMaxElements(3))
		snapshot, err := c.Collect(context.Background(), srv.URL+"/")
		if err != nil {
			t.Fatalf("collect failed: %v", err)
		}
		if len(snapshot.Elements) != 3 {
			t.Fatalf("expected 3 elements, got %d", len(snapshot.Elements))
		}
		for i, tag := range []string{"HTML", "HEAD", "TITLE"} {
			if snapshot.Elements[i].TagName != tag {
				t.Errorf("element %d: expected %s, got %s", i, tag, snapshot.Elements[i].TagName)
			}
		}
	})

	t.Run("error status", func(t *testing.T) {
		t.Parallel()
		srv := newSite(t)
		c, _ := NewStatic()
		_, err := c.Collect(context.Background(), srv.URL+"/broken")
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("expected ErrUnexpectedStatus, got %v", err)
		}
	})

	t.Run("non-HTML response", func(t *testing.T) {
		t.Parallel()
		srv := newSite(t)
		c, _ := NewStatic()
		_, err := c.Collect(context.Background(), srv.URL+"/data.json")
		if !errors.Is(err, ErrNotHTML) {
			t.Errorf("expected ErrNotHTML, got %v", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		srv := newSite(t)
		c, _ := NewStatic()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := c.Collect(ctx, srv.URL+"/"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		expected string
		wantErr  bool
	}{
		{config.CollectorBrowser, config.CollectorBrowser, false},
		{config.CollectorStatic, config.CollectorStatic, false},
		{"curl", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c, err := New(tc.name)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownCollector) {
					t.Errorf("expected ErrUnknownCollector, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Name() != tc.expected || c.Metadata().Collector != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, c.Name())
			}
		})
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	s := defaultSettings()
	for _, opt := range []Option{
		WithUserAgent("ua"),
		WithUserAgent(""),
		WithViewport(1920, 1080),
		WithViewport(0, 10),
		WithSettleDelay(time.Second),
		WithSettleDelay(-time.Second),
		WithMaxElements(5000),
		WithMaxBodySize(0),
		WithHeaders(map[string]string{"A": "1", "B": "1"}),
		WithHeaders(map[string]string{"B": "2"}),
		WithCookie("c=1"),
	} {
		opt(&s)
	}

	if s.userAgent != "ua" {
		t.Errorf("empty user agent should not override, got %q", s.userAgent)
	}
	if s.width != 1920 || s.height != 1080 {
		t.Errorf("invalid viewport should not override, got %dx%d", s.width, s.height)
	}
	if s.settleDelay != time.Second {
		t.Errorf("negative settle delay should not override, got %v", s.settleDelay)
	}
	if s.maxElements != model.MaxElements {
		t.Errorf("expected element cap clamp to %d, got %d", model.MaxElements, s.maxElements)
	}
	if s.maxBodySize != config.DefaultMaxBodySize {
		t.Errorf("zero body size should keep the default, got %d", s.maxBodySize)
	}
	h := s.requestHeaders()
	if h["A"] != "1" || h["B"] != "2" || h["Cookie"] != "c=1" {
		t.Errorf("unexpected headers %v", h)
	}
	if _, ok := s.headers["Cookie"]; ok {
		t.Error("requestHeaders must not modify the configured headers")
	}

	meta := s.metadata("browser")
	if meta.UserAgent != "ua" || meta.Viewport.Width != 1920 || meta.Collector != "browser" {
		t.Errorf("unexpected metadata %+v", meta)
	}
}

func TestFactory(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Collector = config.CollectorBrowser
	cfg.SiteConfigs = &config.File{
		Sites: map[string]config.SiteConfig{
			"static.example": {Collector: config.CollectorStatic, UserAgent: "site-ua"},
		},
	}
	f := NewFactory(cfg)

	t.Run("global collector", func(t *testing.T) {
		t.Parallel()
		c, err := f.For("https://other.example/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Name() != config.CollectorBrowser {
			t.Errorf("expected browser, got %q", c.Name())
		}
	})

	t.Run("site override", func(t *testing.T) {
		t.Parallel()
		c, err := f.For("https://static.example/pricing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Name() != config.CollectorStatic || c.Metadata().UserAgent != "site-ua" {
			t.Errorf("expected static collector with site UA, got %q %+v", c.Name(), c.Metadata())
		}
	})

	t.Run("no configuration file", func(t *testing.T) {
		t.Parallel()
		c, err := NewFactory(config.NewConfig()).For("https://example.com/")
		if err != nil || c.Name() != config.CollectorBrowser {
			t.Errorf("expected browser collector, got %v (%v)", c, err)
		}
	})
}

func TestBrowser(t *testing.T) {
	t.Parallel()

	b := NewBrowser(WithMaxElements(50), WithProxy("127.0.0.1:1080"), WithUserAgent("ua"))

	t.Run("collection script is embedded", func(t *testing.T) {
		t.Parallel()
		expr := collectExpression(50)
		if !strings.HasSuffix(expr, ")(50)") || !strings.Contains(expr, "getComputedStyle") {
			t.Errorf("unexpected expression: %.80s...", expr)
		}
	})

	t.Run("collection script walks the whole document", func(t *testing.T) {
		t.Parallel()
		if !strings.Contains(collectScript, "document.querySelectorAll('*')") {
			t.Error("script must measure every element, starting at the root")
		}
	})

	t.Run("allocator options extend the defaults", func(t *testing.T) {
		t.Parallel()
		base := len(NewBrowser().allocatorOptions())
		if got := len(b.allocatorOptions()); got != base+2 {
			t.Errorf("expected %d options, got %d", base+2, got)
		}
	})

	t.Run("tasks include headers only when configured", func(t *testing.T) {
		t.Parallel()
		var snapshot model.PageSnapshot
		plain := NewBrowser(WithSettleDelay(0)).tasks("https://example.com", &snapshot)
		withHeaders := NewBrowser(WithSettleDelay(0), WithCookie("a=b")).tasks("https://example.com", &snapshot)
		if len(withHeaders) != len(plain)+1 {
			t.Errorf("expected one extra task, got %d vs %d", len(withHeaders), len(plain))
		}
	})

	t.Run("metadata", func(t *testing.T) {
		t.Parallel()
		if b.Metadata().Collector != config.CollectorBrowser || b.Metadata().UserAgent != "ua" {
			t.Errorf("unexpected metadata %+v", b.Metadata())
		}
	})
}
