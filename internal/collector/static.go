package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/aiflavor/internal/config"
	"github.com/nao1215/aiflavor/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/proxy"
)

// maxStylesheets limits how many linked stylesheets one page may pull in.
const maxStylesheets = 8

// ErrUnexpectedStatus is returned when the page responds with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// ErrNotHTML is returned when the response is not an HTML document.
var ErrNotHTML = errors.New("response is not HTML")

// Static fetches the HTML of a page and resolves styles from its
// stylesheets and inline style attributes without running scripts.
// Pages rendered on the client produce sparse snapshots.
type Static struct {
	settings settings
	client   *http.Client
}

// NewStatic creates a static collector. It fails when the proxy address
// cannot be used.
func NewStatic(opts ...Option) (*Static, error) {
	s := defaultSettings()
	s.userAgent = config.DefaultUserAgent
	for _, opt := range opts {
		opt(&s)
	}
	client, err := newHTTPClient(s.proxy)
	if err != nil {
		return nil, err
	}
	return &Static{settings: s, client: client}, nil
}

// newHTTPClient creates the client used for pages and stylesheets,
// optionally routed through a SOCKS5 proxy.
func newHTTPClient(proxyAddr string) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}
	if proxyAddr != "" {
		dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	}
	return &http.Client{
		Transport: transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// Name returns "static".
func (s *Static) Name() string {
	return config.CollectorStatic
}

// Metadata describes the static collection environment.
func (s *Static) Metadata() model.RecordMetadata {
	return s.settings.metadata(s.Name())
}

// Collect fetches url and builds a snapshot from the parsed document.
func (s *Static) Collect(ctx context.Context, pageURL string) (*model.PageSnapshot, error) {
	body, finalURL, err := s.fetch(ctx, pageURL, true)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	base, err := url.Parse(finalURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", finalURL, err)
	}

	rules := s.loadRules(ctx, doc, base)
	styles := cascade(doc, rules)

	snapshot := &model.PageSnapshot{
		Elements: make([]model.ElementSnapshot, 0),
		Title:    strings.ToLower(strings.TrimSpace(doc.Find("title").First().Text())),
		URL:      finalURL,
	}
	bodySel := doc.Find("body").First()
	if len(bodySel.Nodes) > 0 {
		snapshot.Text = strings.ToLower(visibleText(bodySel.Nodes[0]))
	}
	// Every element in document order from the root, as the browser
	// collector sees them, including head and script elements.
	doc.Find("*").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		snapshot.Elements = append(snapshot.Elements, elementSnapshot(sel.Nodes[0], styles))
		return len(snapshot.Elements) < s.settings.maxElements
	})
	return snapshot, nil
}

// fetch downloads url. Pages must be HTML; stylesheets may be anything.
func (s *Static) fetch(ctx context.Context, target string, page bool) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.settings.userAgent)
	if page {
		req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	} else {
		req.Header.Set("Accept", "text/css,*/*;q=0.1")
	}
	for k, v := range s.settings.requestHeaders() {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, target, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); page && ct != "" && !strings.Contains(ct, "html") {
		return nil, "", fmt.Errorf("%w: %s has content type %q", ErrNotHTML, target, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.settings.maxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", target, err)
	}
	return body, resp.Request.URL.String(), nil
}

// loadRules gathers rules from <style> blocks and linked stylesheets in
// document order. Stylesheets that fail to load are skipped.
func (s *Static) loadRules(ctx context.Context, doc *goquery.Document, base *url.URL) []styleRule {
	var rules []styleRule
	linked := 0
	doc.Find("style, link[rel~='stylesheet'][href]").Each(func(_ int, sel *goquery.Selection) {
		if goquery.NodeName(sel) == "style" {
			rules = append(rules, parseRules(sel.Text())...)
			return
		}
		if linked >= maxStylesheets {
			return
		}
		href, _ := sel.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		sheetURL := base.ResolveReference(ref)
		if sheetURL.Scheme != "http" && sheetURL.Scheme != "https" {
			return
		}
		linked++
		data, _, err := s.fetch(ctx, sheetURL.String(), false)
		if err != nil {
			return
		}
		rules = append(rules, parseRules(string(data))...)
	})
	return rules
}

// elementSnapshot maps cascaded declarations onto the computed-style fields
// the detectors read.
func elementSnapshot(n *html.Node, styles elementStyles) model.ElementSnapshot {
	get := func(prop string) string { return styles.value(n, prop) }

	background := get("background")
	backgroundImage := get("background-image")
	if backgroundImage == "" && strings.Contains(strings.ToLower(background), "gradient(") {
		backgroundImage = background
	}
	backgroundColor := get("background-color")
	if backgroundColor == "" && background != "" && !strings.Contains(background, "(") && !strings.Contains(background, " ") {
		backgroundColor = background
	}
	if backgroundColor == "" && isColorFunction(background) {
		backgroundColor = background
	}

	role := attr(n, "role")
	cursor := get("cursor")
	tag := strings.ToUpper(n.Data)
	inputType := strings.ToLower(attr(n, "type"))

	return model.ElementSnapshot{
		TagName:           tag,
		ClassName:         attr(n, "class"),
		Role:              role,
		BorderRadius:      get("border-radius"),
		BackgroundColor:   backgroundColor,
		Background:        background,
		BackgroundImage:   backgroundImage,
		Color:             get("color"),
		BorderColor:       get("border-color"),
		BorderTopColor:    get("border-top-color"),
		BorderRightColor:  get("border-right-color"),
		BorderBottomColor: get("border-bottom-color"),
		BorderLeftColor:   get("border-left-color"),
		Border:            get("border"),
		BoxShadow:         get("box-shadow"),
		Gradient:          backgroundImage,
		Filter:            get("filter"),
		BackdropFilter:    firstNonEmpty(get("backdrop-filter"), get("-webkit-backdrop-filter")),
		Transition:        get("transition"),
		Transform:         get("transform"),
		Cursor:            cursor,
		Width:             pixels(firstNonEmpty(get("width"), attr(n, "width"))),
		Height:            pixels(firstNonEmpty(get("height"), attr(n, "height"))),
		IsButton: tag == "BUTTON" ||
			role == "button" ||
			(tag == "INPUT" && (inputType == "submit" || inputType == "button")) ||
			cursor == "pointer",
	}
}

func isColorFunction(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, fn := range []string{"rgb(", "rgba(", "hsl(", "hsla("} {
		if strings.HasPrefix(v, fn) && strings.HasSuffix(v, ")") && strings.Count(v, "(") == 1 {
			return true
		}
	}
	return false
}

// pixels parses "120px" or "120" and returns 0 for anything else.
func pixels(v string) float64 {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
