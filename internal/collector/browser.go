package collector

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/nao1215/aiflavor/internal/config"
	"github.com/nao1215/aiflavor/internal/model"
)

//go:embed script.js
var collectScript string

// Browser renders pages in headless Chrome and reads computed styles.
// Each Collect call starts its own browser process, so concurrent calls
// do not share cookies or cache.
type Browser struct {
	settings settings
}

// NewBrowser creates a browser collector.
func NewBrowser(opts ...Option) *Browser {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return &Browser{settings: s}
}

// Name returns "browser".
func (b *Browser) Name() string {
	return config.CollectorBrowser
}

// Metadata describes the browser environment.
func (b *Browser) Metadata() model.RecordMetadata {
	return b.settings.metadata(b.Name())
}

// Collect navigates to url, waits for the page to settle and runs the
// collection script.
func (b *Browser) Collect(ctx context.Context, url string) (*model.PageSnapshot, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var snapshot model.PageSnapshot
	if err := chromedp.Run(taskCtx, b.tasks(url, &snapshot)); err != nil {
		return nil, fmt.Errorf("failed to collect %s: %w", url, err)
	}
	snapshot.Truncate(b.settings.maxElements)
	if snapshot.Elements == nil {
		snapshot.Elements = []model.ElementSnapshot{}
	}
	return &snapshot, nil
}

func (b *Browser) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.Headless,
		chromedp.NoSandbox,
		chromedp.WindowSize(b.settings.width, b.settings.height),
	)
	if b.settings.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.settings.userAgent))
	}
	if b.settings.proxy != "" {
		opts = append(opts, chromedp.ProxyServer("socks5://"+b.settings.proxy))
	}
	if b.settings.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(b.settings.chromePath))
	}
	return opts
}

func (b *Browser) tasks(url string, snapshot *model.PageSnapshot) chromedp.Tasks {
	tasks := chromedp.Tasks{network.Enable()}
	if headers := b.settings.requestHeaders(); len(headers) > 0 {
		h := make(network.Headers, len(headers))
		for k, v := range headers {
			h[k] = v
		}
		tasks = append(tasks, network.SetExtraHTTPHeaders(h))
	}
	tasks = append(tasks,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
	if b.settings.settleDelay > 0 {
		tasks = append(tasks, chromedp.Sleep(b.settings.settleDelay))
	}
	return append(tasks, chromedp.Evaluate(collectExpression(b.settings.maxElements), snapshot))
}

// collectExpression invokes the collection script with the element cap.
func collectExpression(maxElements int) string {
	return "(" + collectScript + ")(" + strconv.Itoa(maxElements) + ")"
}
