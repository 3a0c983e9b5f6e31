package exportpdf

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/goliatone/go-cvwizard/cv"
)

// ChromiumEngine prints CV pages through one lazily started headless browser.
// Every Render opens its own tab. Output is vector, so ImageQuality is ignored.
type ChromiumEngine struct {
	BrowserPath string
	Headless    bool
	Timeout     time.Duration
	Args        []string

	DefaultPDF Options

	mu      sync.Mutex
	browser context.Context
	stop    []context.CancelFunc
}

// Render prints req.HTML to PDF bytes.
func (e *ChromiumEngine) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	if e == nil {
		return nil, cv.NewError(cv.KindInternal, "chromium engine is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, cv.NewError(cv.KindCanceled, "chromium pdf render canceled", err)
	}

	browser, err := e.browserContext()
	if err != nil {
		return nil, cv.NewError(cv.KindExport, "chromium engine init failed", err)
	}

	opts := mergeOptions(e.defaults(), req.Options)
	params, err := buildPrintToPDFParams(opts)
	if err != nil {
		return nil, err
	}

	tab, closeTab := chromedp.NewContext(browser)
	defer closeTab()
	// The caller's context cancels the tab; the browser outlives it.
	defer context.AfterFunc(ctx, closeTab)()
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		tab, cancel = context.WithTimeout(tab, e.Timeout)
		defer cancel()
	}

	var out []byte
	if err := chromedp.Run(tab, printTasks(withBaseURL(req.HTML, opts.BaseURL), opts, params, &out)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, cv.NewError(cv.KindCanceled, "chromium pdf render canceled", ctxErr)
		}
		return nil, cv.NewError(cv.KindExport, "chromium pdf render failed", err)
	}
	return out, nil
}

func printTasks(markup []byte, opts Options, params *page.PrintToPDFParams, out *[]byte) chromedp.Tasks {
	var tasks chromedp.Tasks
	if opts.ExternalAssetsPolicy == ExternalAssetsBlock {
		tasks = append(tasks, network.Enable(), network.SetBlockedURLs([]string{"http://*", "https://*"}))
	}
	return append(tasks,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(markup)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := params.Do(ctx)
			*out = data
			return err
		}),
	)
}

// Close shuts the shared browser down. The engine can be reused afterwards.
func (e *ChromiumEngine) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.stop) - 1; i >= 0; i-- {
		e.stop[i]()
	}
	e.stop = nil
	e.browser = nil
	return nil
}

func (e *ChromiumEngine) browserContext() (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browser != nil && e.browser.Err() == nil {
		return e.browser, nil
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if e.BrowserPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(e.BrowserPath))
	}
	allocOpts = append(allocOpts, chromedp.Flag("headless", e.Headless))
	allocOpts = append(allocOpts, browserFlags(e.Args)...)

	alloc, stopAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browser, stopBrowser := chromedp.NewContext(alloc)
	// Start the browser now so launch failures surface here.
	if err := chromedp.Run(browser); err != nil {
		stopBrowser()
		stopAlloc()
		return nil, err
	}
	e.browser = browser
	e.stop = []context.CancelFunc{stopAlloc, stopBrowser}
	return browser, nil
}

func (e *ChromiumEngine) defaults() Options {
	opts := e.DefaultPDF
	if opts.Scale == 0 {
		opts.Scale = defaultPDFScale
	}
	if opts.PrintBackground == nil {
		opts.PrintBackground = boolPtr(true)
	}
	return opts
}

// browserFlags turns "--name=value" and "--flag" strings into allocator flags.
func browserFlags(args []string) []chromedp.ExecAllocatorOption {
	flags := make([]chromedp.ExecAllocatorOption, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimPrefix(strings.TrimSpace(arg), "--")
		if arg == "" {
			continue
		}
		name, value, hasValue := strings.Cut(arg, "=")
		if hasValue {
			flags = append(flags, chromedp.Flag(name, value))
		} else {
			flags = append(flags, chromedp.Flag(name, true))
		}
	}
	return flags
}
