package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	appLog "icsweek/internal/log"
)

// Default capture parameters. The viewport matches A4 landscape at 96 dpi.
const (
	DefaultWidth      = 1123
	DefaultHeight     = 794
	DefaultTimeoutSec = 30

	// readySelector is set on the document root once it is fully rendered.
	readySelector = `[data-ready="true"]`
)

// Options defines parameters for a headless Chromium capture.
type Options struct {
	// Width and Height are the viewport dimensions in pixels for PNG
	// previews. If zero, DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. If zero, a sane default
	// (DefaultTimeoutSec) is used.
	Timeout time.Duration

	// ExecPath overrides the Chromium binary. Empty lets chromedp find one.
	ExecPath string
}

func (o *Options) normalize() {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
}

// PrintPDF loads html into a headless Chromium tab, waits for the
// data-ready marker and prints it. Page size comes from the document's
// CSS @page rule.
func PrintPDF(parentCtx context.Context, html []byte, opts Options) ([]byte, error) {
	opts.normalize()

	var pdf []byte
	err := run(parentCtx, html, opts, chromedp.ActionFunc(func(ctx context.Context) error {
		buf, _, err := page.PrintToPDF().
			WithPrintBackground(true).
			WithPreferCSSPageSize(true).
			WithMarginTop(0).
			WithMarginBottom(0).
			WithMarginLeft(0).
			WithMarginRight(0).
			Do(ctx)
		if err != nil {
			return err
		}
		pdf = buf
		return nil
	}))
	if err != nil {
		return nil, err
	}
	appLog.Debug("capture pdf done", "bytes", len(pdf))
	return pdf, nil
}

// ScreenshotPNG renders html at the configured viewport and returns a PNG
// of the first page.
func ScreenshotPNG(parentCtx context.Context, html []byte, opts Options) ([]byte, error) {
	opts.normalize()

	var png []byte
	err := run(parentCtx, html, opts,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Screenshot("section.page", &png, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err != nil {
		return nil, err
	}
	appLog.Debug("capture png done", "bytes", len(png), "width", opts.Width, "height", opts.Height)
	return png, nil
}

// run opens a tab, injects html into about:blank, waits for the ready
// marker and then performs actions.
func run(parentCtx context.Context, html []byte, opts Options, actions ...chromedp.Action) error {
	if len(html) == 0 {
		return fmt.Errorf("capture: html is empty")
	}

	allocCtx := parentCtx
	if opts.ExecPath != "" {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.ExecPath(opts.ExecPath))
		var cancelAlloc context.CancelFunc
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(parentCtx, allocOpts...)
		defer cancelAlloc()
	}

	// Create a new chromedp context.
	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	// Apply timeout to the entire capture sequence.
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	tasks := chromedp.Tasks{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
	}
	tasks = append(tasks, actions...)

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	return nil
}
