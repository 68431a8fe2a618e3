package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	defaultRenderTimeout = 30 * time.Second
	// A4 in inches.
	a4Width  = 8.27
	a4Height = 11.69
	// Viewport of the PNG snapshot.
	DefaultSnapshotWidth  = 1400
	DefaultSnapshotHeight = 900
)

// RenderOptions drives the headless Chromium used for PDF and PNG output.
type RenderOptions struct {
	// ChromePath overrides the browser binary; empty uses chromedp lookup.
	ChromePath string
	// NoSandbox is needed when running as root in containers.
	NoSandbox bool
	Landscape bool
	Timeout   time.Duration
	// Width and Height size the PNG viewport.
	Width  int
	Height int
}

func (o *RenderOptions) normalize() {
	if o.Timeout <= 0 {
		o.Timeout = defaultRenderTimeout
	}
	if o.Width <= 0 {
		o.Width = DefaultSnapshotWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultSnapshotHeight
	}
}

// browser starts a Chromium context honoring the options. The returned
// cancel func releases both the tab and the allocator.
func browser(parent context.Context, opts RenderOptions) (context.Context, context.CancelFunc) {
	allocOpts := chromedp.DefaultExecAllocatorOptions[:]
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	return ctx, func() {
		timeoutCancel()
		cancel()
		allocCancel()
	}
}

// loadHTML replaces the blank page content with doc and waits for the
// data-ready marker.
func loadHTML(doc []byte) chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(doc)).Do(ctx)
		}),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
	}
}

// PDF prints an HTML document to A4 through headless Chromium.
func PDF(parent context.Context, doc []byte, opts RenderOptions) ([]byte, error) {
	if len(doc) == 0 {
		return nil, errors.New("pdf: empty document")
	}
	opts.normalize()
	ctx, cancel := browser(parent, opts)
	defer cancel()

	var pdf []byte
	tasks := append(loadHTML(doc), chromedp.ActionFunc(func(ctx context.Context) error {
		data, _, err := page.PrintToPDF().
			WithPrintBackground(true).
			WithLandscape(opts.Landscape).
			WithPaperWidth(a4Width).
			WithPaperHeight(a4Height).
			Do(ctx)
		pdf = data
		return err
	}))
	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("pdf: chromedp run: %w", err)
	}
	return pdf, nil
}

// PNG captures a full-page screenshot of an HTML document.
func PNG(parent context.Context, doc []byte, opts RenderOptions) ([]byte, error) {
	if len(doc) == 0 {
		return nil, errors.New("png: empty document")
	}
	opts.normalize()
	ctx, cancel := browser(parent, opts)
	defer cancel()

	var png []byte
	tasks := chromedp.Tasks{chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height))}
	tasks = append(tasks, loadHTML(doc)...)
	tasks = append(tasks,
		// Let the final paint land.
		chromedp.Sleep(200*time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	)
	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("png: chromedp run: %w", err)
	}
	return png, nil
}

// Chromium binds RenderOptions to the PDF and PNG renderers.
type Chromium struct {
	Options RenderOptions
}

func (c Chromium) PDF(ctx context.Context, doc []byte) ([]byte, error) {
	return PDF(ctx, doc, c.Options)
}

func (c Chromium) PNG(ctx context.Context, doc []byte) ([]byte, error) {
	return PNG(ctx, doc, c.Options)
}
