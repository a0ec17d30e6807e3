package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/joelkehle/circuit-architect/internal/solution"
)

// PageSize is a paper size in inches.
type PageSize struct {
	Width  float64
	Height float64
}

var (
	PageA4     = PageSize{Width: 8.27, Height: 11.69}
	PageLetter = PageSize{Width: 8.5, Height: 11}
)

// ParsePageSize accepts "a4" or "letter"; empty means A4.
func ParsePageSize(name string) (PageSize, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "a4":
		return PageA4, nil
	case "letter", "us-letter":
		return PageLetter, nil
	}
	return PageSize{}, fmt.Errorf("unknown page size %q", name)
}

// Margins are page margins in inches.
type Margins struct {
	Top, Right, Bottom, Left float64
}

const DefaultPDFTimeout = 30 * time.Second

// PDFRenderer prints solution documents with headless Chromium. The footer
// carries the solution name and page numbers.
type PDFRenderer struct {
	chromePath string
	timeout    time.Duration
	page       PageSize
	margins    Margins
}

type PDFOption func(*PDFRenderer)

func WithChromePath(path string) PDFOption {
	return func(r *PDFRenderer) { r.chromePath = path }
}

func WithTimeout(d time.Duration) PDFOption {
	return func(r *PDFRenderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithPageSize(p PageSize) PDFOption {
	return func(r *PDFRenderer) {
		if p.Width > 0 && p.Height > 0 {
			r.page = p
		}
	}
}

func WithMargins(m Margins) PDFOption {
	return func(r *PDFRenderer) { r.margins = m }
}

func NewPDFRenderer(opts ...PDFOption) *PDFRenderer {
	r := &PDFRenderer{
		chromePath: detectChromePath(),
		timeout:    DefaultPDFTimeout,
		page:       PageA4,
		margins:    Margins{Top: 0.5, Right: 0.45, Bottom: 0.75, Left: 0.45},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *PDFRenderer) Render(ctx context.Context, sol solution.DesignSolution) ([]byte, error) {
	doc, err := Document(sol)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer allocCancel()
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	params := r.printParams(sol.Name)
	err = chromedp.Run(taskCtx,
		chromedp.Navigate("data:text/html;base64,"+base64.StdEncoding.EncodeToString([]byte(doc))),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			out, _, err := params.Do(ctx)
			pdf = out
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print %s: %w", sol.ID, err)
	}
	return pdf, nil
}

func (r *PDFRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	return opts
}

func (r *PDFRenderer) printParams(title string) *page.PrintToPDFParams {
	footer := `<div style="width:100%;font-size:9px;color:#666;padding:0 0.45in;display:flex;justify-content:space-between;">` +
		`<span>` + html.EscapeString(title) + `</span>` +
		`<span><span class="pageNumber"></span> / <span class="totalPages"></span></span></div>`
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithDisplayHeaderFooter(true).
		WithHeaderTemplate(`<div></div>`).
		WithFooterTemplate(footer).
		WithPaperWidth(r.page.Width).
		WithPaperHeight(r.page.Height).
		WithMarginTop(r.margins.Top).
		WithMarginRight(r.margins.Right).
		WithMarginBottom(r.margins.Bottom).
		WithMarginLeft(r.margins.Left)
}

// detectChromePath prefers CHROME_PATH, then common Linux install paths.
// An empty result lets chromedp search PATH itself.
func detectChromePath() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}
	for _, p := range []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
