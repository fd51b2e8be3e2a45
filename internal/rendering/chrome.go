package rendering

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultChromeTimeout bounds one chrome render including browser start
const DefaultChromeTimeout = 60 * time.Second

// htmlTemplates holds the "blocks" body shared by the print document and the portfolio site
var htmlTemplates = template.Must(template.New("html").Parse(`{{define "blocks"}}{{range .}}{{if eq .Kind "heading"}}{{if eq .Level 1}}<h1>{{.Text}}</h1>{{else if eq .Level 2}}<h2>{{.Text}}</h2>{{else}}<h3>{{.Text}}</h3>{{end}}
{{else if eq .Kind "list"}}<ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>
{{else}}<p>{{.Text}}</p>
{{end}}{{end}}{{end}}`))

var htmlDocument = template.Must(template.Must(htmlTemplates.Clone()).New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: Letter; margin: 1in; }
body { font-family: Helvetica, Arial, sans-serif; font-size: 11pt; line-height: 1.35; color: #111; }
h1 { font-size: 18pt; margin: 0 0 6pt; }
h2 { font-size: 14pt; margin: 14pt 0 4pt; border-bottom: 1px solid #999; }
h3 { font-size: 12pt; margin: 10pt 0 3pt; }
p { margin: 0 0 6pt; text-align: justify; }
ul { margin: 0 0 6pt; padding-left: 18pt; }
</style>
</head>
<body>
{{template "blocks" .Blocks}}</body>
</html>
`))

// RenderHTML writes blocks as a standalone HTML document with print styles
func RenderHTML(blocks []Block) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		Title  string
		Blocks []Block
	}{Title: Title(blocks), Blocks: blocks}
	if err := htmlDocument.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute html template: %w", err)
	}
	return buf.Bytes(), nil
}

// ChromePDFEngine prints the HTML rendering through headless Chrome
type ChromePDFEngine struct {
	execPath string
	timeout  time.Duration
}

// NewChromePDFEngine uses execPath, or CHROME_PATH, or chromedp's lookup
func NewChromePDFEngine(execPath string, timeout time.Duration) *ChromePDFEngine {
	if execPath == "" {
		execPath = os.Getenv("CHROME_PATH")
	}
	if timeout <= 0 {
		timeout = DefaultChromeTimeout
	}
	return &ChromePDFEngine{execPath: execPath, timeout: timeout}
}

func (*ChromePDFEngine) Name() string { return "chrome" }

// RenderPDF implements PDFEngine
func (e *ChromePDFEngine) RenderPDF(ctx context.Context, blocks []Block) ([]byte, error) {
	html, err := RenderHTML(blocks)
	if err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if e.execPath != "" {
		opts = append(opts, chromedp.ExecPath(e.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancel := context.WithTimeout(browserCtx, e.timeout)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "portfolioai-html-")
	if err != nil {
		return nil, fmt.Errorf("failed to create html staging dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, html, 0o600); err != nil {
		return nil, fmt.Errorf("failed to stage html: %w", err)
	}

	var pdf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// Letter, 8.5in x 11in with 1in margins
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.5).
				WithPaperHeight(11).
				WithMarginTop(1).
				WithMarginBottom(1).
				WithMarginLeft(1).
				WithMarginRight(1).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome print to pdf failed: %w", err)
	}
	return pdf, nil
}
