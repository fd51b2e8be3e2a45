// Package fetch retrieves job postings from the web and reduces them to plain text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultTimeout bounds one HTTP fetch
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent identifies the fetcher to job boards
	DefaultUserAgent = "Mozilla/5.0 (compatible; PortfolioAI/1.0)"
	// DefaultMaxBytes caps the response body read from a posting page
	DefaultMaxBytes = 5 << 20
)

// Error describes a failed posting fetch
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures a Fetcher
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	// Browser enables headless Chrome rendering for pages whose static HTML
	// carries too little text
	Browser    bool
	ChromePath string
}

// JobPosting is the text of a job posting page
type JobPosting struct {
	URL          string   `json:"url"`
	Platform     Platform `json:"platform"`
	Text         string   `json:"text"`
	Rendered     bool     `json:"rendered"`
	ContentBytes int      `json:"content_bytes"`
}

// Fetcher downloads job postings
type Fetcher struct {
	client *http.Client
	opts   Options
	logger *slog.Logger
}

// NewFetcher fills unset options with their defaults
func NewFetcher(opts Options, logger *slog.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		logger: logger,
	}
}

// IsURL reports whether s is an absolute http or https URL
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// JobPosting fetches rawURL and extracts the posting text using the selectors
// of the detected job board. Pages that yield less than MinContentLength
// characters are rendered in a browser when Options.Browser is set.
func (f *Fetcher) JobPosting(ctx context.Context, rawURL string) (*JobPosting, error) {
	if !IsURL(rawURL) {
		return nil, &Error{URL: rawURL, Message: "invalid URL"}
	}
	platform := DetectPlatform(rawURL)
	selectors := platformSelectors(platform)

	html, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	text, err := ExtractMainText(html, selectors.content, selectors.noise...)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to parse page", Cause: err}
	}

	posting := &JobPosting{URL: rawURL, Platform: platform, Text: text, ContentBytes: len(html)}
	if !ShouldUseBrowser(text) || !f.opts.Browser {
		f.logger.Debug("fetched job posting", "url", rawURL, "platform", platform, "chars", len(text))
		return posting, nil
	}

	f.logger.Info("posting text is short, rendering in browser", "url", rawURL, "chars", len(text))
	rendered, err := f.render(ctx, rawURL)
	if err != nil {
		f.logger.Warn("browser rendering failed, keeping static text", "url", rawURL, "error", err)
		return posting, nil
	}
	if rtext, err := ExtractMainText(rendered, selectors.content, selectors.noise...); err == nil && len(rtext) > len(text) {
		posting.Text = rtext
		posting.Rendered = true
		posting.ContentBytes = len(rendered)
	}
	return posting, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{URL: rawURL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes+1))
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to read response body", Cause: err}
	}
	if int64(len(body)) > f.opts.MaxBytes {
		return "", &Error{URL: rawURL, Message: fmt.Sprintf("page exceeds %d bytes", f.opts.MaxBytes)}
	}
	return string(body), nil
}

// ExtractMainText removes page chrome and noiseSelectors, then returns the
// text of the first node matching contentSelectors, or of the body.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .advertisement, .sidebar, .popup").Remove()
	if len(noiseSelectors) > 0 {
		doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}

	content := doc.Find("body")
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			content = sel.First()
			break
		}
	}

	// Block elements end lines so bullets survive as separate lines
	content.Find("p, li, h1, h2, h3, h4, br, div").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return cleanLines(content.Text()), nil
}

func cleanLines(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
