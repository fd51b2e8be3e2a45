package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfPages holds per-page extraction output of one tier.
type pdfPages struct {
	texts   []string
	count   int
	skipped []int
}

func (p *pdfPages) joined() string {
	return strings.Join(p.texts, "\n")
}

// extractPDF tries the page reader first and content-stream parsing second.
func extractPDF(ctx context.Context, data []byte, logger *slog.Logger) (*pdfPages, error) {
	primary, primaryErr := readPDFPages(ctx, data, logger)
	if primaryErr == nil && len(primary.texts) > 0 {
		return primary, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if primaryErr != nil {
		logger.Debug("pdf reader failed, trying content streams", "error", primaryErr)
	}
	secondary, secondaryErr := readPDFContentStreams(ctx, data)
	switch {
	case secondaryErr == nil && len(secondary.texts) > 0:
		return secondary, nil
	case primaryErr != nil && secondaryErr != nil:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, corrupt(FormatPDF, "pdf could not be parsed", primaryErr)
	case primaryErr == nil:
		return primary, nil
	default:
		return secondary, nil
	}
}

// readPDFPages extracts plain text page by page. Pages that fail are skipped.
func readPDFPages(ctx context.Context, data []byte, logger *slog.Logger) (pages *pdfPages, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pages = &pdfPages{count: reader.NumPage()}
	for i := 1; i <= pages.count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, pageErr := pageText(reader, i)
		if pageErr != nil {
			logger.Debug("skipping unreadable pdf page", "page", i, "error", pageErr)
			pages.skipped = append(pages.skipped, i)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages.texts = append(pages.texts, text)
		}
	}
	return pages, nil
}

func pageText(reader *pdf.Reader, pageNr int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d panic: %v", pageNr, r)
		}
	}()
	page := reader.Page(pageNr)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// readPDFContentStreams parses page content streams for text-showing operators.
func readPDFContentStreams(ctx context.Context, data []byte) (pages *pdfPages, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()

	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	pages = &pdfPages{count: pdfCtx.PageCount}
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil || r == nil {
			pages.skipped = append(pages.skipped, pageNr)
			continue
		}
		raw, err := io.ReadAll(r)
		if err != nil {
			pages.skipped = append(pages.skipped, pageNr)
			continue
		}
		if text := textFromContentStream(raw); text != "" {
			pages.texts = append(pages.texts, text)
		}
	}
	return pages, nil
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// textFromContentStream collects Tj/TJ/' strings; T* and Td moves become line breaks.
func textFromContentStream(data []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case len(line) == 0:
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.Equal(line, []byte("T*")),
			bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// decodePDFString handles PDF literal string escapes.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(c)
		default:
			if c < '0' || c > '7' {
				sb.WriteByte(c)
				continue
			}
			val := int(c - '0')
			for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}
