package rendering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jonathan/portfolio-ai/internal/tempfile"
	"github.com/jonathan/portfolio-ai/internal/types"
)

// PathAllocator hands out unique output paths and schedules their removal
type PathAllocator interface {
	Path(ext string) string
	ScheduleCleanup(path string, delay time.Duration)
}

// Options configures a Renderer
type Options struct {
	// PDFEngine renders PDF output; nil selects the native engine
	PDFEngine PDFEngine
	// CleanupDelay schedules removal of each artifact; zero leaves cleanup to the caller
	CleanupDelay time.Duration
}

// Renderer writes canonical markdown to artifacts on allocator paths
type Renderer struct {
	alloc        PathAllocator
	pdf          PDFEngine
	cleanupDelay time.Duration
	logger       *slog.Logger
}

// NewRenderer creates a Renderer
func NewRenderer(alloc PathAllocator, opts Options, logger *slog.Logger) *Renderer {
	if opts.PDFEngine == nil {
		opts.PDFEngine = NewNativePDFEngine()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{alloc: alloc, pdf: opts.PDFEngine, cleanupDelay: opts.CleanupDelay, logger: logger}
}

// Render converts markdown to format. When a DOCX or PDF render fails the
// same document is rendered as markdown instead and the artifact is marked
// FellBack. A missing or zero-byte output is a RenderError of kind empty_output.
func (r *Renderer) Render(ctx context.Context, markdown string, format types.OutputFormat) (*types.RenderedArtifact, error) {
	switch format {
	case types.FormatDOCX, types.FormatPDF, types.FormatMarkdown:
	default:
		return nil, &RenderError{Kind: KindUnsupportedFormat, Format: format, Message: "format must be docx, pdf or md"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	artifact, err := r.renderTo(ctx, markdown, format)
	if err == nil || format == types.FormatMarkdown {
		return artifact, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	r.logger.Warn("render failed, falling back to markdown", "format", format, "error", err)
	artifact, fbErr := r.renderTo(ctx, markdown, types.FormatMarkdown)
	if fbErr != nil {
		return nil, fbErr
	}
	artifact.FellBack = true
	return artifact, nil
}

func (r *Renderer) renderTo(ctx context.Context, markdown string, format types.OutputFormat) (*types.RenderedArtifact, error) {
	start := time.Now()
	data, err := r.encode(ctx, markdown, format)
	if err != nil {
		var re *RenderError
		if errors.As(err, &re) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &RenderError{Kind: KindRenderFailed, Format: format, Message: "encoding failed", Cause: err}
	}

	return r.store(start, format, data)
}

// store writes data to a fresh allocator path and checks the result is non-empty
func (r *Renderer) store(start time.Time, format types.OutputFormat, data []byte) (*types.RenderedArtifact, error) {
	path := r.alloc.Path(format.Extension())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		_ = tempfile.Remove(path)
		return nil, &RenderError{Kind: KindRenderFailed, Format: format, Message: "failed to write artifact", Cause: err}
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		_ = tempfile.Remove(path)
		return nil, &RenderError{Kind: KindEmptyOutput, Format: format, Message: "rendered output is missing or empty", Cause: err}
	}

	if r.cleanupDelay > 0 {
		r.alloc.ScheduleCleanup(path, r.cleanupDelay)
	}
	r.logger.Debug("rendered artifact", "format", format, "path", path, "bytes", info.Size(), "duration", time.Since(start))
	return &types.RenderedArtifact{Path: path, Data: data, Format: format, Size: info.Size()}, nil
}

// encode produces the artifact bytes for one format
func (r *Renderer) encode(ctx context.Context, markdown string, format types.OutputFormat) ([]byte, error) {
	if format == types.FormatMarkdown {
		return []byte(markdown), nil
	}

	blocks := ParseBlocks(markdown)
	if len(blocks) == 0 {
		return nil, &RenderError{Kind: KindEmptyOutput, Format: format, Message: "document has no content"}
	}

	switch format {
	case types.FormatDOCX:
		return RenderDOCX(blocks)
	default:
		data, err := r.pdf.RenderPDF(ctx, blocks)
		if err != nil {
			return nil, fmt.Errorf("%s pdf engine: %w", r.pdf.Name(), err)
		}
		if pages, err := inspectPDF(data); err != nil {
			r.logger.Warn("rendered pdf failed validation", "engine", r.pdf.Name(), "error", err)
		} else {
			r.logger.Debug("rendered pdf validated", "engine", r.pdf.Name(), "pages", pages)
		}
		return data, nil
	}
}
