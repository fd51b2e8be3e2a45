// Package rendering turns canonical markdown into DOCX, PDF or Markdown artifacts
// and portfolio copy into a single page HTML site.
package rendering

import (
	"errors"
	"fmt"

	"github.com/jonathan/portfolio-ai/internal/types"
)

// RenderErrorKind classifies render failures
type RenderErrorKind string

const (
	KindUnsupportedFormat RenderErrorKind = "unsupported_format"
	KindEmptyOutput       RenderErrorKind = "empty_output"
	KindRenderFailed      RenderErrorKind = "render_failed"
)

// RenderError represents a rendering failure that survived the markdown fallback
type RenderError struct {
	Kind    RenderErrorKind
	Format  types.OutputFormat
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error (%s, %s): %s: %v", e.Kind, e.Format, e.Message, e.Cause)
	}
	return fmt.Sprintf("render error (%s, %s): %s", e.Kind, e.Format, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// IsRenderError reports whether err is a *RenderError of the given kind
func IsRenderError(err error, kind RenderErrorKind) bool {
	var re *RenderError
	return errors.As(err, &re) && re.Kind == kind
}
