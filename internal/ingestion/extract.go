package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultMaxBytes is the upload size limit when none is configured (10 MiB)
const DefaultMaxBytes int64 = 10 << 20

// SourceDocument is an uploaded file before extraction
type SourceDocument struct {
	Data         []byte
	Filename     string
	DeclaredMIME string
}

// ExtractedText is the normalized text of a source document. Text is never empty.
type ExtractedText struct {
	Text         string    `json:"text"`
	SourceFormat Format    `json:"source_format"`
	Length       int       `json:"length"`
	Metadata     *Metadata `json:"metadata,omitempty"`
}

// Extractor turns uploaded documents into normalized text
type Extractor struct {
	maxBytes int64
	logger   *slog.Logger
}

// NewExtractor creates an extractor. maxBytes <= 0 uses DefaultMaxBytes.
func NewExtractor(maxBytes int64, logger *slog.Logger) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{maxBytes: maxBytes, logger: logger}
}

// Extract resolves the document type and extracts its text. Errors are
// *ExtractionError except for context cancellation, which is returned as is.
func (e *Extractor) Extract(ctx context.Context, doc SourceDocument) (*ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(doc.Data) == 0 {
		return nil, &ExtractionError{Kind: KindEmptyResult, Message: "document is empty"}
	}
	if int64(len(doc.Data)) > e.maxBytes {
		return nil, corrupt("", fmt.Sprintf("document is %d bytes, limit is %d", len(doc.Data), e.maxBytes), nil)
	}

	det, ok := Detect(doc.Data, doc.Filename, doc.DeclaredMIME)
	if !ok {
		return nil, unsupported("", fmt.Sprintf("cannot determine document type (sniffed %s, filename %q, declared %q)",
			det.Sniffed, doc.Filename, doc.DeclaredMIME))
	}

	logger := e.logger.With("filename", doc.Filename, "format", det.Format, "detected_via", det.Via)
	logger.Debug("extracting document", "bytes", len(doc.Data))

	var (
		raw        string
		pages      *pdfPages
		permissive bool
		err        error
	)
	switch det.Format {
	case FormatPDF:
		pages, err = extractPDF(ctx, doc.Data, logger)
		if pages != nil {
			raw = pages.joined()
		}
	case FormatDOCX:
		raw, err = extractDOCX(doc.Data)
	case FormatDOC:
		err = unsupported(FormatDOC, "legacy binary .doc files are not supported; save the document as .docx")
	case FormatTXT, FormatMD:
		raw, permissive, err = decodeText(doc.Data)
	case FormatHTML:
		raw, err = extractHTML(doc.Data)
	default:
		err = unsupported(det.Format, "no extractor registered")
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		var extErr *ExtractionError
		if !errors.As(err, &extErr) {
			err = corrupt(det.Format, "extraction failed", err)
		}
		logger.Warn("extraction failed", "error", err)
		return nil, err
	}
	if permissive {
		logger.Warn("text was not valid UTF-8, decoded permissively")
	}

	text := Normalize(raw)
	if text == "" {
		return nil, empty(det.Format)
	}

	meta := NewMetadata(doc, text)
	meta.SniffedMIME = det.Sniffed
	meta.DetectedVia = det.Via
	meta.Permissive = permissive
	if pages != nil {
		meta.Pages = pages.count
		meta.SkippedPages = pages.skipped
	}

	logger.Info("extracted document", "chars", len(text))
	return &ExtractedText{
		Text:         text,
		SourceFormat: det.Format,
		Length:       len(text),
		Metadata:     meta,
	}, nil
}

// ExtractFile reads a file from disk and extracts it. The type is resolved
// from content and the file extension.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*ExtractedText, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > e.maxBytes {
		return nil, corrupt("", fmt.Sprintf("document is %d bytes, limit is %d", info.Size(), e.maxBytes), nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return e.Extract(ctx, SourceDocument{Data: data, Filename: filepath.Base(path)})
}

// IsExtractionError reports whether err is an ExtractionError of the given kind.
func IsExtractionError(err error, kind ExtractionErrorKind) bool {
	var extErr *ExtractionError
	return errors.As(err, &extErr) && extErr.Kind == kind
}
