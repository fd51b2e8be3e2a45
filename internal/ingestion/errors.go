package ingestion

import "fmt"

// ExtractionErrorKind classifies why text could not be extracted
type ExtractionErrorKind string

const (
	// KindUnsupportedType means no extractor exists for the resolved document type
	KindUnsupportedType ExtractionErrorKind = "unsupported_type"
	// KindCorruptContent means the document could not be decoded as its resolved type
	KindCorruptContent ExtractionErrorKind = "corrupt_content"
	// KindEmptyResult means the document decoded but yielded no text
	KindEmptyResult ExtractionErrorKind = "empty_result"
)

// ExtractionError is returned by Extract. It is terminal for a pipeline run.
type ExtractionError struct {
	Kind    ExtractionErrorKind
	Format  Format
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	prefix := fmt.Sprintf("extraction error (%s)", e.Kind)
	if e.Format != "" {
		prefix = fmt.Sprintf("extraction error (%s, %s)", e.Kind, e.Format)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

func unsupported(format Format, msg string) *ExtractionError {
	return &ExtractionError{Kind: KindUnsupportedType, Format: format, Message: msg}
}

func corrupt(format Format, msg string, cause error) *ExtractionError {
	return &ExtractionError{Kind: KindCorruptContent, Format: format, Message: msg, Cause: cause}
}

func empty(format Format) *ExtractionError {
	return &ExtractionError{Kind: KindEmptyResult, Format: format, Message: "document contains no extractable text"}
}
