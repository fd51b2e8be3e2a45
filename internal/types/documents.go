package types

import "fmt"

// DocumentSource records which path produced a canonical document
type DocumentSource string

const (
	// SourceAI means the document came from an interpreted AI response
	SourceAI DocumentSource = "ai"
	// SourceFallback means the document was synthesized locally
	SourceFallback DocumentSource = "fallback"
)

// CanonicalDocument is markdown restricted to the renderer grammar:
// "# ", "## ", "### " headings, "- " bullets and blank-line separated paragraphs.
type CanonicalDocument struct {
	Markdown string         `json:"markdown"`
	Source   DocumentSource `json:"source"`
}

// OutputFormat is a target format for rendering
type OutputFormat string

const (
	FormatDOCX     OutputFormat = "docx"
	FormatPDF      OutputFormat = "pdf"
	FormatMarkdown OutputFormat = "md"
	// FormatHTML is produced by portfolio site rendering only; ParseOutputFormat rejects it
	FormatHTML OutputFormat = "html"
)

// Extension returns the file extension for the format, including the dot
func (f OutputFormat) Extension() string {
	return "." + string(f)
}

// ParseOutputFormat maps user input to an OutputFormat
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "docx":
		return FormatDOCX, nil
	case "pdf":
		return FormatPDF, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (must be docx, pdf or md)", s)
	}
}

// RenderedArtifact is the final output handed to the caller, who owns its persistence and cleanup
type RenderedArtifact struct {
	Path     string       `json:"path"`
	Data     []byte       `json:"-"`
	Format   OutputFormat `json:"format"`
	Size     int64        `json:"byte_size"`
	FellBack bool         `json:"fell_back,omitempty"` // true when a markdown fallback replaced the requested format
}
