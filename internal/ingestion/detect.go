package ingestion

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format identifies a source document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatDOC  Format = "doc"
	FormatTXT  Format = "txt"
	FormatHTML Format = "html"
	FormatMD   Format = "md"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeDOC  = "application/msword"
	mimeHTML = "text/html"
	mimeTXT  = "text/plain"
	mimeMD   = "text/markdown"
)

// strongSniff maps content signatures that are decisive on their own.
var strongSniff = map[string]Format{
	mimePDF:  FormatPDF,
	mimeDOCX: FormatDOCX,
	mimeDOC:  FormatDOC,
	mimeHTML: FormatHTML,
}

var extensionFormats = map[string]Format{
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
	".doc":      FormatDOC,
	".txt":      FormatTXT,
	".text":     FormatTXT,
	".html":     FormatHTML,
	".htm":      FormatHTML,
	".md":       FormatMD,
	".markdown": FormatMD,
}

var declaredFormats = map[string]Format{
	mimePDF:  FormatPDF,
	mimeDOCX: FormatDOCX,
	mimeDOC:  FormatDOC,
	mimeHTML: FormatHTML,
	mimeTXT:  FormatTXT,
	mimeMD:   FormatMD,
}

// Detection records how a document type was resolved.
type Detection struct {
	Format  Format `json:"format"`
	Sniffed string `json:"sniffed_mime"`
	Via     string `json:"via"` // sniff, extension, declared or sniff-text
}

// Detect resolves the document type: content sniffing first, then the filename
// extension, then the declared MIME type. Weak sniff results (plain text, zip,
// OLE containers, octet-stream) never override an extension.
func Detect(data []byte, filename, declaredMIME string) (Detection, bool) {
	sniffed := mimetype.Detect(data)
	det := Detection{Sniffed: sniffed.String()}

	for m := sniffed; m != nil; m = m.Parent() {
		if f, ok := strongSniff[baseMIME(m.String())]; ok {
			det.Format, det.Via = f, "sniff"
			return det, true
		}
		// markdown and html-like text files sniff as text/plain; stop before the generic root
		if m.Is(mimeTXT) {
			break
		}
	}

	if f, ok := extensionFormats[strings.ToLower(filepath.Ext(filename))]; ok {
		det.Format, det.Via = f, "extension"
		return det, true
	}

	if f, ok := declaredFormats[baseMIME(declaredMIME)]; ok {
		det.Format, det.Via = f, "declared"
		return det, true
	}

	if sniffed.Is(mimeTXT) {
		det.Format, det.Via = FormatTXT, "sniff-text"
		return det, true
	}

	return det, false
}

func baseMIME(s string) string {
	if s == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(s)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return mediaType
}

// SupportedFormats returns the formats Extract can decode.
func SupportedFormats() []Format {
	return []Format{FormatPDF, FormatDOCX, FormatTXT, FormatHTML, FormatMD}
}
