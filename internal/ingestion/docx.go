package ingestion

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// extractDOCX reads paragraphs from word/document.xml in document order.
// Heading styles become '#' prefixed lines and numbered paragraphs become bullets.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", corrupt(FormatDOCX, "not a zip archive", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", corrupt(FormatDOCX, docxBody+" not found in archive", nil)
	}

	rc, err := body.Open()
	if err != nil {
		return "", corrupt(FormatDOCX, "open "+docxBody, err)
	}
	defer rc.Close()

	paragraphs, err := docxParagraphs(rc)
	if err != nil {
		return "", corrupt(FormatDOCX, "parse "+docxBody, err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

func docxParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		inPara     bool
		inText     bool
		style      string
		numbered   bool
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml token: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara, style, numbered = true, "", false
				current.Reset()
			case "pStyle":
				if inPara {
					style = attrValue(t, "val")
				}
			case "numPr":
				numbered = inPara
			case "t":
				inText = inPara
			case "tab":
				if inPara {
					current.WriteByte(' ')
				}
			case "br", "cr":
				if inPara {
					current.WriteByte(' ')
				}
			}

		case xml.CharData:
			if inText {
				current.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if !inPara {
					continue
				}
				inPara = false
				text := strings.TrimSpace(current.String())
				if text == "" {
					continue
				}
				paragraphs = append(paragraphs, decorateParagraph(text, style, numbered))
			}
		}
	}
	return paragraphs, nil
}

func decorateParagraph(text, style string, numbered bool) string {
	if level := docxHeadingLevel(style); level > 0 {
		return strings.Repeat("#", min(level, 3)) + " " + text
	}
	if numbered || strings.HasPrefix(strings.ToLower(style), "listbullet") {
		return "- " + text
	}
	return text
}

func attrValue(el xml.StartElement, local string) string {
	for _, attr := range el.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

// docxHeadingLevel maps a paragraph style to a heading level.
// "Heading1" → 1, "Title" → 1, "Subtitle" → 2, anything else → 0.
func docxHeadingLevel(style string) int {
	lower := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	switch lower {
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	if rest, ok := strings.CutPrefix(lower, "heading"); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
		return int(rest[0] - '0')
	}
	return 0
}
