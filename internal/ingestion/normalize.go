package ingestion

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// glyph bullets produced by PDF and DOCX exports
var bulletGlyphs = []string{"•", "●", "▪", "◦", "·", "‣"}

// Normalize cleans extracted text while preserving structure.
// Normalize(Normalize(s)) == Normalize(s) for every input.
func Normalize(content string) string {
	if content == "" {
		return ""
	}

	// 1. Normalize line endings (CRLF → LF); form feeds become page breaks
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\f", "\n")

	// 2. Process each line
	caser := cases.Title(language.English)
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = normalizeLine(line, caser)
	}

	// 3. Remove excessive blank lines (max 1 consecutive)
	result := blankRunRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")

	return strings.TrimSpace(result)
}

// normalizeLine strips control characters, collapses whitespace runs and
// rewrites shouted section titles and glyph bullets.
func normalizeLine(line string, caser cases.Caser) string {
	var sb strings.Builder
	sb.Grow(len(line))
	pendingSpace := false
	for _, r := range line {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = sb.Len() > 0
		case unicode.IsControl(r), r == unicode.ReplacementChar, r == '\u200b', r == '\ufeff':
			// dropped
		default:
			if pendingSpace {
				sb.WriteByte(' ')
				pendingSpace = false
			}
			sb.WriteRune(r)
		}
	}
	cleaned := sb.String()
	if cleaned == "" {
		return ""
	}

	for _, glyph := range bulletGlyphs {
		if rest, ok := strings.CutPrefix(cleaned, glyph); ok {
			rest = strings.TrimSpace(rest)
			if rest == "" {
				return ""
			}
			return "- " + rest
		}
	}

	if isShoutedHeading(cleaned) {
		return "## " + caser.String(cleaned)
	}
	return cleaned
}

// isShoutedHeading reports whether a line looks like an ALL-CAPS section title:
// at least five letters, no lowercase, short, and not already markdown.
func isShoutedHeading(line string) bool {
	if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "- ") {
		return false
	}
	if len(strings.Fields(line)) > 6 {
		return false
	}
	letters := 0
	for _, r := range line {
		switch {
		case unicode.IsLower(r):
			return false
		case unicode.IsUpper(r):
			letters++
		case unicode.IsDigit(r), r == ' ', r == '&', r == '/', r == '-', r == ':', r == ',':
		default:
			return false
		}
	}
	return letters >= 5
}
