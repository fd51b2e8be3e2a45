package parsing

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	htmlTagRe    = regexp.MustCompile(`(?i)</?[a-z][a-z0-9]*(\s[^<>]*)?/?>`)
	lineBreakRe  = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</li>|</h[1-6]>|</div>`)
	deepHeading  = regexp.MustCompile(`^#{4,}\s*`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

var strict = bluemonday.StrictPolicy()

// StripCodeFence removes a fence that wraps the whole text, including an
// optional language identifier on the opening line.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		firstLine := text[:idx]
		if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// CleanMarkdown coerces AI markdown into the canonical grammar: no wrapping
// fence, no raw HTML, "- " bullets and headings no deeper than "###".
func CleanMarkdown(raw string) string {
	text := StripCodeFence(strings.ReplaceAll(raw, "\r\n", "\n"))
	if htmlTagRe.MatchString(text) {
		text = lineBreakRe.ReplaceAllString(text, "$0\n")
		text = html.UnescapeString(strict.Sanitize(text))
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		trimmed := strings.TrimLeft(line, " \t")
		switch {
		case strings.HasPrefix(trimmed, "* "), strings.HasPrefix(trimmed, "+ "), strings.HasPrefix(trimmed, "• "):
			line = "- " + strings.TrimSpace(trimmed[strings.Index(trimmed, " ")+1:])
		case strings.HasPrefix(trimmed, "- "):
			line = trimmed
		case deepHeading.MatchString(trimmed):
			line = "### " + deepHeading.ReplaceAllString(trimmed, "")
		case strings.HasPrefix(trimmed, "#"):
			line = trimmed
		}
		out = append(out, line)
	}

	out = dropPreamble(out)
	text = strings.Join(out, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// dropPreamble removes a leading "Here is your CV:" style line when a heading follows it
func dropPreamble(lines []string) []string {
	first := -1
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			first = i
			break
		}
	}
	if first < 0 {
		return lines
	}
	lead := strings.TrimSpace(lines[first])
	if !strings.HasSuffix(lead, ":") || strings.HasPrefix(lead, "#") || strings.HasPrefix(lead, "- ") {
		return lines
	}
	for _, l := range lines[first+1:] {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if strings.HasPrefix(l, "# ") || strings.HasPrefix(l, "## ") {
			return lines[first+1:]
		}
		return lines
	}
	return lines
}
