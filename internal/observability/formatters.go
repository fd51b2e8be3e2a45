// Package observability provides logger construction and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/portfolio-ai/internal/ingestion"
	"github.com/jonathan/portfolio-ai/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// writeList writes up to limit items as bullets with a "... and N more" tail
func writeList(sb *strings.Builder, items []string, limit int) {
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", truncate(items[i], 50)))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
}

// PrintExtraction outputs a summary of extracted resume text.
func (p *Printer) PrintExtraction(extracted *ingestion.ExtractedText) {
	if extracted == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Format:   %s\n", extracted.SourceFormat))
	sb.WriteString(fmt.Sprintf("Length:   %d characters\n", extracted.Length))
	if md := extracted.Metadata; md != nil {
		if md.Filename != "" {
			sb.WriteString(fmt.Sprintf("File:     %s\n", md.Filename))
		}
		if md.DetectedVia != "" {
			sb.WriteString(fmt.Sprintf("Detected: %s\n", md.DetectedVia))
		}
		if md.Pages > 0 {
			sb.WriteString(fmt.Sprintf("Pages:    %d", md.Pages))
			if len(md.SkippedPages) > 0 {
				sb.WriteString(fmt.Sprintf(" (%d unreadable)", len(md.SkippedPages)))
			}
			sb.WriteString("\n")
		}
		if md.Permissive {
			sb.WriteString("Decoding: permissive\n")
		}
	}

	lines := strings.Split(extracted.Text, "\n")
	sb.WriteString("\n")
	for i := 0; i < min(len(lines), maxItemsToShow); i++ {
		sb.WriteString(lines[i] + "\n")
	}
	if len(lines) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more lines\n", len(lines)-maxItemsToShow))
	}

	p.printBox("EXTRACTED TEXT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAnalysis outputs the structured resume analysis.
func (p *Printer) PrintAnalysis(analysis *types.ResumeAnalysis) {
	if analysis == nil {
		return
	}

	var sb strings.Builder
	info := analysis.PersonalInfo
	sb.WriteString(fmt.Sprintf("Name:     %s\n", info.Name))
	if info.Email != "" {
		sb.WriteString(fmt.Sprintf("Email:    %s\n", info.Email))
	}
	sb.WriteString(fmt.Sprintf("Source:   %s\n", analysis.Source))
	sb.WriteString(fmt.Sprintf("Jobs:     %d\n", len(analysis.WorkExperience)))
	sb.WriteString(fmt.Sprintf("Schools:  %d\n", len(analysis.Education)))
	sb.WriteString("\n")

	if len(analysis.Skills) > 0 {
		sb.WriteString("Skills:\n")
		categories := make([]string, 0, len(analysis.Skills))
		for c := range analysis.Skills {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		for _, c := range categories {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", c, truncate(strings.Join(analysis.Skills[c], ", "), 40)))
		}
		sb.WriteString("\n")
	}

	if len(analysis.Certifications) > 0 {
		sb.WriteString("Certifications:\n")
		writeList(&sb, analysis.Certifications, 3)
	}

	p.printBox("RESUME ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOptimization outputs the ATS score, keyword coverage and suggestions.
func (p *Printer) PrintOptimization(result *types.OptimizationResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ATS score: %.1f / 100 (%s)\n\n", result.Score, result.Source))

	if len(result.KeywordsMatched) > 0 {
		sb.WriteString("Matched keywords:\n")
		writeList(&sb, result.KeywordsMatched, maxItemsToShow)
		sb.WriteString("\n")
	}
	if len(result.MissingKeywords) > 0 {
		sb.WriteString("Missing keywords:\n")
		writeList(&sb, result.MissingKeywords, maxItemsToShow)
		sb.WriteString("\n")
	}
	if len(result.Suggestions) > 0 {
		sb.WriteString("Suggestions:\n")
		writeList(&sb, result.Suggestions, maxItemsToShow)
	}

	p.printBox("ATS OPTIMIZATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPortfolio outputs the generated portfolio sections.
func (p *Printer) PrintPortfolio(content *types.PortfolioContent) {
	if content == nil || len(content.Sections) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d sections (%s):\n\n", len(content.Sections), content.Source))
	for i, s := range content.Sections {
		first, _, _ := strings.Cut(strings.TrimSpace(s.Content), "\n")
		sb.WriteString(fmt.Sprintf("§ %s\n", s.Name))
		sb.WriteString(fmt.Sprintf("  %s\n", truncate(first, 50)))
		if i < len(content.Sections)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("PORTFOLIO CONTENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintArtifact outputs where a rendered document was written.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintArtifact(artifact *types.RenderedArtifact) {
	if artifact == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Format: %s\n", artifact.Format))
	sb.WriteString(fmt.Sprintf("Size:   %d bytes\n", artifact.Size))
	sb.WriteString(fmt.Sprintf("Path:   %s", artifact.Path))

	p.printBox("RENDERED ARTIFACT", sb.String())
	if artifact.FellBack {
		fmt.Fprintf(p.out, "⚠ requested format failed to render; wrote markdown instead\n")
	}
}
