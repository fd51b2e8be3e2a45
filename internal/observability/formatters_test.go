package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/portfolio-ai/internal/ingestion"
	"github.com/jonathan/portfolio-ai/internal/types"
)

func TestPrintExtraction(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintExtraction(&ingestion.ExtractedText{
		Text:         "Jane Doe\n## Experience\nBuilt things",
		SourceFormat: ingestion.FormatPDF,
		Length:       35,
		Metadata:     &ingestion.Metadata{Filename: "resume.pdf", Pages: 2, SkippedPages: []int{2}},
	})
	output := buf.String()

	assert.Contains(t, output, "EXTRACTED TEXT")
	assert.Contains(t, output, "pdf")
	assert.Contains(t, output, "resume.pdf")
	assert.Contains(t, output, "Pages:    2 (1 unreadable)")
	assert.Contains(t, output, "Jane Doe")
}

func TestPrintExtraction_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintExtraction(nil)
	assert.Empty(t, buf.String())
}

func TestPrintAnalysis(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAnalysis(&types.ResumeAnalysis{
		PersonalInfo:   types.PersonalInfo{Name: "Jane Doe", Email: "jane@example.com"},
		Skills:         map[string][]string{"languages": {"Go", "Python"}, "cloud": {"AWS"}},
		Certifications: types.StringList{"CKA"},
		Source:         types.SourceFallback,
	})
	output := buf.String()

	assert.Contains(t, output, "RESUME ANALYSIS")
	assert.Contains(t, output, "Jane Doe")
	assert.Contains(t, output, "fallback")
	assert.Contains(t, output, "languages: Go, Python")
	assert.Less(t, strings.Index(output, "cloud:"), strings.Index(output, "languages:"))
	assert.Contains(t, output, "CKA")
}

func TestPrintOptimization(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintOptimization(&types.OptimizationResult{
		Score:           72.5,
		KeywordsMatched: types.StringList{"go", "postgresql"},
		MissingKeywords: types.StringList{"a", "b", "c", "d", "e", "f", "g"},
		Suggestions:     types.StringList{"Add metrics"},
		Source:          types.SourceAI,
	})
	output := buf.String()

	assert.Contains(t, output, "ATS score: 72.5 / 100 (ai)")
	assert.Contains(t, output, "postgresql")
	assert.Contains(t, output, "... and 2 more")
	assert.Contains(t, output, "Add metrics")
}

func TestPrintPortfolio(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintPortfolio(&types.PortfolioContent{
		Sections: []types.PortfolioSection{{Name: "about", Content: "I build systems.\nMore."}},
		Source:   types.SourceAI,
	})
	output := buf.String()

	assert.Contains(t, output, "PORTFOLIO CONTENT")
	assert.Contains(t, output, "§ about")
	assert.Contains(t, output, "I build systems.")
	assert.NotContains(t, output, "More.")
}

func TestPrintArtifact_FellBack(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintArtifact(&types.RenderedArtifact{Path: "/tmp/x.md", Format: types.FormatMarkdown, Size: 12, FellBack: true})
	output := buf.String()

	assert.Contains(t, output, "RENDERED ARTIFACT")
	assert.Contains(t, output, "/tmp/x.md")
	assert.Contains(t, output, "wrote markdown instead")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("é", 200))
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("debug", "json", &buf)
	require.NoError(t, err)

	logger.Debug("rendered", "format", "pdf")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "rendered", record["msg"])
	assert.Equal(t, "pdf", record["format"])
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("warn", "text", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger("trace", "text", &bytes.Buffer{})
	assert.Error(t, err)

	_, err = NewLogger("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}
