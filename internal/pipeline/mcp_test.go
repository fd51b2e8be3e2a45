package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/portfolio-ai/internal/ingestion"
	"github.com/jonathan/portfolio-ai/internal/types"
)

var testMCPImpl = &mcp.Implementation{Name: "portfolio-ai-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	env := newTestPipeline(t, nil)
	srv := mcp.NewServer(testMCPImpl, nil)
	env.pipeline.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "CallTool(%s)", name)
	return result
}

func callToolText(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result := callTool(t, session, name, args)
	require.False(t, result.IsError, "CallTool(%s) tool error: %v", name, result.Content)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "CallTool(%s): expected TextContent", name)
	return tc.Text
}

func TestMCP_ExtractTextFromContent(t *testing.T) {
	session := mcpSession(t)

	text := callToolText(t, session, "extract_text", map[string]any{
		"content_base64": base64.StdEncoding.EncodeToString([]byte("Jane Doe\r\nSoftware Engineer\r\n")),
		"filename":       "resume.txt",
	})

	var resp struct {
		Text         string `json:"text"`
		SourceFormat string `json:"source_format"`
		Length       int    `json:"length"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, "txt", resp.SourceFormat)
	assert.Contains(t, resp.Text, "Jane Doe\nSoftware Engineer")
	assert.NotContains(t, resp.Text, "\r")
	assert.Equal(t, len(resp.Text), resp.Length)
}

func TestMCP_ExtractTextFromPath(t *testing.T) {
	session := mcpSession(t)
	path := filepath.Join(t.TempDir(), "resume.md")
	require.NoError(t, os.WriteFile(path, []byte("# Jane Doe\n\n## Skills\n- Go\n"), 0o600))

	text := callToolText(t, session, "extract_text", map[string]any{"path": path})
	assert.Contains(t, text, "Jane Doe")
}

func TestMCP_ExtractTextRequiresInput(t *testing.T) {
	session := mcpSession(t)

	result := callTool(t, session, "extract_text", map[string]any{})
	assert.True(t, result.IsError)
	require.NotEmpty(t, result.Content)
}

func TestMCP_RenderMarkdown(t *testing.T) {
	session := mcpSession(t)

	text := callToolText(t, session, "render_markdown", map[string]any{
		"markdown": "# Jane Doe\n\n## Experience\n- Built X\n",
		"format":   "docx",
	})

	var artifact types.RenderedArtifact
	require.NoError(t, json.Unmarshal([]byte(text), &artifact))
	assert.Equal(t, types.FormatDOCX, artifact.Format)
	assert.Positive(t, artifact.Size)
	assert.FileExists(t, artifact.Path)

	result := callTool(t, session, "render_markdown", map[string]any{"markdown": "# A", "format": "rtf"})
	assert.True(t, result.IsError)
}

func TestMCP_SynthesizeCV(t *testing.T) {
	session := mcpSession(t)

	text := callToolText(t, session, "synthesize_cv", map[string]any{
		"cv_data": map[string]any{
			"personal_info":   map[string]any{"name": "Jane Doe"},
			"work_experience": []any{},
			"skills":          "Go\nSQL",
		},
	})

	var doc types.CanonicalDocument
	require.NoError(t, json.Unmarshal([]byte(text), &doc))
	assert.Equal(t, types.SourceFallback, doc.Source)
	assert.Contains(t, doc.Markdown, "# Jane Doe")
	assert.Contains(t, doc.Markdown, "Go, SQL")
}

func TestMCP_GenerateCV(t *testing.T) {
	session := mcpSession(t)

	text := callToolText(t, session, "generate_cv", map[string]any{
		"cv_data": map[string]any{"personal_info": map[string]any{"name": "Jane Doe"}},
		"format":  "pdf",
	})

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(text), &doc))
	assert.Equal(t, types.SourceFallback, doc.Canonical.Source)
	require.NotNil(t, doc.Artifact)
	assert.Equal(t, types.FormatPDF, doc.Artifact.Format)
	assert.FileExists(t, doc.Artifact.Path)
}

func TestMCP_SuggestPortfolioSections(t *testing.T) {
	session := mcpSession(t)

	text := callToolText(t, session, "suggest_portfolio_sections", map[string]any{"resume_text": siteResume})
	var got types.SectionSuggestion
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	assert.Equal(t, types.SourceFallback, got.Source)
	assert.GreaterOrEqual(t, len(got.Sections), 3)

	result := callTool(t, session, "suggest_portfolio_sections", map[string]any{"resume_text": " "})
	assert.True(t, result.IsError)
}

func TestMCP_EnhancePortfolioSection(t *testing.T) {
	session := mcpSession(t)

	text := callToolText(t, session, "enhance_portfolio_section", map[string]any{
		"resume_text": siteResume, "section": "about", "existing": "Current about copy.",
	})
	var got types.PortfolioContent
	require.NoError(t, json.Unmarshal([]byte(text), &got))
	require.Len(t, got.Sections, 1)
	assert.Equal(t, "Current about copy.", got.Sections[0].Content)

	result := callTool(t, session, "enhance_portfolio_section", map[string]any{"resume_text": siteResume, "section": ""})
	assert.True(t, result.IsError)
}

func TestMCP_GuidedQuestionsAndSite(t *testing.T) {
	session := mcpSession(t)

	var questions []ingestion.GuidedQuestion
	require.NoError(t, json.Unmarshal([]byte(callToolText(t, session, "guided_questions", map[string]any{})), &questions))
	assert.Len(t, questions, len(guidedAnswers()))

	text := callToolText(t, session, "build_portfolio_site", map[string]any{
		"answers":  guidedAnswers(),
		"sections": []string{"about", "skills", "experience"},
	})
	var site types.PortfolioSite
	require.NoError(t, json.Unmarshal([]byte(text), &site))
	assert.Equal(t, "Platform Engineer", site.Profile.Headline)
	require.NotNil(t, site.Artifact)
	assert.Equal(t, types.FormatHTML, site.Artifact.Format)
	assert.FileExists(t, site.Artifact.Path)

	result := callTool(t, session, "build_portfolio_site", map[string]any{"answers": []string{"Jane"}})
	assert.True(t, result.IsError)
	result = callTool(t, session, "build_portfolio_site", map[string]any{})
	assert.True(t, result.IsError)
}
