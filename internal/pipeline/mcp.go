package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonathan/portfolio-ai/internal/fallback"
	"github.com/jonathan/portfolio-ai/internal/ingestion"
	"github.com/jonathan/portfolio-ai/internal/types"
)

// RegisterMCP registers the pipeline tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	registerTool(srv, &mcp.Tool{
		Name:        "extract_text",
		Description: "Extract normalized text from a resume (pdf, docx, txt, html, md). Pass a file path or base64 content.",
		InputSchema: inputSchema(map[string]any{
			"path":           map[string]any{"type": "string", "description": "File path to extract"},
			"content_base64": map[string]any{"type": "string", "description": "Base64 encoded file content"},
			"filename":       map[string]any{"type": "string", "description": "Original filename of the content"},
			"mime_type":      map[string]any{"type": "string", "description": "Declared MIME type of the content"},
		}, nil),
	}, p.mcpExtract)

	registerTool(srv, &mcp.Tool{
		Name:        "render_markdown",
		Description: "Render canonical markdown to a docx, pdf or md file and return its path.",
		InputSchema: inputSchema(map[string]any{
			"markdown": map[string]any{"type": "string", "description": "Markdown using #, ## and ### headings and - bullets"},
			"format":   formatProperty,
		}, []string{"markdown", "format"}),
	}, p.mcpRender)

	registerTool(srv, &mcp.Tool{
		Name:        "synthesize_cv",
		Description: "Build CV markdown from structured CV data without calling the AI service.",
		InputSchema: inputSchema(map[string]any{
			"cv_data": cvDataProperty,
		}, []string{"cv_data"}),
	}, func(_ context.Context, r *cvArgs) (any, error) {
		return fallback.CV(r.CVData), nil
	})

	registerTool(srv, &mcp.Tool{
		Name:        "generate_cv",
		Description: "Generate a CV from structured CV data and render it to a file.",
		InputSchema: inputSchema(map[string]any{
			"cv_data": cvDataProperty,
			"format":  formatProperty,
		}, []string{"cv_data"}),
	}, p.mcpGenerateCV)

	registerTool(srv, &mcp.Tool{
		Name:        "suggest_portfolio_sections",
		Description: "Suggest three to five portfolio sections for a resume.",
		InputSchema: inputSchema(map[string]any{
			"resume_text": resumeTextProperty,
		}, []string{"resume_text"}),
	}, func(ctx context.Context, r *SectionRequest) (any, error) {
		if strings.TrimSpace(r.ResumeText) == "" {
			return nil, errors.New("resume_text is required")
		}
		return p.SuggestPortfolioSections(ctx, r.ResumeText)
	})

	registerTool(srv, &mcp.Tool{
		Name:        "enhance_portfolio_section",
		Description: "Write or refine one portfolio section as markdown.",
		InputSchema: inputSchema(map[string]any{
			"resume_text": resumeTextProperty,
			"section":     map[string]any{"type": "string", "description": "Section name, for example about, experience or projects"},
			"existing":    map[string]any{"type": "string", "description": "Current section content to refine"},
		}, []string{"section"}),
	}, func(ctx context.Context, r *SectionRequest) (any, error) {
		return p.EnhancePortfolioSection(ctx, *r)
	})

	registerTool(srv, &mcp.Tool{
		Name:        "guided_questions",
		Description: "List the guided interview questions whose answers build_portfolio_site accepts, in order.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(context.Context, *struct{}) (any, error) {
		return ingestion.GuidedQuestions, nil
	})

	registerTool(srv, &mcp.Tool{
		Name:        "build_portfolio_site",
		Description: "Build a single page HTML portfolio from resume text or guided interview answers and return its path.",
		InputSchema: inputSchema(map[string]any{
			"resume_text": resumeTextProperty,
			"answers": map[string]any{
				"type": "array", "items": map[string]any{"type": "string"},
				"description": "One answer per guided question, in order",
			},
			"sections": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"enhance":  map[string]any{"type": "boolean", "description": "Write each section with its own request"},
		}, nil),
	}, p.mcpBuildSite)
}

var resumeTextProperty = map[string]any{
	"type":        "string",
	"description": "Plain resume text",
}

var formatProperty = map[string]any{
	"type":        "string",
	"enum":        []string{"docx", "pdf", "md"},
	"description": "Output format",
}

var cvDataProperty = map[string]any{
	"type":        "object",
	"description": "personal_info, work_experience, education and skills",
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// registerTool decodes the arguments into T, runs handler and returns its
// response as JSON text. Failures become tool errors, not protocol errors.
func registerTool[T any](srv *mcp.Server, tool *mcp.Tool, handler func(context.Context, *T) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args T
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("invalid arguments: %w", err))
				return &res, nil
			}
		}

		resp, err := handler(ctx, &args)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

type extractArgs struct {
	Path     string `json:"path"`
	Content  []byte `json:"content_base64"`
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
}

func (p *Pipeline) mcpExtract(ctx context.Context, r *extractArgs) (any, error) {
	doc := ingestion.SourceDocument{Data: r.Content, Filename: r.Filename, DeclaredMIME: r.MIMEType}
	if r.Path != "" {
		data, err := os.ReadFile(r.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", r.Path, err)
		}
		doc.Data = data
		if doc.Filename == "" {
			doc.Filename = filepath.Base(r.Path)
		}
	}
	if len(doc.Data) == 0 {
		return nil, errors.New("one of path or content_base64 is required")
	}
	return p.ExtractResume(ctx, doc)
}

type renderArgs struct {
	Markdown string `json:"markdown"`
	Format   string `json:"format"`
}

func (p *Pipeline) mcpRender(ctx context.Context, r *renderArgs) (any, error) {
	format, err := types.ParseOutputFormat(r.Format)
	if err != nil {
		return nil, err
	}
	return p.Render(ctx, r.Markdown, format)
}

type cvArgs struct {
	CVData types.CVData `json:"cv_data"`
	Format string       `json:"format"`
}

func (p *Pipeline) mcpGenerateCV(ctx context.Context, r *cvArgs) (any, error) {
	format := types.FormatMarkdown
	if r.Format != "" {
		f, err := types.ParseOutputFormat(r.Format)
		if err != nil {
			return nil, err
		}
		format = f
	}
	return p.GenerateCV(ctx, r.CVData, format)
}

type siteArgs struct {
	ResumeText string   `json:"resume_text"`
	Answers    []string `json:"answers"`
	Sections   []string `json:"sections"`
	Enhance    bool     `json:"enhance"`
}

func (p *Pipeline) mcpBuildSite(ctx context.Context, r *siteArgs) (any, error) {
	req := SiteRequest{ResumeText: r.ResumeText, Sections: r.Sections, Enhance: r.Enhance}
	if len(r.Answers) > 0 {
		profile, err := ingestion.ProfileFromAnswers(r.Answers)
		if err != nil {
			return nil, fmt.Errorf("invalid guided answers: %w", err)
		}
		req.Profile = &profile
	}
	return p.BuildPortfolioSite(ctx, req)
}
