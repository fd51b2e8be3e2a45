// Package pipeline wires extraction, AI generation, interpretation, fallback
// synthesis and rendering into the career document operations.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/portfolio-ai/internal/db"
	"github.com/jonathan/portfolio-ai/internal/fallback"
	"github.com/jonathan/portfolio-ai/internal/ingestion"
	"github.com/jonathan/portfolio-ai/internal/llm"
	"github.com/jonathan/portfolio-ai/internal/parsing"
	"github.com/jonathan/portfolio-ai/internal/pipeline/steps"
	"github.com/jonathan/portfolio-ai/internal/prompts"
	"github.com/jonathan/portfolio-ai/internal/rendering"
	"github.com/jonathan/portfolio-ai/internal/types"
)

// promptFile names the embedded prompt set every operation reads
var promptFile = prompts.CareerFile

// DefaultConcurrency bounds RunBatch when Options.Concurrency is unset
const DefaultConcurrency = 4

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Options holds the collaborators of a Pipeline
type Options struct {
	Extractor *ingestion.Extractor
	// Orchestrator may be nil, in which case every document is synthesized locally
	Orchestrator *llm.Orchestrator
	Renderer     *rendering.Renderer
	// Ledger is optional; ledger failures are logged and never fail an operation
	Ledger      db.Ledger
	Logger      *slog.Logger
	Concurrency int
	OnProgress  ProgressCallback
}

// Pipeline runs the career document operations. It holds no per-call state
// and is safe for concurrent use.
type Pipeline struct {
	extractor   *ingestion.Extractor
	orch        *llm.Orchestrator
	renderer    *rendering.Renderer
	ledger      db.Ledger
	logger      *slog.Logger
	concurrency int
	onProgress  ProgressCallback
}

// Document is a generated document together with its rendered file
type Document struct {
	Canonical types.CanonicalDocument `json:"canonical"`
	Artifact  *types.RenderedArtifact `json:"artifact"`
	RunID     uuid.UUID               `json:"run_id,omitempty"`
}

// New validates opts and builds a Pipeline
func New(opts Options) (*Pipeline, error) {
	if opts.Renderer == nil {
		return nil, fmt.Errorf("pipeline: renderer is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = ingestion.NewExtractor(ingestion.DefaultMaxBytes, logger)
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Pipeline{
		extractor:   extractor,
		orch:        opts.Orchestrator,
		renderer:    opts.Renderer,
		ledger:      opts.Ledger,
		logger:      logger,
		concurrency: concurrency,
		onProgress:  opts.OnProgress,
	}, nil
}

func (p *Pipeline) emit(runID uuid.UUID, step, message string, content any) {
	if p.onProgress == nil {
		return
	}
	event := ProgressEvent{Step: step, Category: steps.CategoryOf(step), Message: message, Content: content}
	if runID != uuid.Nil {
		event.RunID = runID.String()
	}
	p.onProgress(event)
}

// ExtractResume extracts normalised text from an uploaded document
func (p *Pipeline) ExtractResume(ctx context.Context, doc ingestion.SourceDocument) (*ingestion.ExtractedText, error) {
	runID := p.startRun(ctx, "extract", doc.Filename)
	p.emit(runID, db.StepExtractedText, "Extracting text from "+doc.Filename, nil)

	extracted, err := p.extractor.Extract(ctx, doc)
	if err != nil {
		p.finishRun(ctx, runID, "", err)
		return nil, err
	}

	p.saveText(ctx, runID, db.StepExtractedText, db.CategoryIngestion, extracted.Text)
	p.emit(runID, db.StepExtractedText,
		fmt.Sprintf("Extracted %d characters (%s)", extracted.Length, extracted.SourceFormat), nil)
	p.finishRun(ctx, runID, "", nil)
	return extracted, nil
}

// AnalyzeResume turns free resume text into structured data
func (p *Pipeline) AnalyzeResume(ctx context.Context, text string) (*types.ResumeAnalysis, error) {
	runID := p.startRun(ctx, "analyze", preview(text))
	analysis, err := p.analyze(ctx, runID, text)
	if err != nil {
		p.finishRun(ctx, runID, "", err)
		return nil, err
	}
	p.save(ctx, runID, db.StepAnalysis, db.CategoryGenerated, analysis)
	p.emit(runID, db.StepAnalysis, "Resume analysed", analysis)
	p.finishRun(ctx, runID, analysis.Source, nil)
	return analysis, nil
}

// ParseCVData turns free resume text into CV generation input
func (p *Pipeline) ParseCVData(ctx context.Context, text string) (*types.CVData, error) {
	system, err := prompts.Get(promptFile, "analyze-system")
	if err != nil {
		return nil, err
	}
	req := llm.NewRequest(llm.TierLite, system, llm.BuildExtractionPrompt(llm.CVDataSchema(), text))
	req.JSON = true

	parsed, err := p.ask(ctx, "cv_data", req, parsing.ShapeCV)
	if err != nil {
		return nil, err
	}
	if r, ok := parsed.(*parsing.CVResult); ok {
		return &r.Data, nil
	}
	analysis := fallback.Analysis(text)
	data := analysis.CVData()
	return &data, nil
}

func (p *Pipeline) analyze(ctx context.Context, runID uuid.UUID, text string) (*types.ResumeAnalysis, error) {
	system, err := prompts.Get(promptFile, "analyze-system")
	if err != nil {
		return nil, err
	}
	req := llm.NewRequest(llm.TierLite, system, llm.BuildExtractionPrompt(llm.ResumeAnalysisSchema(), text))
	req.JSON = true

	p.emit(runID, db.StepAnalysis, "Analysing resume", nil)
	parsed, err := p.ask(ctx, db.StepAnalysis, req, parsing.ShapeAnalysis)
	if err != nil {
		return nil, err
	}
	if r, ok := parsed.(*parsing.AnalysisResult); ok {
		analysis := r.Analysis
		analysis.Source = types.SourceAI
		return &analysis, nil
	}
	analysis := fallback.Analysis(text)
	return &analysis, nil
}

// OptimizeResume scores and rewrites a resume for applicant tracking systems.
// job may be empty.
func (p *Pipeline) OptimizeResume(ctx context.Context, resume, job string) (*types.OptimizationResult, error) {
	runID := p.startRun(ctx, "optimize", preview(resume))

	jobSection, jobInstruction := "", "Use widely expected keywords for the candidate's field."
	if strings.TrimSpace(job) != "" {
		jobSection = "\nJOB DESCRIPTION:\n" + job + "\n"
		jobInstruction = "Align wording and keywords with the job description without inventing experience."
	}
	system, err := prompts.Get(promptFile, "optimize-system")
	if err != nil {
		p.finishRun(ctx, runID, "", err)
		return nil, err
	}
	user, err := prompts.Render(promptFile, "optimize-user", map[string]string{
		"JobSection":     jobSection,
		"ResumeText":     resume,
		"JobInstruction": jobInstruction,
	})
	if err != nil {
		p.finishRun(ctx, runID, "", err)
		return nil, err
	}
	req := llm.NewRequest(llm.TierStandard, system, user)
	req.JSON = true

	p.emit(runID, db.StepOptimization, "Optimizing resume", nil)
	parsed, err := p.ask(ctx, db.StepOptimization, req, parsing.ShapeOptimization)
	if err != nil {
		p.finishRun(ctx, runID, "", err)
		return nil, err
	}

	var result types.OptimizationResult
	if r, ok := parsed.(*parsing.OptimizationResult); ok {
		result = r.Result
		result.Source = types.SourceAI
	} else {
		result = fallback.Optimization(resume, job)
	}

	p.save(ctx, runID, db.StepOptimization, db.CategoryGenerated, result)
	p.emit(runID, db.StepOptimization, fmt.Sprintf("ATS score %.1f", result.Score), result)
	p.finishRun(ctx, runID, result.Source, nil)
	return &result, nil
}

// GenerateCV writes a CV from structured data and renders it to format.
// Missing or empty fields never fail generation.
func (p *Pipeline) GenerateCV(ctx context.Context, data types.CVData, format types.OutputFormat) (*Document, error) {
	runID := p.startRun(ctx, "cv", data.PersonalInfo.Name)
	if err := data.Validate(); err != nil {
		p.logger.Warn("cv data is incomplete", "error", err)
	}

	canonical, err := p.cvMarkdown(ctx, runID, data)
	if err != nil {
		p.finishRun(ctx, runID, "", err)
		return nil, err
	}
	return p.renderDocument(ctx, runID, canonical, format)
}

func (p *Pipeline) cvMarkdown(ctx context.Context, runID uuid.UUID, data types.CVData) (types.CanonicalDocument, error) {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return types.CanonicalDocument{}, fmt.Errorf("failed to encode cv data: %w", err)
	}
	system, err := prompts.Get(promptFile, "cv-system")
	if err != nil {
		return types.CanonicalDocument{}, err
	}
	user, err := prompts.Render(promptFile, "cv-user", map[string]string{"CVData": string(payload)})
	if err != nil {
		return types.CanonicalDocument{}, err
	}

	p.emit(runID, db.StepCanonicalMarkdown, "Writing CV", nil)
	parsed, err := p.ask(ctx, db.StepCanonicalMarkdown, llm.NewRequest(llm.TierAdvanced, system, user), parsing.ShapeMarkdown)
	if err != nil {
		return types.CanonicalDocument{}, err
	}
	if r, ok := parsed.(*parsing.MarkdownResult); ok {
		return types.CanonicalDocument{Markdown: r.Markdown, Source: types.SourceAI}, nil
	}
	return fallback.CV(data), nil
}

// GenerateCoverLetter writes a cover letter and renders it to format
func (p *Pipeline) GenerateCoverLetter(ctx context.Context, req types.CoverLetterRequest, format types.OutputFormat) (*Document, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cover letter request: %w", err)
	}
	runID := p.startRun(ctx, "cover-letter", req.JobTitle+" at "+req.CompanyName)

	tone, length := req.Tone, req.Length
	if tone == "" {
		tone = "professional"
	}
	if length == "" {
		length = "medium"
	}
	system, err := prompts.Get(promptFile, "cover-letter-system")
	if err != nil {
		p.finishRun(ctx, runID, "", err)
		return nil, err
	}
	user, err := prompts.Render(promptFile, "cover-letter-user", map[string]string{
		"Tone":           tone,
		"Length":         length,
		"JobTitle":       req.JobTitle,
		"CompanyName":    req.CompanyName,
		"CandidateName":  req.CandidateName,
		"ResumeText":     req.ResumeText,
		"JobDescription": req.JobDescription,
	})
	if err != nil {
		p.finishRun(ctx, runID, "", err)
		return nil, err
	}

	p.emit(runID, db.StepCanonicalMarkdown, "Writing cover letter", nil)
	parsed, err := p.ask(ctx, db.StepCanonicalMarkdown, llm.NewRequest(llm.TierStandard, system, user), parsing.ShapeMarkdown)
	if err != nil {
		p.finishRun(ctx, runID, "", err)
		return nil, err
	}

	canonical := fallback.CoverLetter(req)
	if r, ok := parsed.(*parsing.MarkdownResult); ok {
		md := r.Markdown
		if !strings.HasPrefix(md, "# ") {
			md = "# Cover Letter\n\n" + md
		}
		canonical = types.CanonicalDocument{Markdown: md, Source: types.SourceAI}
	}
	return p.renderDocument(ctx, runID, canonical, format)
}

// GeneratePortfolio writes portfolio copy for the requested sections.
// An empty section list selects fallback.DefaultPortfolioSections.
func (p *Pipeline) GeneratePortfolio(ctx context.Context, resumeText string, sections []string) (*types.PortfolioContent, error) {
	if len(sections) == 0 {
		sections = fallback.DefaultPortfolioSections
	}
	runID := p.startRun(ctx, "portfolio", preview(resumeText))

	content, err := p.portfolioContent(ctx, runID, resumeText, sections, nil)
	if err != nil {
		p.finishRun(ctx, runID, "", err)
		return nil, err
	}
	p.finishRun(ctx, runID, content.Source, nil)
	return &content, nil
}

// portfolioContent writes all sections with one request. The local fallback
// draws on analysis, or on a fallback analysis of resumeText when it is nil.
func (p *Pipeline) portfolioContent(ctx context.Context, runID uuid.UUID, resumeText string, sections []string, analysis *types.ResumeAnalysis) (types.PortfolioContent, error) {
	system, err := prompts.Get(promptFile, "portfolio-system")
	if err != nil {
		return types.PortfolioContent{}, err
	}
	user, err := prompts.Render(promptFile, "portfolio-user", map[string]string{
		"Sections":   strings.Join(sections, ", "),
		"ResumeText": resumeText,
	})
	if err != nil {
		return types.PortfolioContent{}, err
	}
	req := llm.NewRequest(llm.TierStandard, system, user)
	req.JSON = true

	p.emit(runID, db.StepPortfolio, "Writing portfolio", nil)
	parsed, err := p.ask(ctx, db.StepPortfolio, req, parsing.ShapePortfolio)
	if err != nil {
		return types.PortfolioContent{}, err
	}

	var content types.PortfolioContent
	if r, ok := parsed.(*parsing.PortfolioResult); ok && len(r.Content.Sections) > 0 {
		content = r.Content
		content.Source = types.SourceAI
	} else {
		if analysis == nil {
			a := fallback.Analysis(resumeText)
			analysis = &a
		}
		content = fallback.Portfolio(*analysis, sections)
	}

	p.save(ctx, runID, db.StepPortfolio, db.CategoryGenerated, content)
	p.emit(runID, db.StepPortfolio, fmt.Sprintf("%d sections written", len(content.Sections)), content)
	return content, nil
}

// Render renders caller supplied canonical markdown
func (p *Pipeline) Render(ctx context.Context, markdown string, format types.OutputFormat) (*types.RenderedArtifact, error) {
	runID := p.startRun(ctx, "render", preview(markdown))
	doc, err := p.renderDocument(ctx, runID, types.CanonicalDocument{Markdown: markdown}, format)
	if err != nil {
		return nil, err
	}
	return doc.Artifact, nil
}

func (p *Pipeline) renderDocument(ctx context.Context, runID uuid.UUID, canonical types.CanonicalDocument, format types.OutputFormat) (*Document, error) {
	p.saveText(ctx, runID, db.StepCanonicalMarkdown, db.CategoryGenerated, canonical.Markdown)
	p.emit(runID, db.StepRenderedArtifact, "Rendering "+string(format), nil)

	artifact, err := p.renderer.Render(ctx, canonical.Markdown, format)
	if err != nil {
		p.finishRun(ctx, runID, canonical.Source, err)
		return nil, err
	}

	p.save(ctx, runID, db.StepRenderedArtifact, db.CategoryRendered, db.NewRenderedRecord(artifact))
	p.emit(runID, db.StepRenderedArtifact, "Rendered "+artifact.Path, nil)
	p.finishRun(ctx, runID, canonical.Source, nil)
	return &Document{Canonical: canonical, Artifact: artifact, RunID: runID}, nil
}

// ask sends req through the orchestrator and interprets the response.
// A nil result with a nil error means the caller takes its fallback path;
// the only error returned is the context's.
func (p *Pipeline) ask(ctx context.Context, step string, req llm.Request, shape parsing.Shape) (parsing.ParsedResult, error) {
	if p.orch == nil {
		return nil, nil
	}

	res := p.orch.Generate(ctx, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !res.OK() {
		p.logger.Warn("ai generation failed, using fallback",
			"step", step, "kind", res.ErrorKind, "attempts", res.Attempts, "error", res.Err)
		return nil, nil
	}

	parsed, err := parsing.Interpret(res.Text, shape)
	if err != nil {
		p.logger.Warn("ai response not usable, using fallback", "step", step, "error", err)
		return nil, nil
	}
	if err := parsing.MissingFields(parsed); err != nil {
		p.logger.Warn("ai response was incomplete", "step", step, "error", err)
	}
	return parsed, nil
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 80 {
		return string(r[:80])
	}
	return s
}
