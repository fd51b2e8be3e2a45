package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/portfolio-ai/internal/types"
)

// RenderedRecord is the ledger view of a rendered artifact; the bytes stay on disk
type RenderedRecord struct {
	Path     string             `json:"path"`
	Format   types.OutputFormat `json:"format"`
	Size     int64              `json:"size"`
	FellBack bool               `json:"fell_back,omitempty"`
}

// NewRenderedRecord drops the artifact bytes
func NewRenderedRecord(a *types.RenderedArtifact) RenderedRecord {
	return RenderedRecord{Path: a.Path, Format: a.Format, Size: a.Size, FellBack: a.FellBack}
}

func getJSON[T any](ctx context.Context, l Ledger, runID uuid.UUID, step string) (*T, error) {
	content, err := l.GetArtifact(ctx, runID, step)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, nil
	}

	var v T
	if err := json.Unmarshal(content, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", step, err)
	}
	return &v, nil
}

// GetAnalysisByRunID loads the resume analysis recorded for a run
func GetAnalysisByRunID(ctx context.Context, l Ledger, runID uuid.UUID) (*types.ResumeAnalysis, error) {
	return getJSON[types.ResumeAnalysis](ctx, l, runID, StepAnalysis)
}

// GetOptimizationByRunID loads the ATS optimization result recorded for a run
func GetOptimizationByRunID(ctx context.Context, l Ledger, runID uuid.UUID) (*types.OptimizationResult, error) {
	return getJSON[types.OptimizationResult](ctx, l, runID, StepOptimization)
}

// GetPortfolioByRunID loads the portfolio content recorded for a run
func GetPortfolioByRunID(ctx context.Context, l Ledger, runID uuid.UUID) (*types.PortfolioContent, error) {
	return getJSON[types.PortfolioContent](ctx, l, runID, StepPortfolio)
}

// GetSectionSuggestionByRunID loads the portfolio sections suggested in a run
func GetSectionSuggestionByRunID(ctx context.Context, l Ledger, runID uuid.UUID) (*types.SectionSuggestion, error) {
	return getJSON[types.SectionSuggestion](ctx, l, runID, StepSectionSuggestion)
}

// GetRenderedByRunID loads the rendered artifact record of a run
func GetRenderedByRunID(ctx context.Context, l Ledger, runID uuid.UUID) (*RenderedRecord, error) {
	return getJSON[RenderedRecord](ctx, l, runID, StepRenderedArtifact)
}

// GetMarkdownByRunID loads the canonical markdown of a run; "" when none was recorded
func GetMarkdownByRunID(ctx context.Context, l Ledger, runID uuid.UUID) (string, error) {
	return l.GetTextArtifact(ctx, runID, StepCanonicalMarkdown)
}
