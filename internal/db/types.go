package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Run represents a pipeline run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Operation   string     `json:"operation"`
	Input       string     `json:"input"`
	Status      string     `json:"status"`
	Source      string     `json:"source,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Run status values
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ArtifactStep constants for known artifact types
const (
	StepExtractedText     = "extracted_text"
	StepAnalysis          = "analysis"
	StepOptimization      = "optimization"
	StepPortfolio         = "portfolio"
	StepSectionSuggestion = "section_suggestion"
	StepCanonicalMarkdown = "canonical_markdown"
	StepRenderedArtifact  = "rendered_artifact"
)

// Artifact categories
const (
	CategoryIngestion = "ingestion"
	CategoryGenerated = "generated"
	CategoryRendered  = "rendered"
)

// Artifact represents an artifact record
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Step        string    `json:"step"`
	Category    string    `json:"category"`
	Content     []byte    `json:"content,omitempty"`
	TextContent string    `json:"text_content,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ArtifactSummary is a lightweight view of an artifact for listing
type ArtifactSummary struct {
	ID        uuid.UUID `json:"id"`
	Step      string    `json:"step"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	HasJSON   bool      `json:"has_json"`
	HasText   bool      `json:"has_text"`
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	Operation string
	Status    string
	Limit     int
}

// Ledger records pipeline runs and the artifacts each produced.
// Missing runs and artifacts are reported as nil results, not errors.
type Ledger interface {
	CreateRun(ctx context.Context, operation, input string) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, status, source, errMsg string) error
	GetRun(ctx context.Context, runID uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, filters RunFilters) ([]Run, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) error

	SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error
	SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) error
	GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error)
	GetTextArtifact(ctx context.Context, runID uuid.UUID, step string) (string, error)
	ListArtifacts(ctx context.Context, runID uuid.UUID) ([]ArtifactSummary, error)

	Close()
}
