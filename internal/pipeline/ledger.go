package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/portfolio-ai/internal/db"
	"github.com/jonathan/portfolio-ai/internal/types"
)

// ledgerTimeout bounds ledger writes that run after the caller's context ended
const ledgerTimeout = 5 * time.Second

func (p *Pipeline) startRun(ctx context.Context, operation, input string) uuid.UUID {
	if p.ledger == nil {
		return uuid.Nil
	}
	runID, err := p.ledger.CreateRun(ctx, operation, input)
	if err != nil {
		p.logger.Warn("failed to record run", "operation", operation, "error", err)
		return uuid.Nil
	}
	return runID
}

func (p *Pipeline) finishRun(ctx context.Context, runID uuid.UUID, source types.DocumentSource, runErr error) {
	if p.ledger == nil || runID == uuid.Nil {
		return
	}
	status, msg := db.StatusCompleted, ""
	if runErr != nil {
		status, msg = db.StatusFailed, runErr.Error()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerTimeout)
	defer cancel()
	if err := p.ledger.CompleteRun(ctx, runID, status, string(source), msg); err != nil {
		p.logger.Warn("failed to complete run", "run_id", runID, "error", err)
	}
}

func (p *Pipeline) save(ctx context.Context, runID uuid.UUID, step, category string, content any) {
	if p.ledger == nil || runID == uuid.Nil {
		return
	}
	if err := p.ledger.SaveArtifact(ctx, runID, step, category, content); err != nil {
		p.logger.Warn("failed to save artifact", "run_id", runID, "step", step, "error", err)
	}
}

func (p *Pipeline) saveText(ctx context.Context, runID uuid.UUID, step, category, text string) {
	if p.ledger == nil || runID == uuid.Nil {
		return
	}
	if err := p.ledger.SaveTextArtifact(ctx, runID, step, category, text); err != nil {
		p.logger.Warn("failed to save artifact", "run_id", runID, "step", step, "error", err)
	}
}
