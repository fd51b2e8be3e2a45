package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/portfolio-ai/internal/ingestion"
	"github.com/jonathan/portfolio-ai/internal/types"
)

// BatchJob turns one uploaded resume into a rendered CV
type BatchJob struct {
	Name   string
	Doc    ingestion.SourceDocument
	Format types.OutputFormat
}

// BatchResult is the outcome of one BatchJob
type BatchResult struct {
	Name     string
	Document *Document
	Err      error
}

// RunBatch runs jobs with at most Options.Concurrency in flight. Results are
// in input order; a failing job records its error and does not stop the others.
func (p *Pipeline) RunBatch(ctx context.Context, jobs []BatchJob) []BatchResult {
	results := make([]BatchResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, job := range jobs {
		results[i].Name = job.Name
		g.Go(func() error {
			doc, err := p.runJob(ctx, job)
			results[i].Document = doc
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pipeline) runJob(ctx context.Context, job BatchJob) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	extracted, err := p.ExtractResume(ctx, job.Doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", job.Name, err)
	}
	data, err := p.ParseCVData(ctx, extracted.Text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", job.Name, err)
	}
	doc, err := p.GenerateCV(ctx, *data, job.Format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", job.Name, err)
	}
	return doc, nil
}
