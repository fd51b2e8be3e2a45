package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/portfolio-ai/internal/types"
)

func newSQLite(t *testing.T) *SQLiteDB {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

// ledgers returns every backend available to the test run
func ledgers(t *testing.T) map[string]Ledger {
	t.Helper()
	out := map[string]Ledger{"sqlite": newSQLite(t)}
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		pg, err := Connect(context.Background(), dsn)
		require.NoError(t, err)
		t.Cleanup(pg.Close)
		out["postgres"] = pg
	}
	return out
}

func TestLedger_RunLifecycle(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			runID, err := l.CreateRun(ctx, "cv", "resume.pdf")
			require.NoError(t, err)
			t.Cleanup(func() { _ = l.DeleteRun(context.Background(), runID) })

			run, err := l.GetRun(ctx, runID)
			require.NoError(t, err)
			require.NotNil(t, run)
			assert.Equal(t, "cv", run.Operation)
			assert.Equal(t, "resume.pdf", run.Input)
			assert.Equal(t, StatusRunning, run.Status)
			assert.Nil(t, run.CompletedAt)

			require.NoError(t, l.CompleteRun(ctx, runID, StatusCompleted, string(types.SourceFallback), ""))
			run, err = l.GetRun(ctx, runID)
			require.NoError(t, err)
			assert.Equal(t, StatusCompleted, run.Status)
			assert.Equal(t, "fallback", run.Source)
			require.NotNil(t, run.CompletedAt)
			assert.False(t, run.CompletedAt.Before(run.CreatedAt))
		})
	}
}

func TestLedger_ArtifactRoundTrip(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			runID, err := l.CreateRun(ctx, "analyze", "resume.txt")
			require.NoError(t, err)
			t.Cleanup(func() { _ = l.DeleteRun(context.Background(), runID) })

			analysis := types.ResumeAnalysis{
				PersonalInfo: types.PersonalInfo{Name: "Jane Doe"},
				Skills:       map[string][]string{"languages": {"Go"}},
				Source:       types.SourceAI,
			}
			require.NoError(t, l.SaveArtifact(ctx, runID, StepAnalysis, CategoryGenerated, analysis))
			require.NoError(t, l.SaveTextArtifact(ctx, runID, StepCanonicalMarkdown, CategoryGenerated, "# Jane Doe\n"))

			got, err := GetAnalysisByRunID(ctx, l, runID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "Jane Doe", got.PersonalInfo.Name)
			assert.Equal(t, []string{"Go"}, got.Skills["languages"])

			md, err := GetMarkdownByRunID(ctx, l, runID)
			require.NoError(t, err)
			assert.Equal(t, "# Jane Doe\n", md)

			// Saving the same step again replaces it
			analysis.PersonalInfo.Name = "Jane Q. Doe"
			require.NoError(t, l.SaveArtifact(ctx, runID, StepAnalysis, CategoryGenerated, analysis))
			got, err = GetAnalysisByRunID(ctx, l, runID)
			require.NoError(t, err)
			assert.Equal(t, "Jane Q. Doe", got.PersonalInfo.Name)

			summaries, err := l.ListArtifacts(ctx, runID)
			require.NoError(t, err)
			require.Len(t, summaries, 2)
			byStep := map[string]ArtifactSummary{}
			for _, s := range summaries {
				byStep[s.Step] = s
			}
			assert.True(t, byStep[StepAnalysis].HasJSON)
			assert.False(t, byStep[StepAnalysis].HasText)
			assert.True(t, byStep[StepCanonicalMarkdown].HasText)
			assert.Equal(t, CategoryGenerated, byStep[StepCanonicalMarkdown].Category)
		})
	}
}

func TestLedger_MissingRecords(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			missing := uuid.New()

			run, err := l.GetRun(ctx, missing)
			require.NoError(t, err)
			assert.Nil(t, run)

			content, err := l.GetArtifact(ctx, missing, StepAnalysis)
			require.NoError(t, err)
			assert.Nil(t, content)

			opt, err := GetOptimizationByRunID(ctx, l, missing)
			require.NoError(t, err)
			assert.Nil(t, opt)

			text, err := l.GetTextArtifact(ctx, missing, StepCanonicalMarkdown)
			require.NoError(t, err)
			assert.Empty(t, text)

			err = l.DeleteRun(ctx, missing)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "run not found")
		})
	}
}

func TestSQLite_DeleteCascades(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	runID, err := s.CreateRun(ctx, "render", "doc.md")
	require.NoError(t, err)
	record := NewRenderedRecord(&types.RenderedArtifact{Path: "/tmp/a.pdf", Data: []byte("x"), Format: types.FormatPDF, Size: 1})
	require.NoError(t, s.SaveArtifact(ctx, runID, StepRenderedArtifact, CategoryRendered, record))

	got, err := GetRenderedByRunID(ctx, s, runID)
	require.NoError(t, err)
	assert.Equal(t, &record, got)

	require.NoError(t, s.DeleteRun(ctx, runID))
	content, err := s.GetArtifact(ctx, runID, StepRenderedArtifact)
	require.NoError(t, err)
	assert.Nil(t, content)
}

func TestSQLite_ListRunsFiltersAndOrders(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := s.CreateRun(ctx, "cv", "a")
	require.NoError(t, err)
	second, err := s.CreateRun(ctx, "cover-letter", "b")
	require.NoError(t, err)
	third, err := s.CreateRun(ctx, "cv", "c")
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, third, StatusFailed, "", "render failed"))

	all, err := s.ListRuns(ctx, RunFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{third, second, first}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "render failed", all[0].Error)

	cvs, err := s.ListRuns(ctx, RunFilters{Operation: "cv"})
	require.NoError(t, err)
	assert.Len(t, cvs, 2)

	failed, err := s.ListRuns(ctx, RunFilters{Status: StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, third, failed[0].ID)

	limited, err := s.ListRuns(ctx, RunFilters{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	l, err := Open(ctx, path)
	require.NoError(t, err)
	runID, err := l.CreateRun(ctx, "extract", "resume.docx")
	require.NoError(t, err)
	l.Close()

	reopened, err := Open(ctx, "sqlite://"+path)
	require.NoError(t, err)
	defer reopened.Close()

	run, err := reopened.GetRun(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "extract", run.Operation)
}

func TestOpen_EmptyURL(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
