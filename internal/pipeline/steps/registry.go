// Package steps describes the recorded steps of a pipeline run and checks
// which of them a ledger run has completed.
package steps

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	dbpkg "github.com/jonathan/portfolio-ai/internal/db"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
	Optional     []string
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	dbpkg.StepExtractedText: {
		Name:     dbpkg.StepExtractedText,
		Category: dbpkg.CategoryIngestion,
	},
	dbpkg.StepAnalysis: {
		Name:     dbpkg.StepAnalysis,
		Category: dbpkg.CategoryGenerated,
		Optional: []string{dbpkg.StepExtractedText},
	},
	dbpkg.StepOptimization: {
		Name:     dbpkg.StepOptimization,
		Category: dbpkg.CategoryGenerated,
		Optional: []string{dbpkg.StepExtractedText},
	},
	dbpkg.StepPortfolio: {
		Name:     dbpkg.StepPortfolio,
		Category: dbpkg.CategoryGenerated,
		Optional: []string{dbpkg.StepExtractedText, dbpkg.StepAnalysis, dbpkg.StepSectionSuggestion},
	},
	dbpkg.StepSectionSuggestion: {
		Name:     dbpkg.StepSectionSuggestion,
		Category: dbpkg.CategoryGenerated,
		Optional: []string{dbpkg.StepExtractedText, dbpkg.StepAnalysis},
	},
	dbpkg.StepCanonicalMarkdown: {
		Name:     dbpkg.StepCanonicalMarkdown,
		Category: dbpkg.CategoryGenerated,
		Optional: []string{dbpkg.StepExtractedText, dbpkg.StepAnalysis},
	},
	dbpkg.StepRenderedArtifact: {
		Name:         dbpkg.StepRenderedArtifact,
		Category:     dbpkg.CategoryRendered,
		Dependencies: []string{dbpkg.StepCanonicalMarkdown},
	},
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// CategoryOf returns the category of a known step, or "" for unknown steps
func CategoryOf(step string) string {
	return StepRegistry[step].Category
}

// Completed returns the names of the steps recorded for a run
func Completed(ctx context.Context, ledger dbpkg.Ledger, runID uuid.UUID) (map[string]bool, error) {
	summaries, err := ledger.ListArtifacts(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	done := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		done[s.Step] = true
	}
	return done, nil
}

// ValidateDependencies checks that every required dependency of stepName is
// among the completed steps
func ValidateDependencies(stepName string, completed map[string]bool) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: stepName, MissingDependencies: missing}
	}
	return nil
}

// GetAvailableSteps returns the steps not yet recorded for a run whose
// dependencies are met, in name order
func GetAvailableSteps(ctx context.Context, ledger dbpkg.Ledger, runID uuid.UUID) ([]string, error) {
	completed, err := Completed(ctx, ledger, runID)
	if err != nil {
		return nil, err
	}

	var available []string
	for name := range StepRegistry {
		if completed[name] {
			continue
		}
		if ValidateDependencies(name, completed) != nil {
			continue
		}
		available = append(available, name)
	}
	sort.Strings(available)
	return available, nil
}
