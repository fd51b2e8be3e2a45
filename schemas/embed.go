// Package schemas embeds the JSON Schemas for structured AI responses.
package schemas

import "embed"

// FS holds every *.schema.json file in this directory
//
//go:embed *.schema.json
var FS embed.FS

// Schema file names
const (
	CVData             = "cv_data.schema.json"
	ResumeAnalysis     = "resume_analysis.schema.json"
	OptimizationResult = "optimization_result.schema.json"
	PortfolioContent   = "portfolio_content.schema.json"
)
