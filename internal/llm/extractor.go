// Package llm - extractor.go builds schema-driven structured extraction prompts.
package llm

import (
	"fmt"
	"strings"
)

// maxExtractionInput caps the resume text embedded in a prompt
const maxExtractionInput = 10000

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "ResumeAnalysis")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint shown to the model
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// RequiredFields lists the names of required fields in declaration order
func (s ExtractionSchema) RequiredFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = `"string"`
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		fmt.Fprintf(&sb, "  %q: %s%s", field.Name, typeHint, requiredHint)
		if field.Description != "" {
			fmt.Fprintf(&sb, " // %s", field.Description)
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent or summarize.\n")
	sb.WriteString("- Use an empty string or empty list when the text has no value for a field.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	if len(inputText) > maxExtractionInput {
		inputText = inputText[:maxExtractionInput]
	}
	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// --- Predefined Schemas ---

// ResumeAnalysisSchema returns the extraction schema for resume analysis.
func ResumeAnalysisSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "ResumeAnalysis",
		Description: `You are an expert resume parser. COPY TEXT VERBATIM where possible.
Your task is to extract structured information from a resume.
Goal: contact details, professional summary, work history, education, categorized skills and certifications.`,
		Fields: []SchemaField{
			{
				Name:        "personal_info",
				Type:        `{"name": "string", "email": "string", "phone": "string", "location": "string", "linkedin": "string", "github": "string", "portfolio": "string"}`,
				Description: "Contact details exactly as written",
				Required:    true,
			},
			{
				Name:        "summary",
				Type:        `"string"`,
				Description: "Professional summary or objective, 2-4 sentences",
				Required:    true,
			},
			{
				Name:        "work_experience",
				Type:        `[{"title": "string", "company": "string", "location": "string", "start_date": "string", "end_date": "string", "current": false, "description": ["string"]}]`,
				Description: "Roles, most recent first, with achievement bullets",
				Required:    true,
			},
			{
				Name:        "education",
				Type:        `[{"degree": "string", "institution": "string", "field_of_study": "string", "start_date": "string", "end_date": "string", "gpa": "string"}]`,
				Description: "Degrees and programs",
				Required:    true,
			},
			{
				Name:        "skills",
				Type:        `{"category": ["string"]}`,
				Description: "Skills grouped by category such as languages, frameworks, tools, soft_skills",
				Required:    true,
			},
			{
				Name:        "certifications",
				Type:        `["string"]`,
				Description: "Certifications and licenses",
				Required:    false,
			},
		},
	}
}

// CVDataSchema returns the extraction schema for turning free text into CV data.
func CVDataSchema() ExtractionSchema {
	analysis := ResumeAnalysisSchema()
	fields := make([]SchemaField, 0, 4)
	for _, f := range analysis.Fields {
		switch f.Name {
		case "personal_info", "work_experience", "education":
			fields = append(fields, f)
		}
	}
	fields = append(fields, SchemaField{
		Name:        "skills",
		Type:        `["string"]`,
		Description: "Flat list of skills",
		Required:    true,
	})
	return ExtractionSchema{
		Name: "CVData",
		Description: `You are an expert resume parser. COPY TEXT VERBATIM where possible.
Your task is to extract the data needed to typeset a CV from free text.`,
		Fields: fields,
	}
}
