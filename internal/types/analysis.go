package types

import "sort"

// OptimizationResult is the outcome of an ATS optimization pass over a resume
type OptimizationResult struct {
	OptimizedText   string         `json:"optimized_text"`
	Score           float64        `json:"score"`
	Suggestions     StringList     `json:"suggestions"`
	KeywordsMatched StringList     `json:"keywords_matched"`
	MissingKeywords StringList     `json:"missing_keywords"`
	Source          DocumentSource `json:"source"`
}

// ResumeAnalysis is structured data extracted from free resume text
type ResumeAnalysis struct {
	PersonalInfo   PersonalInfo        `json:"personal_info"`
	Summary        string              `json:"summary"`
	WorkExperience []WorkExperience    `json:"work_experience"`
	Education      []Education         `json:"education"`
	Skills         map[string][]string `json:"skills"`
	Certifications StringList          `json:"certifications"`
	Sections       []string            `json:"sections,omitempty"` // section headings detected in the source
	Source         DocumentSource      `json:"source"`
}

// CVData converts an analysis into CV generation input
func (a *ResumeAnalysis) CVData() CVData {
	var skills StringList
	for _, category := range sortedKeys(a.Skills) {
		skills = append(skills, a.Skills[category]...)
	}
	info := a.PersonalInfo
	if info.Summary == "" {
		info.Summary = a.Summary
	}
	return CVData{
		PersonalInfo:   info,
		WorkExperience: a.WorkExperience,
		Education:      a.Education,
		Skills:         skills,
	}
}

// Analysis converts CV data into the analysis shape used for portfolio copy
func (d CVData) Analysis() ResumeAnalysis {
	a := ResumeAnalysis{
		PersonalInfo:   d.PersonalInfo,
		Summary:        d.PersonalInfo.Summary,
		WorkExperience: d.WorkExperience,
		Education:      d.Education,
		Skills:         map[string][]string{},
		Certifications: StringList{},
		Source:         SourceFallback,
	}
	if len(d.Skills) > 0 {
		a.Skills["skills"] = append([]string(nil), d.Skills...)
	}
	return a
}

// PortfolioSection is one named block of portfolio copy in markdown
type PortfolioSection struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// PortfolioContent is generated portfolio copy
type PortfolioContent struct {
	Sections []PortfolioSection `json:"sections"`
	Source   DocumentSource     `json:"source"`
}

// Markdown flattens the portfolio into a canonical document body
func (p *PortfolioContent) Markdown(title string) string {
	out := "# " + title + "\n"
	for _, s := range p.Sections {
		out += "\n## " + s.Name + "\n" + s.Content + "\n"
	}
	return out
}

// SectionSuggestion is the list of portfolio sections proposed for a resume
type SectionSuggestion struct {
	Sections []string       `json:"sections"`
	Source   DocumentSource `json:"source"`
}

// PortfolioProfile is the person a portfolio site is about
type PortfolioProfile struct {
	Headline string `json:"headline,omitempty"`
	CVData
}

// PortfolioSite is a rendered single page portfolio
type PortfolioSite struct {
	Profile  PortfolioProfile  `json:"profile"`
	Content  PortfolioContent  `json:"content"`
	Artifact *RenderedArtifact `json:"artifact"`
	RunID    string            `json:"run_id,omitempty"`
}

// CoverLetterRequest carries the inputs for cover letter generation
type CoverLetterRequest struct {
	CandidateName  string `json:"candidate_name"`
	JobTitle       string `json:"job_title" validate:"required"`
	CompanyName    string `json:"company_name" validate:"required"`
	JobDescription string `json:"job_description,omitempty"`
	ResumeText     string `json:"resume_text,omitempty"`
	Tone           string `json:"tone,omitempty" validate:"omitempty,oneof=professional enthusiastic formal friendly"`
	Length         string `json:"length,omitempty" validate:"omitempty,oneof=short medium long"`
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
