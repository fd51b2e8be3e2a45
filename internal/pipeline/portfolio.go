package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/portfolio-ai/internal/db"
	"github.com/jonathan/portfolio-ai/internal/fallback"
	"github.com/jonathan/portfolio-ai/internal/ingestion"
	"github.com/jonathan/portfolio-ai/internal/llm"
	"github.com/jonathan/portfolio-ai/internal/parsing"
	"github.com/jonathan/portfolio-ai/internal/prompts"
	"github.com/jonathan/portfolio-ai/internal/types"
)

// SectionRequest asks for one portfolio section to be written, or rewritten
// when Existing is set
type SectionRequest struct {
	ResumeText string `json:"resume_text"`
	Section    string `json:"section"`
	Existing   string `json:"existing,omitempty"`
}

// SiteRequest describes a portfolio site. At least one of ResumeText and
// Profile is required. Profile fills the page header; without it the
// resume is analysed first. Empty Sections are suggested.
type SiteRequest struct {
	ResumeText string                  `json:"resume_text,omitempty"`
	Profile    *types.PortfolioProfile `json:"profile,omitempty"`
	Sections   []string                `json:"sections,omitempty"`
	// Enhance writes each section with its own request
	Enhance bool `json:"enhance,omitempty"`
}

// SuggestPortfolioSections proposes between three and five portfolio sections for a resume
func (p *Pipeline) SuggestPortfolioSections(ctx context.Context, resumeText string) (*types.SectionSuggestion, error) {
	runID := p.startRun(ctx, "suggest-sections", preview(resumeText))
	suggestion, err := p.suggestSections(ctx, runID, resumeText, nil)
	if err != nil {
		p.finishRun(ctx, runID, "", err)
		return nil, err
	}
	p.finishRun(ctx, runID, suggestion.Source, nil)
	return &suggestion, nil
}

func (p *Pipeline) suggestSections(ctx context.Context, runID uuid.UUID, resumeText string, analysis *types.ResumeAnalysis) (types.SectionSuggestion, error) {
	system, err := prompts.Get(promptFile, "suggest-sections-system")
	if err != nil {
		return types.SectionSuggestion{}, err
	}
	user, err := prompts.Render(promptFile, "suggest-sections-user", map[string]string{"ResumeText": resumeText})
	if err != nil {
		return types.SectionSuggestion{}, err
	}
	req := llm.NewRequest(llm.TierLite, system, user)
	req.JSON = true

	p.emit(runID, db.StepSectionSuggestion, "Suggesting portfolio sections", nil)
	parsed, err := p.ask(ctx, db.StepSectionSuggestion, req, parsing.ShapeSections)
	if err != nil {
		return types.SectionSuggestion{}, err
	}

	var suggestion types.SectionSuggestion
	if r, ok := parsed.(*parsing.SectionsResult); ok {
		suggestion = types.SectionSuggestion{Sections: fallback.ClampSections(r.Sections), Source: types.SourceAI}
	} else {
		if analysis == nil {
			a := fallback.Analysis(resumeText)
			analysis = &a
		}
		suggestion = fallback.SuggestSections(*analysis)
	}

	p.save(ctx, runID, db.StepSectionSuggestion, db.CategoryGenerated, suggestion)
	p.emit(runID, db.StepSectionSuggestion, "Suggested "+strings.Join(suggestion.Sections, ", "), suggestion)
	return suggestion, nil
}

// EnhancePortfolioSection writes a single portfolio section. The result holds
// exactly one section named after the lowercased request section.
func (p *Pipeline) EnhancePortfolioSection(ctx context.Context, req SectionRequest) (*types.PortfolioContent, error) {
	section := strings.ToLower(strings.TrimSpace(req.Section))
	if section == "" {
		return nil, errors.New("section is required")
	}
	runID := p.startRun(ctx, "enhance-section", section)

	content, err := p.enhanceSection(ctx, runID, req.ResumeText, section, req.Existing, nil)
	if err != nil {
		p.finishRun(ctx, runID, "", err)
		return nil, err
	}
	p.save(ctx, runID, db.StepPortfolio, db.CategoryGenerated, content)
	p.finishRun(ctx, runID, content.Source, nil)
	return &content, nil
}

func (p *Pipeline) enhanceSection(ctx context.Context, runID uuid.UUID, resumeText, section, existing string, analysis *types.ResumeAnalysis) (types.PortfolioContent, error) {
	data := map[string]string{"Section": section}
	instructions, err := prompts.Render(promptFile, "section-"+section, data)
	if err != nil {
		if instructions, err = prompts.Render(promptFile, "section-default", data); err != nil {
			return types.PortfolioContent{}, err
		}
	}
	existingSection := ""
	if strings.TrimSpace(existing) != "" {
		existingSection = "\nExisting content (refine and improve this):\n" + existing + "\n"
	}
	system, err := prompts.Get(promptFile, "enhance-section-system")
	if err != nil {
		return types.PortfolioContent{}, err
	}
	user, err := prompts.Render(promptFile, "enhance-section-user", map[string]string{
		"Section":         section,
		"Instructions":    instructions,
		"ResumeText":      resumeText,
		"ExistingSection": existingSection,
	})
	if err != nil {
		return types.PortfolioContent{}, err
	}

	p.emit(runID, db.StepPortfolio, "Writing "+section+" section", nil)
	parsed, err := p.ask(ctx, db.StepPortfolio, llm.NewRequest(llm.TierStandard, system, user), parsing.ShapeMarkdown)
	if err != nil {
		return types.PortfolioContent{}, err
	}
	if r, ok := parsed.(*parsing.MarkdownResult); ok {
		return types.PortfolioContent{
			Sections: []types.PortfolioSection{{Name: section, Content: r.Markdown}},
			Source:   types.SourceAI,
		}, nil
	}
	if analysis == nil {
		a := fallback.Analysis(resumeText)
		analysis = &a
	}
	return fallback.EnhanceSection(*analysis, section, existing), nil
}

// BuildPortfolioSite writes portfolio copy and renders it as a single page
// HTML site. The returned artifact is owned by the caller.
func (p *Pipeline) BuildPortfolioSite(ctx context.Context, req SiteRequest) (*types.PortfolioSite, error) {
	label := preview(req.ResumeText)
	if req.Profile != nil {
		label = req.Profile.PersonalInfo.Name
	} else if strings.TrimSpace(req.ResumeText) == "" {
		return nil, errors.New("resume text or a profile is required")
	}
	runID := p.startRun(ctx, "portfolio-site", label)

	site, err := p.buildSite(ctx, runID, req)
	if err != nil {
		p.finishRun(ctx, runID, "", err)
		return nil, err
	}
	if runID != uuid.Nil {
		site.RunID = runID.String()
	}
	p.finishRun(ctx, runID, site.Content.Source, nil)
	return site, nil
}

// BuildPortfolioFromAnswers builds a portfolio site from guided interview
// answers, one per ingestion.GuidedQuestions entry
func (p *Pipeline) BuildPortfolioFromAnswers(ctx context.Context, answers []string, sections []string) (*types.PortfolioSite, error) {
	profile, err := ingestion.ProfileFromAnswers(answers)
	if err != nil {
		return nil, fmt.Errorf("invalid guided answers: %w", err)
	}
	return p.BuildPortfolioSite(ctx, SiteRequest{Profile: &profile, Sections: sections})
}

func (p *Pipeline) buildSite(ctx context.Context, runID uuid.UUID, req SiteRequest) (*types.PortfolioSite, error) {
	var (
		profile  types.PortfolioProfile
		analysis types.ResumeAnalysis
		text     = req.ResumeText
	)
	if req.Profile != nil {
		profile = *req.Profile
		analysis = profile.Analysis()
		if strings.TrimSpace(text) == "" {
			text = fallback.CV(profile.CVData).Markdown
		}
	} else {
		a, err := p.analyze(ctx, runID, text)
		if err != nil {
			return nil, err
		}
		p.save(ctx, runID, db.StepAnalysis, db.CategoryGenerated, a)
		analysis = *a
		profile = types.PortfolioProfile{CVData: a.CVData()}
	}
	if profile.Headline == "" && len(profile.WorkExperience) > 0 {
		profile.Headline = profile.WorkExperience[0].Title
	}

	sections := req.Sections
	if len(sections) == 0 {
		suggestion, err := p.suggestSections(ctx, runID, text, &analysis)
		if err != nil {
			return nil, err
		}
		sections = suggestion.Sections
	}

	var content types.PortfolioContent
	if req.Enhance {
		content = types.PortfolioContent{Sections: []types.PortfolioSection{}, Source: types.SourceAI}
		for _, section := range fallback.ClampSections(sections) {
			c, err := p.enhanceSection(ctx, runID, text, section, "", &analysis)
			if err != nil {
				return nil, err
			}
			content.Sections = append(content.Sections, c.Sections...)
			if c.Source == types.SourceFallback {
				content.Source = types.SourceFallback
			}
		}
		p.save(ctx, runID, db.StepPortfolio, db.CategoryGenerated, content)
	} else {
		c, err := p.portfolioContent(ctx, runID, text, sections, &analysis)
		if err != nil {
			return nil, err
		}
		content = c
	}

	title := profile.PersonalInfo.Name
	if title == "" {
		title = "Portfolio"
	}
	p.saveText(ctx, runID, db.StepCanonicalMarkdown, db.CategoryGenerated, content.Markdown(title))
	p.emit(runID, db.StepRenderedArtifact, "Rendering portfolio site", nil)

	artifact, err := p.renderer.RenderSite(ctx, profile, content)
	if err != nil {
		return nil, err
	}
	p.save(ctx, runID, db.StepRenderedArtifact, db.CategoryRendered, db.NewRenderedRecord(artifact))
	p.emit(runID, db.StepRenderedArtifact, "Rendered "+artifact.Path, nil)
	return &types.PortfolioSite{Profile: profile, Content: content, Artifact: artifact}, nil
}
