package fallback

import (
	"strings"

	"github.com/jonathan/portfolio-ai/internal/types"
)

// DefaultPortfolioSections is the section order used when none are requested
var DefaultPortfolioSections = []string{"about", "experience", "education", "skills", "projects", "contact"}

// Suggested section counts
const (
	MinSuggestedSections = 3
	MaxSuggestedSections = 5
)

// SuggestSections picks portfolio sections from what the analysis contains
func SuggestSections(a types.ResumeAnalysis) types.SectionSuggestion {
	names := []string{"about"}
	if len(a.WorkExperience) > 0 {
		names = append(names, "experience")
	}
	if len(topSkills(a, 1)) > 0 {
		names = append(names, "skills")
	}
	if len(a.Education) > 0 {
		names = append(names, "education")
	}
	info := a.PersonalInfo
	if joinNonEmpty("", info.Email, info.Phone, info.LinkedIn, info.GitHub, info.Website) != "" {
		names = append(names, "contact")
	}
	return types.SectionSuggestion{Sections: ClampSections(names), Source: types.SourceFallback}
}

// ClampSections lowercases and de-duplicates names, truncates to
// MaxSuggestedSections and pads from DefaultPortfolioSections up to
// MinSuggestedSections.
func ClampSections(names []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	if len(out) > MaxSuggestedSections {
		out = out[:MaxSuggestedSections]
	}
	for _, name := range DefaultPortfolioSections {
		if len(out) >= MinSuggestedSections {
			break
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// EnhanceSection returns one section of copy: existing text is kept as is,
// otherwise the section is built from the analysis.
func EnhanceSection(a types.ResumeAnalysis, name, existing string) types.PortfolioContent {
	name = strings.ToLower(strings.TrimSpace(name))
	text := strings.TrimSpace(existing)
	if text == "" {
		text = portfolioSection(a, name)
	}
	return types.PortfolioContent{
		Sections: []types.PortfolioSection{{Name: name, Content: text}},
		Source:   types.SourceFallback,
	}
}

// Portfolio builds one section of markdown copy per requested section name.
// Unknown section names get a placeholder paragraph.
func Portfolio(a types.ResumeAnalysis, sections []string) types.PortfolioContent {
	if len(sections) == 0 {
		sections = DefaultPortfolioSections
	}
	content := types.PortfolioContent{Sections: []types.PortfolioSection{}, Source: types.SourceFallback}
	seen := map[string]bool{}
	for _, name := range sections {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		content.Sections = append(content.Sections, types.PortfolioSection{
			Name:    name,
			Content: portfolioSection(a, name),
		})
	}
	return content
}

func portfolioSection(a types.ResumeAnalysis, name string) string {
	switch name {
	case "about":
		if a.Summary != "" {
			return a.Summary
		}
		return orDefault(a.PersonalInfo.Summary, defaultSummary)

	case "experience":
		if len(a.WorkExperience) == 0 {
			return "Details of recent roles are available on request."
		}
		var b docBuilder
		for _, job := range a.WorkExperience {
			b.heading(3, roleTitle(job))
			b.paragraph(dateRange(job.StartDate, job.EndDate, job.Current))
			b.bullets(job.Description)
		}
		return strings.TrimSpace(b.String())

	case "education":
		if len(a.Education) == 0 {
			return "Education details are available on request."
		}
		var lines []string
		for _, edu := range a.Education {
			lines = append(lines, "- "+joinNonEmpty(", ", edu.Degree, edu.Institution))
		}
		return strings.Join(lines, "\n")

	case "skills":
		skills := topSkills(a, 50)
		if len(skills) == 0 {
			return "Skills will be listed here."
		}
		lines := make([]string, len(skills))
		for i, s := range skills {
			lines[i] = "- " + s
		}
		return strings.Join(lines, "\n")

	case "contact":
		info := a.PersonalInfo
		var lines []string
		for _, item := range []struct{ label, value string }{
			{"Email", info.Email}, {"Phone", info.Phone}, {"LinkedIn", info.LinkedIn},
			{"GitHub", info.GitHub}, {"Website", info.Website},
		} {
			if item.value != "" {
				lines = append(lines, "- "+item.label+": "+item.value)
			}
		}
		if len(lines) == 0 {
			return "Contact details are available on request."
		}
		return strings.Join(lines, "\n")

	case "projects":
		return "Selected projects will be showcased here."

	default:
		return "Content for this section is coming soon."
	}
}
