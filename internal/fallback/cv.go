// Package fallback synthesizes documents locally when the AI path is unavailable.
// Every function is pure and deterministic and accepts empty input.
package fallback

import (
	"strings"

	"github.com/jonathan/portfolio-ai/internal/types"
)

const (
	defaultName    = "Your Name"
	defaultSummary = "Experienced professional with a strong background in their field."
)

// CV builds a canonical CV with the fixed section order heading, summary,
// experience, education, skills. Sections are present even when empty.
func CV(data types.CVData) types.CanonicalDocument {
	var b docBuilder
	info := data.PersonalInfo

	b.heading(1, orDefault(info.Name, defaultName))
	b.paragraph(contactLine(info))

	b.heading(2, "Summary")
	b.paragraph(orDefault(info.Summary, defaultSummary))

	b.heading(2, "Experience")
	for _, job := range data.WorkExperience {
		b.heading(3, roleTitle(job))
		b.paragraph(joinNonEmpty(" | ", dateRange(job.StartDate, job.EndDate, job.Current), job.Location))
		b.bullets(job.Description)
	}

	b.heading(2, "Education")
	for _, edu := range data.Education {
		title := orDefault(edu.Degree, "Degree")
		if edu.FieldOfStudy != "" {
			title += " in " + edu.FieldOfStudy
		}
		b.heading(3, title)
		gpa := ""
		if edu.GPA != "" {
			gpa = "GPA: " + edu.GPA
		}
		b.paragraph(joinNonEmpty(" | ", edu.Institution, dateRange(edu.StartDate, edu.EndDate, false), gpa))
	}

	b.heading(2, "Skills")
	b.paragraph(strings.Join(compact(data.Skills), ", "))

	return types.CanonicalDocument{Markdown: b.String(), Source: types.SourceFallback}
}

func contactLine(info types.PersonalInfo) string {
	return joinNonEmpty(" | ", info.Email, info.Phone, info.Location, info.LinkedIn, info.GitHub, info.Website)
}

func roleTitle(job types.WorkExperience) string {
	title := orDefault(strings.TrimSpace(job.Title), "Position")
	if company := strings.TrimSpace(job.Company); company != "" {
		return title + " at " + company
	}
	return title
}

func dateRange(start, end string, current bool) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if end == "" && current {
		end = "Present"
	}
	switch {
	case start == "" && end == "":
		return ""
	case start == "":
		return end
	case end == "":
		return start
	default:
		return start + " to " + end
	}
}

// docBuilder writes canonical markdown: headings, bullets and paragraphs
// separated by blank lines
type docBuilder struct {
	sb strings.Builder
}

func (b *docBuilder) block(s string) {
	if b.sb.Len() > 0 {
		b.sb.WriteString("\n\n")
	}
	b.sb.WriteString(s)
}

func (b *docBuilder) heading(level int, text string) {
	b.block(strings.Repeat("#", level) + " " + oneLine(text))
}

func (b *docBuilder) paragraph(text string) {
	text = oneLine(text)
	if text == "" {
		return
	}
	b.block(text)
}

func (b *docBuilder) bullets(items []string) {
	var lines []string
	for _, item := range items {
		if item = oneLine(item); item != "" {
			lines = append(lines, "- "+item)
		}
	}
	if len(lines) > 0 {
		b.block(strings.Join(lines, "\n"))
	}
}

func (b *docBuilder) String() string {
	return b.sb.String() + "\n"
}

// oneLine flattens text so it cannot introduce new markdown blocks.
// Leading heading marks and "- " bullet markers are dropped.
func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	for {
		t := strings.TrimSpace(strings.TrimLeft(s, "#"))
		t = strings.TrimSpace(strings.TrimPrefix(t, "- "))
		if t == s {
			return t
		}
		s = t
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func joinNonEmpty(sep string, parts ...string) string {
	return strings.Join(compact(parts), sep)
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
