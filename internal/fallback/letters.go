package fallback

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/portfolio-ai/internal/types"
)

type tone struct {
	opening string
	closing string
	signoff string
}

var tones = map[string]tone{
	"professional": {
		opening: "I am writing to apply for the %s position at %s.",
		closing: "Thank you for your time and consideration. I look forward to discussing how I can contribute to %s.",
		signoff: "Sincerely,",
	},
	"enthusiastic": {
		opening: "I was thrilled to see the %s opening at %s and am excited to apply.",
		closing: "I would love the chance to bring this energy to %s and would welcome a conversation.",
		signoff: "With enthusiasm,",
	},
	"formal": {
		opening: "Please accept this letter as my formal application for the position of %s at %s.",
		closing: "I thank you for your consideration and would be honoured to discuss my candidacy with %s.",
		signoff: "Yours faithfully,",
	},
	"friendly": {
		opening: "I'm reaching out about the %s role at %s, which looks like a great fit.",
		closing: "Thanks for reading. I'd be glad to chat about how I could help the team at %s.",
		signoff: "Best regards,",
	},
}

// CoverLetter builds a template cover letter. Unknown tones use the
// professional template; length controls how many body paragraphs appear.
func CoverLetter(req types.CoverLetterRequest) types.CanonicalDocument {
	t, ok := tones[strings.ToLower(req.Tone)]
	if !ok {
		t = tones["professional"]
	}
	role := orDefault(req.JobTitle, "advertised")
	company := orDefault(req.CompanyName, "your company")
	name := orDefault(req.CandidateName, defaultName)

	var b docBuilder
	b.heading(1, "Cover Letter")
	b.paragraph("Dear Hiring Manager,")
	b.paragraph(fmt.Sprintf(t.opening, role, company))

	skills := topSkills(Analysis(req.ResumeText), 5)
	body := []string{
		"My background has prepared me to deliver results from day one, and I take ownership of the problems I work on.",
	}
	if len(skills) > 0 {
		body[0] = "My experience with " + joinWithAnd(skills) + " has prepared me to deliver results from day one."
	}
	if missing := jobFocus(req.JobDescription); missing != "" {
		body = append(body, "The role's focus on "+missing+" matches the work I want to do next, and I am eager to deepen that expertise with your team.")
	}
	body = append(body, "I value clear communication, careful engineering and steady collaboration with colleagues across functions.")

	n := paragraphsFor(req.Length)
	if n > len(body) {
		n = len(body)
	}
	for _, p := range body[:n] {
		b.paragraph(p)
	}

	b.paragraph(fmt.Sprintf(t.closing, company))
	b.paragraph(t.signoff)
	b.paragraph(name)
	return types.CanonicalDocument{Markdown: b.String(), Source: types.SourceFallback}
}

func paragraphsFor(length string) int {
	switch strings.ToLower(length) {
	case "short":
		return 1
	case "long":
		return 3
	default:
		return 2
	}
}

// jobFocus names up to three of the job description's most frequent keywords
func jobFocus(job string) string {
	if strings.TrimSpace(job) == "" {
		return ""
	}
	kws := byFrequency(KeywordFrequencies(job))
	return joinWithAnd(limit(kws, 3))
}

func topSkills(a types.ResumeAnalysis, n int) []string {
	categories := make([]string, 0, len(a.Skills))
	for c := range a.Skills {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	var out []string
	for _, c := range categories {
		out = append(out, a.Skills[c]...)
	}
	return limit(out, n)
}

func joinWithAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
