package ingestion

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/portfolio-ai/internal/types"
)

// GuidedQuestion is one prompt of the guided portfolio interview
type GuidedQuestion struct {
	Key       string `json:"key"`
	Text      string `json:"text"`
	Multiline bool   `json:"multiline,omitempty"`
}

// GuidedQuestions is the interview order. Answers are matched by position.
var GuidedQuestions = []GuidedQuestion{
	{Key: "name", Text: "What is your full name?"},
	{Key: "headline", Text: "What is your professional title/headline?"},
	{Key: "summary", Text: "Please provide a brief professional summary (2-3 sentences):"},
	{Key: "email", Text: "What is your email address?"},
	{Key: "phone", Text: "What is your phone number?"},
	{Key: "location", Text: "What is your location (City, Country)?"},
	{Key: "skills", Text: "List your top 5-10 skills (comma-separated):"},
	{Key: "experience", Multiline: true, Text: "Tell me about your work experience. For each role give \"title at company\", " +
		"then the dates, then one responsibility per line. Separate roles with an empty line."},
}

// ErrAnswerCount is returned when the answers do not line up with GuidedQuestions
var ErrAnswerCount = errors.New("answer count does not match question count")

// answerDateRe matches "Jan 2020", "January 2020", "2020-01" or "2020"
var answerDateRe = regexp.MustCompile(`(?i:(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*)\.? \d{4}|\d{4}-\d{2}|\d{4}`)

// ProfileFromAnswers builds a portfolio profile from guided interview answers,
// one per GuidedQuestions entry. Experience entries with fewer than three
// lines are skipped.
func ProfileFromAnswers(answers []string) (types.PortfolioProfile, error) {
	if len(answers) != len(GuidedQuestions) {
		return types.PortfolioProfile{}, fmt.Errorf("%w: got %d, want %d", ErrAnswerCount, len(answers), len(GuidedQuestions))
	}
	byKey := make(map[string]string, len(answers))
	for i, q := range GuidedQuestions {
		byKey[q.Key] = strings.TrimSpace(answers[i])
	}
	if byKey["name"] == "" {
		return types.PortfolioProfile{}, errors.New("a name is required")
	}

	profile := types.PortfolioProfile{Headline: byKey["headline"]}
	profile.PersonalInfo = types.PersonalInfo{
		Name:     byKey["name"],
		Email:    byKey["email"],
		Phone:    byKey["phone"],
		Location: byKey["location"],
		Summary:  byKey["summary"],
	}
	for _, s := range strings.Split(byKey["skills"], ",") {
		if s = strings.TrimSpace(s); s != "" {
			profile.Skills = append(profile.Skills, s)
		}
	}
	profile.WorkExperience = parseExperienceAnswer(byKey["experience"])
	return profile, nil
}

func parseExperienceAnswer(answer string) []types.WorkExperience {
	answer = strings.ReplaceAll(answer, "\r\n", "\n")
	var roles []types.WorkExperience
	for _, entry := range strings.Split(answer, "\n\n") {
		lines := nonEmptyLines(entry)
		if len(lines) < 3 {
			continue
		}
		role := types.WorkExperience{Title: lines[0]}
		if i := strings.LastIndex(strings.ToLower(lines[0]), " at "); i > 0 {
			role.Title = strings.TrimSpace(lines[0][:i])
			role.Company = strings.TrimSpace(lines[0][i+4:])
		}
		dates := answerDateRe.FindAllString(lines[1], 2)
		if len(dates) > 0 {
			role.StartDate = dates[0]
		}
		if len(dates) > 1 && !strings.Contains(strings.ToLower(lines[1]), "present") {
			role.EndDate = dates[1]
		} else {
			role.Current = true
		}
		role.Description = types.SplitLines(strings.Join(lines[2:], "\n"))
		roles = append(roles, role)
	}
	return roles
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
