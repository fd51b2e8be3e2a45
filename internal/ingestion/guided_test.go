package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/portfolio-ai/internal/types"
)

func answers(experience string) []string {
	return []string{
		" Jane Doe ",
		"Platform Engineer",
		"I build internal platforms.",
		"jane@example.com",
		"555-0100",
		"Berlin, Germany",
		"Go, Kubernetes,, Terraform ",
		experience,
	}
}

func TestProfileFromAnswers(t *testing.T) {
	experience := "Staff Engineer at Acme Corp\nJan 2020 - Present\n- Led the platform team\n- Cut deploy time in half\n\n" +
		"Engineer at Initech\n2016-05 to 2019-12\nBuilt billing services\n\n" +
		"Intern at Nowhere\n2015"

	profile, err := ProfileFromAnswers(answers(experience))
	require.NoError(t, err)

	assert.Equal(t, "Platform Engineer", profile.Headline)
	assert.Equal(t, types.PersonalInfo{
		Name: "Jane Doe", Email: "jane@example.com", Phone: "555-0100",
		Location: "Berlin, Germany", Summary: "I build internal platforms.",
	}, profile.PersonalInfo)
	assert.Equal(t, types.StringList{"Go", "Kubernetes", "Terraform"}, profile.Skills)

	require.Len(t, profile.WorkExperience, 2, "entries shorter than three lines are skipped")
	assert.Equal(t, types.WorkExperience{
		Title: "Staff Engineer", Company: "Acme Corp", StartDate: "Jan 2020", Current: true,
		Description: types.StringList{"Led the platform team", "Cut deploy time in half"},
	}, profile.WorkExperience[0])
	assert.Equal(t, types.WorkExperience{
		Title: "Engineer", Company: "Initech", StartDate: "2016-05", EndDate: "2019-12",
		Description: types.StringList{"Built billing services"},
	}, profile.WorkExperience[1])
}

func TestProfileFromAnswers_TitleWithoutCompany(t *testing.T) {
	profile, err := ProfileFromAnswers(answers("Freelance Developer\r\n2018 - 2021\r\nClient work"))
	require.NoError(t, err)
	require.Len(t, profile.WorkExperience, 1)
	role := profile.WorkExperience[0]
	assert.Equal(t, "Freelance Developer", role.Title)
	assert.Empty(t, role.Company)
	assert.Equal(t, "2018", role.StartDate)
	assert.Equal(t, "2021", role.EndDate)
	assert.False(t, role.Current)
}

func TestProfileFromAnswers_Errors(t *testing.T) {
	_, err := ProfileFromAnswers([]string{"Jane Doe"})
	assert.ErrorIs(t, err, ErrAnswerCount)

	missingName := answers("")
	missingName[0] = "  "
	_, err = ProfileFromAnswers(missingName)
	assert.Error(t, err)
}

func TestGuidedQuestions(t *testing.T) {
	keys := map[string]bool{}
	for _, q := range GuidedQuestions {
		assert.NotEmpty(t, q.Text)
		keys[q.Key] = true
	}
	assert.Len(t, keys, len(GuidedQuestions))
	assert.True(t, GuidedQuestions[len(GuidedQuestions)-1].Multiline)
}
