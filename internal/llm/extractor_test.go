package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildExtractionPrompt(t *testing.T) {
	prompt := BuildExtractionPrompt(ResumeAnalysisSchema(), "Jane Doe\nGo engineer")

	assert.Contains(t, prompt, "expert resume parser")
	assert.Contains(t, prompt, `"personal_info": {"name"`)
	assert.Contains(t, prompt, "(required)")
	assert.Contains(t, prompt, "Jane Doe\nGo engineer")
	assert.True(t, strings.HasSuffix(prompt, "\"\"\"\n"))
}

func TestBuildExtractionPrompt_TruncatesInput(t *testing.T) {
	long := strings.Repeat("a", maxExtractionInput+500)

	prompt := BuildExtractionPrompt(CVDataSchema(), long)
	assert.NotContains(t, prompt, strings.Repeat("a", maxExtractionInput+1))
	assert.Contains(t, prompt, strings.Repeat("a", maxExtractionInput))
}

func TestSchemaRequiredFields(t *testing.T) {
	assert.Equal(t,
		[]string{"personal_info", "summary", "work_experience", "education", "skills"},
		ResumeAnalysisSchema().RequiredFields())
	assert.Equal(t,
		[]string{"personal_info", "work_experience", "education", "skills"},
		CVDataSchema().RequiredFields())
}
