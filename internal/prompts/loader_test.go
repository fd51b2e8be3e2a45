package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(CareerFile, "optimize-system")
	require.NoError(t, err)
	assert.Contains(t, prompt, "JSON object")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(CareerFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestFormat(t *testing.T) {
	template := "Hello {{.Name}}, welcome to {{.Company}}!"
	data := map[string]string{
		"Name":    "Alice",
		"Company": "Acme Corp",
	}

	assert.Equal(t, "Hello Alice, welcome to Acme Corp!", Format(template, data))
}

func TestFormat_EmptyData(t *testing.T) {
	template := "Hello {{.Name}}"

	assert.Equal(t, template, Format(template, map[string]string{})) // Placeholder remains
}

func TestFormat_ValueWithPlaceholderSyntax(t *testing.T) {
	template := "Resume: {{.ResumeText}} / Job: {{.Job}}"
	data := map[string]string{
		"ResumeText": "uses {{.Job}} templating",
		"Job":        "SRE",
	}

	assert.Equal(t, "Resume: uses {{.Job}} templating / Job: SRE", Format(template, data))
}

func TestRender_MissingValue(t *testing.T) {
	ClearCache()

	_, err := Render(CareerFile, "cover-letter-user", map[string]string{"Tone": "formal"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CompanyName")
}

func TestRender_AllCareerPromptsResolve(t *testing.T) {
	ClearCache()

	keys, err := List(CareerFile)
	require.NoError(t, err)
	require.NotEmpty(t, keys)

	for _, key := range keys {
		names, err := Placeholders(CareerFile, key)
		require.NoError(t, err)

		data := make(map[string]string, len(names))
		for _, n := range names {
			data[n] = "value-" + n
		}
		out, err := Render(CareerFile, key, data)
		require.NoError(t, err, key)
		assert.NotContains(t, out, "{{.", key)
	}
}

func TestPlaceholders(t *testing.T) {
	ClearCache()

	names, err := Placeholders(CareerFile, "portfolio-user")
	require.NoError(t, err)
	assert.Equal(t, []string{"ResumeText", "Sections"}, names)
}

func TestCaching(t *testing.T) {
	ClearCache()

	prompt1, err := Get(CareerFile, "cv-user")
	require.NoError(t, err)

	prompt2, err := Get(CareerFile, "cv-user")
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)
}
