package parsing

import (
	"errors"
	"testing"

	"github.com/jonathan/portfolio-ai/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const optimizationJSON = `{
  "optimized_text": "Jane Doe\nSenior Go Engineer",
  "score": 82,
  "suggestions": ["Quantify impact", "Add Kubernetes"],
  "keywords_matched": ["golang", "postgres"],
  "missing_keywords": ["k8s"]
}`

func TestInterpret_FencedEqualsBare(t *testing.T) {
	wrappings := map[string]string{
		"bare":            optimizationJSON,
		"json fence":      "```json\n" + optimizationJSON + "\n```",
		"plain fence":     "```\n" + optimizationJSON + "\n```",
		"fence with text": "Sure! Here is the result:\n\n```json\n" + optimizationJSON + "\n```\nLet me know if you need more.",
		"embedded span":   "The analysis follows. " + optimizationJSON + " Hope this helps {not json}.",
	}

	bare, err := Interpret(optimizationJSON, ShapeOptimization)
	require.NoError(t, err)
	want := bare.(*OptimizationResult).Result

	for name, raw := range wrappings {
		t.Run(name, func(t *testing.T) {
			got, err := Interpret(raw, ShapeOptimization)
			require.NoError(t, err)
			res, ok := got.(*OptimizationResult)
			require.True(t, ok, "got %T", got)
			assert.Equal(t, want, res.Result)
			assert.Empty(t, res.DefaultedFields())
		})
	}
}

func TestInterpret_Strategy(t *testing.T) {
	tests := []struct {
		raw  string
		want Strategy
	}{
		{raw: `{"sections": [{"name": "about", "content": "Hi"}]}`, want: StrategyDirect},
		{raw: "```json\n{\"sections\": [{\"name\": \"about\", \"content\": \"Hi\"}]}\n```", want: StrategyFenced},
		{raw: `Result: {"sections": [{"name": "about", "content": "Hi"}]} done`, want: StrategySpan},
	}
	for _, tt := range tests {
		got, err := Interpret(tt.raw, ShapePortfolio)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.(*PortfolioResult).Strategy)
	}
}

func TestInterpret_NoValidStructure(t *testing.T) {
	inputs := []string{
		"",
		"I'm sorry, I can't help with that.",
		"{ this is not json }",
		`{"unterminated": "value`,
		"[1, 2, 3]",
	}
	for _, shape := range []Shape{ShapeCV, ShapeOptimization, ShapeAnalysis} {
		for _, raw := range inputs {
			_, err := Interpret(raw, shape)
			require.Error(t, err, "shape %s input %q", shape, raw)

			var ie *InterpretationError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, KindNoValidStructure, ie.Kind)
			assert.Equal(t, shape, ie.Shape)
		}
	}
}

func TestInterpret_SpanSkipsBracesInStrings(t *testing.T) {
	raw := `Note {draft} ` + `{"optimized_text": "use {braces} and \"quotes\"", "score": 70, "suggestions": []}`

	got, err := Interpret(raw, ShapeOptimization)
	require.NoError(t, err)
	res := got.(*OptimizationResult).Result
	assert.Equal(t, `use {braces} and "quotes"`, res.OptimizedText)
	assert.Equal(t, 70.0, res.Score)
}

func TestInterpret_SpanAfterUnclosedBrace(t *testing.T) {
	raw := `Replace the { placeholder first. Result: {"optimized_text": "x", "score": 80, "suggestions": []}`

	got, err := Interpret(raw, ShapeOptimization)
	require.NoError(t, err)
	res := got.(*OptimizationResult).Result
	assert.Equal(t, "x", res.OptimizedText)
	assert.Equal(t, 80.0, res.Score)
}

func TestInterpret_OptimizationDefaults(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantScore     float64
		wantSugg      int
		wantDefaulted []string
	}{
		{
			name:          "missing score",
			raw:           `{"optimized_text": "x", "suggestions": ["a"]}`,
			wantScore:     0,
			wantSugg:      1,
			wantDefaulted: []string{"score"},
		},
		{
			name:      "score above range clamps",
			raw:       `{"optimized_text": "x", "score": 140, "suggestions": []}`,
			wantScore: 100,
		},
		{
			name:      "negative score clamps",
			raw:       `{"optimized_text": "x", "score": -3, "suggestions": []}`,
			wantScore: 0,
		},
		{
			name:      "percentage string",
			raw:       `{"optimized_text": "x", "score": "85%", "suggestions": []}`,
			wantScore: 85,
		},
		{
			name:      "ratio string",
			raw:       `{"optimized_text": "x", "score": "72/100", "suggestions": []}`,
			wantScore: 72,
		},
		{
			name:          "unparseable score",
			raw:           `{"optimized_text": "x", "score": "excellent", "suggestions": []}`,
			wantScore:     0,
			wantDefaulted: []string{"score"},
		},
		{
			name:      "suggestions as a bullet string",
			raw:       `{"optimized_text": "x", "score": 50, "suggestions": "- Add metrics\n- Shorten summary"}`,
			wantScore: 50,
			wantSugg:  2,
		},
		{
			name:      "suggestions capped",
			raw:       `{"optimized_text": "x", "score": 50, "suggestions": ["1","2","3","4","5","6","7"]}`,
			wantScore: 50,
			wantSugg:  5,
		},
		{
			name:          "everything missing",
			raw:           `{}`,
			wantDefaulted: []string{"optimized_text", "score", "suggestions"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interpret(tt.raw, ShapeOptimization)
			require.NoError(t, err)
			res := got.(*OptimizationResult)

			assert.Equal(t, tt.wantScore, res.Result.Score)
			assert.Len(t, res.Result.Suggestions, tt.wantSugg)
			assert.NotNil(t, res.Result.Suggestions)
			assert.NotNil(t, res.Result.KeywordsMatched)
			assert.NotNil(t, res.Result.MissingKeywords)
			assert.Equal(t, tt.wantDefaulted, res.DefaultedFields())
			assert.Equal(t, types.SourceAI, res.Result.Source)

			if len(tt.wantDefaulted) > 0 {
				var ie *InterpretationError
				require.ErrorAs(t, MissingFields(res), &ie)
				assert.Equal(t, KindMissingRequiredField, ie.Kind)
				assert.Equal(t, tt.wantDefaulted, ie.Fields)
			} else {
				assert.NoError(t, MissingFields(res))
			}
		})
	}
}

func TestInterpret_OptimizationKeywordsNormalized(t *testing.T) {
	got, err := Interpret(optimizationJSON, ShapeOptimization)
	require.NoError(t, err)
	res := got.(*OptimizationResult).Result
	assert.Equal(t, types.StringList{"Go", "PostgreSQL"}, res.KeywordsMatched)
	assert.Equal(t, types.StringList{"Kubernetes"}, res.MissingKeywords)
}

func TestInterpret_CV(t *testing.T) {
	raw := "```json\n" + `{
  "personal_info": {"name": "Jane Doe", "email": "jane@example.com"},
  "work_experience": [
    {"title": "Engineer", "company": "Acme", "description": "Built X\nLed Y"},
    "not an object"
  ],
  "education": [{"degree": "BSc", "institution": "State U"}],
  "skills": "Go, Python"
}` + "\n```"

	got, err := Interpret(raw, ShapeCV)
	require.NoError(t, err)
	cv, ok := got.(*CVResult)
	require.True(t, ok)

	assert.Equal(t, "Jane Doe", cv.Data.PersonalInfo.Name)
	require.Len(t, cv.Data.WorkExperience, 1)
	assert.Equal(t, types.StringList{"Built X", "Led Y"}, cv.Data.WorkExperience[0].Description)
	assert.Len(t, cv.Data.Education, 1)
	assert.Equal(t, []string{"work_experience.1"}, cv.DefaultedFields())
}

func TestInterpret_CVMissingName(t *testing.T) {
	got, err := Interpret(`{"personal_info": {"email": "a@b.co"}}`, ShapeCV)
	require.NoError(t, err)
	assert.Equal(t, []string{"personal_info.name"}, got.DefaultedFields())
}

func TestInterpret_Analysis(t *testing.T) {
	tests := []struct {
		name       string
		skills     string
		wantSkills map[string][]string
	}{
		{
			name:       "categorised",
			skills:     `{"Technical": ["golang", "Docker"], "Soft": "leadership, mentoring"}`,
			wantSkills: map[string][]string{"technical": {"Go", "Docker"}, "soft": {"Leadership", "Mentoring"}},
		},
		{
			name:       "flat list",
			skills:     `["python", "sql"]`,
			wantSkills: map[string][]string{"general": {"Python", "SQL"}},
		},
		{
			name:       "comma string",
			skills:     `"Go, Rust"`,
			wantSkills: map[string][]string{"general": {"Go", "Rust"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := `{"personal_info": {"name": "Jane"}, "summary": "Engineer", "work_experience": [], "education": [], "skills": ` + tt.skills + `}`
			got, err := Interpret(raw, ShapeAnalysis)
			require.NoError(t, err)
			a := got.(*AnalysisResult).Analysis
			assert.Equal(t, tt.wantSkills, map[string][]string(a.Skills))
			assert.Equal(t, "Engineer", a.Summary)
			assert.NotNil(t, a.Certifications)
			assert.Empty(t, got.DefaultedFields())
		})
	}
}

func TestInterpret_AnalysisMissingSections(t *testing.T) {
	got, err := Interpret(`{"personal_info": {"name": "Jane"}}`, ShapeAnalysis)
	require.NoError(t, err)
	a := got.(*AnalysisResult).Analysis

	assert.Equal(t, []string{"education", "skills", "summary", "work_experience"}, got.DefaultedFields())
	assert.NotNil(t, a.WorkExperience)
	assert.NotNil(t, a.Education)
	assert.NotNil(t, a.Skills)
}

func TestInterpret_Portfolio(t *testing.T) {
	t.Run("section list", func(t *testing.T) {
		raw := `{"sections": [{"name": "about", "content": "I build **systems**."}, {"name": "projects"}]}`
		got, err := Interpret(raw, ShapePortfolio)
		require.NoError(t, err)
		p := got.(*PortfolioResult)
		assert.Equal(t, []types.PortfolioSection{{Name: "about", Content: "I build **systems**."}}, p.Content.Sections)
		assert.Equal(t, []string{"sections.1.content"}, p.DefaultedFields())
		assert.False(t, p.FromPlainText)
	})

	t.Run("section map", func(t *testing.T) {
		raw := `{"sections": {"skills": "- Go", "about": "Hello"}}`
		got, err := Interpret(raw, ShapePortfolio)
		require.NoError(t, err)
		assert.Equal(t, []types.PortfolioSection{
			{Name: "about", Content: "Hello"},
			{Name: "skills", Content: "- Go"},
		}, got.(*PortfolioResult).Content.Sections)
	})

	t.Run("content string", func(t *testing.T) {
		got, err := Interpret(`{"content": "## About\nHello"}`, ShapePortfolio)
		require.NoError(t, err)
		assert.Equal(t, []types.PortfolioSection{{Name: "content", Content: "## About\nHello"}},
			got.(*PortfolioResult).Content.Sections)
	})

	t.Run("plain text", func(t *testing.T) {
		got, err := Interpret("## About Me\nI ship reliable services.", ShapePortfolio)
		require.NoError(t, err)
		p := got.(*PortfolioResult)
		assert.True(t, p.FromPlainText)
		assert.Equal(t, StrategyText, p.Strategy)
		assert.Equal(t, []types.PortfolioSection{{Name: "content", Content: "## About Me\nI ship reliable services."}}, p.Content.Sections)
	})

	t.Run("blank", func(t *testing.T) {
		_, err := Interpret("   ", ShapePortfolio)
		var ie *InterpretationError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, KindNoValidStructure, ie.Kind)
	})
}

func TestInterpret_Markdown(t *testing.T) {
	got, err := Interpret("```markdown\n# Jane Doe\n\n## Experience\n* Built X\n+ Led Y\n```", ShapeMarkdown)
	require.NoError(t, err)
	md := got.(*MarkdownResult)
	assert.Equal(t, "# Jane Doe\n\n## Experience\n- Built X\n- Led Y", md.Markdown)

	_, err = Interpret("```\n\n```", ShapeMarkdown)
	var ie *InterpretationError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, KindNoValidStructure, ie.Kind)
}

func TestInterpret_Sections(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     []string
		strategy Strategy
	}{
		{"object", `{"sections": ["About", "Projects"]}`, []string{"about", "projects"}, StrategyDirect},
		{"bare array", `["about", "skills", "About"]`, []string{"about", "skills"}, StrategySpan},
		{"array in prose", "Sure! Here are my picks:\n```json\n[\"Experience\", \"Contact\"]\n```", []string{"experience", "contact"}, StrategySpan},
		{"object without sections falls back to array", `{"note": 1} then ["blog"]`, []string{"blog"}, StrategySpan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interpret(tt.raw, ShapeSections)
			require.NoError(t, err)
			r := got.(*SectionsResult)
			assert.Equal(t, tt.want, r.Sections)
			assert.Equal(t, tt.strategy, r.Strategy)
		})
	}

	for _, raw := range []string{"about and skills", `{"sections": []}`, `["", "  "]`} {
		_, err := Interpret(raw, ShapeSections)
		var ie *InterpretationError
		require.ErrorAs(t, err, &ie, raw)
		assert.Equal(t, KindNoValidStructure, ie.Kind)
	}
}

func TestInterpret_UnknownShape(t *testing.T) {
	_, err := Interpret(`{}`, Shape("resume_tree"))
	assert.Error(t, err)
}

func TestParsedResultVariants(t *testing.T) {
	variants := []ParsedResult{
		&CVResult{}, &OptimizationResult{}, &AnalysisResult{}, &PortfolioResult{}, &MarkdownResult{},
		&SectionsResult{},
	}
	shapes := map[Shape]bool{}
	for _, v := range variants {
		shapes[v.Shape()] = true
		assert.Nil(t, v.DefaultedFields())
	}
	assert.Len(t, shapes, 6)
}
