// Package parsing turns raw AI responses into typed results.
package parsing

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/portfolio-ai/internal/schemas"
	"github.com/jonathan/portfolio-ai/internal/types"
	embedded "github.com/jonathan/portfolio-ai/schemas"
)

// Shape names the structure a caller expects from a response
type Shape string

const (
	ShapeCV           Shape = "cv_data"
	ShapeOptimization Shape = "optimization"
	ShapeAnalysis     Shape = "analysis"
	ShapePortfolio    Shape = "portfolio"
	ShapeMarkdown     Shape = "markdown"
	ShapeSections     Shape = "sections"
)

// maxSuggestions caps optimization suggestions
const maxSuggestions = 5

// ParsedResult is one of *CVResult, *OptimizationResult, *AnalysisResult,
// *PortfolioResult, *MarkdownResult or *SectionsResult.
type ParsedResult interface {
	Shape() Shape
	// DefaultedFields lists fields that were missing or malformed and were defaulted
	DefaultedFields() []string
	parsed()
}

// Meta is shared by every ParsedResult variant
type Meta struct {
	Strategy  Strategy
	Defaulted []string
}

func (m Meta) DefaultedFields() []string { return m.Defaulted }

func (Meta) parsed() {}

// CVResult carries structured CV data
type CVResult struct {
	Meta
	Data types.CVData
}

func (*CVResult) Shape() Shape { return ShapeCV }

// OptimizationResult carries an ATS optimization result
type OptimizationResult struct {
	Meta
	Result types.OptimizationResult
}

func (*OptimizationResult) Shape() Shape { return ShapeOptimization }

// AnalysisResult carries a structured resume analysis
type AnalysisResult struct {
	Meta
	Analysis types.ResumeAnalysis
}

func (*AnalysisResult) Shape() Shape { return ShapeAnalysis }

// PortfolioResult carries portfolio sections
type PortfolioResult struct {
	Meta
	Content types.PortfolioContent
	// FromPlainText is set when the response had no JSON and became a single section
	FromPlainText bool
}

func (*PortfolioResult) Shape() Shape { return ShapePortfolio }

// MarkdownResult carries canonical markdown
type MarkdownResult struct {
	Meta
	Markdown string
}

func (*MarkdownResult) Shape() Shape { return ShapeMarkdown }

// SectionsResult carries lowercased, de-duplicated section names
type SectionsResult struct {
	Meta
	Sections []string
}

func (*SectionsResult) Shape() Shape { return ShapeSections }

// Interpret parses raw into the variant for shape. A *InterpretationError of
// kind no_valid_structure means the caller should take its fallback path.
// Missing fields never fail interpretation; they are listed in DefaultedFields.
func Interpret(raw string, shape Shape) (ParsedResult, error) {
	switch shape {
	case ShapeMarkdown:
		md := CleanMarkdown(raw)
		if md == "" {
			return nil, noStructure(shape, "response contains no markdown content", nil)
		}
		return &MarkdownResult{Meta: Meta{Strategy: StrategyText}, Markdown: md}, nil
	case ShapeSections:
		return interpretSections(raw)
	case ShapeCV, ShapeOptimization, ShapeAnalysis, ShapePortfolio:
	default:
		return nil, noStructure(shape, "unknown shape", nil)
	}

	loc, err := locateJSON(raw)
	if err != nil {
		if shape == ShapePortfolio {
			return portfolioFromText(raw)
		}
		return nil, noStructure(shape, "response contains no JSON object", err)
	}

	d := &defaults{}
	switch shape {
	case ShapeCV:
		d.required(embedded.CVData, loc.text)
		data := decodeCVData(loc.fields, d)
		return &CVResult{Meta: d.meta(loc.strategy), Data: data}, nil
	case ShapeOptimization:
		d.required(embedded.OptimizationResult, loc.text)
		res := decodeOptimization(loc.fields, d)
		return &OptimizationResult{Meta: d.meta(loc.strategy), Result: res}, nil
	case ShapeAnalysis:
		d.required(embedded.ResumeAnalysis, loc.text)
		a := decodeAnalysis(loc.fields, d)
		return &AnalysisResult{Meta: d.meta(loc.strategy), Analysis: a}, nil
	default:
		d.required(embedded.PortfolioContent, loc.text)
		content := decodePortfolio(loc.fields, d)
		if len(content.Sections) == 0 {
			return nil, noStructure(shape, "response contains no portfolio sections", nil)
		}
		return &PortfolioResult{Meta: d.meta(loc.strategy), Content: content}, nil
	}
}

// defaults collects defaulted field paths
type defaults struct {
	fields map[string]struct{}
}

func (d *defaults) add(field string) {
	if d.fields == nil {
		d.fields = make(map[string]struct{})
	}
	d.fields[field] = struct{}{}
}

// required records the schema's missing required properties
func (d *defaults) required(schema, doc string) {
	missing, err := schemas.MissingRequired(schema, doc)
	if err != nil {
		return
	}
	for _, f := range missing {
		d.add(f)
	}
}

func (d *defaults) meta(strategy Strategy) Meta {
	m := Meta{Strategy: strategy}
	for f := range d.fields {
		m.Defaulted = append(m.Defaulted, f)
	}
	sort.Strings(m.Defaulted)
	return m
}

func decodeCVData(fields map[string]json.RawMessage, d *defaults) types.CVData {
	var data types.CVData
	if _, err := decodeField(fields, "personal_info", &data.PersonalInfo); err != nil {
		d.add("personal_info")
	}
	data.WorkExperience = decodeList[types.WorkExperience](fields, "work_experience", d)
	data.Education = decodeList[types.Education](fields, "education", d)
	if raw, ok := fields["skills"]; ok && !isNull(raw) {
		list, ok := coerceStringList(raw)
		if !ok {
			d.add("skills")
		}
		if len(list) == 1 {
			list = splitCommas(list[0])
		}
		data.Skills = NormalizeSkills(list)
	}
	return data
}

func decodeOptimization(fields map[string]json.RawMessage, d *defaults) types.OptimizationResult {
	res := types.OptimizationResult{Source: types.SourceAI}

	if raw, ok := fields["optimized_text"]; ok && !isNull(raw) {
		s, ok := coerceString(raw)
		if !ok {
			d.add("optimized_text")
		}
		res.OptimizedText = s
	}

	if raw, ok := fields["score"]; ok && !isNull(raw) {
		score, ok := coerceScore(raw)
		if !ok {
			d.add("score")
		}
		res.Score = score
	}

	res.Suggestions = types.StringList{}
	if raw, ok := fields["suggestions"]; ok && !isNull(raw) {
		list, ok := coerceStringList(raw)
		if !ok {
			d.add("suggestions")
		}
		if len(list) > maxSuggestions {
			list = list[:maxSuggestions]
		}
		if list != nil {
			res.Suggestions = list
		}
	}

	res.KeywordsMatched = keywordField(fields, "keywords_matched", d)
	res.MissingKeywords = keywordField(fields, "missing_keywords", d)
	return res
}

func keywordField(fields map[string]json.RawMessage, name string, d *defaults) types.StringList {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return types.StringList{}
	}
	list, ok := coerceStringList(raw)
	if !ok {
		d.add(name)
	}
	if len(list) == 1 && strings.Contains(list[0], ",") {
		list = splitCommas(list[0])
	}
	return NormalizeSkills(list)
}

func decodeAnalysis(fields map[string]json.RawMessage, d *defaults) types.ResumeAnalysis {
	a := types.ResumeAnalysis{Source: types.SourceAI, Skills: map[string][]string{}}

	if _, err := decodeField(fields, "personal_info", &a.PersonalInfo); err != nil {
		d.add("personal_info")
	}
	if raw, ok := fields["summary"]; ok && !isNull(raw) {
		s, ok := coerceString(raw)
		if !ok {
			d.add("summary")
		}
		a.Summary = s
	}
	a.WorkExperience = decodeList[types.WorkExperience](fields, "work_experience", d)
	a.Education = decodeList[types.Education](fields, "education", d)

	if raw, ok := fields["skills"]; ok && !isNull(raw) {
		skills, ok := coerceSkillMap(raw)
		if !ok {
			d.add("skills")
		} else {
			a.Skills = skills
		}
	}

	a.Certifications = types.StringList{}
	if raw, ok := fields["certifications"]; ok && !isNull(raw) {
		list, ok := coerceStringList(raw)
		if !ok {
			d.add("certifications")
		}
		if list != nil {
			a.Certifications = list
		}
	}
	return a
}

// decodeList decodes an array field item by item, skipping items that do not decode
func decodeList[T any](fields map[string]json.RawMessage, name string, d *defaults) []T {
	out := []T{}
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		d.add(name)
		return out
	}
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			d.add(fmt.Sprintf("%s.%d", name, i))
			continue
		}
		out = append(out, v)
	}
	return out
}

func decodePortfolio(fields map[string]json.RawMessage, d *defaults) types.PortfolioContent {
	content := types.PortfolioContent{Source: types.SourceAI, Sections: []types.PortfolioSection{}}

	if raw, ok := fields["sections"]; ok && !isNull(raw) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			for i, item := range items {
				if s, ok := decodeSection(item, i, d); ok {
					content.Sections = append(content.Sections, s)
				}
			}
			return content
		}
		var byName map[string]json.RawMessage
		if err := json.Unmarshal(raw, &byName); err == nil {
			content.Sections = sectionsFromMap(byName)
			return content
		}
		d.add("sections")
		return content
	}

	if raw, ok := fields["content"]; ok {
		if s, ok := coerceString(raw); ok && s != "" {
			content.Sections = append(content.Sections, types.PortfolioSection{Name: "content", Content: CleanMarkdown(s)})
			return content
		}
	}

	// {"about": "...", "projects": "..."}
	content.Sections = sectionsFromMap(fields)
	return content
}

func decodeSection(raw json.RawMessage, i int, d *defaults) (types.PortfolioSection, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		d.add(fmt.Sprintf("sections.%d", i))
		return types.PortfolioSection{}, false
	}
	var s types.PortfolioSection
	if v, ok := obj["name"]; ok {
		s.Name, _ = coerceString(v)
	}
	if s.Name == "" {
		s.Name = fmt.Sprintf("section_%d", i+1)
	}
	if v, ok := obj["content"]; ok {
		if text, ok := coerceString(v); ok {
			s.Content = CleanMarkdown(text)
		}
	}
	if s.Content == "" {
		return types.PortfolioSection{}, false
	}
	return s, true
}

func sectionsFromMap(m map[string]json.RawMessage) []types.PortfolioSection {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	sections := []types.PortfolioSection{}
	for _, name := range names {
		var text string
		if err := json.Unmarshal(m[name], &text); err != nil {
			continue
		}
		if text = CleanMarkdown(text); text != "" {
			sections = append(sections, types.PortfolioSection{Name: name, Content: text})
		}
	}
	return sections
}

// interpretSections accepts {"sections": [...]} or a bare JSON array of names
func interpretSections(raw string) (ParsedResult, error) {
	var (
		list     []string
		strategy Strategy
	)
	if loc, err := locateJSON(raw); err == nil {
		if v, ok := loc.fields["sections"]; ok {
			list, _ = coerceStringList(v)
		}
		strategy = loc.strategy
	}
	if len(list) == 0 {
		if i := strings.IndexByte(raw, '['); i >= 0 {
			var arr []json.RawMessage
			if err := json.NewDecoder(strings.NewReader(raw[i:])).Decode(&arr); err == nil {
				for _, item := range arr {
					if s, ok := coerceString(item); ok {
						list = append(list, s)
					}
				}
				strategy = StrategySpan
			}
		}
	}

	names := []string{}
	seen := map[string]bool{}
	for _, name := range list {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, noStructure(ShapeSections, "response contains no section names", nil)
	}
	return &SectionsResult{Meta: Meta{Strategy: strategy}, Sections: names}, nil
}

func portfolioFromText(raw string) (ParsedResult, error) {
	md := CleanMarkdown(raw)
	if md == "" {
		return nil, noStructure(ShapePortfolio, "response is empty", nil)
	}
	return &PortfolioResult{
		Meta: Meta{Strategy: StrategyText},
		Content: types.PortfolioContent{
			Sections: []types.PortfolioSection{{Name: "content", Content: md}},
			Source:   types.SourceAI,
		},
		FromPlainText: true,
	}, nil
}
