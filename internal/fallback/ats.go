package fallback

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/portfolio-ai/internal/types"
)

const (
	maxSuggestions = 5
	maxKeywords    = 15
)

var wordRe = regexp.MustCompile(`\b\w+\b`)

// stopWords are frequent job-posting words that carry no skill signal
var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true, "our": true, "are": true,
	"will": true, "your": true, "this": true, "that": true, "have": true, "from": true, "who": true,
	"work": true, "team": true, "all": true, "can": true, "not": true, "but": true, "has": true,
	"their": true, "they": true, "what": true, "about": true, "into": true, "more": true, "such": true,
	"years": true, "year": true, "experience": true, "ability": true, "strong": true, "including": true,
}

var (
	contactPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(phone|mobile|tel|email|e-mail|linkedin|github)\b`),
		emailRe,
		regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
	}
	sectionChecks = []struct {
		re   *regexp.Regexp
		name string
	}{
		{regexp.MustCompile(`(?i)\b(experience|work\s*history|employment)\b`), "Work Experience"},
		{regexp.MustCompile(`(?i)\b(education|academic|degrees?)\b`), "Education"},
		{regexp.MustCompile(`(?i)\b(skills|technical\s*skills|programming\s*languages?)\b`), "Skills"},
		{regexp.MustCompile(`(?i)\b(projects|portfolio)\b`), "Projects"},
	}
	weakVerbs   = []string{"helped", "tried", "hoped", "wanted", "needed", "worked on"}
	strongVerbs = []string{"achieved", "managed", "created", "designed", "developed",
		"implemented", "improved", "increased", "led", "optimized"}
	metricRe = regexp.MustCompile(`\d+\s*(%|percent|x\b|k\b|\+)|\$\s*\d`)
)

// KeywordFrequencies counts lowercase words longer than two characters,
// skipping stop words
func KeywordFrequencies(text string) map[string]int {
	freq := map[string]int{}
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if len(w) <= 2 || stopWords[w] || isNumber(w) {
			continue
		}
		freq[w]++
	}
	return freq
}

func isNumber(w string) bool {
	for _, r := range w {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ATSScore scores resume against a job description as the share of job
// keyword occurrences the resume covers, capped at 100 and rounded to one
// decimal. Without a job description the score is the share of structural
// checks the resume passes.
func ATSScore(resume, job string) (score float64, matched, missing []string) {
	jobFreq := KeywordFrequencies(job)
	if len(jobFreq) == 0 {
		return structureScore(resume), []string{}, []string{}
	}

	resumeFreq := KeywordFrequencies(resume)
	total, covered := 0, 0
	matched, missing = []string{}, []string{}
	for _, kw := range byFrequency(jobFreq) {
		total += jobFreq[kw]
		if n, ok := resumeFreq[kw]; ok {
			covered += min(n, jobFreq[kw])
			matched = append(matched, kw)
		} else {
			missing = append(missing, kw)
		}
	}
	score = math.Min(100, float64(covered)/float64(total)*100)
	return round1(score), limit(matched, maxKeywords), limit(missing, maxKeywords)
}

func structureScore(resume string) float64 {
	checks, passed := len(sectionChecks)+1, 0
	if hasContact(resume) {
		passed++
	}
	for _, s := range sectionChecks {
		if s.re.MatchString(resume) {
			passed++
		}
	}
	return round1(float64(passed) / float64(checks) * 100)
}

// Suggestions returns heuristic improvement suggestions, at most five
func Suggestions(resume, job string) []string {
	out := []string{}
	if !hasContact(resume) {
		out = append(out, "Add contact information (phone, email, LinkedIn)")
	}
	for _, s := range sectionChecks {
		if !s.re.MatchString(resume) {
			out = append(out, "Consider adding a '"+s.name+"' section")
		}
	}

	lower := strings.ToLower(resume)
	if containsAny(lower, weakVerbs) && !containsAny(lower, strongVerbs) {
		out = append(out, "Use more action verbs to describe your experience")
	}
	if strings.TrimSpace(resume) != "" && !metricRe.MatchString(resume) {
		out = append(out, "Quantify achievements with numbers, percentages or amounts")
	}
	if _, _, missing := ATSScore(resume, job); len(missing) > 0 && strings.TrimSpace(job) != "" {
		out = append(out, "Work these job keywords into your resume: "+strings.Join(limit(missing, 5), ", "))
	}
	return limit(out, maxSuggestions)
}

// Optimization scores resume text locally. The text itself is returned unchanged.
func Optimization(resume, job string) types.OptimizationResult {
	score, matched, missing := ATSScore(resume, job)
	return types.OptimizationResult{
		OptimizedText:   resume,
		Score:           score,
		Suggestions:     Suggestions(resume, job),
		KeywordsMatched: matched,
		MissingKeywords: missing,
		Source:          types.SourceFallback,
	}
}

func hasContact(text string) bool {
	for _, re := range contactPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// byFrequency orders keywords by descending count, then alphabetically
func byFrequency(freq map[string]int) []string {
	out := make([]string, 0, len(freq))
	for k := range freq {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if freq[out[i]] != freq[out[j]] {
			return freq[out[i]] > freq[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
