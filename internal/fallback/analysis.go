package fallback

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jonathan/portfolio-ai/internal/types"
)

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe    = regexp.MustCompile(`(\+\d{1,3}[\s.-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`)
	linkedInRe = regexp.MustCompile(`(?i)(https?://)?(www\.)?linkedin\.com/in/[A-Za-z0-9_-]+/?`)
	gitHubRe   = regexp.MustCompile(`(?i)(https?://)?(www\.)?github\.com/[A-Za-z0-9_-]+/?`)
	sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]`)
)

// skillCatalogue lists recognised skills by category
var skillCatalogue = map[string][]string{
	"languages":  {"Go", "Python", "Java", "JavaScript", "TypeScript", "C++", "C#", "Rust", "Ruby", "PHP", "Kotlin", "Swift", "Scala", "SQL"},
	"frameworks": {"React", "Angular", "Vue", "Django", "Flask", "FastAPI", "Spring", "Node.js", "Express", "Rails", ".NET"},
	"databases":  {"PostgreSQL", "MySQL", "MongoDB", "Redis", "SQLite", "Elasticsearch", "DynamoDB", "Cassandra"},
	"cloud":      {"AWS", "GCP", "Azure", "Docker", "Kubernetes", "Terraform", "CI/CD"},
	"tools":      {"Git", "Linux", "Jira", "Kafka", "RabbitMQ", "GraphQL", "gRPC", "Prometheus"},
}

// skillAliases map alternate spellings to catalogue names
var skillAliases = map[string]string{
	"golang":   "Go",
	"postgres": "PostgreSQL",
	"k8s":      "Kubernetes",
	"nodejs":   "Node.js",
	"js":       "JavaScript",
}

// sectionNames maps recognised headings to a canonical section key
var sectionNames = map[string]string{
	"summary":                 "summary",
	"profile":                 "summary",
	"about":                   "summary",
	"about me":                "summary",
	"objective":               "summary",
	"professional summary":    "summary",
	"experience":              "experience",
	"work experience":         "experience",
	"professional experience": "experience",
	"employment":              "experience",
	"employment history":      "experience",
	"work history":            "experience",
	"education":               "education",
	"skills":                  "skills",
	"technical skills":        "skills",
	"projects":                "projects",
	"certifications":          "certifications",
	"certificates":            "certifications",
	"licenses":                "certifications",
	"awards":                  "awards",
	"publications":            "publications",
	"languages":               "languages",
}

var skillPatterns = compileSkillPatterns()

type skillPattern struct {
	category string
	name     string
	re       *regexp.Regexp
}

func compileSkillPatterns() []skillPattern {
	var out []skillPattern
	categories := make([]string, 0, len(skillCatalogue))
	for c := range skillCatalogue {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		for _, name := range skillCatalogue[c] {
			out = append(out, skillPattern{category: c, name: name, re: skillRegexp(name)})
		}
	}
	return out
}

// skillRegexp matches name as a whole token; \b does not work for "C++" or ".NET".
// Names of two characters or fewer are matched case-sensitively.
func skillRegexp(name string) *regexp.Regexp {
	flags := "(?i)"
	if len(name) <= 2 {
		flags = ""
	}
	return regexp.MustCompile(flags + `(^|[^\w+#.])` + regexp.QuoteMeta(name) + `($|[^\w+#])`)
}

// Analysis extracts a best-effort structured analysis from resume text
// without any external calls.
func Analysis(text string) types.ResumeAnalysis {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	sections := splitSections(lines)

	a := types.ResumeAnalysis{
		PersonalInfo:   personalInfo(text, lines),
		WorkExperience: []types.WorkExperience{},
		Education:      []types.Education{},
		Skills:         detectSkills(text),
		Certifications: types.StringList{},
		Sections:       []string{},
		Source:         types.SourceFallback,
	}

	for _, s := range sections {
		if s.key != "" {
			a.Sections = append(a.Sections, s.title)
		}
	}
	if s := findSection(sections, "summary"); s != nil {
		a.Summary = firstSentences(strings.Join(s.body, " "), 2)
	}
	a.PersonalInfo.Summary = a.Summary

	if s := findSection(sections, "certifications"); s != nil {
		for _, l := range s.body {
			if l = cleanItem(l); l != "" {
				a.Certifications = append(a.Certifications, l)
			}
		}
	}
	if s := findSection(sections, "education"); s != nil {
		a.Education = educationEntries(s.body)
	}
	return a
}

type section struct {
	key   string
	title string
	body  []string
}

// splitSections groups lines under recognised headings. Lines before the first
// heading form an untitled leading section.
func splitSections(lines []string) []section {
	out := []section{{}}
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if key, title, ok := headingKey(line); ok {
			out = append(out, section{key: key, title: title})
			continue
		}
		cur := &out[len(out)-1]
		cur.body = append(cur.body, line)
	}
	return out
}

func headingKey(line string) (key, title string, ok bool) {
	title = strings.TrimSpace(strings.TrimLeft(line, "#"))
	title = strings.TrimSuffix(title, ":")
	key, ok = sectionNames[strings.ToLower(title)]
	if !ok {
		return "", "", false
	}
	return key, title, true
}

func findSection(sections []section, key string) *section {
	for i := range sections {
		if sections[i].key == key {
			return &sections[i]
		}
	}
	return nil
}

func personalInfo(text string, lines []string) types.PersonalInfo {
	info := types.PersonalInfo{
		Email:    emailRe.FindString(text),
		LinkedIn: linkedInRe.FindString(text),
		GitHub:   gitHubRe.FindString(text),
	}
	if m := phoneRe.FindString(text); m != "" {
		info.Phone = strings.TrimSpace(m)
	}
	for _, raw := range lines {
		line := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(raw), "#"))
		if line == "" {
			continue
		}
		if _, _, isHeading := headingKey(line); isHeading {
			break
		}
		if looksLikeName(line) {
			info.Name = line
		}
		break
	}
	return info
}

// looksLikeName accepts a short line of words with no contact details
func looksLikeName(line string) bool {
	if emailRe.MatchString(line) || phoneRe.MatchString(line) || strings.ContainsAny(line, "@/|:") {
		return false
	}
	words := strings.Fields(line)
	return len(words) >= 1 && len(words) <= 5
}

func detectSkills(text string) map[string][]string {
	out := map[string][]string{}
	seen := map[string]bool{}
	add := func(category, name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		out[category] = append(out[category], name)
	}
	for _, p := range skillPatterns {
		if p.re.MatchString(text) {
			add(p.category, p.name)
		}
	}
	lower := strings.ToLower(text)
	for alias, name := range skillAliases {
		if seen[name] || !skillRegexp(alias).MatchString(lower) {
			continue
		}
		add(categoryOf(name), name)
	}
	for c := range out {
		sort.Strings(out[c])
	}
	return out
}

func categoryOf(name string) string {
	for c, names := range skillCatalogue {
		for _, n := range names {
			if n == name {
				return c
			}
		}
	}
	return "general"
}

var degreeRe = regexp.MustCompile(`(?i)\b(B\.?S\.?c?|B\.?A|M\.?S\.?c?|M\.?A|MBA|Ph\.?D|Bachelor|Master|Doctor|Associate|Diploma)\b`)

func educationEntries(body []string) []types.Education {
	out := []types.Education{}
	for _, line := range body {
		line = cleanItem(line)
		if !degreeRe.MatchString(line) {
			continue
		}
		degree, institution := line, ""
		for _, sep := range []string{" - ", ", ", " at ", " | "} {
			if before, after, ok := strings.Cut(line, sep); ok {
				degree, institution = strings.TrimSpace(before), strings.TrimSpace(after)
				break
			}
		}
		out = append(out, types.Education{Degree: degree, Institution: institution})
	}
	return out
}

func firstSentences(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	matches := sentenceRe.FindAllString(text, n)
	if len(matches) == 0 {
		return text
	}
	for i := range matches {
		matches[i] = strings.TrimSpace(matches[i])
	}
	return strings.Join(matches, " ")
}

func cleanItem(line string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•·"))
}
