package rendering

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonathan/portfolio-ai/internal/types"
)

var siteDocument = template.Must(template.Must(htmlTemplates.Clone()).New("site").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Name}}{{if .Headline}} | {{.Headline}}{{end}}</title>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; margin: 0; padding: 20px; color: #333; }
.container { max-width: 800px; margin: 0 auto; }
header { text-align: center; margin-bottom: 30px; }
header h1 { margin-bottom: 0; }
.headline { font-size: 1.2em; color: #555; margin-top: 4px; }
.contact { color: #666; }
.links a { margin: 0 6px; color: #0b5394; }
section { margin-bottom: 30px; }
section > h2 { border-bottom: 2px solid #333; padding-bottom: 5px; }
.skill-tag { display: inline-block; background: #f0f0f0; padding: 5px 10px; margin: 5px; border-radius: 3px; }
</style>
</head>
<body>
<div class="container">
<header>
<h1>{{.Name}}</h1>
{{if .Headline}}<p class="headline">{{.Headline}}</p>
{{end}}{{if .Contact}}<p class="contact">{{.Contact}}</p>
{{end}}{{if .Links}}<p class="links">{{range .Links}}<a href="{{.URL}}">{{.Label}}</a>{{end}}</p>
{{end}}</header>
{{range .Sections}}<section id="{{.ID}}">
<h2>{{.Title}}</h2>
{{if .Tags}}<div class="skills">{{range .Tags}}<span class="skill-tag">{{.}}</span>{{end}}</div>
{{else}}{{template "blocks" .Blocks}}{{end}}</section>
{{end}}</div>
</body>
</html>
`))

type siteLink struct {
	Label string
	URL   string
}

type siteSection struct {
	ID     string
	Title  string
	Blocks []Block
	Tags   []string
}

type siteData struct {
	Name     string
	Headline string
	Contact  string
	Links    []siteLink
	Sections []siteSection
}

// RenderSite lays out a single page HTML portfolio. Section content is
// canonical markdown; a skills section made only of bullets becomes tags.
func RenderSite(profile types.PortfolioProfile, content types.PortfolioContent) ([]byte, error) {
	info := profile.PersonalInfo
	data := siteData{
		Name:     strings.TrimSpace(info.Name),
		Headline: strings.TrimSpace(profile.Headline),
		Contact:  joinNonEmpty(" | ", info.Email, info.Phone, info.Location),
		Sections: siteSections(content.Sections),
	}
	if data.Name == "" {
		data.Name = "Portfolio"
	}
	for _, l := range []siteLink{{"LinkedIn", info.LinkedIn}, {"GitHub", info.GitHub}, {"Website", info.Website}} {
		if l.URL != "" {
			data.Links = append(data.Links, l)
		}
	}
	if len(data.Sections) == 0 {
		return nil, &RenderError{Kind: KindEmptyOutput, Format: types.FormatHTML, Message: "portfolio has no sections"}
	}

	var buf bytes.Buffer
	if err := siteDocument.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute site template: %w", err)
	}
	return buf.Bytes(), nil
}

func siteSections(sections []types.PortfolioSection) []siteSection {
	caser := cases.Title(language.English)
	out := make([]siteSection, 0, len(sections))
	for _, s := range sections {
		name := strings.TrimSpace(s.Name)
		blocks := ParseBlocks(s.Content)
		if name == "" || len(blocks) == 0 {
			continue
		}
		title := caser.String(strings.NewReplacer("_", " ", "-", " ").Replace(name))
		// AI copy often repeats the section name as its own heading
		if blocks[0].Kind == BlockHeading && strings.EqualFold(blocks[0].Text, title) {
			blocks = blocks[1:]
		}
		if len(blocks) == 0 {
			continue
		}
		section := siteSection{ID: slug(name), Title: title, Blocks: blocks}
		if strings.EqualFold(name, "skills") && len(blocks) == 1 && blocks[0].Kind == BlockList {
			section.Tags = blocks[0].Items
		}
		out = append(out, section)
	}
	return out
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// RenderSite writes a portfolio page to an html artifact. There is no
// markdown fallback; callers hold the content if the page cannot be written.
func (r *Renderer) RenderSite(ctx context.Context, profile types.PortfolioProfile, content types.PortfolioContent) (*types.RenderedArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	data, err := RenderSite(profile, content)
	if err != nil {
		var re *RenderError
		if errors.As(err, &re) {
			return nil, err
		}
		return nil, &RenderError{Kind: KindRenderFailed, Format: types.FormatHTML, Message: "encoding failed", Cause: err}
	}
	return r.store(start, types.FormatHTML, data)
}
