package ingestion

import (
	"bytes"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
)

// elements that never carry resume content
const htmlNoise = "script, style, noscript, template, iframe, svg, nav, form, button"

// extractHTML strips page chrome with goquery and converts the body to markdown.
func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", corrupt(FormatHTML, "parse html", err)
	}
	doc.Find(htmlNoise).Remove()
	doc.Find("[hidden], [aria-hidden=true]").Remove()

	selection := doc.Find("main").First()
	if selection.Length() == 0 {
		selection = doc.Find("body").First()
	}
	if selection.Length() == 0 {
		selection = doc.Selection
	}

	fragment, err := goquery.OuterHtml(selection)
	if err != nil {
		return "", corrupt(FormatHTML, "serialize html", err)
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	markdown, err := conv.ConvertString(fragment)
	if err != nil {
		// fall back to the visible text
		return strings.TrimSpace(selection.Text()), nil
	}
	return markdown, nil
}
