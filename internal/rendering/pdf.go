package rendering

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
)

// PDF style tiers in points
const (
	pdfTitlePt    = 18
	pdfHeading2Pt = 14
	pdfHeading3Pt = 12
	pdfBodyPt     = 11
	pdfMarginPt   = 72
	pdfBulletIndt = 18
	pdfLineFactor = 1.35
)

// PDFEngine renders parsed blocks to PDF bytes
type PDFEngine interface {
	Name() string
	RenderPDF(ctx context.Context, blocks []Block) ([]byte, error)
}

// NativePDFEngine lays out blocks with fpdf using the core Helvetica fonts
type NativePDFEngine struct{}

// NewNativePDFEngine returns the in-process PDF engine
func NewNativePDFEngine() *NativePDFEngine { return &NativePDFEngine{} }

func (*NativePDFEngine) Name() string { return "native" }

// RenderPDF implements PDFEngine
func (e *NativePDFEngine) RenderPDF(ctx context.Context, blocks []Block) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := layoutPDF(blocks)
	return data, err
}

// pdfLayout records what was placed on the page
type pdfLayout struct {
	headings   map[int]int
	lists      [][]string
	paragraphs int
	pages      int
}

func headingSize(level int) float64 {
	switch level {
	case 1:
		return pdfTitlePt
	case 2:
		return pdfHeading2Pt
	default:
		return pdfHeading3Pt
	}
}

// checkEncodable fails on text the core fonts cannot show. They cover cp1252
// only, and fpdf would otherwise print other runes as garbage.
func checkEncodable(blocks []Block) error {
	enc := charmap.Windows1252.NewEncoder()
	check := func(text string) error {
		if _, err := enc.String(text); err != nil {
			if r := []rune(text); len(r) > 40 {
				text = string(r[:40]) + "..."
			}
			return fmt.Errorf("core pdf fonts cannot encode %q: %w", text, err)
		}
		return nil
	}
	for _, b := range blocks {
		if err := check(b.Text); err != nil {
			return err
		}
		for _, item := range b.Items {
			if err := check(item); err != nil {
				return err
			}
		}
	}
	return nil
}

func layoutPDF(blocks []Block) ([]byte, *pdfLayout, error) {
	if err := checkEncodable(blocks); err != nil {
		return nil, nil, err
	}
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pdfMarginPt, pdfMarginPt, pdfMarginPt)
	pdf.SetAutoPageBreak(true, pdfMarginPt)
	pdf.SetCreator("portfolio-ai", true)
	if title := Title(blocks); title != "" {
		pdf.SetTitle(title, true)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	layout := &pdfLayout{headings: map[int]int{}}
	for i, b := range blocks {
		switch b.Kind {
		case BlockHeading:
			size := headingSize(b.Level)
			if i > 0 {
				pdf.Ln(size * 0.5)
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, size*pdfLineFactor, tr(b.Text), "", "L", false)
			pdf.Ln(size * 0.2)
			layout.headings[b.Level]++

		case BlockList:
			pdf.SetFont("Helvetica", "", pdfBodyPt)
			lineH := pdfBodyPt * pdfLineFactor
			for _, item := range b.Items {
				pdf.SetX(pdfMarginPt + pdfBulletIndt)
				pdf.CellFormat(pdfBulletIndt, lineH, tr("•"), "", 0, "L", false, 0, "")
				pdf.MultiCell(0, lineH, tr(item), "", "L", false)
			}
			pdf.Ln(pdfBodyPt * 0.4)
			layout.lists = append(layout.lists, b.Items)

		default:
			pdf.SetFont("Helvetica", "", pdfBodyPt)
			pdf.MultiCell(0, pdfBodyPt*pdfLineFactor, tr(b.Text), "", "J", false)
			pdf.Ln(pdfBodyPt * 0.4)
			layout.paragraphs++
		}
	}

	layout.pages = pdf.PageNo()
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, nil, fmt.Errorf("fpdf output: %w", err)
	}
	return buf.Bytes(), layout, nil
}

// inspectPDF parses and validates rendered PDF bytes with pdfcpu and returns the page count
func inspectPDF(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu validate: %w", err)
	}
	return pdfCtx.PageCount, nil
}
