package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_PDF(t *testing.T) {
	data := buildPDF(textStream("Jane Doe"), textStream("Senior Go Engineer"))

	got, err := NewExtractor(0, nil).Extract(context.Background(), SourceDocument{
		Data:     data,
		Filename: "resume.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, FormatPDF, got.SourceFormat)
	assert.Contains(t, got.Text, "Jane Doe")
	assert.Contains(t, got.Text, "Senior Go Engineer")
	assert.Equal(t, len(got.Text), got.Length)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, 2, got.Metadata.Pages)
	assert.Equal(t, "sniff", got.Metadata.DetectedVia)
	assert.Len(t, got.Metadata.SourceHash, 64)
}

func TestExtract_PDFWithoutTextIsEmptyResult(t *testing.T) {
	data := buildPDF("", "")

	_, err := NewExtractor(0, nil).Extract(context.Background(), SourceDocument{Data: data, Filename: "scan.pdf"})
	require.Error(t, err)
	assert.True(t, IsExtractionError(err, KindEmptyResult), "got %v", err)
}

func TestExtract_CorruptPDF(t *testing.T) {
	data := []byte("%PDF-1.7\nthis is not really a pdf at all\n")

	_, err := NewExtractor(0, nil).Extract(context.Background(), SourceDocument{Data: data, Filename: "broken.pdf"})
	require.Error(t, err)

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, KindCorruptContent, extErr.Kind)
	assert.Equal(t, FormatPDF, extErr.Format)
}

func TestExtract_DOCX(t *testing.T) {
	data := buildDOCX(t,
		styledPara("Heading1", "Jane Doe"),
		`<w:p></w:p>`,
		`<w:p><w:r><w:t xml:space="preserve">Senior </w:t></w:r><w:r><w:t>Engineer</w:t></w:r></w:p>`,
		styledPara("Heading2", "Experience"),
		bulletPara("Built the billing platform"),
		para("   "),
	)

	got, err := NewExtractor(0, nil).Extract(context.Background(), SourceDocument{Data: data, Filename: "resume.docx"})
	require.NoError(t, err)

	assert.Equal(t, FormatDOCX, got.SourceFormat)
	assert.Equal(t, "# Jane Doe\nSenior Engineer\n## Experience\n- Built the billing platform", got.Text)
}

func TestExtract_DOCXTruncated(t *testing.T) {
	data := buildDOCX(t, para("Jane Doe"))
	_, err := extractDOCX(data[:len(data)/2])
	require.Error(t, err)
	assert.True(t, IsExtractionError(err, KindCorruptContent))
}

func TestExtract_DOCXNoText(t *testing.T) {
	data := buildDOCX(t, `<w:p></w:p>`, para(" "))

	_, err := NewExtractor(0, nil).Extract(context.Background(), SourceDocument{Data: data, Filename: "blank.docx"})
	require.Error(t, err)
	assert.True(t, IsExtractionError(err, KindEmptyResult), "got %v", err)
}

func TestExtract_LegacyDOCIsUnsupported(t *testing.T) {
	_, err := NewExtractor(0, nil).Extract(context.Background(), SourceDocument{
		Data:     []byte("binary word document stand-in"),
		Filename: "resume.doc",
	})
	require.Error(t, err)

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, KindUnsupportedType, extErr.Kind)
	assert.Equal(t, FormatDOC, extErr.Format)
	assert.Contains(t, extErr.Message, ".docx")
}

func TestExtract_Text(t *testing.T) {
	tests := []struct {
		name           string
		data           []byte
		want           string
		wantPermissive bool
	}{
		{
			name: "plain utf-8",
			data: []byte("Jane Doe\r\nSoftware   Engineer\r\n"),
			want: "Jane Doe\nSoftware Engineer",
		},
		{
			name: "utf-8 bom",
			data: append([]byte{0xEF, 0xBB, 0xBF}, []byte("Résumé of Jane")...),
			want: "Résumé of Jane",
		},
		{
			name: "utf-16le bom",
			data: []byte{0xFF, 0xFE, 'H', 0, 'i', 0, ' ', 0, 'J', 0, 'o', 0},
			want: "Hi Jo",
		},
		{
			name:           "invalid utf-8 decodes permissively",
			data:           []byte("Jane \xff\xfe Doe"),
			want:           "Jane Doe",
			wantPermissive: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewExtractor(0, nil).Extract(context.Background(), SourceDocument{Data: tt.data, Filename: "resume.txt"})
			require.NoError(t, err)
			assert.Equal(t, FormatTXT, got.SourceFormat)
			assert.Equal(t, tt.want, got.Text)
			assert.Equal(t, tt.wantPermissive, got.Metadata.Permissive)
		})
	}
}

func TestExtract_WhitespaceOnlyTextIsEmptyResult(t *testing.T) {
	_, err := NewExtractor(0, nil).Extract(context.Background(), SourceDocument{
		Data:     []byte("  \n\n\t  \f \n"),
		Filename: "blank.txt",
	})
	require.Error(t, err)
	assert.True(t, IsExtractionError(err, KindEmptyResult))
}

func TestExtract_HTML(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>CV</title><style>h1 { color: red; }</style>
<script>alert("x")</script></head>
<body><nav><a href="/">Home</a></nav>
<h1>Jane Doe</h1>
<p>Backend engineer.</p>
<ul><li>Go</li><li>PostgreSQL</li></ul>
</body></html>`

	got, err := NewExtractor(0, nil).Extract(context.Background(), SourceDocument{Data: []byte(page), Filename: "cv.html"})
	require.NoError(t, err)

	assert.Equal(t, FormatHTML, got.SourceFormat)
	assert.Contains(t, got.Text, "# Jane Doe")
	assert.Contains(t, got.Text, "Backend engineer.")
	assert.Contains(t, got.Text, "- Go")
	assert.Contains(t, got.Text, "- PostgreSQL")
	assert.NotContains(t, got.Text, "alert")
	assert.NotContains(t, got.Text, "Home")
	assert.NotContains(t, got.Text, "color")
}

func TestExtract_MarkdownPassthrough(t *testing.T) {
	md := "# Jane Doe\n\n## Skills\n- Go\n- SQL"

	got, err := NewExtractor(0, nil).Extract(context.Background(), SourceDocument{Data: []byte(md), Filename: "cv.md"})
	require.NoError(t, err)
	assert.Equal(t, FormatMD, got.SourceFormat)
	assert.Equal(t, md, got.Text)
}

func TestExtract_UnsupportedType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	_, err := NewExtractor(0, nil).Extract(context.Background(), SourceDocument{Data: png, Filename: "photo.png"})
	require.Error(t, err)
	assert.True(t, IsExtractionError(err, KindUnsupportedType), "got %v", err)
}

func TestExtract_EmptyUpload(t *testing.T) {
	_, err := NewExtractor(0, nil).Extract(context.Background(), SourceDocument{Filename: "resume.pdf"})
	require.Error(t, err)
	assert.True(t, IsExtractionError(err, KindEmptyResult))
}

func TestExtract_SizeLimit(t *testing.T) {
	_, err := NewExtractor(8, nil).Extract(context.Background(), SourceDocument{
		Data:     []byte("this upload is larger than eight bytes"),
		Filename: "resume.txt",
	})
	require.Error(t, err)
	assert.True(t, IsExtractionError(err, KindCorruptContent))
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor(0, nil).Extract(ctx, SourceDocument{Data: []byte("hello"), Filename: "a.txt"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("Jane Doe\nPROFESSIONAL EXPERIENCE\nAcme Corp"), 0o644))

	got, err := NewExtractor(0, nil).ExtractFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\n## Professional Experience\nAcme Corp", got.Text)
	assert.Equal(t, "resume.txt", got.Metadata.Filename)

	_, err = NewExtractor(0, nil).ExtractFile(context.Background(), filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestExtractionError_Error(t *testing.T) {
	err := corrupt(FormatDOCX, "open word/document.xml", os.ErrClosed)
	assert.Equal(t, "extraction error (corrupt_content, docx): open word/document.xml: file already closed", err.Error())
	assert.ErrorIs(t, err, os.ErrClosed)

	assert.Equal(t, "extraction error (empty_result, pdf): document contains no extractable text", empty(FormatPDF).Error())
}
