package grounding

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rpdf "rsc.io/pdf"

	"github.com/thywilljoshua/deckgen/internal/apperr"
	"github.com/thywilljoshua/deckgen/internal/deck"
	"github.com/thywilljoshua/deckgen/internal/export"
)

func writePPTX(t *testing.T, slides map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.pptx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))
	require.NoError(t, err)
	for name, body := range slides {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func slideXML(runs ...string) string {
	s := `<?xml version="1.0" encoding="UTF-8"?><p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:sp><p:txBody>`
	for _, r := range runs {
		s += `<a:p><a:r><a:t>` + r + `</a:t></a:r></a:p>`
	}
	return s + `</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
}

func TestExtract_UnsupportedExtension(t *testing.T) {
	for _, name := range []string{"notes.txt", "report.docx", "noext"} {
		_, err := Extract(filepath.Join(t.TempDir(), name))
		require.Error(t, err, name)
		assert.True(t, apperr.Is(err, apperr.KindUnsupportedInput), name)
		assert.Contains(t, err.Error(), "please upload a PDF or PPTX file")
	}
}

func TestExtract_PPTXInSlideOrder(t *testing.T) {
	path := writePPTX(t, map[string]string{
		"ppt/slides/slide10.xml":           slideXML("Tenth"),
		"ppt/slides/slide2.xml":            slideXML("Second", "slide"),
		"ppt/slides/slide1.xml":            slideXML("First &amp; foremost"),
		"ppt/slides/_rels/slide1.xml.rels": `<Relationships/>`,
	})
	text, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "First & foremost\n\nSecond slide\n\nTenth", text)
}

func TestExtract_PPTXWithoutSlides(t *testing.T) {
	path := writePPTX(t, map[string]string{"docProps/app.xml": "<Properties/>"})
	_, err := Extract(path)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUnsupportedInput))
}

func TestExtract_CorruptFiles(t *testing.T) {
	dir := t.TempDir()
	pptx := filepath.Join(dir, "bad.pptx")
	require.NoError(t, os.WriteFile(pptx, []byte("definitely not a zip"), 0o644))
	pdf := filepath.Join(dir, "bad.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("hello"), 0o644))

	for _, p := range []string{pptx, pdf} {
		_, err := Extract(p)
		require.Error(t, err, p)
		assert.True(t, apperr.Is(err, apperr.KindUnsupportedInput), p)
	}
}

func TestExtract_PDF(t *testing.T) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	doc.Text(20, 20, "Quarterly revenue rose")
	doc.AddPage()
	doc.Text(20, 20, "Storage led growth")
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, doc.OutputFileAndClose(path))

	text, err := Extract(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Quarterly revenue rose")
	assert.Contains(t, text, "Storage led growth")
}

func TestExtract_PDFKeepsWordSpacesOfCoreFonts(t *testing.T) {
	b, err := export.FixedLayout(export.Input{
		DocType:  deck.Document,
		Template: deck.DefaultTemplate(),
		Items: []deck.Item{{
			Title:   "Solar energy costs",
			Content: []string{"Panel prices fell by ninety percent in a decade."},
		}},
	})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "document.pdf")
	require.NoError(t, os.WriteFile(path, b, 0o644))

	text, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Solar energy costs\nPanel prices fell by ninety percent in a decade.", text)
}

// writeRawPDF builds a one-page PDF around content using an unembedded Helvetica.
func writeRawPDF(t *testing.T, content string) string {
	t.Helper()
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)

	path := filepath.Join(t.TempDir(), "raw.pdf")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestExtract_PDFOperators(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"kerned words", "BT /F1 12 Tf 72 700 Td [(Grid)-250(scale)20(d)-300(storage)] TJ ET", "Grid scaled storage"},
		{"next line", "BT /F1 12 Tf 14 TL 72 700 Td (First line) Tj T* (Second line) Tj ET", "First line\nSecond line"},
		{"same line move", "BT /F1 12 Tf 72 700 Td (left) Tj 100 0 Td (right) Tj ET", "left right"},
		{"text matrix", "BT /F1 12 Tf 1 0 0 1 72 700 Tm (Top) Tj 1 0 0 1 72 600 Tm (Bottom) Tj ET", "Top\nBottom"},
		{"escaped string", `BT /F1 12 Tf 72 700 Td (costs \(USD\)) Tj ET`, "costs (USD)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Extract(writeRawPDF(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestPageText_UsesGlyphGeometry(t *testing.T) {
	runs := []rpdf.Text{
		{FontSize: 10, X: 0, Y: 100, W: 5, S: "H"},
		{FontSize: 10, X: 5, Y: 100, W: 5, S: "i"},
		{FontSize: 10, X: 14, Y: 100, W: 5, S: "o"},
		{FontSize: 10, X: 0, Y: 80, W: 5, S: "x"},
	}
	assert.Equal(t, "Hi o\nx", pageText(runs))
}
