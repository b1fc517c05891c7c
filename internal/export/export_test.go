package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rpdf "rsc.io/pdf"

	"github.com/thywilljoshua/deckgen/internal/apperr"
	"github.com/thywilljoshua/deckgen/internal/deck"
	"github.com/thywilljoshua/deckgen/internal/grounding"
)

func jpegOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func unzip(t *testing.T, b []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = string(data)
	}
	return files
}

func pdfText(t *testing.T, b []byte) (pages int, text string) {
	t.Helper()
	r, err := rpdf.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	text, err = grounding.Extract(path)
	require.NoError(t, err)
	return r.NumPage(), text
}

func slides(t *testing.T) Input {
	return Input{
		DocType:  deck.Presentation,
		Template: deck.DefaultTemplate(),
		Items: []deck.Item{
			{Title: "Solar & Storage", Content: []string{"Cheap <fast>", "Everywhere"}, ImagePrompt: "panels", Notes: "Mention 2024 numbers"},
			{Title: "Costs", Content: []string{"Falling"}, Chart: &deck.Chart{
				Type: deck.ChartBar, Labels: []string{"2010", "2020"},
				Datasets: []deck.Dataset{{Label: "$/W", Data: []float64{2, 0.3}}},
			}},
			{Title: "Close", Content: []string{}},
		},
		Images: map[int][]byte{0: jpegOf(t, 32, 18)},
	}
}

func TestPresentation(t *testing.T) {
	b, err := Presentation(slides(t))
	require.NoError(t, err)
	files := unzip(t, b)

	for _, name := range []string{
		"[Content_Types].xml", "_rels/.rels", "ppt/presentation.xml", "ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml", "ppt/slideLayouts/slideLayout1.xml", "ppt/theme/theme1.xml",
		"ppt/slides/slide1.xml", "ppt/slides/slide2.xml", "ppt/slides/slide3.xml",
		"ppt/media/image1.jpg", "ppt/notesSlides/notesSlide1.xml", "ppt/notesMasters/notesMaster1.xml",
	} {
		assert.Contains(t, files, name)
	}
	assert.NotContains(t, files, "ppt/notesSlides/notesSlide2.xml")
	assert.NotContains(t, files, "ppt/media/image2.jpg")

	s1 := files["ppt/slides/slide1.xml"]
	assert.Contains(t, s1, "<a:t>Solar &amp; Storage</a:t>")
	assert.Contains(t, s1, "<a:t>Cheap &lt;fast&gt;</a:t>")
	assert.Contains(t, s1, `r:embed="rId2"`)
	assert.Contains(t, s1, `<a:ext cx="4114800" cy="3657600"/>`)
	assert.Contains(t, files["ppt/notesSlides/notesSlide1.xml"], "Mention 2024 numbers")
	assert.Contains(t, files["ppt/slides/_rels/slide1.xml.rels"], "../notesSlides/notesSlide1.xml")

	s2 := files["ppt/slides/slide2.xml"]
	assert.NotContains(t, s2, "<p:pic>")
	assert.Contains(t, s2, `<a:ext cx="8229600" cy="3657600"/>`)

	assert.Contains(t, files["ppt/presentation.xml"], `<p:sldSz cx="9144000" cy="5143500"/>`)
	assert.Contains(t, files["ppt/theme/theme1.xml"], `<a:accent1><a:srgbClr val="005A9C"/></a:accent1>`)
	assert.Contains(t, files["[Content_Types].xml"], `<Default Extension="jpg" ContentType="image/jpeg"/>`)
}

func TestPresentation_UndecodableImageIsLeftOut(t *testing.T) {
	in := slides(t)
	in.Images = map[int][]byte{0: []byte("not an image"), 7: jpegOf(t, 4, 4)}
	b, err := Presentation(in)
	require.NoError(t, err)
	files := unzip(t, b)
	assert.NotContains(t, files["ppt/slides/slide1.xml"], "<p:pic>")
	assert.NotContains(t, files, "ppt/media/image1.jpg")
}

func TestPresentation_NoNotesNoNotesMaster(t *testing.T) {
	in := slides(t)
	in.Items[0].Notes = ""
	b, err := Presentation(in)
	require.NoError(t, err)
	files := unzip(t, b)
	assert.NotContains(t, files, "ppt/notesMasters/notesMaster1.xml")
	assert.NotContains(t, files["ppt/presentation.xml"], "notesMasterIdLst")
}

func pages(t *testing.T) Input {
	return Input{
		DocType:  deck.Document,
		Template: deck.DefaultTemplate(),
		Items: []deck.Item{
			{Title: "Introduction", Content: []string{"First paragraph.", "  ", "Second paragraph."}, ImagePrompt: "city"},
			{Title: "", Content: []string{"Untitled body"}, ImagePrompt: "broken"},
			{Title: "No prompt", Content: []string{}},
		},
		Images: map[int][]byte{0: jpegOf(t, 400, 200), 1: []byte("garbage"), 2: []byte("also garbage")},
	}
}

func TestDocument(t *testing.T) {
	b, err := Document(pages(t))
	require.NoError(t, err)
	files := unzip(t, b)
	doc := files["word/document.xml"]

	assert.Contains(t, files, "word/styles.xml")
	assert.Contains(t, files, "word/media/image1.jpg")
	assert.Contains(t, files["word/_rels/document.xml.rels"], "media/image1.jpg")
	assert.Contains(t, files["word/styles.xml"], `w:styleId="Heading1"`)

	assert.Contains(t, doc, `<w:pStyle w:val="Heading1"/>`)
	assert.Contains(t, doc, "Introduction")
	assert.Equal(t, 2, strings.Count(doc, `<w:pStyle w:val="Heading1"/>`))
	// 6.5in wide, 2:1 aspect
	assert.Contains(t, doc, `<wp:extent cx="5943600" cy="2971800"/>`)
	assert.Contains(t, doc, "[Image failed to load: broken]")
	assert.Contains(t, doc, "[Image failed to load: Untitled]")
	assert.Contains(t, doc, "<w:i/>")
	assert.Equal(t, 2, strings.Count(doc, "paragraph.</w:t>"))
	assert.Contains(t, doc, `<w:pgSz w:w="11906" w:h="16838"/>`)
	assert.Contains(t, doc, `w:top="1440"`)
}

func TestDocument_HeadingSkippedForBlankTitle(t *testing.T) {
	b, err := Document(Input{DocType: deck.Document, Template: deck.DefaultTemplate(), Items: []deck.Item{{Title: "  ", Content: []string{"body"}}}})
	require.NoError(t, err)
	doc := unzip(t, b)["word/document.xml"]
	assert.NotContains(t, doc, "Heading1")
	assert.Contains(t, doc, "body")
}

func TestFixedLayout(t *testing.T) {
	b, err := FixedLayout(slides(t))
	require.NoError(t, err)
	n, text := pdfText(t, b)
	assert.Equal(t, 3, n)
	assert.Contains(t, text, "Costs")

	in := pages(t)
	in.DocType = deck.Document
	b, err = FixedLayout(in)
	require.NoError(t, err)
	n, text = pdfText(t, b)
	assert.GreaterOrEqual(t, n, 3)
	assert.Contains(t, text, "Introduction")
	assert.Contains(t, text, "[Image failed to load: broken]")
}

func TestFixedLayout_Charts(t *testing.T) {
	for _, ct := range []deck.ChartType{deck.ChartBar, deck.ChartLine, deck.ChartPie} {
		t.Run(string(ct), func(t *testing.T) {
			in := Input{DocType: deck.Presentation, Template: deck.DefaultTemplate(), Items: []deck.Item{{
				Title: "Chart", Content: []string{"x"},
				Chart: &deck.Chart{Type: ct, Labels: []string{"a", "b", "c"}, Datasets: []deck.Dataset{
					{Label: "one", Data: []float64{1, 0, 3}, BackgroundColor: []string{"#ff0000", "rgba(0,0,0,1)"}},
					{Label: "two", Data: []float64{-1, 2}},
				}},
			}}}
			b, err := FixedLayout(in)
			require.NoError(t, err)
			n, _ := pdfText(t, b)
			assert.Equal(t, 1, n)
		})
	}
}

func TestFixedLayout_LongSlideBody(t *testing.T) {
	bullets := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("Point %d", i+1)
		}
		return out
	}
	render := func(body []string) string {
		b, err := FixedLayout(Input{DocType: deck.Presentation, Template: deck.DefaultTemplate(),
			Items: []deck.Item{{Title: "Dense", Content: body}}})
		require.NoError(t, err)
		n, text := pdfText(t, b)
		require.Equal(t, 1, n)
		return text
	}

	// too many for the regular size, few enough once the font steps down
	text := render(bullets(28))
	assert.Contains(t, text, "Point 28")
	assert.NotContains(t, text, "...")

	text = render(bullets(80))
	assert.Contains(t, text, "Point 1")
	assert.Contains(t, text, "...")
	assert.NotContains(t, text, "Point 80")
}

// Every encoder renders a bare item and an empty list without failing.
func TestEncoders_TolerateSparseContent(t *testing.T) {
	bare := []deck.Item{{Title: "Bare Title", Content: []string{}}}
	tests := []struct {
		format  Format
		docType deck.DocumentType
		part    string
	}{
		{PPTX, deck.Presentation, "ppt/slides/slide1.xml"},
		{DOCX, deck.Document, "word/document.xml"},
		{PDF, deck.Presentation, ""},
		{PDF, deck.Document, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.format)+"/"+string(tt.docType), func(t *testing.T) {
			in := Input{DocType: tt.docType, Template: deck.DefaultTemplate(), Items: bare}
			b, err := Encode(tt.format, in)
			require.NoError(t, err)
			if tt.part != "" {
				assert.Contains(t, unzip(t, b)[tt.part], "Bare Title")
			} else {
				_, text := pdfText(t, b)
				assert.Contains(t, text, "Bare Title")
			}

			in.Items = nil
			_, err = Encode(tt.format, in)
			assert.NoError(t, err)
		})
	}
}

func TestEncode_RejectsWrongDocumentType(t *testing.T) {
	_, err := Encode(PPTX, Input{DocType: deck.Document})
	assert.True(t, apperr.Is(err, apperr.KindExport))
	_, err = Encode(DOCX, Input{DocType: deck.Presentation})
	assert.True(t, apperr.Is(err, apperr.KindExport))
}

func TestParseFormatAndFileName(t *testing.T) {
	f, err := ParseFormat(".PPTX")
	require.NoError(t, err)
	assert.Equal(t, PPTX, f)
	_, err = ParseFormat("odp")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	assert.Equal(t, "presentation.pptx", FileName(PPTX, deck.Presentation))
	assert.Equal(t, "document.docx", FileName(DOCX, deck.Document))
	assert.Equal(t, "presentation.pdf", FileName(PDF, deck.Presentation))
	assert.Equal(t, "document.pdf", FileName(PDF, deck.Document))
}

func TestExporter_WritesConventionalName(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(zerolog.Nop(), nil)
	path, err := e.Export(DOCX, pages(t), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "document.docx"), path)
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, st.Size())

	custom := filepath.Join(dir, "brief.docx")
	path, err = e.Export(DOCX, pages(t), custom)
	require.NoError(t, err)
	assert.Equal(t, custom, path)
}

func TestProbe(t *testing.T) {
	p, err := probe(jpegOf(t, 20, 10))
	require.NoError(t, err)
	assert.Equal(t, 20, p.width)
	assert.Equal(t, 10, p.height)
	assert.Equal(t, "image/jpeg", p.mime)
	assert.Equal(t, "JPG", p.fpdfType())

	_, err = probe(nil)
	assert.ErrorIs(t, err, errNoImageData)
	_, err = probe([]byte("<svg/>"))
	assert.Error(t, err)
}

func TestParseHex(t *testing.T) {
	assert.Equal(t, "005A9C", rgb("#005a9c", "000000"))
	assert.Equal(t, "FFAA00", rgb("#fa0", "000000"))
	assert.Equal(t, "123456", rgb("rgba(1,2,3,1)", "123456"))
}
