package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"

	relBase       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
	relOfficeDoc  = relBase + "officeDocument"
	relCore       = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relApp        = relBase + "extended-properties"
	relImage      = relBase + "image"
	relTheme      = relBase + "theme"
	relSlide      = relBase + "slide"
	relSlideMst   = relBase + "slideMaster"
	relSlideLay   = relBase + "slideLayout"
	relNotesMst   = relBase + "notesMaster"
	relNotesSlide = relBase + "notesSlide"
	relPresProps  = relBase + "presProps"
	relStyles     = relBase + "styles"

	ctRels  = "application/vnd.openxmlformats-package.relationships+xml"
	ctCore  = "application/vnd.openxmlformats-package.core-properties+xml"
	ctApp   = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	ctTheme = "application/vnd.openxmlformats-officedocument.theme+xml"

	emuPerInch = 914400
)

// pkg accumulates the parts of an OPC package in write order.
type pkg struct {
	buf       bytes.Buffer
	zw        *zip.Writer
	err       error
	defaults  map[string]string
	overrides [][2]string
}

func newPkg() *pkg {
	p := &pkg{defaults: map[string]string{
		"rels": ctRels,
		"xml":  "application/xml",
	}}
	p.zw = zip.NewWriter(&p.buf)
	return p
}

// part adds name with an override content type. An empty ct relies on the extension default.
func (p *pkg) part(name, ct string, body []byte) {
	if p.err != nil {
		return
	}
	if ct != "" {
		p.overrides = append(p.overrides, [2]string{"/" + name, ct})
	}
	w, err := p.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		p.err = err
		return
	}
	_, p.err = w.Write(body)
}

func (p *pkg) xmlPart(name, ct, body string) { p.part(name, ct, []byte(xmlHeader+body)) }

func (p *pkg) media(ext, mime string) {
	p.defaults[strings.TrimPrefix(ext, ".")] = mime
}

func (p *pkg) coreProps(title string) {
	p.xmlPart("docProps/core.xml", ctCore, `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`+
		`<dc:title>`+esc(title)+`</dc:title><dc:creator>deckgen</dc:creator></cp:coreProperties>`)
	p.xmlPart("docProps/app.xml", ctApp, `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"><Application>deckgen</Application></Properties>`)
}

// close writes [Content_Types].xml and finishes the archive.
func (p *pkg) close() ([]byte, error) {
	var b strings.Builder
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	for _, ext := range slices.Sorted(maps.Keys(p.defaults)) {
		fmt.Fprintf(&b, `<Default Extension="%s" ContentType="%s"/>`, ext, p.defaults[ext])
	}
	for _, o := range p.overrides {
		fmt.Fprintf(&b, `<Override PartName="%s" ContentType="%s"/>`, o[0], o[1])
	}
	b.WriteString(`</Types>`)
	p.xmlPart("[Content_Types].xml", "", b.String())
	if p.err != nil {
		return nil, p.err
	}
	if err := p.zw.Close(); err != nil {
		return nil, err
	}
	return p.buf.Bytes(), nil
}

type rels struct{ b strings.Builder }

func (r *rels) add(id, typ, target string) {
	fmt.Fprintf(&r.b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, id, typ, esc(target))
}

func (r *rels) String() string {
	return `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + r.b.String() + `</Relationships>`
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// rgb normalizes a CSS hex colour to the six digit form OOXML wants.
// Anything unparseable becomes fallback.
func rgb(css, fallback string) string {
	if r, g, b, ok := parseHex(css); ok {
		return fmt.Sprintf("%02X%02X%02X", r, g, b)
	}
	return fallback
}

func parseHex(css string) (r, g, b int, ok bool) {
	s := strings.TrimPrefix(strings.TrimSpace(css), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return 0, 0, 0, false
	}
	return r, g, b, true
}
