package export

import (
	"fmt"
	"strings"

	"github.com/thywilljoshua/deckgen/internal/deck"
)

const (
	ctDocument = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ctStyles   = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"

	// A4 in twentieths of a point, with 1in margins.
	a4W      = 11906
	a4H      = 16838
	marginTw = 1440

	maxImageW = 6.5 * emuPerInch
)

// Document encodes the items as a flowing A4 document: heading, image scaled
// to the text width, one paragraph per non-blank string, then a spacer.
// An image that cannot be decoded becomes an italic placeholder.
func Document(in Input) ([]byte, error) {
	p := newPkg()
	root := &rels{}
	root.add("rId1", relOfficeDoc, "word/document.xml")
	root.add("rId2", relCore, "docProps/core.xml")
	root.add("rId3", relApp, "docProps/app.xml")
	p.xmlPart("_rels/.rels", "", root.String())
	title := "Document"
	if len(in.Items) > 0 && in.Items[0].Title != "" {
		title = in.Items[0].Title
	}
	p.coreProps(title)

	docRels := &rels{}
	docRels.add("rId1", relStyles, "styles.xml")
	var body strings.Builder
	for i, it := range in.Items {
		if strings.TrimSpace(it.Title) != "" {
			body.WriteString(`<w:p><w:pPr><w:pStyle w:val="Heading1"/><w:spacing w:after="240"/></w:pPr>` + wrun(it.Title, false) + `</w:p>`)
		}
		if b, ok := in.Images[i]; ok {
			pic, err := loadPicture(b)
			if err != nil {
				body.WriteString(`<w:p><w:pPr><w:spacing w:after="120"/></w:pPr>` + wrun(imagePlaceholder(it), true) + `</w:p>`)
			} else {
				n := i + 1
				rid := fmt.Sprintf("rIdImg%d", n)
				media := fmt.Sprintf("image%d%s", n, pic.ext)
				p.media(pic.ext, pic.mime)
				p.part("word/media/"+media, "", pic.data)
				docRels.add(rid, relImage, "media/"+media)
				body.WriteString(inlineImage(n, rid, media, it.ImagePrompt, pic))
			}
		}
		for _, para := range it.Content {
			if strings.TrimSpace(para) == "" {
				continue
			}
			body.WriteString(`<w:p><w:pPr><w:spacing w:after="120"/></w:pPr>` + wrun(para, false) + `</w:p>`)
		}
		body.WriteString(`<w:p><w:pPr><w:spacing w:after="240"/></w:pPr></w:p>`)
	}
	fmt.Fprintf(&body, `<w:sectPr><w:pgSz w:w="%d" w:h="%d"/><w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>`,
		a4W, a4H, marginTw, marginTw, marginTw, marginTw)

	p.xmlPart("word/document.xml", ctDocument,
		`<w:document xmlns:w="`+nsW+`" xmlns:r="`+nsR+`" xmlns:wp="`+nsWP+`" xmlns:a="`+nsA+`" xmlns:pic="`+nsPic+`"><w:body>`+body.String()+`</w:body></w:document>`)
	p.xmlPart("word/_rels/document.xml.rels", "", docRels.String())
	p.xmlPart("word/styles.xml", ctStyles, stylesXML(in.Template))
	return p.close()
}

func imagePlaceholder(it deck.Item) string {
	label := strings.TrimSpace(it.ImagePrompt)
	if label == "" {
		label = "Untitled"
	}
	return "[Image failed to load: " + label + "]"
}

func wrun(text string, italic bool) string {
	rpr := ""
	if italic {
		rpr = `<w:rPr><w:i/></w:rPr>`
	}
	return `<w:r>` + rpr + `<w:t xml:space="preserve">` + esc(text) + `</w:t></w:r>`
}

// imageExtent scales a w x h pixel image to the maximum text width.
func imageExtent(w, h int) (cx, cy int) {
	cx = maxImageW
	cy = int(float64(cx) * float64(h) / float64(w))
	return cx, cy
}

func inlineImage(n int, rid, name, descr string, pic picture) string {
	cx, cy := imageExtent(pic.width, pic.height)
	var b strings.Builder
	b.WriteString(`<w:p><w:pPr><w:spacing w:after="120"/></w:pPr><w:r><w:drawing>`)
	fmt.Fprintf(&b, `<wp:inline distT="0" distB="0" distL="0" distR="0"><wp:extent cx="%d" cy="%d"/><wp:docPr id="%d" name="Picture %d" descr="%s"/>`, cx, cy, n, n, esc(descr))
	b.WriteString(`<wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`)
	b.WriteString(`<a:graphic><a:graphicData uri="` + nsPic + `"><pic:pic>`)
	fmt.Fprintf(&b, `<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`, n, esc(name))
	fmt.Fprintf(&b, `<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`, rid)
	fmt.Fprintf(&b, `<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`, cx, cy)
	b.WriteString(`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>`)
	return b.String()
}

func stylesXML(t deck.Template) string {
	font := esc(t.Font)
	if font == "" {
		font = "Calibri"
	}
	heading := rgb(t.Colors.Primary, "2F5496")
	text := rgb(t.Colors.Text, "000000")
	return `<w:styles xmlns:w="` + nsW + `">` +
		`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="` + font + `" w:hAnsi="` + font + `" w:cs="` + font + `"/><w:color w:val="` + text + `"/><w:sz w:val="22"/><w:szCs w:val="22"/><w:lang w:val="en-US"/></w:rPr></w:rPrDefault>` +
		`<w:pPrDefault><w:pPr><w:spacing w:after="160" w:line="259" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>` +
		`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>` +
		`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/>` +
		`<w:pPr><w:keepNext/><w:keepLines/><w:spacing w:before="240" w:after="240"/><w:outlineLvl w:val="0"/></w:pPr>` +
		`<w:rPr><w:b/><w:bCs/><w:color w:val="` + heading + `"/><w:sz w:val="32"/><w:szCs w:val="32"/></w:rPr></w:style>` +
		`</w:styles>`
}
