package export

import (
	"fmt"
	"strings"

	"github.com/thywilljoshua/deckgen/internal/deck"
)

// 16:9 slide, 10in x 5.625in.
const (
	slideW = 10 * emuPerInch
	slideH = 5625 * emuPerInch / 1000

	titleX = emuPerInch / 2
	titleY = emuPerInch / 4
	titleW = slideW * 90 / 100
	titleH = emuPerInch

	bodyY      = emuPerInch * 3 / 2
	bodyH      = 4 * emuPerInch
	bodyNarrow = slideW * 45 / 100

	imageX = slideW * 52 / 100
	imageW = slideW * 45 / 100

	titleColor = "363636"
	bodyColor  = "494949"
)

const (
	ctPresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ctSlide        = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctSlideMaster  = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	ctSlideLayout  = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	ctNotesMaster  = "application/vnd.openxmlformats-officedocument.presentationml.notesMaster+xml"
	ctNotesSlide   = "application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"
	ctPresProps    = "application/vnd.openxmlformats-officedocument.presentationml.presProps+xml"
)

const pmlNS = `xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `"`

const emptyGroup = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

const clrMap = `bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"`

// Presentation encodes one slide per item: title, bullets, and the image for
// that index in the right column when there is one. Notes go to the notes page.
func Presentation(in Input) ([]byte, error) {
	p := newPkg()
	font := in.Template.Font
	hasNotes := false
	for _, it := range in.Items {
		if strings.TrimSpace(it.Notes) != "" {
			hasNotes = true
			break
		}
	}

	root := &rels{}
	root.add("rId1", relOfficeDoc, "ppt/presentation.xml")
	root.add("rId2", relCore, "docProps/core.xml")
	root.add("rId3", relApp, "docProps/app.xml")
	p.xmlPart("_rels/.rels", "", root.String())
	title := "Presentation"
	if len(in.Items) > 0 && in.Items[0].Title != "" {
		title = in.Items[0].Title
	}
	p.coreProps(title)

	pres := &rels{}
	pres.add("rId1", relSlideMst, "slideMasters/slideMaster1.xml")
	var sldIDs strings.Builder
	for i := range in.Items {
		rid := fmt.Sprintf("rId%d", i+2)
		pres.add(rid, relSlide, fmt.Sprintf("slides/slide%d.xml", i+1))
		fmt.Fprintf(&sldIDs, `<p:sldId id="%d" r:id="%s"/>`, 256+i, rid)
	}
	next := len(in.Items) + 2
	pres.add(fmt.Sprintf("rId%d", next), relTheme, "theme/theme1.xml")
	pres.add(fmt.Sprintf("rId%d", next+1), relPresProps, "presProps.xml")
	notesMasterRef := ""
	if hasNotes {
		rid := fmt.Sprintf("rId%d", next+2)
		pres.add(rid, relNotesMst, "notesMasters/notesMaster1.xml")
		notesMasterRef = `<p:notesMasterIdLst><p:notesMasterId r:id="` + rid + `"/></p:notesMasterIdLst>`
	}
	var doc strings.Builder
	doc.WriteString(`<p:presentation ` + pmlNS + ` saveSubsetFonts="1">`)
	doc.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	doc.WriteString(notesMasterRef)
	if len(in.Items) > 0 {
		doc.WriteString(`<p:sldIdLst>` + sldIDs.String() + `</p:sldIdLst>`)
	}
	fmt.Fprintf(&doc, `<p:sldSz cx="%d" cy="%d"/><p:notesSz cx="6858000" cy="9144000"/>`, slideW, slideH)
	doc.WriteString(`</p:presentation>`)
	p.xmlPart("ppt/presentation.xml", ctPresentation, doc.String())
	p.xmlPart("ppt/_rels/presentation.xml.rels", "", pres.String())
	p.xmlPart("ppt/presProps.xml", ctPresProps, `<p:presentationPr `+pmlNS+`/>`)

	p.xmlPart("ppt/theme/theme1.xml", ctTheme, themeXML(in.Template))
	master := &rels{}
	master.add("rId1", relSlideLay, "../slideLayouts/slideLayout1.xml")
	master.add("rId2", relTheme, "../theme/theme1.xml")
	p.xmlPart("ppt/slideMasters/slideMaster1.xml", ctSlideMaster, masterXML())
	p.xmlPart("ppt/slideMasters/_rels/slideMaster1.xml.rels", "", master.String())
	layout := &rels{}
	layout.add("rId1", relSlideMst, "../slideMasters/slideMaster1.xml")
	p.xmlPart("ppt/slideLayouts/slideLayout1.xml", ctSlideLayout,
		`<p:sldLayout `+pmlNS+` preserve="1"><p:cSld name="Blank"><p:spTree>`+emptyGroup+`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`)
	p.xmlPart("ppt/slideLayouts/_rels/slideLayout1.xml.rels", "", layout.String())

	if hasNotes {
		p.xmlPart("ppt/theme/theme2.xml", ctTheme, themeXML(in.Template))
		nm := &rels{}
		nm.add("rId1", relTheme, "../theme/theme2.xml")
		p.xmlPart("ppt/notesMasters/notesMaster1.xml", ctNotesMaster, notesMasterXML())
		p.xmlPart("ppt/notesMasters/_rels/notesMaster1.xml.rels", "", nm.String())
	}

	for i, it := range in.Items {
		n := i + 1
		sr := &rels{}
		sr.add("rId1", relSlideLay, "../slideLayouts/slideLayout1.xml")

		var pic *picture
		if b, ok := in.Images[i]; ok {
			// an image that cannot be decoded is left out rather than embedded broken
			if pp, err := loadPicture(b); err == nil {
				pic = &pp
				media := fmt.Sprintf("image%d%s", n, pp.ext)
				p.media(pp.ext, pp.mime)
				p.part("ppt/media/"+media, "", pp.data)
				sr.add("rId2", relImage, "../media/"+media)
			}
		}
		if hasNotes && strings.TrimSpace(it.Notes) != "" {
			sr.add("rId3", relNotesSlide, fmt.Sprintf("../notesSlides/notesSlide%d.xml", n))
			nr := &rels{}
			nr.add("rId1", relNotesMst, "../notesMasters/notesMaster1.xml")
			nr.add("rId2", relSlide, fmt.Sprintf("../slides/slide%d.xml", n))
			p.xmlPart(fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", n), ctNotesSlide, notesXML(it.Notes))
			p.xmlPart(fmt.Sprintf("ppt/notesSlides/_rels/notesSlide%d.xml.rels", n), "", nr.String())
		}
		p.xmlPart(fmt.Sprintf("ppt/slides/slide%d.xml", n), ctSlide, slideXML(it, pic, font))
		p.xmlPart(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), "", sr.String())
	}
	return p.close()
}

func slideXML(it deck.Item, pic *picture, font string) string {
	var b strings.Builder
	b.WriteString(`<p:sld ` + pmlNS + `><p:cSld><p:spTree>` + emptyGroup)

	b.WriteString(textBox(2, "Title", titleX, titleY, titleW, titleH, "ctr",
		[]string{run(it.Title, 3200, true, titleColor, font)}))

	bodyW := titleW
	if pic != nil {
		bodyW = bodyNarrow
	}
	var paras []string
	for _, line := range it.Content {
		paras = append(paras, `<a:pPr marL="285750" indent="-285750"><a:buFont typeface="Arial"/><a:buChar char="&#8226;"/></a:pPr>`+run(line, 1800, false, bodyColor, font))
	}
	b.WriteString(textBox(3, "Content", titleX, bodyY, bodyW, bodyH, "t", paras))

	if pic != nil {
		fmt.Fprintf(&b, `<p:pic><p:nvPicPr><p:cNvPr id="4" name="Image" descr="%s"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`, esc(it.ImagePrompt))
		b.WriteString(`<p:blipFill><a:blip r:embed="rId2"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`)
		fmt.Fprintf(&b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`, imageX, bodyY, imageW, bodyH)
	}
	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.String()
}

// textBox lays out one paragraph per entry of paras. Each entry is the inner XML of an a:p.
func textBox(id int, name string, x, y, w, h int, anchor string, paras []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, name)
	fmt.Fprintf(&b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`, x, y, w, h)
	fmt.Fprintf(&b, `<p:txBody><a:bodyPr wrap="square" rtlCol="0" anchor="%s"><a:normAutofit/></a:bodyPr><a:lstStyle/>`, anchor)
	if len(paras) == 0 {
		b.WriteString(`<a:p><a:endParaRPr lang="en-US" dirty="0"/></a:p>`)
	}
	for _, p := range paras {
		b.WriteString(`<a:p>` + p + `</a:p>`)
	}
	b.WriteString(`</p:txBody></p:sp>`)
	return b.String()
}

func run(text string, size int, bold bool, color, font string) string {
	b := "0"
	if bold {
		b = "1"
	}
	return fmt.Sprintf(`<a:r><a:rPr lang="en-US" sz="%d" b="%s" dirty="0"><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:latin typeface="%s"/></a:rPr><a:t>%s</a:t></a:r>`,
		size, b, color, esc(font), esc(text))
}

func notesXML(notes string) string {
	var b strings.Builder
	b.WriteString(`<p:notes ` + pmlNS + `><p:cSld><p:spTree>` + emptyGroup)
	b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Slide Image Placeholder 1"/><p:cNvSpPr><a:spLocks noGrp="1" noRot="1" noChangeAspect="1"/></p:cNvSpPr><p:nvPr><p:ph type="sldImg"/></p:nvPr></p:nvSpPr><p:spPr/></p:sp>`)
	b.WriteString(`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Notes Placeholder 2"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr><p:spPr/>`)
	b.WriteString(`<p:txBody><a:bodyPr/><a:lstStyle/>`)
	for _, line := range strings.Split(notes, "\n") {
		b.WriteString(`<a:p><a:r><a:rPr lang="en-US" dirty="0"/><a:t>` + esc(line) + `</a:t></a:r></a:p>`)
	}
	b.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:notes>`)
	return b.String()
}

func masterXML() string {
	return `<p:sldMaster ` + pmlNS + `><p:cSld><p:bg><p:bgPr><a:solidFill><a:schemeClr val="bg1"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>` +
		`<p:spTree>` + emptyGroup + `</p:spTree></p:cSld>` +
		`<p:clrMap ` + clrMap + `/>` +
		`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>` +
		`<p:txStyles><p:titleStyle/><p:bodyStyle/><p:otherStyle/></p:txStyles></p:sldMaster>`
}

func notesMasterXML() string {
	return `<p:notesMaster ` + pmlNS + `><p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>` + emptyGroup +
		`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Notes Placeholder 1"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph type="body" idx="1"/></p:nvPr></p:nvSpPr>` +
		`<p:spPr><a:xfrm><a:off x="685800" y="4400550"/><a:ext cx="5486400" cy="3600450"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>` +
		`<p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:endParaRPr lang="en-US"/></a:p></p:txBody></p:sp>` +
		`</p:spTree></p:cSld><p:clrMap ` + clrMap + `/></p:notesMaster>`
}

// themeXML maps the template palette onto the theme colour scheme and its font
// onto both theme fonts.
func themeXML(t deck.Template) string {
	c := t.Colors
	font := esc(t.Font)
	if font == "" {
		font = "Calibri"
	}
	scheme := func(name, css, fallback string) string {
		return fmt.Sprintf(`<a:%s><a:srgbClr val="%s"/></a:%s>`, name, rgb(css, fallback), name)
	}
	var b strings.Builder
	b.WriteString(`<a:theme xmlns:a="` + nsA + `" name="` + esc(t.Name) + `"><a:themeElements>`)
	b.WriteString(`<a:clrScheme name="` + esc(t.ID) + `">`)
	b.WriteString(scheme("dk1", c.Text, "000000"))
	b.WriteString(scheme("lt1", c.Background, "FFFFFF"))
	b.WriteString(scheme("dk2", c.Secondary, "44546A"))
	b.WriteString(`<a:lt2><a:srgbClr val="FFFFFF"/></a:lt2>`)
	b.WriteString(scheme("accent1", c.Primary, "4472C4"))
	b.WriteString(scheme("accent2", c.Accent, "ED7D31"))
	b.WriteString(scheme("accent3", c.Secondary, "A5A5A5"))
	b.WriteString(scheme("accent4", c.Primary, "FFC000"))
	b.WriteString(scheme("accent5", c.Accent, "5B9BD5"))
	b.WriteString(scheme("accent6", c.Secondary, "70AD47"))
	b.WriteString(scheme("hlink", c.Primary, "0563C1"))
	b.WriteString(scheme("folHlink", c.Secondary, "954F72"))
	b.WriteString(`</a:clrScheme>`)
	b.WriteString(`<a:fontScheme name="` + font + `"><a:majorFont><a:latin typeface="` + font + `"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
		`<a:minorFont><a:latin typeface="` + font + `"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont></a:fontScheme>`)
	b.WriteString(`<a:fmtScheme name="deckgen">`)
	b.WriteString(`<a:fillStyleLst>` + strings.Repeat(`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`, 3) + `</a:fillStyleLst>`)
	b.WriteString(`<a:lnStyleLst>`)
	for _, w := range []int{6350, 12700, 19050} {
		fmt.Fprintf(&b, `<a:ln w="%d"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>`, w)
	}
	b.WriteString(`</a:lnStyleLst>`)
	b.WriteString(`<a:effectStyleLst>` + strings.Repeat(`<a:effectStyle><a:effectLst/></a:effectStyle>`, 3) + `</a:effectStyleLst>`)
	b.WriteString(`<a:bgFillStyleLst>` + strings.Repeat(`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`, 3) + `</a:bgFillStyleLst>`)
	b.WriteString(`</a:fmtScheme></a:themeElements></a:theme>`)
	return b.String()
}
