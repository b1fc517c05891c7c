package export

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/thywilljoshua/deckgen/internal/deck"
	"github.com/thywilljoshua/deckgen/internal/preview"
)

const (
	docMargin = 12.7 // 0.5in in mm
	ptToMM    = 25.4 / 72

	// slide bullet font sizes in points
	bodySize    = 14.0
	minBodySize = 9.0
)

type pdfWriter struct {
	pdf  *fpdf.Fpdf
	tr   func(string) string
	v    preview.View
	font string
	seq  int
}

// FixedLayout renders the preview of in to A4 pages. Presentations get one
// landscape page per slide with no margins; documents get portrait pages with
// half inch margins and a page break before every page.
func FixedLayout(in Input) ([]byte, error) {
	v := preview.Build(in.DocType, in.Template, in.Items, in.Images)
	w := &pdfWriter{v: v, font: "Helvetica"}
	if v.Serif {
		w.font = "Times"
	}
	if v.Presentation() {
		w.pdf = fpdf.New("L", "mm", "A4", "")
		w.pdf.SetMargins(0, 0, 0)
		w.pdf.SetAutoPageBreak(false, 0)
	} else {
		w.pdf = fpdf.New("P", "mm", "A4", "")
		w.pdf.SetMargins(docMargin, docMargin, docMargin)
		w.pdf.SetAutoPageBreak(true, docMargin)
	}
	w.pdf.SetCreator("deckgen", true)
	w.tr = w.pdf.UnicodeTranslatorFromDescriptor("")

	for _, f := range v.Frames {
		if v.Presentation() {
			w.slide(f)
		} else {
			w.page(f)
		}
		if err := w.pdf.Error(); err != nil {
			return nil, fmt.Errorf("render %s %d: %w", in.DocType.Noun(), f.Number, err)
		}
	}
	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *pdfWriter) slide(f preview.Frame) {
	p := w.pdf
	p.AddPage()
	pw, ph := p.GetPageSize()
	pal := w.v.Palette

	w.fill(pal.Background, "FFFFFF")
	p.Rect(0, 0, pw, ph, "F")
	w.draw(pal.Secondary, "999999")
	p.SetLineWidth(0.6)
	p.Rect(6, 6, pw-12, ph-12, "D")

	x, cw := 16.0, pw-32
	y := 16.0
	w.text(pal.Primary, "333333")
	p.SetFont(w.font, "B", 26)
	p.SetXY(x, y)
	p.CellFormat(cw, 26*ptToMM*1.3, truncate(p, w.tr(f.Title), cw), "", 1, "L", false, 0, "")
	y = p.GetY() + 4

	if f.Image != nil {
		y = w.image(f, x, y, cw, 55) + 4
	}
	if f.Chart != nil {
		w.chart(f.Chart, x, y, cw, 62)
		y += 66
	}

	w.text(pal.Text, "333333")
	w.bullets(f.Body, x, y, cw, ph-18)

	w.text(pal.Secondary, "999999")
	p.SetFont(w.font, "B", 9)
	p.SetXY(pw-30, ph-16)
	p.CellFormat(14, 6, strconv.Itoa(f.Number), "", 0, "R", false, 0, "")
}

type bulletLine struct {
	text  string
	first bool
}

// bullets lays out body between y and bottom. The font steps down from
// bodySize to minBodySize until everything fits; whatever still does not fit is
// cut and the last visible line becomes an ellipsis.
func (w *pdfWriter) bullets(body []string, x, y, cw, bottom float64) {
	p := w.pdf
	var lines []bulletLine
	var lh float64
	for size := bodySize; ; size-- {
		p.SetFont(w.font, "", size)
		lh = size * ptToMM * 1.4
		lines = lines[:0]
		for _, item := range body {
			for i, l := range p.SplitLines([]byte(w.tr(item)), cw-6) {
				lines = append(lines, bulletLine{text: string(l), first: i == 0})
			}
		}
		if y+float64(len(lines))*lh <= bottom || size <= minBodySize {
			break
		}
	}
	if fit := int(math.Max((bottom-y)/lh, 0)); fit < len(lines) {
		lines = lines[:fit]
		if fit > 0 {
			lines[fit-1] = bulletLine{text: "..."}
		}
	}
	for _, l := range lines {
		p.SetXY(x, y)
		mark := ""
		if l.first {
			mark = w.tr("•")
		}
		p.CellFormat(6, lh, mark, "", 0, "L", false, 0, "")
		p.CellFormat(cw-6, lh, l.text, "", 1, "L", false, 0, "")
		y += lh
	}
}

func (w *pdfWriter) page(f preview.Frame) {
	p := w.pdf
	p.AddPage()
	pw, ph := p.GetPageSize()
	pal := w.v.Palette
	cw := pw - 2*docMargin

	w.text(pal.Primary, "333333")
	p.SetFont(w.font, "B", 22)
	p.MultiCell(cw, 22*ptToMM*1.3, w.tr(f.Title), "", "L", false)
	w.draw(pal.Secondary, "999999")
	p.SetLineWidth(0.4)
	y := p.GetY() + 1
	p.Line(docMargin, y, pw-docMargin, y)
	p.SetY(y + 5)

	if f.Image != nil {
		maxH := ph - 2*docMargin - 30
		if p.GetY()+40 > ph-docMargin {
			p.AddPage()
		}
		y := w.image(f, docMargin, p.GetY(), cw, math.Min(maxH, ph-docMargin-p.GetY()))
		p.SetY(y + 5)
	}
	if f.Chart != nil {
		if p.GetY()+70 > ph-docMargin {
			p.AddPage()
		}
		y := p.GetY()
		w.chart(f.Chart, docMargin, y, cw, 70)
		p.SetY(y + 75)
	}

	w.text(pal.Text, "333333")
	p.SetFont(w.font, "", 11)
	for _, para := range f.Body {
		p.MultiCell(cw, 11*ptToMM*1.5, w.tr(para), "", "L", false)
		p.Ln(3)
	}
}

// image draws f.Image fitted into the box and returns the y below it. An image
// fpdf cannot read is replaced by a note and rendering carries on.
func (w *pdfWriter) image(f preview.Frame, x, y, bw, bh float64) float64 {
	p := w.pdf
	pic, err := loadPicture(f.Image)
	if err == nil {
		w.seq++
		name := "img" + strconv.Itoa(w.seq)
		opt := fpdf.ImageOptions{ImageType: pic.fpdfType()}
		p.RegisterImageOptionsReader(name, opt, bytes.NewReader(pic.data))
		if err = p.Error(); err == nil {
			scale := math.Min(bw/float64(pic.width), bh/float64(pic.height))
			iw, ih := float64(pic.width)*scale, float64(pic.height)*scale
			p.ImageOptions(name, x+(bw-iw)/2, y, iw, ih, false, opt, 0, "")
			return y + ih
		}
		p.ClearError()
	}
	label := f.Alt
	if label == "" {
		label = "Untitled"
	}
	w.text(w.v.Palette.Secondary, "999999")
	p.SetFont(w.font, "I", 10)
	p.SetXY(x, y)
	p.CellFormat(bw, 8, truncate(p, w.tr("[Image failed to load: "+label+"]"), bw), "", 1, "L", false, 0, "")
	return y + 8
}

func (w *pdfWriter) chart(c *preview.ChartView, x, y, cw, ch float64) {
	p := w.pdf
	p.SetFont(w.font, "", 7)
	w.text(w.v.Palette.Text, "333333")

	if c.Type == deck.ChartPie {
		w.pie(c, x, y, cw, ch)
		return
	}

	// legend
	lx := x
	for _, s := range c.Series {
		w.fill(s.Colors[0], "666666")
		p.Rect(lx, y+1, 3, 3, "F")
		p.SetXY(lx+4, y)
		label := w.tr(s.Label)
		p.CellFormat(p.GetStringWidth(label)+2, 5, label, "", 0, "L", false, 0, "")
		lx += p.GetStringWidth(label) + 10
	}

	top, left := y+8, x+10
	plotW, plotH := cw-12, ch-16
	maxV := c.Max()
	if maxV <= 0 {
		maxV = 1
	}
	w.draw(w.v.Palette.Text, "333333")
	p.SetLineWidth(0.2)
	p.Line(left, top, left, top+plotH)
	p.Line(left, top+plotH, left+plotW, top+plotH)
	p.SetXY(x, top-2)
	p.CellFormat(9, 4, strconv.FormatFloat(maxV, 'g', 4, 64), "", 0, "R", false, 0, "")

	n := len(c.Labels)
	slot := plotW / float64(n)
	for j, label := range c.Labels {
		p.SetXY(left+float64(j)*slot, top+plotH+1)
		p.CellFormat(slot, 4, truncate(p, w.tr(label), slot), "", 0, "C", false, 0, "")
	}
	height := func(v float64) float64 { return math.Max(v, 0) / maxV * plotH }

	switch c.Type {
	case deck.ChartLine:
		p.SetLineWidth(0.6)
		for _, s := range c.Series {
			w.draw(s.Colors[0], "666666")
			w.fill(s.Colors[0], "666666")
			px, py := 0.0, 0.0
			for j, v := range s.Values {
				cx := left + (float64(j)+0.5)*slot
				cy := top + plotH - height(v)
				if j > 0 {
					p.Line(px, py, cx, cy)
				}
				p.Circle(cx, cy, 0.8, "F")
				px, py = cx, cy
			}
		}
	default:
		barW := slot * 0.8 / float64(len(c.Series))
		for k, s := range c.Series {
			for j, v := range s.Values {
				h := height(v)
				w.fill(s.Colors[j], "666666")
				p.Rect(left+float64(j)*slot+slot*0.1+float64(k)*barW, top+plotH-h, barW, h, "F")
			}
		}
	}
}

func (w *pdfWriter) pie(c *preview.ChartView, x, y, cw, ch float64) {
	p := w.pdf
	s := c.Series[0]
	var total float64
	for _, v := range s.Values {
		total += math.Max(v, 0)
	}
	if total <= 0 {
		return
	}
	r := ch/2 - 2
	cx, cy := x+r+2, y+ch/2
	start := -math.Pi / 2
	for j, v := range s.Values {
		if v <= 0 {
			continue
		}
		sweep := v / total * 2 * math.Pi
		pts := []fpdf.PointType{{X: cx, Y: cy}}
		steps := int(math.Ceil(sweep / (math.Pi / 90)))
		for i := 0; i <= steps; i++ {
			a := start + sweep*float64(i)/float64(steps)
			pts = append(pts, fpdf.PointType{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
		}
		w.fill(s.Colors[j], "666666")
		p.Polygon(pts, "F")
		start += sweep
	}

	lx, ly := cx+r+8, y+4
	for j, label := range c.Labels {
		w.fill(s.Colors[j], "666666")
		p.Rect(lx, ly+1, 3, 3, "F")
		p.SetXY(lx+4, ly)
		p.CellFormat(cw-(lx-x)-4, 5, w.tr(label+"  "+strconv.FormatFloat(s.Values[j], 'g', -1, 64)), "", 0, "L", false, 0, "")
		ly += 5
		if ly > y+ch-5 {
			break
		}
	}
}

func (w *pdfWriter) fill(css, fallback string) {
	r, g, b := pdfColor(css, fallback)
	w.pdf.SetFillColor(r, g, b)
}

func (w *pdfWriter) draw(css, fallback string) {
	r, g, b := pdfColor(css, fallback)
	w.pdf.SetDrawColor(r, g, b)
}

func (w *pdfWriter) text(css, fallback string) {
	r, g, b := pdfColor(css, fallback)
	w.pdf.SetTextColor(r, g, b)
}

func pdfColor(css, fallback string) (int, int, int) {
	if r, g, b, ok := parseHex(css); ok {
		return r, g, b
	}
	r, g, b, _ := parseHex(fallback)
	return r, g, b
}

// truncate shortens an already translated s with an ellipsis to fit width w
// in the current font.
func truncate(p *fpdf.Fpdf, s string, w float64) string {
	if p.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && p.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}
