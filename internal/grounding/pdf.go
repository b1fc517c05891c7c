package grounding

import (
	"math"
	"strings"

	rpdf "rsc.io/pdf"
)

// wordGap is the TJ adjustment, in thousandths of an em, read as a word break.
const wordGap = 200

func extractPDF(path string) (string, error) {
	doc, err := rpdf.Open(path)
	if err != nil {
		return "", err
	}
	var pages []string
	for i := 1; i <= doc.NumPage(); i++ {
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		var t string
		if hasWidths(p) {
			t = pageText(p.Content().Text)
		} else {
			t = operatorText(p)
		}
		if t != "" {
			pages = append(pages, t)
		}
	}
	return strings.TrimSpace(strings.Join(pages, "\n\n")), nil
}

// hasWidths reports whether every font on p carries a Widths array. Without one
// the positioned glyph runs all start at the same x and word gaps are invisible.
func hasWidths(p rpdf.Page) bool {
	for _, name := range p.Fonts() {
		if len(p.Font(name).Widths()) == 0 {
			return false
		}
	}
	return true
}

// pageText joins glyph runs, starting a new line when the baseline moves and a space
// when there is a visible horizontal gap.
func pageText(runs []rpdf.Text) string {
	var b strings.Builder
	var prev *rpdf.Text
	for i := range runs {
		r := &runs[i]
		if prev != nil {
			size := math.Max(prev.FontSize, 1)
			switch {
			case math.Abs(r.Y-prev.Y) > size/2:
				b.WriteByte('\n')
			case r.X-(prev.X+prev.W) > size*0.15:
				b.WriteByte(' ')
			}
		}
		b.WriteString(r.S)
		prev = r
	}
	return tidy(b.String())
}

// operatorText reads the string operands of the show-text operators straight from
// the content streams, so the space glyphs survive. Only the line position is
// tracked: a baseline move starts a new line, any other move adds a space.
func operatorText(p rpdf.Page) string {
	var b strings.Builder
	var enc rpdf.TextEncoding
	size, leading := 1.0, 0.0
	var lineX, lineY, lastY float64
	started, moved := false, false

	space := func() {
		if s := b.String(); s != "" && !strings.HasSuffix(s, " ") && !strings.HasSuffix(s, "\n") {
			b.WriteByte(' ')
		}
	}
	moveTo := func(x, y float64) {
		lineX, lineY = x, y
		moved = true
	}
	write := func(raw string) {
		if enc != nil {
			raw = enc.Decode(raw)
		}
		b.WriteString(raw)
	}
	show := func(raw string) {
		if started {
			switch {
			case math.Abs(lineY-lastY) > math.Max(size, 1)/2:
				b.WriteByte('\n')
			case moved:
				space()
			}
		}
		started, moved = true, false
		lastY = lineY
		write(raw)
	}

	for _, strm := range contentStreams(p.V.Key("Contents")) {
		rpdf.Interpret(strm, func(stk *rpdf.Stack, op string) {
			args := make([]rpdf.Value, stk.Len())
			for i := len(args) - 1; i >= 0; i-- {
				args[i] = stk.Pop()
			}
			switch op {
			case "BT":
				moveTo(0, 0)
			case "Tf":
				if len(args) == 2 {
					enc = p.Font(args[0].Name()).Encoder()
					size = args[1].Float64()
				}
			case "TL":
				if len(args) == 1 {
					leading = args[0].Float64()
				}
			case "TD", "Td":
				if len(args) == 2 {
					if op == "TD" {
						leading = -args[1].Float64()
					}
					moveTo(lineX+args[0].Float64(), lineY+args[1].Float64())
				}
			case "Tm":
				if len(args) == 6 {
					moveTo(args[4].Float64(), args[5].Float64())
				}
			case "T*":
				moveTo(lineX, lineY-leading)
			case "Tj":
				if len(args) == 1 {
					show(args[0].RawString())
				}
			case "'", "\"":
				if len(args) >= 1 {
					moveTo(lineX, lineY-leading)
					show(args[len(args)-1].RawString())
				}
			case "TJ":
				if len(args) != 1 || args[0].Kind() != rpdf.Array {
					return
				}
				arr := args[0]
				shown := false
				for i := 0; i < arr.Len(); i++ {
					el := arr.Index(i)
					switch el.Kind() {
					case rpdf.String:
						if !shown {
							show(el.RawString())
							shown = true
						} else {
							write(el.RawString())
						}
					case rpdf.Integer, rpdf.Real:
						if shown && -el.Float64() > wordGap {
							space()
						}
					}
				}
			}
		})
	}
	return tidy(b.String())
}

func contentStreams(v rpdf.Value) []rpdf.Value {
	switch v.Kind() {
	case rpdf.Stream:
		return []rpdf.Value{v}
	case rpdf.Array:
		var out []rpdf.Value
		for i := 0; i < v.Len(); i++ {
			if s := v.Index(i); s.Kind() == rpdf.Stream {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// tidy collapses runs of whitespace inside each line and drops blank edges.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.Join(strings.Fields(ln), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
