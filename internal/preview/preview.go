// Package preview materializes what the user sees: one frame per item with the
// template resolved into colours, the image attached by position and charts
// clamped to their plottable points. The fixed-layout export renders frames.
package preview

import (
	"github.com/thywilljoshua/deckgen/internal/deck"
)

type View struct {
	DocType deck.DocumentType
	Palette deck.Palette
	Font    string
	Serif   bool
	Frames  []Frame
}

type Frame struct {
	// Index is zero-based; Number is what is printed on the slide.
	Index  int
	Number int
	Title  string
	// Body holds bullets for slides and paragraphs for pages. Blank entries are dropped.
	Body []string
	// Image is nil when no image exists for this index.
	Image []byte
	Alt   string
	// ImageMissing is set when the item asked for an image that never arrived.
	ImageMissing bool
	Chart        *ChartView
}

type ChartView struct {
	Type   deck.ChartType
	Labels []string
	Series []Series
}

type Series struct {
	Label  string
	Values []float64
	// Colors has one entry per value.
	Colors []string
}

// Max is the largest value across all series, or 0.
func (c *ChartView) Max() float64 {
	var m float64
	for _, s := range c.Series {
		for _, v := range s.Values {
			if v > m {
				m = v
			}
		}
	}
	return m
}

func (v View) Presentation() bool { return v.DocType != deck.Document }

// Build resolves items and their positional images into frames.
func Build(docType deck.DocumentType, t deck.Template, items []deck.Item, images map[int][]byte) View {
	v := View{
		DocType: docType,
		Palette: t.Colors,
		Font:    t.Font,
		Serif:   deck.Serif(t.Font),
		Frames:  make([]Frame, 0, len(items)),
	}
	for i, it := range items {
		f := Frame{
			Index:  i,
			Number: i + 1,
			Title:  it.Title,
			Alt:    it.ImagePrompt,
			Image:  images[i],
		}
		for _, line := range it.Content {
			if line != "" {
				f.Body = append(f.Body, line)
			}
		}
		f.ImageMissing = it.WantsImage() && f.Image == nil
		f.Chart = chartView(it.Chart, t.Colors)
		v.Frames = append(v.Frames, f)
	}
	return v
}

func chartView(c *deck.Chart, p deck.Palette) *ChartView {
	n := c.Points()
	if n == 0 {
		return nil
	}
	fallback := []string{p.Primary, p.Accent, p.Secondary}
	cv := &ChartView{Type: c.Type, Labels: c.Labels[:n]}
	for _, ds := range c.Datasets {
		colors := ds.BackgroundColor
		if len(colors) == 0 {
			colors = fallback
		}
		s := Series{Label: ds.Label, Values: ds.Data[:n], Colors: make([]string, n)}
		for j := range s.Colors {
			s.Colors[j] = colors[j%len(colors)]
		}
		cv.Series = append(cv.Series, s)
	}
	return cv
}
