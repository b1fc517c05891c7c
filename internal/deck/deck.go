// Package deck holds the content contract shared by generation, preview and export:
// the item shape, charts, document types, media requests and the style catalog.
package deck

import (
	"fmt"
	"strings"
)

type DocumentType string

const (
	Presentation DocumentType = "PRESENTATION"
	Document     DocumentType = "DOCUMENT"
)

func ParseDocumentType(s string) (DocumentType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PRESENTATION", "PPT", "SLIDES":
		return Presentation, nil
	case "DOCUMENT", "DOC", "PAGES":
		return Document, nil
	}
	return "", fmt.Errorf("unknown document type %q (want presentation or document)", s)
}

// Noun is the human name of one item of this type.
func (t DocumentType) Noun() string {
	if t == Document {
		return "page"
	}
	return "slide"
}

type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
)

func (c ChartType) Valid() bool {
	switch c {
	case ChartBar, ChartLine, ChartPie:
		return true
	}
	return false
}

type Dataset struct {
	Label           string    `json:"label" jsonschema_description:"The label for this dataset."`
	Data            []float64 `json:"data" jsonschema_description:"The numerical data for this dataset."`
	BackgroundColor []string  `json:"backgroundColor,omitempty"`
}

type Chart struct {
	Type     ChartType `json:"type" jsonschema:"enum=bar,enum=line,enum=pie" jsonschema_description:"The type of chart to display."`
	Labels   []string  `json:"labels" jsonschema_description:"The labels for the x-axis (for bar/line) or segments (for pie)."`
	Datasets []Dataset `json:"datasets" jsonschema_description:"The data series to be plotted on the chart."`
}

// Points is the number of plottable points: labels and every dataset are clamped to the shortest.
func (c *Chart) Points() int {
	if c == nil || len(c.Datasets) == 0 {
		return 0
	}
	n := len(c.Labels)
	for _, ds := range c.Datasets {
		if len(ds.Data) < n {
			n = len(ds.Data)
		}
	}
	return n
}

// Item is one slide or one page. Notes are only meaningful for slides.
type Item struct {
	Title       string   `json:"title"`
	Content     []string `json:"content"`
	ImagePrompt string   `json:"imagePrompt,omitempty"`
	Chart       *Chart   `json:"chart,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

func (it Item) WantsImage() bool { return strings.TrimSpace(it.ImagePrompt) != "" }

func (it Item) HasChart() bool { return it.Chart != nil }

type MediaRequest string

const (
	MediaNone  MediaRequest = "none"
	MediaImage MediaRequest = "image"
	MediaChart MediaRequest = "chart"
)

func ParseMediaRequest(s string) (MediaRequest, error) {
	switch m := MediaRequest(strings.ToLower(strings.TrimSpace(s))); m {
	case MediaNone, MediaImage, MediaChart:
		return m, nil
	case "":
		return MediaNone, nil
	}
	return "", fmt.Errorf("unknown media request %q (want none, image or chart)", s)
}

// DefaultMediaRequest is what an editor preselects for an existing item.
func DefaultMediaRequest(it Item) MediaRequest {
	switch {
	case it.WantsImage():
		return MediaImage
	case it.HasChart():
		return MediaChart
	}
	return MediaNone
}

// DefaultInstruction seeds an edit of it: the title followed by its bullets.
func DefaultInstruction(it Item) string {
	return it.Title + "\n\n" + strings.Join(it.Content, "\n- ")
}

const (
	MinSlides     = 1
	MaxSlides     = 25
	DefaultSlides = 10
)

func ValidateSlideCount(n int) error {
	if n < MinSlides || n > MaxSlides {
		return fmt.Errorf("slide count %d out of range [%d, %d]", n, MinSlides, MaxSlides)
	}
	return nil
}
