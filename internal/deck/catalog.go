package deck

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type Palette struct {
	Primary    string `yaml:"primary" json:"primary"`
	Secondary  string `yaml:"secondary" json:"secondary"`
	Accent     string `yaml:"accent" json:"accent"`
	Background string `yaml:"background" json:"background"`
	Text       string `yaml:"text" json:"text"`
}

// Template is an immutable style descriptor from the catalog.
type Template struct {
	ID     string  `yaml:"id" json:"id"`
	Name   string  `yaml:"name" json:"name"`
	Colors Palette `yaml:"colors" json:"colors"`
	Font   string  `yaml:"font" json:"font"`
}

// WithFont returns a copy of t using font instead of its default.
func (t Template) WithFont(font string) Template {
	if font != "" {
		t.Font = font
	}
	return t
}

//go:embed templates.yaml
var catalogYAML []byte

type catalog struct {
	Fonts     []string   `yaml:"fonts"`
	Templates []Template `yaml:"templates"`
}

var builtin = mustLoadCatalog(catalogYAML)

func mustLoadCatalog(b []byte) catalog {
	var c catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		panic(fmt.Sprintf("deck: template catalog: %v", err))
	}
	if len(c.Templates) == 0 {
		panic("deck: template catalog is empty")
	}
	return c
}

// Templates returns the catalog in display order.
func Templates() []Template {
	out := make([]Template, len(builtin.Templates))
	copy(out, builtin.Templates)
	return out
}

func DefaultTemplate() Template { return builtin.Templates[0] }

func LookupTemplate(id string) (Template, bool) {
	for _, t := range builtin.Templates {
		if strings.EqualFold(t.ID, id) {
			return t, true
		}
	}
	return Template{}, false
}

func Fonts() []string {
	out := make([]string, len(builtin.Fonts))
	copy(out, builtin.Fonts)
	return out
}

// LookupFont matches name case-insensitively and returns the catalog spelling.
func LookupFont(name string) (string, bool) {
	for _, f := range builtin.Fonts {
		if strings.EqualFold(f, strings.TrimSpace(name)) {
			return f, true
		}
	}
	return "", false
}

// Serif reports whether font should fall back to a serif face in fixed-layout output.
func Serif(font string) bool {
	switch font {
	case "Merriweather", "Playfair Display":
		return true
	}
	return false
}
