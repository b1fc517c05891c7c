package preview

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// WriteMarkdown writes v to path with front matter and one section per frame.
// Images are written next to it under images/ and linked relatively.
func WriteMarkdown(path, title string, v View) error {
	dir := filepath.Dir(path)
	var b strings.Builder
	fmt.Fprintf(&b, "---\ntitle: \"%s\"\ntype: %s\nfont: \"%s\"\n---\n\n", escapeQuotes(title), strings.ToLower(string(v.DocType)), escapeQuotes(v.Font))

	for _, f := range v.Frames {
		heading := "## "
		if v.Presentation() {
			heading = fmt.Sprintf("## %d. ", f.Number)
		}
		b.WriteString(heading)
		b.WriteString(f.Title)
		b.WriteString("\n\n")

		if f.Image != nil {
			rel, err := writeImage(dir, f)
			if err != nil {
				return err
			}
			alt := f.Alt
			if alt == "" {
				alt = "Image"
			}
			fmt.Fprintf(&b, "![%s](./%s)\n\n", escapeQuotes(alt), rel)
		} else if f.ImageMissing {
			fmt.Fprintf(&b, "> image unavailable: %s\n\n", f.Alt)
		}
		if f.Chart != nil {
			b.WriteString(chartTable(f.Chart))
			b.WriteString("\n")
		}
		for _, line := range f.Body {
			if v.Presentation() {
				b.WriteString("- ")
				b.WriteString(line)
				b.WriteString("\n")
			} else {
				b.WriteString(line)
				b.WriteString("\n\n")
			}
		}
		if v.Presentation() && len(f.Body) > 0 {
			b.WriteString("\n")
		}
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func writeImage(dir string, f Frame) (string, error) {
	ext := mimetype.Detect(f.Image).Extension()
	if ext == "" {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%02d", f.Number)
	if s := slugify(f.Title); s != "" {
		name += "-" + s
	}
	name += ext
	if err := os.MkdirAll(filepath.Join(dir, "images"), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "images", name), f.Image, 0o644); err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Join("images", name)), nil
}

// chartTable renders the chart as a Markdown table, one row per label.
func chartTable(c *ChartView) string {
	var b strings.Builder
	header := []string{string(c.Type)}
	for _, s := range c.Series {
		header = append(header, s.Label)
	}
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for i, label := range c.Labels {
		row := []string{label}
		for _, s := range c.Series {
			row = append(row, strconv.FormatFloat(s.Values[i], 'f', -1, 64))
		}
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}

func escapeQuotes(s string) string { return strings.ReplaceAll(s, "\"", "\\\"") }

var nonSlug = regexp.MustCompile(`[^a-z0-9\-]+`)

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "/", "-", ".", "-").Replace(s)
	s = nonSlug.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return s
}
