// Package export encodes generated content into PPTX, DOCX and PDF.
// Every encoder tolerates missing images, missing charts and empty content.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thywilljoshua/deckgen/internal/apperr"
	"github.com/thywilljoshua/deckgen/internal/deck"
	"github.com/thywilljoshua/deckgen/internal/metrics"
)

type Format string

const (
	PPTX Format = "pptx"
	DOCX Format = "docx"
	PDF  Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case PPTX, DOCX, PDF:
		return f, nil
	}
	return "", apperr.Newf(apperr.KindInvalidInput, "unknown export format %q (want pptx, docx or pdf)", s)
}

// Supports reports whether f can encode documents of type t.
func (f Format) Supports(t deck.DocumentType) bool {
	switch f {
	case PPTX:
		return t == deck.Presentation
	case DOCX:
		return t == deck.Document
	}
	return f == PDF
}

// FileName is the conventional download name for f.
func FileName(f Format, t deck.DocumentType) string {
	switch f {
	case PPTX:
		return "presentation.pptx"
	case DOCX:
		return "document.docx"
	}
	if t == deck.Document {
		return "document.pdf"
	}
	return "presentation.pdf"
}

// Input is what every encoder consumes. Images are keyed by item position.
type Input struct {
	DocType  deck.DocumentType
	Template deck.Template
	Items    []deck.Item
	Images   map[int][]byte
}

// Encode runs the encoder for f. Panics inside an encoder come back as export errors.
func Encode(f Format, in Input) (b []byte, err error) {
	if !f.Supports(in.DocType) {
		return nil, apperr.Newf(apperr.KindExport, "%s export is not available for %s", strings.ToUpper(string(f)), strings.ToLower(string(in.DocType)))
	}
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, apperr.Newf(apperr.KindExport, "%s encoder crashed: %v", f, r)
		}
	}()
	switch f {
	case PPTX:
		b, err = Presentation(in)
	case DOCX:
		b, err = Document(in)
	default:
		b, err = FixedLayout(in)
	}
	return b, apperr.Wrap(err, apperr.KindExport, "")
}

type Exporter struct {
	log     zerolog.Logger
	metrics *metrics.Recorder
}

func NewExporter(log zerolog.Logger, m *metrics.Recorder) *Exporter {
	return &Exporter{log: log.With().Str("component", "export").Logger(), metrics: m}
}

// Export encodes in and writes it to path. A path that is empty or a directory
// gets the conventional file name. It returns the path written.
func (e *Exporter) Export(f Format, in Input, path string) (string, error) {
	out, err := e.export(f, in, path)
	e.metrics.Export(string(f), err)
	if err != nil {
		e.log.Error().Err(err).Str("format", string(f)).Msg("export failed")
	}
	return out, err
}

func (e *Exporter) export(f Format, in Input, path string) (string, error) {
	if path == "" {
		path = "."
	}
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		path = filepath.Join(path, FileName(f, in.DocType))
	}
	b, err := Encode(f, in)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", apperr.Wrap(fmt.Errorf("write %s: %w", path, err), apperr.KindExport, "")
	}
	e.log.Info().Str("path", path).Int("bytes", len(b)).Msg("exported")
	return path, nil
}
