// Package grounding extracts plain text from user-attached files so generation can be
// constrained to it. Only PDF and PPTX are accepted.
package grounding

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/thywilljoshua/deckgen/internal/apperr"
)

const (
	mimePDF  = "application/pdf"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimeZIP  = "application/zip"
)

// Extract returns the text of the file at path. The extension is checked before the file
// is opened, so unsupported types fail without touching the disk.
func Extract(path string) (text string, err error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext != "pdf" && ext != "pptx" {
		return "", apperr.Newf(apperr.KindUnsupportedInput, "unsupported file type %q: please upload a PDF or PPTX file", filepath.Base(path))
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindUnsupportedInput, "cannot read "+filepath.Base(path))
	}

	defer func() {
		if r := recover(); r != nil {
			text, err = "", apperr.Newf(apperr.KindUnsupportedInput, "%s is corrupt: %v", filepath.Base(path), r)
		}
	}()

	switch ext {
	case "pdf":
		if !mt.Is(mimePDF) {
			return "", apperr.Newf(apperr.KindUnsupportedInput, "%s is not a PDF (detected %s)", filepath.Base(path), mt.String())
		}
		text, err = extractPDF(path)
	case "pptx":
		if !mt.Is(mimePPTX) && !mt.Is(mimeZIP) {
			return "", apperr.Newf(apperr.KindUnsupportedInput, "%s is not a PPTX archive (detected %s)", filepath.Base(path), mt.String())
		}
		text, err = extractPPTX(path)
	}
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindUnsupportedInput, fmt.Sprintf("cannot parse %s", filepath.Base(path)))
	}
	return text, nil
}
