package grounding

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
)

const drawingML = "http://schemas.openxmlformats.org/drawingml/2006/main"

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

type slideFile struct {
	num  int
	file *zip.File
}

func extractPPTX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	var slides []slideFile
	for _, f := range zr.File {
		if m := slidePart.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slideFile{num: n, file: f})
		}
	}
	if len(slides) == 0 {
		return "", errors.New("no slides found in archive")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var out []string
	for _, s := range slides {
		data, err := readZipFile(s.file)
		if err != nil {
			return "", err
		}
		text, err := slideText(data)
		if err != nil {
			return "", err
		}
		if text != "" {
			out = append(out, text)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n\n")), nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// slideText collects the DrawingML text runs (a:t) of one slide, space separated.
func slideText(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var runs []string
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			inText = el.Name.Local == "t" && (el.Name.Space == drawingML || el.Name.Space == "")
		case xml.EndElement:
			inText = false
		case xml.CharData:
			if inText {
				if s := strings.TrimSpace(string(el)); s != "" {
					runs = append(runs, s)
				}
			}
		}
	}
	return strings.Join(runs, " "), nil
}
