package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var errNoImageData = errors.New("empty image data")

// picture is an embedded image with its decoded pixel size.
type picture struct {
	data   []byte
	mime   string
	ext    string
	width  int
	height int
}

// probe sniffs b and decodes its header. It fails for anything that is not a
// decodable raster image with both dimensions above zero.
func probe(b []byte) (picture, error) {
	if len(b) == 0 {
		return picture{}, errNoImageData
	}
	mt := mimetype.Detect(b)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return picture{}, fmt.Errorf("decode %s image: %w", mt.String(), err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return picture{}, fmt.Errorf("image has zero dimensions (%dx%d)", cfg.Width, cfg.Height)
	}
	return picture{data: b, mime: mt.String(), ext: mt.Extension(), width: cfg.Width, height: cfg.Height}, nil
}

// officeReady returns p in a format every office suite embeds: JPEG, PNG or GIF
// as is, anything else re-encoded as JPEG.
func officeReady(p picture) (picture, error) {
	switch p.mime {
	case "image/jpeg", "image/png", "image/gif":
		return p, nil
	}
	img, _, err := image.Decode(bytes.NewReader(p.data))
	if err != nil {
		return picture{}, fmt.Errorf("decode %s image: %w", p.mime, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
		return picture{}, err
	}
	p.data, p.mime, p.ext = buf.Bytes(), "image/jpeg", ".jpg"
	return p, nil
}

// fpdfType is the image type name fpdf registers p under.
func (p picture) fpdfType() string {
	switch p.mime {
	case "image/png":
		return "PNG"
	case "image/gif":
		return "GIF"
	}
	return "JPG"
}

func loadPicture(b []byte) (picture, error) {
	p, err := probe(b)
	if err != nil {
		return picture{}, err
	}
	return officeReady(p)
}
