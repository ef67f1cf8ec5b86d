package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

const (
	logoWidthRatio = 0.15
	logoMargin     = 20
)

var ErrEmptyImage = errors.New("empty image")

// Watermark pastes a fixed logo onto rendered charts.
type Watermark struct {
	logo image.Image
}

func NewWatermark(logo []byte) (*Watermark, error) {
	img, err := decode(logo)
	if err != nil {
		return nil, fmt.Errorf("failed to decode logo: %w", err)
	}
	return &Watermark{logo: img}, nil
}

func LoadWatermark(path string) (*Watermark, error) {
	logo, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read logo %s: %w", path, err)
	}
	return NewWatermark(logo)
}

// Apply scales the logo to a fixed share of the chart width and pastes it in
// the bottom-right corner. The result is always PNG.
func (w *Watermark) Apply(chart []byte) ([]byte, error) {
	base, err := decode(chart)
	if err != nil {
		return nil, fmt.Errorf("failed to decode chart: %w", err)
	}

	bounds := base.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, base, bounds.Min, draw.Src)

	logoBounds := w.logo.Bounds()
	width := int(float64(bounds.Dx()) * logoWidthRatio)
	if width < 1 {
		width = 1
	}
	height := logoBounds.Dy() * width / logoBounds.Dx()
	if height < 1 {
		height = 1
	}

	origin := image.Pt(bounds.Max.X-width-logoMargin, bounds.Max.Y-height-logoMargin)
	target := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(width, height))}
	xdraw.CatmullRom.Scale(canvas, target, w.logo, logoBounds, xdraw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return out.Bytes(), nil
}

func decode(b []byte) (image.Image, error) {
	if len(b) == 0 {
		return nil, ErrEmptyImage
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	return img, err
}
