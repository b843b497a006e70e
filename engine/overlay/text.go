package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultFontSize is the overlay text size in pixels.
const DefaultFontSize = 14

var (
	// DefaultBackground is the premultiplied panel colour behind the text.
	DefaultBackground = color.RGBA{R: 0, G: 0, B: 0, A: 180}

	// DefaultForeground is the text colour.
	DefaultForeground = color.RGBA{R: 235, G: 235, B: 235, A: 255}
)

// NewMonoFace parses the Go Mono font at the given pixel size.
//
// Parameters:
//   - size: the font size in pixels
//
// Returns:
//   - font.Face: the face, to be closed by the caller
//   - error: an error if the font could not be parsed or sized
func NewMonoFace(size float64) (font.Face, error) {
	f, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse overlay font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create overlay face: %w", err)
	}
	return face, nil
}

// textPanel draws lines of text over a filled background into an RGBA image.
type textPanel struct {
	face    font.Face
	fg      color.Color
	bg      color.Color
	padding int
}

func newTextPanel(face font.Face) *textPanel {
	if face == nil {
		face = basicfont.Face7x13
	}
	return &textPanel{
		face:    face,
		fg:      DefaultForeground,
		bg:      DefaultBackground,
		padding: 6,
	}
}

// lineHeight is the distance between baselines in pixels.
func (p *textPanel) lineHeight() int {
	m := p.face.Metrics()
	return m.Height.Ceil()
}

// capacity is how many lines fit in an image of the given height.
func (p *textPanel) capacity(height int) int {
	n := (height - 2*p.padding) / p.lineHeight()
	if n < 0 {
		return 0
	}
	return n
}

// render clears dst to the background and draws as many lines as fit, top down.
// Text past the right edge is clipped by the image bounds.
func (p *textPanel) render(dst *image.RGBA, lines []string) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(p.bg), image.Point{}, draw.Src)

	if n := p.capacity(dst.Bounds().Dy()); len(lines) > n {
		lines = lines[:n]
	}

	ascent := p.face.Metrics().Ascent
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(p.fg),
		Face: p.face,
	}
	for i, line := range lines {
		d.Dot = fixed.Point26_6{
			X: fixed.I(dst.Bounds().Min.X + p.padding),
			Y: fixed.I(dst.Bounds().Min.Y+p.padding+i*p.lineHeight()) + ascent,
		}
		d.DrawString(line)
	}
}
