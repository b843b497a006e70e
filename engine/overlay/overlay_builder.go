package overlay

import (
	"image/color"

	"golang.org/x/image/font"
)

// OverlayBuilderOption is a functional option for configuring an Overlay via NewOverlay.
type OverlayBuilderOption func(*overlay)

// WithFace sets the font face used for the panel text. Defaults to basicfont.Face7x13.
// The face stays owned by the caller.
//
// Parameters:
//   - face: the font face
//
// Returns:
//   - OverlayBuilderOption: a function that applies the face option to an overlay
func WithFace(face font.Face) OverlayBuilderOption {
	return func(o *overlay) {
		if face != nil {
			o.panel.face = face
		}
	}
}

// WithColors sets the text and background colours.
//
// Parameters:
//   - fg: the text colour
//   - bg: the panel colour, premultiplied alpha
//
// Returns:
//   - OverlayBuilderOption: a function that applies the colour option to an overlay
func WithColors(fg, bg color.Color) OverlayBuilderOption {
	return func(o *overlay) {
		o.panel.fg = fg
		o.panel.bg = bg
	}
}
