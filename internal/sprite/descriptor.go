package sprite

import (
	"fmt"
	"image"
)

// Margin is added to both canvas axes beyond the furthest box edge.
// Existing consumers depend on the exact output size, so it must not change.
const Margin = 10

// Point is a 2D pixel offset.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Descriptor describes one source image and where it goes in the sheet.
//
// Descriptors are read-only inputs; decoded pixels are returned separately
// in a [Sprite] at the same index.
type Descriptor struct {
	// Name identifies the image in generated stylesheets. Optional.
	Name string `json:"name,omitempty"`

	// Path is the source image file.
	Path string `json:"path"`

	// OriginWidth and OriginHeight are the true pixel dimensions of the source.
	// Zero means "take them from the decoded image".
	OriginWidth  int `json:"originWidth"`
	OriginHeight int `json:"originHeight"`

	// Width and Height are the allotted box in the sheet.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Position shifts the image inside its box. Negative values hide the
	// leading columns/rows of the source.
	Position Point `json:"position"`

	// Fit is the top-left corner of the box on the canvas. Never negative.
	Fit Point `json:"fit"`
}

// Box returns the allotted rectangle on the canvas.
func (d Descriptor) Box() image.Rectangle {
	return image.Rect(d.Fit.X, d.Fit.Y, d.Fit.X+d.Width, d.Fit.Y+d.Height)
}

func (d Descriptor) validate() error {
	if d.Width < 0 || d.Height < 0 {
		return fmt.Errorf("%w: negative box %dx%d for %s", ErrInvalidDescriptor, d.Width, d.Height, d.Path)
	}
	if d.Fit.X < 0 || d.Fit.Y < 0 {
		return fmt.Errorf("%w: negative fit (%d,%d) for %s", ErrInvalidDescriptor, d.Fit.X, d.Fit.Y, d.Path)
	}
	return nil
}

// Sprite pairs a descriptor with its decoded pixels.
type Sprite struct {
	Descriptor

	// Image holds non-premultiplied RGBA pixels with bounds starting at (0,0).
	Image *image.NRGBA `json:"-"`
}

// Descriptors returns the descriptor half of each sprite, preserving order.
func Descriptors(sprites []Sprite) []Descriptor {
	descs := make([]Descriptor, len(sprites))
	for i, s := range sprites {
		descs[i] = s.Descriptor
	}
	return descs
}
