package sprite

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// CanvasSize returns the furthest right and bottom box edges over all
// descriptors, computed independently per axis. The Margin is not included.
func CanvasSize(descs []Descriptor) (image.Point, error) {
	if len(descs) == 0 {
		return image.Point{}, ErrEmptyInput
	}

	var size image.Point
	for _, d := range descs {
		if err := d.validate(); err != nil {
			return image.Point{}, err
		}
		if right := d.Fit.X + d.Width; right > size.X {
			size.X = right
		}
		if bottom := d.Fit.Y + d.Height; bottom > size.Y {
			size.Y = bottom
		}
	}
	return size, nil
}

// NewCanvas allocates a fully transparent canvas large enough for every box,
// plus Margin pixels on each axis.
func NewCanvas(descs []Descriptor) (*image.NRGBA, error) {
	size, err := CanvasSize(descs)
	if err != nil {
		return nil, err
	}
	return imaging.New(size.X+Margin, size.Y+Margin, color.NRGBA{}), nil
}
