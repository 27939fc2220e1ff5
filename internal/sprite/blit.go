package sprite

import (
	"fmt"
	"image"
)

// axisSpan applies the clipping rules to one axis and returns the source
// start, destination start and extent. A non-positive extent means nothing
// is visible on this axis.
//
// The pos > 0 and pos <= 0 branches are not mirror images of each other; pos == 0
// takes the second branch.
func axisSpan(pos, box, origin, fit int) (src, dst, n int) {
	if pos > 0 {
		return 0, fit + pos, min(origin, box-pos)
	}
	return -pos, fit, min(origin+pos, box)
}

// BlitRect returns the source rectangle (in src coordinates relative to its
// origin) and the destination rectangle on the canvas for d. Both are empty
// when nothing would be copied.
func BlitRect(d Descriptor) (srcRect, dstRect image.Rectangle) {
	sx, dx, w := axisSpan(d.Position.X, d.Width, d.OriginWidth, d.Fit.X)
	sy, dy, h := axisSpan(d.Position.Y, d.Height, d.OriginHeight, d.Fit.Y)
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, image.Rectangle{}
	}
	return image.Rect(sx, sy, sx+w, sy+h), image.Rect(dx, dy, dx+w, dy+h)
}

// Blit copies the visible part of src into canvas according to d.
// Pixels are overwritten verbatim, src is never modified, and canvas pixels
// outside the computed rectangle are left untouched.
//
// The copy is additionally clipped to the bounds of src and canvas, so
// inconsistent descriptors cannot read or write out of range.
func Blit(canvas *image.NRGBA, d Descriptor, src *image.NRGBA) {
	sr, dr := BlitRect(d)
	if dr.Empty() {
		return
	}
	sr = sr.Add(src.Rect.Min)

	// Clip against the source, then the canvas, keeping both rectangles aligned.
	clipped := sr.Intersect(src.Rect)
	dr.Min = dr.Min.Add(clipped.Min.Sub(sr.Min))
	dr.Max = dr.Min.Add(clipped.Size())
	sr = clipped

	clipped = dr.Intersect(canvas.Rect)
	sr.Min = sr.Min.Add(clipped.Min.Sub(dr.Min))
	sr.Max = sr.Min.Add(clipped.Size())
	dr = clipped

	if dr.Empty() {
		return
	}

	rowLen := 4 * dr.Dx()
	for y := 0; y < dr.Dy(); y++ {
		di := canvas.PixOffset(dr.Min.X, dr.Min.Y+y)
		si := src.PixOffset(sr.Min.X, sr.Min.Y+y)
		copy(canvas.Pix[di:di+rowLen], src.Pix[si:si+rowLen])
	}
}

// Compose allocates a canvas for sprites and blits each of them in order.
func Compose(sprites []Sprite) (*image.NRGBA, error) {
	canvas, err := NewCanvas(Descriptors(sprites))
	if err != nil {
		return nil, err
	}
	for i, s := range sprites {
		if s.Image == nil {
			return nil, fmt.Errorf("%w: sprite %d (%s) has no decoded image", ErrInvalidDescriptor, i, s.Path)
		}
		Blit(canvas, s.Descriptor, s.Image)
	}
	Logger().Debug("composited sprite sheet", "sprites", len(sprites), "width", canvas.Rect.Dx(), "height", canvas.Rect.Dy())
	return canvas, nil
}
