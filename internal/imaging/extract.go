package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/sprite-tools-mcp/internal/sprite"
)

// ExtractResult contains one sprite cut back out of a sheet.
type ExtractResult struct {
	Name string `json:"name,omitempty"`

	// Region is where the sprite was found on the sheet.
	Region Region `json:"region"`

	// Width and Height are the returned image size, after scaling.
	Width  int `json:"width"`
	Height int `json:"height"`

	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// ExtractSprite cuts the visible part of d out of sheet.
//
// The region is the one the blit wrote to, so a clipped sprite comes back
// clipped. A scale other than 1 resizes the result with Lanczos resampling,
// which is useful for previewing small sprites.
func ExtractSprite(sheet image.Image, d sprite.Descriptor, scale float64) (*ExtractResult, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("scale must be positive, got %g", scale)
	}

	_, dst := sprite.BlitRect(d)
	if dst.Empty() {
		return nil, fmt.Errorf("sprite %q is entirely clipped away", d.Name)
	}

	bounds := sheet.Bounds()
	rect := dst.Add(bounds.Min)
	if !rect.In(bounds) {
		return nil, fmt.Errorf("sprite region (%d,%d)-(%d,%d) outside sheet bounds %dx%d",
			dst.Min.X, dst.Min.Y, dst.Max.X, dst.Max.Y, bounds.Dx(), bounds.Dy())
	}

	cropped := imaging.Crop(sheet, rect)
	if scale != 1.0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode sprite: %w", err)
	}

	return &ExtractResult{
		Name: d.Name,
		Region: Region{
			X:      dst.Min.X,
			Y:      dst.Min.Y,
			Width:  dst.Dx(),
			Height: dst.Dy(),
		},
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// ExtractFile cuts d out of the sheet at sheetPath. If d lacks its origin size
// the source image is decoded to find it, with opts passed to sprite.DecodeAll.
func ExtractFile(ctx context.Context, sheetPath string, d sprite.Descriptor, scale float64, opts ...sprite.Option) (*ExtractResult, error) {
	if d.OriginWidth == 0 || d.OriginHeight == 0 {
		sprites, err := sprite.DecodeAll(ctx, []sprite.Descriptor{d}, opts...)
		if err != nil {
			return nil, err
		}
		d = sprites[0].Descriptor
	}
	sheet, err := imaging.Open(sheetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load sprite sheet: %w", err)
	}
	return ExtractSprite(sheet, d, scale)
}
