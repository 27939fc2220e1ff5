package imaging

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/sprite-tools-mcp/internal/sprite"
)

// Region is a rectangle in sheet coordinates.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SpriteCheck is the verification result for one image of a sheet.
type SpriteCheck struct {
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
	Path  string `json:"path"`

	// Region is where the visible part of the image should be. Empty when the
	// image is entirely clipped away.
	Region Region `json:"region"`

	// Pixels is the number of pixels compared.
	Pixels int `json:"pixels"`

	// Mismatched counts pixels whose alpha differs or whose colour distance
	// exceeds the tolerance.
	Mismatched int `json:"mismatched"`

	// MaxDistance is the largest CIEDE2000 distance seen between a sheet pixel
	// and its source pixel (0 = identical, ~1 = opposite).
	MaxDistance float64 `json:"max_distance"`

	OK bool `json:"ok"`
}

// VerifyResult reports whether a sheet matches its layout.
type VerifyResult struct {
	Width          int  `json:"width"`
	Height         int  `json:"height"`
	ExpectedWidth  int  `json:"expected_width"`
	ExpectedHeight int  `json:"expected_height"`
	SizeOK         bool `json:"size_ok"`

	Sprites []SpriteCheck `json:"sprites"`

	// StrayPixels counts non-transparent pixels outside every image region.
	StrayPixels int `json:"stray_pixels"`

	OK bool `json:"ok"`
}

// VerifySheet compares a composited sheet against the decoded sprites it
// should have been built from.
//
// Parameters:
//   - sheet: The sprite sheet to check.
//   - sprites: Decoded sprites, e.g. from sprite.DecodeAll.
//   - tolerance: Maximum CIEDE2000 distance for a pixel to count as equal.
//     0 demands exact colours.
//
// Alpha must match exactly. Fully transparent pixels compare equal whatever
// their colour channels hold.
func VerifySheet(sheet image.Image, sprites []sprite.Sprite, tolerance float64) (*VerifyResult, error) {
	size, err := sprite.CanvasSize(sprite.Descriptors(sprites))
	if err != nil {
		return nil, err
	}

	nrgba := imaging.Clone(sheet)
	bounds := nrgba.Bounds()
	result := &VerifyResult{
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		ExpectedWidth:  size.X + sprite.Margin,
		ExpectedHeight: size.Y + sprite.Margin,
	}
	result.SizeOK = result.Width == result.ExpectedWidth && result.Height == result.ExpectedHeight
	result.OK = result.SizeOK

	covered := make([]bool, bounds.Dx()*bounds.Dy())
	for i, s := range sprites {
		if s.Image == nil {
			return nil, fmt.Errorf("sprite %d (%s) has no decoded image", i, s.Path)
		}
		check := verifySprite(nrgba, s, tolerance, covered)
		check.Index = i
		result.OK = result.OK && check.OK
		result.Sprites = append(result.Sprites, check)
	}

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			if !covered[y*bounds.Dx()+x] && nrgba.NRGBAAt(x, y).A != 0 {
				result.StrayPixels++
			}
		}
	}
	result.OK = result.OK && result.StrayPixels == 0

	return result, nil
}

func verifySprite(sheet *image.NRGBA, s sprite.Sprite, tolerance float64, covered []bool) SpriteCheck {
	check := SpriteCheck{Name: s.Name, Path: s.Path, OK: true}

	sr, dr := sprite.BlitRect(s.Descriptor)
	if dr.Empty() {
		return check
	}
	check.Region = Region{X: dr.Min.X, Y: dr.Min.Y, Width: dr.Dx(), Height: dr.Dy()}

	width := sheet.Bounds().Dx()
	for y := 0; y < dr.Dy(); y++ {
		for x := 0; x < dr.Dx(); x++ {
			dp := image.Pt(dr.Min.X+x, dr.Min.Y+y)
			sp := image.Pt(sr.Min.X+x, sr.Min.Y+y)
			if !dp.In(sheet.Rect) {
				check.Mismatched++
				continue
			}
			covered[dp.Y*width+dp.X] = true
			if !sp.In(s.Image.Rect) {
				continue
			}
			check.Pixels++

			got := sheet.NRGBAAt(dp.X, dp.Y)
			want := s.Image.NRGBAAt(sp.X, sp.Y)
			if got.A != want.A {
				check.Mismatched++
				continue
			}
			gc, gok := colorful.MakeColor(got)
			wc, wok := colorful.MakeColor(want)
			if !gok || !wok {
				continue
			}
			d := gc.DistanceCIEDE2000(wc)
			if d > check.MaxDistance {
				check.MaxDistance = d
			}
			if d > tolerance {
				check.Mismatched++
			}
		}
	}

	check.MaxDistance = math.Round(check.MaxDistance*1000) / 1000
	check.OK = check.Mismatched == 0
	return check
}

// VerifyFile decodes the sources named by descs and checks the sheet at
// sheetPath against them. opts are passed to sprite.DecodeAll.
func VerifyFile(ctx context.Context, sheetPath string, descs []sprite.Descriptor, tolerance float64, opts ...sprite.Option) (*VerifyResult, error) {
	sprites, err := sprite.DecodeAll(ctx, descs, opts...)
	if err != nil {
		return nil, err
	}
	sheet, err := imaging.Open(sheetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load sprite sheet: %w", err)
	}
	return VerifySheet(sheet, sprites, tolerance)
}
