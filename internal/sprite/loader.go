package sprite

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/webp" // Register WebP format decoder
	"golang.org/x/sync/errgroup"
)

// sniffLen is the header length filetype needs to match every image type.
const sniffLen = 261

// Option configures DecodeAll and Combine.
type Option func(*options)

type options struct {
	concurrency int
	maxPixels   int
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithConcurrency caps the number of images decoded at once.
// Zero or a negative value means no limit.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithMaxPixels rejects source images whose width times height exceeds n
// before their pixels are decoded. Zero or a negative value means no limit.
func WithMaxPixels(n int) Option {
	return func(o *options) {
		o.maxPixels = n
	}
}

// DecodeAll decodes the source of every descriptor concurrently and returns
// one Sprite per descriptor, in the same order.
//
// The call returns only after every decode has finished. The first failure
// cancels decodes that have not started yet and is returned as a *DecodeError;
// no partial result is returned. A cancelled ctx is returned as ctx.Err().
//
// Descriptors with zero OriginWidth/OriginHeight get them from the decoded
// image. Non-zero values must match the decoded size.
func DecodeAll(ctx context.Context, descs []Descriptor, opts ...Option) ([]Sprite, error) {
	o := newOptions(opts)
	start := time.Now()

	sprites := make([]Sprite, len(descs))
	g, gctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	for i, d := range descs {
		i, d := i, d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := decodeFile(d.Path, o.maxPixels)
			if err != nil {
				return &DecodeError{Index: i, Path: d.Path, Err: err}
			}
			size := img.Bounds().Size()
			if d.OriginWidth == 0 {
				d.OriginWidth = size.X
			}
			if d.OriginHeight == 0 {
				d.OriginHeight = size.Y
			}
			if d.OriginWidth != size.X || d.OriginHeight != size.Y {
				return &DecodeError{Index: i, Path: d.Path, Err: fmt.Errorf("%w: declared %dx%d, decoded %dx%d",
					ErrSizeMismatch, d.OriginWidth, d.OriginHeight, size.X, size.Y)}
			}
			sprites[i] = Sprite{Descriptor: d, Image: img}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	Logger().Debug("decoded images", "count", len(sprites), "elapsed", time.Since(start))
	return sprites, nil
}

// decodeFile reads an image file into a zero-origin NRGBA buffer.
func decodeFile(path string, maxPixels int) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if !filetype.IsImage(head[:n]) {
		return nil, ErrNotImage
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind image: %w", err)
	}

	if maxPixels > 0 {
		cfg, _, err := image.DecodeConfig(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image header: %w", err)
		}
		if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
			return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxPixels)
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind image: %w", err)
		}
	}

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return toNRGBA(img), nil
}

// toNRGBA returns img as an NRGBA buffer whose bounds start at (0,0),
// converting only when necessary.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}
