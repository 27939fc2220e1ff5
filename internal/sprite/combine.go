package sprite

import (
	"bufio"
	"context"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/anthonynsimon/bild/imgio"
)

// Combine decodes every source, composites them onto one canvas and writes it
// as PNG to outPath.
//
// The returned sprites carry each descriptor (with origin dimensions filled in)
// and its decoded pixels, in input order, for callers that need per-image
// metadata afterwards, e.g. to emit a stylesheet.
//
// Combine returns only once the output file has been fully written and moved
// into place. On any error no sprites are returned and outPath keeps whatever
// content it had before the call.
func Combine(ctx context.Context, descs []Descriptor, outPath string, opts ...Option) ([]Sprite, error) {
	start := time.Now()

	// Reject bad layouts before touching the filesystem.
	if _, err := CanvasSize(descs); err != nil {
		return nil, err
	}

	sprites, err := DecodeAll(ctx, descs, opts...)
	if err != nil {
		return nil, err
	}

	canvas, err := Compose(sprites)
	if err != nil {
		return nil, err
	}

	if err := WriteFile(outPath, canvas); err != nil {
		return nil, err
	}

	Logger().Info("wrote sprite sheet", "path", outPath, "sprites", len(sprites),
		"width", canvas.Rect.Dx(), "height", canvas.Rect.Dy(), "elapsed", time.Since(start))
	return sprites, nil
}

// WriteFile encodes img as PNG into a temporary file next to path, syncs it,
// and renames it over path. Failures are reported as *WriteError and leave no
// temporary file behind.
func WriteFile(path string, img image.Image) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	encode := imgio.PNGEncoder()
	if err := encode(bw, img); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := bw.Flush(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
