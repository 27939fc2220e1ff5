// Package sheet turns combine and verify requests into sprite sheet operations.
//
// The command line, the MCP server and the HTTP API all accept the same
// request shapes; this package resolves them against layout files and runs
// the sprite pipeline.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/sprite-tools-mcp/internal/imaging"
	"github.com/ironsheep/sprite-tools-mcp/internal/layout"
	"github.com/ironsheep/sprite-tools-mcp/internal/sprite"
	"github.com/ironsheep/sprite-tools-mcp/internal/stylesheet"
)

// ErrBadRequest marks errors caused by the request itself rather than by the
// images or the filesystem.
var ErrBadRequest = errors.New("bad request")

// Request describes a sprite sheet to build.
//
// Images come either from a layout file (Layout) or inline (Images), not both.
// Output, Stylesheet, ImageURL and Prefix override the layout file's values.
//
// Root is set by the caller, never decoded from a request body. When it is
// non-empty every file the request reads or writes must lie inside it, and
// relative paths resolve against it.
type Request struct {
	Layout     string         `json:"layout,omitempty"`
	Images     []layout.Image `json:"images,omitempty"`
	Output     string         `json:"output,omitempty"`
	Stylesheet string         `json:"stylesheet,omitempty"`
	ImageURL   string         `json:"image_url,omitempty"`
	Prefix     string         `json:"prefix,omitempty"`
	Root       string         `json:"-"`
}

// Placement reports where one image landed.
type Placement struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	OriginWidth  int    `json:"origin_width"`
	OriginHeight int    `json:"origin_height"`
}

// Result describes a written sprite sheet.
type Result struct {
	Output     string      `json:"output"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Stylesheet string      `json:"stylesheet,omitempty"`
	Sprites    []Placement `json:"sprites"`
}

// SizeResult is the canvas a layout needs, with and without the margin.
type SizeResult struct {
	Width         int `json:"width"`
	Height        int `json:"height"`
	ContentWidth  int `json:"content_width"`
	ContentHeight int `json:"content_height"`
	Images        int `json:"images"`
}

// Resolve loads the layout named by req, or builds one from its inline
// images, and applies the request's overrides. With req.Root set, paths
// outside the root are rejected as bad requests.
func Resolve(req Request) (*layout.Layout, error) {
	var l *layout.Layout
	switch {
	case req.Layout != "" && len(req.Images) > 0:
		return nil, fmt.Errorf("%w: give either a layout file or inline images, not both", ErrBadRequest)
	case req.Layout != "":
		path, err := req.within(req.Layout)
		if err != nil {
			return nil, err
		}
		loaded, err := layout.Load(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		l = loaded
		l.Output = l.Resolve(l.Output)
		l.Stylesheet = l.Resolve(l.Stylesheet)
	default:
		l = &layout.Layout{Images: req.Images}
	}

	if req.Output != "" {
		l.Output = req.Output
	}
	if req.Stylesheet != "" {
		l.Stylesheet = req.Stylesheet
	}
	if req.ImageURL != "" {
		l.ImageURL = req.ImageURL
	}
	if req.Prefix != "" {
		l.Prefix = req.Prefix
	}
	if req.Root == "" {
		return l, nil
	}

	var err error
	if l.Output, err = req.within(l.Output); err != nil {
		return nil, err
	}
	if l.Stylesheet, err = req.within(l.Stylesheet); err != nil {
		return nil, err
	}
	images := make([]layout.Image, len(l.Images))
	for i, img := range l.Images {
		if img.Path != "" {
			if img.Path, err = req.within(l.Resolve(img.Path)); err != nil {
				return nil, err
			}
		}
		images[i] = img
	}
	l.Images = images
	return l, nil
}

// within resolves path against req.Root and checks that it stays inside.
// Symlinks are followed as far as the path exists.
func (req Request) within(path string) (string, error) {
	if req.Root == "" || path == "" {
		return path, nil
	}
	root, err := filepath.Abs(req.Root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root: %w", err)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(realPath(root), realPath(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrBadRequest, path, root)
	}
	return path, nil
}

// realPath evaluates symlinks in the longest existing prefix of path.
func realPath(path string) string {
	rest := ""
	for p := path; ; {
		if r, err := filepath.EvalSymlinks(p); err == nil {
			return filepath.Join(r, rest)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return path
		}
		rest = filepath.Join(filepath.Base(p), rest)
		p = parent
	}
}

// Build combines the images of req into a sheet and, if requested, writes
// the companion stylesheet.
func Build(ctx context.Context, req Request, opts ...sprite.Option) (*Result, error) {
	l, err := Resolve(req)
	if err != nil {
		return nil, err
	}
	return BuildLayout(ctx, l, opts...)
}

// BuildLayout combines the images of an already resolved layout.
//
// The stylesheet is staged before the sheet is written and moved into place
// after it, so a stylesheet that cannot be written leaves the previous sheet
// untouched.
func BuildLayout(ctx context.Context, l *layout.Layout, opts ...sprite.Option) (*Result, error) {
	if l.Output == "" {
		return nil, fmt.Errorf("%w: output path is required", ErrBadRequest)
	}
	descs, err := l.Descriptors()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	var css *stylesheet.Pending
	if l.Stylesheet != "" {
		url := l.ImageURL
		if url == "" {
			url = filepath.Base(l.Output)
		}
		css, err = stylesheet.Stage(l.Stylesheet, descs, stylesheet.Options{ImageURL: url, Prefix: l.Prefix})
		if err != nil {
			return nil, err
		}
		defer css.Discard()
	}

	sprites, err := sprite.Combine(ctx, descs, l.Output, opts...)
	if err != nil {
		return nil, err
	}
	placed := sprite.Descriptors(sprites)
	size, err := sprite.CanvasSize(placed)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Output: l.Output,
		Width:  size.X + sprite.Margin,
		Height: size.Y + sprite.Margin,
	}
	for _, d := range placed {
		result.Sprites = append(result.Sprites, Placement{
			Name:         d.Name,
			Path:         d.Path,
			X:            d.Fit.X,
			Y:            d.Fit.Y,
			Width:        d.Width,
			Height:       d.Height,
			OriginWidth:  d.OriginWidth,
			OriginHeight: d.OriginHeight,
		})
	}

	if css != nil {
		if err := css.Commit(); err != nil {
			return nil, err
		}
		result.Stylesheet = css.Path()
	}
	return result, nil
}

// Size computes the canvas for req without decoding any image.
func Size(req Request) (*SizeResult, error) {
	l, err := Resolve(req)
	if err != nil {
		return nil, err
	}
	descs, err := l.Descriptors()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	size, err := sprite.CanvasSize(descs)
	if err != nil {
		return nil, err
	}
	return &SizeResult{
		Width:         size.X + sprite.Margin,
		Height:        size.Y + sprite.Margin,
		ContentWidth:  size.X,
		ContentHeight: size.Y,
		Images:        len(descs),
	}, nil
}

// VerifyRequest names a sheet and the layout it should match.
// Sheet defaults to the layout's output.
type VerifyRequest struct {
	Request
	Sheet     string  `json:"sheet,omitempty"`
	Tolerance float64 `json:"tolerance,omitempty"`
}

// Verify checks an existing sheet against its layout.
func Verify(ctx context.Context, req VerifyRequest, opts ...sprite.Option) (*imaging.VerifyResult, error) {
	l, err := Resolve(req.Request)
	if err != nil {
		return nil, err
	}
	sheetPath := req.Sheet
	if sheetPath == "" {
		sheetPath = l.Output
	}
	if sheetPath == "" {
		return nil, fmt.Errorf("%w: sheet path is required", ErrBadRequest)
	}
	if sheetPath, err = req.within(sheetPath); err != nil {
		return nil, err
	}
	descs, err := l.Descriptors()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return imaging.VerifyFile(ctx, sheetPath, descs, req.Tolerance, opts...)
}

// ExtractRequest names one sprite of a sheet.
//
// Sprite is matched against image names; it may be empty when the layout has
// a single image. Scale defaults to 1.
type ExtractRequest struct {
	Request
	Sheet  string  `json:"sheet,omitempty"`
	Sprite string  `json:"sprite,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
}

// Extract cuts one sprite back out of an existing sheet.
func Extract(ctx context.Context, req ExtractRequest, opts ...sprite.Option) (*imaging.ExtractResult, error) {
	l, err := Resolve(req.Request)
	if err != nil {
		return nil, err
	}
	sheetPath := req.Sheet
	if sheetPath == "" {
		sheetPath = l.Output
	}
	if sheetPath == "" {
		return nil, fmt.Errorf("%w: sheet path is required", ErrBadRequest)
	}
	if sheetPath, err = req.within(sheetPath); err != nil {
		return nil, err
	}
	if req.Scale < 0 {
		return nil, fmt.Errorf("%w: scale must not be negative", ErrBadRequest)
	}
	scale := req.Scale
	if scale == 0 {
		scale = 1
	}

	descs, err := l.Descriptors()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	d, err := pick(descs, req.Sprite)
	if err != nil {
		return nil, err
	}
	return imaging.ExtractFile(ctx, sheetPath, d, scale, opts...)
}

func pick(descs []sprite.Descriptor, name string) (sprite.Descriptor, error) {
	if name == "" {
		if len(descs) == 1 {
			return descs[0], nil
		}
		return sprite.Descriptor{}, fmt.Errorf("%w: sprite name is required when the layout has %d images", ErrBadRequest, len(descs))
	}
	for _, d := range descs {
		if d.Name == name {
			return d, nil
		}
	}
	return sprite.Descriptor{}, fmt.Errorf("%w: no image named %q", ErrBadRequest, name)
}

// IsClientError reports whether err was caused by the request or its inputs
// rather than by writing the output. Cancellation is never a client error.
func IsClientError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var de *sprite.DecodeError
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, sprite.ErrEmptyInput) ||
		errors.Is(err, sprite.ErrInvalidDescriptor) ||
		errors.As(err, &de)
}
