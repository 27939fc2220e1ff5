// Package layout reads sprite layout files.
//
// A layout lists the images of one sprite sheet with their precomputed
// placement. JSON, YAML and TOML files share the same schema:
//
//	{
//	  "output": "sprite.png",
//	  "stylesheet": "sprite.css",
//	  "imageUrl": "sprite.png",
//	  "prefix": "icon-",
//	  "images": [
//	    {"name": "home", "path": "icons/home.png", "width": 16, "height": 16,
//	     "position": {"x": 0, "y": 0}, "fit": {"x": 0, "y": 0}}
//	  ]
//	}
//
// Relative paths are resolved against the directory of the layout file.
package layout

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/sprite-tools-mcp/internal/sprite"
)

// Format identifies a layout file encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// ErrUnknownFormat is returned for layout files with an unrecognised extension.
var ErrUnknownFormat = errors.New("unknown layout format")

// Offset is a 2D offset as written in layout files.
type Offset struct {
	X int `json:"x" yaml:"x" toml:"x"`
	Y int `json:"y" yaml:"y" toml:"y"`
}

// Image is one entry of a layout file.
type Image struct {
	Name         string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Path         string `json:"path" yaml:"path" toml:"path"`
	OriginWidth  int    `json:"originWidth,omitempty" yaml:"originWidth,omitempty" toml:"originWidth,omitempty"`
	OriginHeight int    `json:"originHeight,omitempty" yaml:"originHeight,omitempty" toml:"originHeight,omitempty"`
	Width        int    `json:"width" yaml:"width" toml:"width"`
	Height       int    `json:"height" yaml:"height" toml:"height"`
	Position     Offset `json:"position" yaml:"position" toml:"position"`
	Fit          Offset `json:"fit" yaml:"fit" toml:"fit"`
}

// Layout is a parsed layout file.
type Layout struct {
	// Output is the sprite sheet path. Optional.
	Output string `json:"output,omitempty" yaml:"output,omitempty" toml:"output,omitempty"`

	// Stylesheet is the companion CSS path. Optional.
	Stylesheet string `json:"stylesheet,omitempty" yaml:"stylesheet,omitempty" toml:"stylesheet,omitempty"`

	// ImageURL is how the stylesheet refers to the sheet. Defaults to the
	// output file name.
	ImageURL string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty" toml:"imageUrl,omitempty"`

	// Prefix is prepended to stylesheet class names.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty" toml:"prefix,omitempty"`

	Images []Image `json:"images" yaml:"images" toml:"images"`

	// Dir is the directory relative paths resolve against. Set by Load.
	Dir string `json:"-" yaml:"-" toml:"-"`
}

// FormatFromPath returns the layout format implied by a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Load reads and parses a layout file.
func Load(path string) (*Layout, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}
	l, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve layout directory: %w", err)
	}
	l.Dir = abs
	return l, nil
}

// Parse decodes layout data in the given format. Dir is left empty.
func Parse(data []byte, format Format) (*Layout, error) {
	var l Layout
	var err error
	switch format {
	case JSON:
		err = json.Unmarshal(data, &l)
	case YAML:
		err = yaml.Unmarshal(data, &l)
	case TOML:
		err = toml.Unmarshal(data, &l)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s layout: %w", format, err)
	}
	return &l, nil
}

// Resolve returns path joined to the layout directory unless it is absolute.
func (l *Layout) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || l.Dir == "" {
		return path
	}
	return filepath.Join(l.Dir, path)
}

// Descriptors converts the layout entries into sprite descriptors, in order.
func (l *Layout) Descriptors() ([]sprite.Descriptor, error) {
	descs := make([]sprite.Descriptor, 0, len(l.Images))
	for i, img := range l.Images {
		if img.Path == "" {
			return nil, fmt.Errorf("image %d: missing path", i)
		}
		name := img.Name
		if name == "" {
			base := filepath.Base(img.Path)
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}
		descs = append(descs, sprite.Descriptor{
			Name:         name,
			Path:         l.Resolve(img.Path),
			OriginWidth:  img.OriginWidth,
			OriginHeight: img.OriginHeight,
			Width:        img.Width,
			Height:       img.Height,
			Position:     sprite.Point{X: img.Position.X, Y: img.Position.Y},
			Fit:          sprite.Point{X: img.Fit.X, Y: img.Fit.Y},
		})
	}
	return descs, nil
}

// Paths returns the resolved source paths of every image.
func (l *Layout) Paths() []string {
	paths := make([]string, 0, len(l.Images))
	for _, img := range l.Images {
		paths = append(paths, l.Resolve(img.Path))
	}
	return paths
}
