// Package stylesheet emits the CSS rules that show each image of a sprite sheet.
package stylesheet

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/ironsheep/sprite-tools-mcp/internal/sprite"
)

// Options controls the generated rules.
type Options struct {
	// ImageURL is placed in url(...) for every rule.
	ImageURL string

	// Prefix is prepended to every class name. Defaults to "sprite-".
	Prefix string
}

// Rule is the placement of one image as used by CSS.
type Rule struct {
	Class  string `json:"class"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Rules computes one rule per descriptor, in order. Class names are
// sanitised and made unique with -2, -3, ... suffixes.
func Rules(descs []sprite.Descriptor, prefix string) []Rule {
	if prefix == "" {
		prefix = "sprite-"
	}
	seen := make(map[string]bool)
	rules := make([]Rule, 0, len(descs))
	for i, d := range descs {
		name := d.Name
		if name == "" {
			base := filepath.Base(d.Path)
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}
		id := prefix + identifier(name, i)
		class := id
		for n := 2; seen[class]; n++ {
			class = id + "-" + strconv.Itoa(n)
		}
		seen[class] = true
		rules = append(rules, Rule{
			Class:  class,
			X:      d.Fit.X,
			Y:      d.Fit.Y,
			Width:  d.Width,
			Height: d.Height,
		})
	}
	return rules
}

// Generate writes CSS for descs to w.
func Generate(w io.Writer, descs []sprite.Descriptor, opts Options) error {
	bw := bufio.NewWriter(w)
	for _, r := range Rules(descs, opts.Prefix) {
		fmt.Fprintf(bw, ".%s {\n", r.Class)
		fmt.Fprintf(bw, "  background: url(%s) no-repeat;\n", quote(opts.ImageURL))
		fmt.Fprintf(bw, "  background-position: %s %s;\n", px(-r.X), px(-r.Y))
		fmt.Fprintf(bw, "  width: %s;\n", px(r.Width))
		fmt.Fprintf(bw, "  height: %s;\n", px(r.Height))
		fmt.Fprintf(bw, "}\n")
	}
	return bw.Flush()
}

// Pending is a stylesheet written next to its destination but not yet
// moved into place.
type Pending struct {
	tmp  string
	path string
}

// Stage writes the stylesheet for descs to a temporary file in the directory
// of path. Commit renames it over path; Discard removes it.
func Stage(path string, descs []sprite.Descriptor, opts Options) (_ *Pending, err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create stylesheet: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err := Generate(f, descs, opts); err != nil {
		return nil, fmt.Errorf("failed to write stylesheet: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close stylesheet: %w", err)
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write stylesheet: %w", err)
	}
	return &Pending{tmp: f.Name(), path: path}, nil
}

// Path is the final location of the stylesheet.
func (p *Pending) Path() string { return p.path }

// Commit moves the stylesheet into place.
func (p *Pending) Commit() error {
	if err := os.Rename(p.tmp, p.path); err != nil {
		os.Remove(p.tmp)
		return fmt.Errorf("failed to write stylesheet: %w", err)
	}
	return nil
}

// Discard removes the staged file. It is a no-op after Commit.
func (p *Pending) Discard() {
	os.Remove(p.tmp)
}

func px(v int) string {
	if v == 0 {
		return "0"
	}
	return strconv.Itoa(v) + "px"
}

// identifier maps name onto [A-Za-z0-9_-], falling back to the index for
// names with nothing usable.
func identifier(name string, index int) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	id := strings.Trim(b.String(), "-")
	if id == "" {
		return strconv.Itoa(index)
	}
	if id[0] >= '0' && id[0] <= '9' {
		return "_" + id
	}
	return id
}

// quote renders s as a double-quoted CSS string. Quotes and backslashes are
// backslash-escaped and control characters use hex escapes.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, "\\%x ", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
