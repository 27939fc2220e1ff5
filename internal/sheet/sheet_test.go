package sheet

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/sprite-tools-mcp/internal/layout"
	"github.com/ironsheep/sprite-tools-mcp/internal/sprite"
)

func writeSolidPNG(t *testing.T, path string, width, height int, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
}

// writeLayoutDir creates a layout file with two icons next to it.
func writeLayoutDir(t *testing.T) (dir, layoutPath string) {
	t.Helper()
	dir = t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "icons"), 0o755); err != nil {
		t.Fatalf("failed to create icons dir: %v", err)
	}
	writeSolidPNG(t, filepath.Join(dir, "icons", "home.png"), 16, 16, color.RGBA{255, 0, 0, 255})
	writeSolidPNG(t, filepath.Join(dir, "icons", "search.png"), 12, 10, color.RGBA{0, 0, 255, 255})

	layoutPath = filepath.Join(dir, "sprite.yaml")
	content := `output: sprite.png
stylesheet: sprite.css
prefix: icon-
images:
  - path: icons/home.png
    width: 16
    height: 16
  - path: icons/search.png
    width: 12
    height: 10
    fit: {x: 16, y: 0}
`
	if err := os.WriteFile(layoutPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write layout: %v", err)
	}
	return dir, layoutPath
}

func TestBuild_FromLayoutFile(t *testing.T) {
	dir, layoutPath := writeLayoutDir(t)

	result, err := Build(context.Background(), Request{Layout: layoutPath})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	wantOut := filepath.Join(dir, "sprite.png")
	if result.Output != wantOut {
		t.Errorf("Output: got %s, want %s", result.Output, wantOut)
	}
	if result.Width != 28+sprite.Margin || result.Height != 16+sprite.Margin {
		t.Errorf("size: got %dx%d, want %dx%d", result.Width, result.Height, 28+sprite.Margin, 16+sprite.Margin)
	}
	if len(result.Sprites) != 2 {
		t.Fatalf("got %d placements, want 2", len(result.Sprites))
	}
	if p := result.Sprites[1]; p.Name != "search" || p.X != 16 || p.OriginWidth != 12 || p.OriginHeight != 10 {
		t.Errorf("placement 1: got %+v", p)
	}
	if _, err := os.Stat(wantOut); err != nil {
		t.Errorf("sheet not written: %v", err)
	}

	css, err := os.ReadFile(filepath.Join(dir, "sprite.css"))
	if err != nil {
		t.Fatalf("stylesheet not written: %v", err)
	}
	if !strings.Contains(string(css), ".icon-search {") || !strings.Contains(string(css), `url("sprite.png")`) {
		t.Errorf("unexpected stylesheet:\n%s", css)
	}
}

func TestBuild_InlineImages(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writeSolidPNG(t, src, 5, 5, color.RGBA{0, 255, 0, 255})
	out := filepath.Join(dir, "out.png")

	result, err := Build(context.Background(), Request{
		Images: []layout.Image{{Path: src, Width: 5, Height: 5, Fit: layout.Offset{X: 3, Y: 4}}},
		Output: out,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if result.Width != 8+sprite.Margin || result.Height != 9+sprite.Margin {
		t.Errorf("size: got %dx%d", result.Width, result.Height)
	}
	if result.Stylesheet != "" {
		t.Errorf("no stylesheet requested, got %s", result.Stylesheet)
	}
}

func TestBuild_RequestErrors(t *testing.T) {
	_, layoutPath := writeLayoutDir(t)

	tests := []struct {
		name string
		req  Request
	}{
		{"layout and images", Request{Layout: layoutPath, Images: []layout.Image{{Path: "a.png"}}}},
		{"missing output", Request{Images: []layout.Image{{Path: "a.png", Width: 1, Height: 1}}}},
		{"missing layout", Request{Layout: filepath.Join(t.TempDir(), "none.json")}},
		{"image without path", Request{Images: []layout.Image{{Width: 1, Height: 1}}, Output: "out.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(context.Background(), tt.req)
			if !errors.Is(err, ErrBadRequest) {
				t.Errorf("got %v, want ErrBadRequest", err)
			}
			if !IsClientError(err) {
				t.Error("IsClientError should be true")
			}
		})
	}
}

func TestBuild_Empty(t *testing.T) {
	_, err := Build(context.Background(), Request{Output: filepath.Join(t.TempDir(), "out.png")})
	if !errors.Is(err, sprite.ErrEmptyInput) {
		t.Errorf("got %v, want ErrEmptyInput", err)
	}
	if !IsClientError(err) {
		t.Error("empty input should be a client error")
	}
}

func TestBuild_WriteErrorIsNotClientError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writeSolidPNG(t, src, 2, 2, color.RGBA{0, 255, 0, 255})

	_, err := Build(context.Background(), Request{
		Images: []layout.Image{{Path: src, Width: 2, Height: 2}},
		Output: filepath.Join(dir, "missing", "out.png"),
	})
	var we *sprite.WriteError
	if !errors.As(err, &we) {
		t.Fatalf("got %v, want *sprite.WriteError", err)
	}
	if IsClientError(err) {
		t.Error("write failures should not be client errors")
	}
}

func TestBuild_StylesheetFailureKeepsSheet(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writeSolidPNG(t, src, 2, 2, color.RGBA{0, 255, 0, 255})
	out := filepath.Join(dir, "out.png")

	_, err := Build(context.Background(), Request{
		Images:     []layout.Image{{Path: src, Width: 2, Height: 2}},
		Output:     out,
		Stylesheet: filepath.Join(dir, "missing", "out.css"),
	})
	if err == nil {
		t.Fatal("Build should fail when the stylesheet cannot be written")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("sheet written despite the stylesheet failure, stat: %v", err)
	}
}

func TestBuild_DecodeFailureKeepsStylesheet(t *testing.T) {
	dir := t.TempDir()
	css := filepath.Join(dir, "out.css")
	if err := os.WriteFile(css, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Build(context.Background(), Request{
		Images:     []layout.Image{{Path: filepath.Join(dir, "missing.png"), Width: 2, Height: 2}},
		Output:     filepath.Join(dir, "out.png"),
		Stylesheet: css,
	})
	var de *sprite.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("got %v, want *sprite.DecodeError", err)
	}
	if data, _ := os.ReadFile(css); string(data) != "old" {
		t.Errorf("stylesheet replaced by a failed build: %q", data)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestResolve_Root(t *testing.T) {
	dir, layoutPath := writeLayoutDir(t)

	l, err := Resolve(Request{Layout: "sprite.yaml", Output: "out/sheet.png", Root: dir})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if want := filepath.Join(dir, "out", "sheet.png"); l.Output != want {
		t.Errorf("Output: got %s, want %s", l.Output, want)
	}
	if want := filepath.Join(dir, "sprite.css"); l.Stylesheet != want {
		t.Errorf("Stylesheet: got %s, want %s", l.Stylesheet, want)
	}
	if want := filepath.Join(dir, "icons", "home.png"); l.Images[0].Path != want {
		t.Errorf("image path: got %s, want %s", l.Images[0].Path, want)
	}

	outside := t.TempDir()
	tests := []struct {
		name string
		req  Request
	}{
		{"layout", Request{Layout: layoutPath, Root: filepath.Join(dir, "icons")}},
		{"output", Request{Layout: layoutPath, Output: filepath.Join(outside, "s.png"), Root: dir}},
		{"dot-dot output", Request{Layout: layoutPath, Output: "../s.png", Root: dir}},
		{"stylesheet", Request{Layout: layoutPath, Stylesheet: "/etc/s.css", Root: dir}},
		{"image", Request{Images: []layout.Image{{Path: "../a.png"}}, Output: "s.png", Root: dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.req)
			if !errors.Is(err, ErrBadRequest) {
				t.Errorf("got %v, want ErrBadRequest", err)
			}
		})
	}
}

func TestResolve_RootDoesNotAlias(t *testing.T) {
	dir := t.TempDir()
	images := []layout.Image{{Path: "a.png", Width: 1, Height: 1}}

	if _, err := Resolve(Request{Images: images, Root: dir}); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if images[0].Path != "a.png" {
		t.Errorf("caller's images modified: %s", images[0].Path)
	}
}

func TestIsClientError_Cancellation(t *testing.T) {
	for _, err := range []error{
		context.Canceled,
		context.DeadlineExceeded,
		&sprite.DecodeError{Index: 0, Path: "a.png", Err: context.Canceled},
	} {
		if IsClientError(err) {
			t.Errorf("IsClientError(%v) = true, want false", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writeSolidPNG(t, src, 2, 2, color.RGBA{0, 255, 0, 255})
	_, err := Build(ctx, Request{Images: []layout.Image{{Path: src, Width: 2, Height: 2}}, Output: filepath.Join(dir, "out.png")})
	if !errors.Is(err, context.Canceled) || IsClientError(err) {
		t.Errorf("cancelled build: got %v, client error %v", err, IsClientError(err))
	}
}

func TestSize(t *testing.T) {
	_, layoutPath := writeLayoutDir(t)

	size, err := Size(Request{Layout: layoutPath})
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	want := SizeResult{Width: 38, Height: 26, ContentWidth: 28, ContentHeight: 16, Images: 2}
	if *size != want {
		t.Errorf("Size: got %+v, want %+v", *size, want)
	}
}

func TestVerify(t *testing.T) {
	_, layoutPath := writeLayoutDir(t)
	if _, err := Build(context.Background(), Request{Layout: layoutPath}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	result, err := Verify(context.Background(), VerifyRequest{Request: Request{Layout: layoutPath}})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !result.OK {
		t.Errorf("freshly built sheet should verify: %+v", result)
	}
}

func TestVerify_MissingSheetPath(t *testing.T) {
	_, err := Verify(context.Background(), VerifyRequest{Request: Request{Images: []layout.Image{{Path: "a.png"}}}})
	if !errors.Is(err, ErrBadRequest) {
		t.Errorf("got %v, want ErrBadRequest", err)
	}
}

func TestVerify_DecodeOptions(t *testing.T) {
	_, layoutPath := writeLayoutDir(t)
	if _, err := Build(context.Background(), Request{Layout: layoutPath}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	_, err := Verify(context.Background(), VerifyRequest{Request: Request{Layout: layoutPath}}, sprite.WithMaxPixels(200))
	if !errors.Is(err, sprite.ErrTooLarge) {
		t.Errorf("got %v, want sprite.ErrTooLarge from the 16x16 icon", err)
	}
}

func TestExtract(t *testing.T) {
	_, layoutPath := writeLayoutDir(t)
	if _, err := Build(context.Background(), Request{Layout: layoutPath}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	result, err := Extract(context.Background(), ExtractRequest{Request: Request{Layout: layoutPath}, Sprite: "search", Scale: 2})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Region.X != 16 || result.Region.Width != 12 || result.Region.Height != 10 {
		t.Errorf("region: got %+v", result.Region)
	}
	if result.Width != 24 || result.Height != 20 {
		t.Errorf("scaled size: got %dx%d, want 24x20", result.Width, result.Height)
	}
}

func TestExtract_Errors(t *testing.T) {
	_, layoutPath := writeLayoutDir(t)

	tests := []struct {
		name string
		req  ExtractRequest
	}{
		{"ambiguous", ExtractRequest{Request: Request{Layout: layoutPath}}},
		{"unknown name", ExtractRequest{Request: Request{Layout: layoutPath}, Sprite: "nope"}},
		{"negative scale", ExtractRequest{Request: Request{Layout: layoutPath}, Sprite: "home", Scale: -1}},
		{"no sheet", ExtractRequest{Request: Request{Images: []layout.Image{{Path: "a.png", Width: 1, Height: 1}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(context.Background(), tt.req)
			if !errors.Is(err, ErrBadRequest) {
				t.Errorf("got %v, want ErrBadRequest", err)
			}
		})
	}
}
