package imaging

import (
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImage writes a solid-colour PNG into a per-test directory and
// returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	return writeEncoded(t, "test-image.png", createInMemoryImage(width, height, c), func(w io.Writer, img image.Image) error {
		return png.Encode(w, img)
	})
}

func createInMemoryImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writeEncoded(t *testing.T, name string, img image.Image, encode func(io.Writer, image.Image) error) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 100, 100, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	bounds := img1.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 100 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x100", bounds.Dx(), bounds.Dy())
	}

	// Second load should return cached image
	img2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	a := createTestImage(t, 10, 10, color.RGBA{0, 255, 0, 255})
	b := createTestImage(t, 10, 10, color.RGBA{0, 0, 255, 255})

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	cache.Evict(a)
	cache.mu.RLock()
	_, aExists := cache.images[a]
	_, bExists := cache.images[b]
	cache.mu.RUnlock()
	if aExists || !bExists {
		t.Errorf("after Evict: a cached=%v (want false), b cached=%v (want true)", aExists, bExists)
	}

	cache.Evict("/nonexistent/path")

	cache.Clear()
	cache.mu.RLock()
	count := len(cache.images)
	cache.mu.RUnlock()
	if count != 0 {
		t.Errorf("Clear did not empty cache: %d images remain", count)
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(imgPath); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 200, 150, color.RGBA{255, 128, 64, 255})

	info, err := LoadImageInfo(cache, imgPath)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}

	if info.Width != 200 || info.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", info.MimeType)
	}
	if info.FileSizeBytes <= 0 {
		t.Error("FileSizeBytes should be positive")
	}
}

func TestLoadImageInfo_FormatDetection(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{10, 20, 30, 255})

	tests := []struct {
		name   string
		file   string
		encode func(io.Writer, image.Image) error
		format string
	}{
		{"png", "a.png", func(w io.Writer, m image.Image) error { return png.Encode(w, m) }, "png"},
		{"jpeg", "a.jpg", func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, nil) }, "jpg"},
		{"gif", "a.gif", func(w io.Writer, m image.Image) error { return gif.Encode(w, m, nil) }, "gif"},
		// Content wins over a misleading extension.
		{"png named jpg", "b.jpg", func(w io.Writer, m image.Image) error { return png.Encode(w, m) }, "png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeEncoded(t, tt.file, img, tt.encode)

			info, err := LoadImageInfo(NewImageCache(), path)
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}
			if info.Format != tt.format {
				t.Errorf("Format: got %s, want %s", info.Format, tt.format)
			}
		})
	}
}

func TestGetDimensions(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 300, 200, color.RGBA{100, 100, 100, 255})

	dims, err := GetDimensions(cache, imgPath)
	if err != nil {
		t.Fatalf("GetDimensions failed: %v", err)
	}

	if dims.Width != 300 || dims.Height != 200 {
		t.Errorf("dimensions: got %dx%d, want 300x200", dims.Width, dims.Height)
	}
}

func TestLoadErrors(t *testing.T) {
	notImage := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(notImage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	loaders := map[string]func(*ImageCache, string) error{
		"Load": func(c *ImageCache, p string) error {
			_, err := c.Load(p)
			return err
		},
		"LoadImageInfo": func(c *ImageCache, p string) error {
			_, err := LoadImageInfo(c, p)
			return err
		},
		"GetDimensions": func(c *ImageCache, p string) error {
			_, err := GetDimensions(c, p)
			return err
		},
	}

	for name, load := range loaders {
		for _, path := range []string{"/nonexistent/image.png", notImage} {
			cache := NewImageCache()
			if err := load(cache, path); err == nil {
				t.Errorf("%s(%s) should fail", name, filepath.Base(path))
			}
			cache.mu.RLock()
			n := len(cache.images)
			cache.mu.RUnlock()
			if n != 0 {
				t.Errorf("%s(%s) cached a failed load", name, filepath.Base(path))
			}
		}
	}
}
