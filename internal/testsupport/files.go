package testsupport

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"jigsawreveal/internal/config"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := min(int64(chunkSize), remaining)
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WritePNG writes a solid w×h PNG.
func WritePNG(t testing.TB, path string, w, h int, c color.Color) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// WriteAssets populates the first asset directory of cfg with every
// decoration asset: a real frame PNG and caption font, and placeholder bytes
// for the media files, which tests probe through fakes.
func WriteAssets(t testing.TB, cfg *config.Config) string {
	t.Helper()
	if len(cfg.Paths.AssetDirs) == 0 {
		t.Fatal("config has no asset directory")
	}
	dir := cfg.Paths.AssetDirs[0]
	WritePNG(t, filepath.Join(dir, cfg.Assets.Frame), 16, 16, color.White)
	for _, name := range []string{cfg.Assets.Badge, cfg.Assets.Confetti, cfg.Assets.Sound} {
		WriteFile(t, filepath.Join(dir, name), 16)
	}
	if err := os.WriteFile(filepath.Join(dir, cfg.Caption.Font), goregular.TTF, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	return dir
}
