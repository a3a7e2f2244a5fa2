package testsupport

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"jigsawreveal/internal/puzzle"
)

// WritePuzzleInput writes doc as the input directory's config document along
// with a small background and puzzle image for every clip that names them.
func WritePuzzleInput(t testing.TB, dir string, doc puzzle.Document) {
	t.Helper()
	data, err := doc.Marshal()
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, puzzle.DocumentFile), data, 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	for _, clip := range doc.Clips {
		if clip.Background != "" {
			WritePNG(t, filepath.Join(dir, clip.Background), 32, 18, color.RGBA{B: 200, A: 255})
		}
		if clip.Image != "" {
			WritePNG(t, filepath.Join(dir, clip.Image), 40, 30, color.RGBA{R: 200, G: 120, A: 255})
		}
	}
}
