package page

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/webp"

	"jigsawreveal/internal/timeline"
)

// LoadStill reads an image file into memory. PNG and JPEG bytes are kept as
// they are; other formats are re-encoded as PNG.
func LoadStill(path string) (*timeline.Still, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	size := timeline.Size{Width: cfg.Width, Height: cfg.Height}
	if format == "png" || format == "jpeg" {
		return timeline.NewStill(format, data, size), nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("re-encode %s: %w", path, err)
	}
	return timeline.NewStill("png", buf.Bytes(), size), nil
}
