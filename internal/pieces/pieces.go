// Package pieces defines the contract with the piece splitter and reads the
// files it produces.
//
// A splitter writes, into one output directory:
//   - piece_<row>_<col>.png for every grid coordinate
//   - piece_outline.png, the outline overlay covering the whole puzzle area
//   - piece_data.json, mapping each piece name (without extension) to its
//     [x, y] offset inside the puzzle area
package pieces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"jigsawreveal/internal/reveal"
	"jigsawreveal/internal/services"
	"jigsawreveal/internal/timeline"
)

const (
	// OutlineFile is the outline overlay written by every splitter.
	OutlineFile = "piece_outline.png"
	// MetadataFile holds the piece placements.
	MetadataFile = "piece_data.json"
)

// Splitter cuts an image into rows x columns pieces inside outDir.
type Splitter interface {
	Split(ctx context.Context, imagePath string, rows, columns int, outDir string) error
}

// Name returns the piece identifier for a coordinate, without extension.
func Name(c reveal.Coord) string {
	return fmt.Sprintf("piece_%d_%d", c.Row, c.Column)
}

// FileName returns the piece image file name for a coordinate.
func FileName(c reveal.Coord) string {
	return Name(c) + ".png"
}

// Placements maps piece names to their offset inside the puzzle area.
type Placements map[string]timeline.Point

// Lookup returns the offset for a coordinate.
func (p Placements) Lookup(c reveal.Coord) (timeline.Point, error) {
	pt, ok := p[Name(c)]
	if !ok {
		return timeline.Point{}, services.Wrap(services.ErrMissingPlacement, "build_pages", Name(c), "no placement in piece metadata", nil)
	}
	return pt, nil
}

// Check verifies that every coordinate of the grid has a placement.
func (p Placements) Check(rows, columns int) error {
	for _, c := range reveal.Canonical(rows, columns) {
		if _, err := p.Lookup(c); err != nil {
			return err
		}
	}
	return nil
}

// ReadPlacements loads MetadataFile from dir.
func ReadPlacements(dir string) (Placements, error) {
	path := filepath.Join(dir, MetadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrMissingPlacement, "build_pages", MetadataFile, "splitter wrote no metadata", err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "build_pages", MetadataFile, "read metadata", err)
	}
	return ParsePlacements(data)
}

// ParsePlacements decodes a placement document.
func ParsePlacements(data []byte) (Placements, error) {
	var raw map[string][]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "build_pages", MetadataFile, "decode metadata", err)
	}
	out := make(Placements, len(raw))
	for name, xy := range raw {
		if len(xy) != 2 {
			return nil, services.Wrap(
				services.ErrExternalTool,
				"build_pages",
				MetadataFile,
				fmt.Sprintf("placement for %s must be [x, y], got %d values", name, len(xy)),
				nil,
			)
		}
		out[name] = timeline.Point{X: int(math.Round(xy[0])), Y: int(math.Round(xy[1]))}
	}
	return out, nil
}

// WritePlacements stores placements as MetadataFile inside dir.
func WritePlacements(dir string, placements Placements) error {
	raw := make(map[string][2]int, len(placements))
	for name, pt := range placements {
		raw[name] = [2]int{pt.X, pt.Y}
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode placements: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), data, 0o644); err != nil {
		return fmt.Errorf("write placements: %w", err)
	}
	return nil
}
