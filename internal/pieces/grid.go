package pieces

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"jigsawreveal/internal/reveal"
	"jigsawreveal/internal/services"
	"jigsawreveal/internal/timeline"
)

// Grid splits an image into equal rectangles after scaling it to the puzzle
// area. The last row and column absorb any remainder pixels.
type Grid struct {
	Width  int
	Height int
	// LineColor and LineWidth style the outline overlay.
	LineColor color.Color
	LineWidth int
}

// NewGrid returns a splitter for a width x height puzzle area with a white
// 3px outline.
func NewGrid(width, height int) Grid {
	return Grid{Width: width, Height: height, LineColor: color.White, LineWidth: 3}
}

func (g Grid) Split(ctx context.Context, imagePath string, rows, columns int, outDir string) error {
	if rows <= 0 || columns <= 0 {
		return services.Wrap(services.ErrInvalidOrder, "build_pages", "split", fmt.Sprintf("grid %dx%d", rows, columns), nil)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return services.Wrap(services.ErrConfiguration, "build_pages", "split", fmt.Sprintf("puzzle area %dx%d", g.Width, g.Height), nil)
	}
	if columns > g.Width || rows > g.Height {
		return services.Wrap(services.ErrConfiguration, "build_pages", "split",
			fmt.Sprintf("grid %dx%d leaves pieces smaller than a pixel in a %dx%d puzzle area", rows, columns, g.Width, g.Height), nil)
	}

	src, err := decodeFile(imagePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "build_pages", "split", "decode puzzle image", err)
	}

	scaled := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)

	placements := make(Placements, rows*columns)
	for _, c := range reveal.Canonical(rows, columns) {
		if err := ctx.Err(); err != nil {
			return err
		}
		rect := g.cell(c, rows, columns)
		piece := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
		draw.Draw(piece, piece.Bounds(), scaled, rect.Min, draw.Src)
		if err := writePNG(filepath.Join(outDir, FileName(c)), piece); err != nil {
			return services.Wrap(services.ErrExternalTool, "build_pages", "split", "write piece", err)
		}
		placements[Name(c)] = timeline.Point{X: rect.Min.X, Y: rect.Min.Y}
	}

	if err := writePNG(filepath.Join(outDir, OutlineFile), g.outline(rows, columns)); err != nil {
		return services.Wrap(services.ErrExternalTool, "build_pages", "split", "write outline", err)
	}
	if err := WritePlacements(outDir, placements); err != nil {
		return services.Wrap(services.ErrExternalTool, "build_pages", "split", "write metadata", err)
	}
	return nil
}

func (g Grid) cell(c reveal.Coord, rows, columns int) image.Rectangle {
	w := g.Width / columns
	h := g.Height / rows
	x0, y0 := c.Column*w, c.Row*h
	x1, y1 := x0+w, y0+h
	if c.Column == columns-1 {
		x1 = g.Width
	}
	if c.Row == rows-1 {
		y1 = g.Height
	}
	return image.Rect(x0, y0, x1, y1)
}

// outline draws the cell borders on a transparent canvas.
func (g Grid) outline(rows, columns int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	lineColor := g.LineColor
	if lineColor == nil {
		lineColor = color.White
	}
	ink := image.NewUniform(lineColor)
	half := max(g.LineWidth, 1) / 2
	width := max(g.LineWidth, 1)

	xs := []int{0, g.Width - width}
	for col := 1; col < columns; col++ {
		xs = append(xs, col*(g.Width/columns)-half)
	}
	ys := []int{0, g.Height - width}
	for row := 1; row < rows; row++ {
		ys = append(ys, row*(g.Height/rows)-half)
	}
	for _, x := range xs {
		draw.Draw(img, image.Rect(x, 0, x+width, g.Height), ink, image.Point{}, draw.Src)
	}
	for _, y := range ys {
		draw.Draw(img, image.Rect(0, y, g.Width, y+width), ink, image.Point{}, draw.Src)
	}
	return img
}

func decodeFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
