// Package puzzle reads the per-render document listing the puzzles to reveal.
//
// The document is config.json inside the input directory:
//
//	{"clips": [{"background": "bg.png", "image": "cat.png", "rows": 2, "columns": 2, "text": "Hello"}]}
//
// rows and columns default to 2, text defaults to empty and order is optional.
package puzzle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"jigsawreveal/internal/services"
)

// DocumentFile is the document name looked up in the input directory.
const DocumentFile = "config.json"

const defaultGrid = 2

// Spec describes one puzzle. Background and Image are asset names resolved
// against the search path.
type Spec struct {
	Background string
	Image      string
	Rows       int
	Columns    int
	Text       string
	// Order, when non-nil, lists row-major piece indices in reveal order.
	Order []int
}

// Pieces returns Rows * Columns.
func (s Spec) Pieces() int { return s.Rows * s.Columns }

// Document is the parsed render document.
type Document struct {
	Clips []Spec
}

type rawSpec struct {
	Background *string `json:"background"`
	Image      *string `json:"image"`
	Rows       *int    `json:"rows"`
	Columns    *int    `json:"columns"`
	Text       *string `json:"text"`
	Order      []int   `json:"order"`
}

type rawDocument struct {
	Clips []rawSpec `json:"clips"`
}

// Load reads DocumentFile from inputDir.
func Load(inputDir string) (*Document, error) {
	path := filepath.Join(inputDir, DocumentFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfigFormat, "read_config", path, "document not found", err)
		}
		return nil, services.Wrap(services.ErrConfigFormat, "read_config", path, "read document", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes and validates a document.
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, services.Wrap(services.ErrConfigFormat, "read_config", "parse", "empty document", nil)
	}
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrConfigFormat, "read_config", "parse", "invalid json", err)
	}

	doc := &Document{Clips: make([]Spec, 0, len(raw.Clips))}
	for i, clip := range raw.Clips {
		spec, err := clip.spec()
		if err != nil {
			return nil, services.Wrap(services.ErrConfigFormat, "read_config", fmt.Sprintf("clips[%d]", i), err.Error(), nil)
		}
		doc.Clips = append(doc.Clips, spec)
	}
	return doc, nil
}

func (r rawSpec) spec() (Spec, error) {
	spec := Spec{Rows: defaultGrid, Columns: defaultGrid, Order: r.Order}
	if r.Background == nil || strings.TrimSpace(*r.Background) == "" {
		return Spec{}, errors.New("background is required")
	}
	if r.Image == nil || strings.TrimSpace(*r.Image) == "" {
		return Spec{}, errors.New("image is required")
	}
	spec.Background = strings.TrimSpace(*r.Background)
	spec.Image = strings.TrimSpace(*r.Image)
	if r.Rows != nil {
		spec.Rows = *r.Rows
	}
	if r.Columns != nil {
		spec.Columns = *r.Columns
	}
	if spec.Rows <= 0 || spec.Columns <= 0 {
		return Spec{}, fmt.Errorf("rows and columns must be positive, got %dx%d", spec.Rows, spec.Columns)
	}
	if r.Text != nil {
		spec.Text = *r.Text
	}
	return spec, nil
}

// Marshal encodes the document in its on-disk form.
func (d *Document) Marshal() ([]byte, error) {
	raw := rawDocument{Clips: make([]rawSpec, 0, len(d.Clips))}
	for _, spec := range d.Clips {
		rows, columns, text := spec.Rows, spec.Columns, spec.Text
		background, image := spec.Background, spec.Image
		raw.Clips = append(raw.Clips, rawSpec{
			Background: &background,
			Image:      &image,
			Rows:       &rows,
			Columns:    &columns,
			Text:       &text,
			Order:      spec.Order,
		})
	}
	return json.MarshalIndent(raw, "", "  ")
}
