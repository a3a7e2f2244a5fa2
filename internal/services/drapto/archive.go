package drapto

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	draptolib "github.com/five82/drapto"

	"jigsawreveal/internal/services"
)

// Progress is one archive progress event.
type Progress struct {
	Stage   string
	Percent float64
	Message string
	ETA     time.Duration
	Speed   float64
	Warning bool
}

// Archiver transcodes a finished video into outputDir and returns the path of
// the archive copy.
type Archiver interface {
	Archive(ctx context.Context, inputPath, outputDir string, progress func(Progress)) (string, error)
}

// Library implements Archiver with the Drapto library.
type Library struct{}

// NewLibrary constructs a Library archiver.
func NewLibrary() *Library {
	return &Library{}
}

// Archive encodes inputPath to AV1 in outputDir.
func (l *Library) Archive(ctx context.Context, inputPath, outputDir string, progress func(Progress)) (string, error) {
	if strings.TrimSpace(inputPath) == "" {
		return "", services.Wrap(services.ErrConfiguration, "archive", "validate", "input path required", nil)
	}
	if strings.TrimSpace(outputDir) == "" {
		return "", services.Wrap(services.ErrConfiguration, "archive", "validate", "output directory required", nil)
	}

	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "archive", "init", "create drapto encoder", err)
	}
	var rep draptolib.Reporter
	if progress != nil {
		rep = newProgressReporter(progress)
	}
	if _, err := encoder.EncodeWithReporter(ctx, inputPath, outputDir, rep); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "archive", filepath.Base(inputPath), "drapto encode failed", err)
	}
	return OutputPath(inputPath, outputDir), nil
}

// OutputPath is where Drapto writes the archive copy of inputPath.
func OutputPath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(strings.TrimSpace(outputDir), stem+".mkv")
}

var _ Archiver = (*Library)(nil)
