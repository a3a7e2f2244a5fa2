package drapto

import (
	"fmt"

	draptolib "github.com/five82/drapto"
)

// progressReporter forwards Drapto's stage, encode, warning and error events
// to a Progress callback. Summary events are dropped.
type progressReporter struct {
	callback func(Progress)
}

func newProgressReporter(callback func(Progress)) *progressReporter {
	return &progressReporter{callback: callback}
}

func (r *progressReporter) Hardware(draptolib.HardwareSummary) {}

func (r *progressReporter) Initialization(s draptolib.InitializationSummary) {
	r.callback(Progress{
		Stage:   "initialization",
		Percent: -1,
		Message: fmt.Sprintf("%s (%s)", s.InputFile, s.Resolution),
	})
}

func (r *progressReporter) StageProgress(s draptolib.StageProgress) {
	update := Progress{
		Stage:   s.Stage,
		Percent: float64(s.Percent),
		Message: s.Message,
	}
	if s.ETA != nil {
		update.ETA = *s.ETA
	}
	r.callback(update)
}

func (r *progressReporter) CropResult(draptolib.CropSummary) {}

func (r *progressReporter) EncodingConfig(draptolib.EncodingConfigSummary) {}

func (r *progressReporter) EncodingStarted(totalFrames uint64) {
	r.callback(Progress{
		Stage:   "encoding",
		Message: fmt.Sprintf("%d frames", totalFrames),
	})
}

func (r *progressReporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	r.callback(Progress{
		Stage:   "encoding",
		Percent: float64(s.Percent),
		ETA:     s.ETA,
		Speed:   float64(s.Speed),
	})
}

func (r *progressReporter) ValidationComplete(s draptolib.ValidationSummary) {
	if s.Passed {
		return
	}
	r.callback(Progress{Stage: "validation", Percent: -1, Message: "archive validation failed", Warning: true})
}

func (r *progressReporter) EncodingComplete(draptolib.EncodingOutcome) {
	r.callback(Progress{Stage: "encoding", Percent: 100})
}

func (r *progressReporter) Warning(message string) {
	r.callback(Progress{Stage: "warning", Percent: -1, Message: message, Warning: true})
}

func (r *progressReporter) Error(e draptolib.ReporterError) {
	message := e.Title
	if e.Message != "" {
		message += ": " + e.Message
	}
	r.callback(Progress{Stage: "error", Percent: -1, Message: message, Warning: true})
}

func (r *progressReporter) OperationComplete(string) {}

func (r *progressReporter) BatchStarted(draptolib.BatchStartInfo) {}

func (r *progressReporter) FileProgress(draptolib.FileProgressContext) {}

func (r *progressReporter) BatchComplete(draptolib.BatchSummary) {}

var _ draptolib.Reporter = (*progressReporter)(nil)
