package logging

import (
	"context"
	"log/slog"

	"jigsawreveal/internal/services"
)

const (
	FieldComponent = "component"
	// FieldRunID identifies one render; it also prefixes its staging scopes.
	FieldRunID = "run_id"
	FieldStage = "stage"
	// FieldPuzzle is the 1-based index of the puzzle being built.
	FieldPuzzle = "puzzle"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldErrorKind names the sentinel kind of a failure.
	FieldErrorKind = "error_kind"
	// FieldImpact says what a warning means for the finished video.
	FieldImpact = "impact"
)

// ContextFields returns the run id, stage and puzzle stamped on ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if puzzle, ok := services.PuzzleFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldPuzzle, puzzle))
	}
	return fields
}

// WithContext binds the fields of ctx to logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return slog.New(logger.Handler().WithAttrs(fields))
}
