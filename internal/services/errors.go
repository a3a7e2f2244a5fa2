package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAssetNotFound    = errors.New("asset not found")
	ErrInvalidOrder     = errors.New("invalid order")
	ErrEmptyPieceStack  = errors.New("empty piece stack")
	ErrMissingPlacement = errors.New("missing placement")
	ErrNoClips          = errors.New("no clips")
	ErrConfigFormat     = errors.New("config format error")
	ErrEncode           = errors.New("encode error")
	ErrExternalTool     = errors.New("external tool error")
	ErrConfiguration    = errors.New("configuration error")
)

// kinds is checked in order; the first marker found names the failure.
var kinds = []struct {
	marker error
	name   string
}{
	{ErrAssetNotFound, "asset_not_found"},
	{ErrInvalidOrder, "invalid_order"},
	{ErrEmptyPieceStack, "empty_piece_stack"},
	{ErrMissingPlacement, "missing_placement"},
	{ErrNoClips, "no_clips"},
	{ErrConfigFormat, "config_format"},
	{ErrEncode, "encode"},
	{ErrExternalTool, "external_tool"},
	{ErrConfiguration, "configuration"},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a stable name for the first sentinel wrapped by err, "canceled"
// for context cancellation, or "internal" when no marker is present.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.name
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "internal"
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
