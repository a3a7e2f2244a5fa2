package drapto

import (
	"context"
	"errors"
	"testing"
	"time"

	draptolib "github.com/five82/drapto"

	"jigsawreveal/internal/services"
)

func TestOutputPath(t *testing.T) {
	cases := []struct{ input, dir, want string }{
		{"/out/final.mp4", "/archive", "/archive/final.mkv"},
		{"/out/final", " /archive ", "/archive/final.mkv"},
		{"/out/.hidden", "/archive", "/archive/.hidden.mkv"},
	}
	for _, tc := range cases {
		if got := OutputPath(tc.input, tc.dir); got != tc.want {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tc.input, tc.dir, got, tc.want)
		}
	}
}

func TestArchiveValidatesPaths(t *testing.T) {
	lib := NewLibrary()
	if _, err := lib.Archive(context.Background(), "", "/archive", nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for empty input, got %v", err)
	}
	if _, err := lib.Archive(context.Background(), "/out/final.mp4", "  ", nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for empty output dir, got %v", err)
	}
}

func TestProgressReporterForwardsProgress(t *testing.T) {
	var got []Progress
	r := newProgressReporter(func(p Progress) { got = append(got, p) })

	eta := 30 * time.Second
	r.Hardware(draptolib.HardwareSummary{})
	r.StageProgress(draptolib.StageProgress{Stage: "analysis", Percent: 40, Message: "probing", ETA: &eta})
	r.EncodingProgress(draptolib.ProgressSnapshot{Percent: 55, Speed: 1.5, ETA: time.Minute})
	r.Warning("low disk")
	r.Error(draptolib.ReporterError{Title: "encode", Message: "failed"})
	r.BatchComplete(draptolib.BatchSummary{})

	if len(got) != 4 {
		t.Fatalf("expected 4 forwarded events, got %d: %+v", len(got), got)
	}
	if got[0].Stage != "analysis" || got[0].Percent != 40 || got[0].ETA != eta {
		t.Fatalf("unexpected stage progress %+v", got[0])
	}
	if got[1].Stage != "encoding" || got[1].Percent != 55 || got[1].Speed != 1.5 || got[1].ETA != time.Minute {
		t.Fatalf("unexpected encoding progress %+v", got[1])
	}
	if !got[2].Warning || got[2].Message != "low disk" {
		t.Fatalf("unexpected warning %+v", got[2])
	}
	if got[3].Message != "encode: failed" {
		t.Fatalf("unexpected error message %q", got[3].Message)
	}
}
