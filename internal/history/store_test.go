package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStartFinishRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	run, err := store.Start(ctx, "run-1", "/input/cute_cats", started)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if run.Status != StatusRunning || run.Title != "Cute Cats" || !run.StartedAt.Equal(started) || run.FinishedAt != nil {
		t.Fatalf("unexpected started run %+v", run)
	}

	err = store.Finish(ctx, "run-1", Outcome{
		Stage:      "done",
		OutputPath: "/out/final.mp4",
		Puzzles:    2,
		Pages:      13,
		Duration:   45 * time.Second,
	}, started.Add(time.Minute))
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusSucceeded || got.Pages != 13 || got.Duration != 45*time.Second || got.OutputPath != "/out/final.mp4" {
		t.Fatalf("unexpected finished run %+v", got)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(started.Add(time.Minute)) {
		t.Fatalf("finished_at = %v", got.FinishedAt)
	}
}

func TestFinishWithErrorMarksFailed(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()
	if _, err := store.Start(ctx, "run-x", "/input/empty", now); err != nil {
		t.Fatal(err)
	}
	if err := store.Finish(ctx, "run-x", Outcome{Stage: "concatenate", ErrorKind: "no_clips", ErrorMessage: "nothing to render"}, now); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, "run-x")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusFailed || got.ErrorKind != "no_clips" || got.Stage != "concatenate" || got.OutputPath != "" {
		t.Fatalf("unexpected run %+v", got)
	}
	if err := store.Finish(ctx, "missing", Outcome{}, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentOrdersNewestFirstAndPrunes(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if _, err := store.Start(ctx, id, "/in/"+id, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Finish(ctx, "a", Outcome{Stage: "done"}, base); err != nil {
		t.Fatal(err)
	}

	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected order %+v", runs)
	}

	removed, err := store.Prune(ctx, base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("only the finished old run should be pruned, removed %d", removed)
	}
	all, err := store.Recent(ctx, 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("Recent(0) = %d runs, %v", len(all), err)
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Start(context.Background(), "keep", "/in/x", time.Now()); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(context.Background(), "keep"); err != nil {
		t.Fatalf("run lost after reopen: %v", err)
	}
}

func TestTitle(t *testing.T) {
	cases := map[string]string{
		"/in/cute_cats-2": "Cute Cats 2",
		"holiday.puzzles": "Holiday Puzzles",
		"/":               "Untitled Render",
		"":                "Untitled Render",
	}
	for in, want := range cases {
		if got := Title(in); got != want {
			t.Errorf("Title(%q) = %q, want %q", in, got, want)
		}
	}
}
