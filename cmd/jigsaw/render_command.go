package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"jigsawreveal/internal/render"
	"jigsawreveal/internal/timeline"
)

type renderFlags struct {
	inputDir  string
	output    string
	assetPath string
	fps       int
	intro     string
	outtro    string
	music     string
	archive   bool
	publish   bool
}

func (f *renderFlags) request() render.Request {
	return render.Request{
		InputDir:   strings.TrimSpace(f.inputDir),
		AssetPaths: strings.TrimSpace(f.assetPath),
		FPS:        f.fps,
		Intro:      strings.TrimSpace(f.intro),
		Outtro:     strings.TrimSpace(f.outtro),
		Music:      strings.TrimSpace(f.music),
		Output:     strings.TrimSpace(f.output),
		Archive:    f.archive,
		Publish:    f.publish,
	}
}

func (f *renderFlags) bindInputs(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.inputDir, "input-dir", "i", "", "Directory containing config.json and the puzzle images")
	cmd.Flags().StringVar(&f.assetPath, "asset-path", "", "Comma-separated asset directories searched instead of the input directory")
	cmd.Flags().StringVar(&f.intro, "intro", "", "Video played before the first puzzle")
	cmd.Flags().StringVar(&f.outtro, "outtro", "", "Video played after the last puzzle")
	cmd.Flags().StringVar(&f.music, "bgm", "", "Background music looped under the whole video")
	_ = cmd.MarkFlagRequired("input-dir")
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a reveal video from an input directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.loggerFor(cfg)
			store, err := openHistory(cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			runCtx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			req := flags.request()
			bar := newProgressBar(cmd.ErrOrStderr())
			if bar != nil {
				req.Progress = bar.update
				defer bar.finish()
			}

			res, err := newDriver(cfg, logger, store).Render(runCtx, req)
			if err != nil {
				return err
			}
			if bar != nil {
				bar.finish()
			}
			printRenderResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	flags.bindInputs(cmd)
	cmd.Flags().StringVarP(&flags.output, "output", "o", render.DefaultOutput, "Output video file")
	cmd.Flags().IntVar(&flags.fps, "fps", 0, "Frames per second (defaults to canvas.fps)")
	cmd.Flags().BoolVar(&flags.archive, "archive", false, "Also write an AV1 archive copy with Drapto")
	cmd.Flags().BoolVar(&flags.publish, "publish", false, "Upload the output to the configured S3 bucket")
	return cmd
}

func printRenderResult(out io.Writer, res render.Result) {
	fmt.Fprintf(out, "Rendered %s\n", res.Output)
	fmt.Fprintf(out, "Run:      %s\n", res.RunID)
	fmt.Fprintf(out, "Puzzles:  %d (%d pages)\n", res.Puzzles, res.Pages)
	fmt.Fprintf(out, "Duration: %s\n", formatSeconds(res.Duration))
	if res.Archive != "" {
		fmt.Fprintf(out, "Archive:  %s\n", res.Archive)
	}
	for _, url := range res.URLs {
		fmt.Fprintf(out, "Uploaded: %s\n", url)
	}
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	flags := &renderFlags{}
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build the timeline without encoding and print its layers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			res, err := newDriver(cfg, ctx.loggerFor(cfg), nil).Plan(contextOrBackground(cmd), flags.request())
			if err != nil {
				return err
			}
			plan := res.Timeline.Plan()
			if jsonOut {
				return writeJSON(cmd, planJSON(res, plan))
			}
			printPlan(cmd.OutOrStdout(), res, plan)
			return nil
		},
	}
	flags.bindInputs(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the plan as JSON")
	return cmd
}

func printPlan(out io.Writer, res render.Result, plan timeline.Plan) {
	fmt.Fprintf(out, "Canvas %s, %s, %d puzzles, %d pages\n\n", plan.Size, formatSeconds(plan.Duration), res.Puzzles, res.Pages)

	rows := make([][]string, 0, len(plan.Layers))
	for i, l := range plan.Layers {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			l.Role,
			l.Kind.String(),
			formatSeconds(l.Start),
			formatSeconds(l.End()),
			fmt.Sprintf("%d,%d", l.Position.X, l.Position.Y),
			l.Size.String(),
			fadeLabel(l.FadeIn, l.FadeOut),
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"#", "Layer", "Kind", "Start", "End", "Position", "Size", "Fade"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))

	if len(plan.Sounds) == 0 {
		return
	}
	fmt.Fprintln(out)
	srows := make([][]string, 0, len(plan.Sounds))
	for _, s := range plan.Sounds {
		srows = append(srows, []string{
			s.Role,
			formatSeconds(s.Start),
			formatSeconds(s.End()),
			fmt.Sprintf("%.2f", s.Gain),
			yesNo(s.Loop),
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"Sound", "Start", "End", "Gain", "Loop"},
		srows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
}

func fadeLabel(in, out time.Duration) string {
	var parts []string
	if in > 0 {
		parts = append(parts, "in "+formatSeconds(in))
	}
	if out > 0 {
		parts = append(parts, "out "+formatSeconds(out))
	}
	return strings.Join(parts, ", ")
}

type planLayerJSON struct {
	Role    string  `json:"role"`
	Kind    string  `json:"kind"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	FadeIn  float64 `json:"fade_in,omitempty"`
	FadeOut float64 `json:"fade_out,omitempty"`
}

type planSoundJSON struct {
	Role  string  `json:"role"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Gain  float64 `json:"gain"`
	Loop  bool    `json:"loop,omitempty"`
}

func planJSON(res render.Result, plan timeline.Plan) map[string]any {
	layers := make([]planLayerJSON, 0, len(plan.Layers))
	for _, l := range plan.Layers {
		layers = append(layers, planLayerJSON{
			Role:    l.Role,
			Kind:    l.Kind.String(),
			Start:   l.Start.Seconds(),
			End:     l.End().Seconds(),
			X:       l.Position.X,
			Y:       l.Position.Y,
			Width:   l.Size.Width,
			Height:  l.Size.Height,
			FadeIn:  l.FadeIn.Seconds(),
			FadeOut: l.FadeOut.Seconds(),
		})
	}
	sounds := make([]planSoundJSON, 0, len(plan.Sounds))
	for _, s := range plan.Sounds {
		sounds = append(sounds, planSoundJSON{
			Role:  s.Role,
			Start: s.Start.Seconds(),
			End:   s.End().Seconds(),
			Gain:  s.Gain,
			Loop:  s.Loop,
		})
	}
	return map[string]any{
		"width":    plan.Size.Width,
		"height":   plan.Size.Height,
		"duration": plan.Duration.Seconds(),
		"puzzles":  res.Puzzles,
		"pages":    res.Pages,
		"layers":   layers,
		"sounds":   sounds,
	}
}

// encodeBar draws encode progress on an interactive terminal.
type encodeBar struct {
	bar  *progressbar.ProgressBar
	done bool
}

// newProgressBar returns nil unless w is a terminal.
func newProgressBar(w io.Writer) *encodeBar {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return nil
	}
	return &encodeBar{bar: progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("encoding"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)}
}

func (b *encodeBar) update(completed, total int64) {
	if b.done {
		return
	}
	if total > 0 && b.bar.GetMax64() != total {
		b.bar.ChangeMax64(total)
	}
	_ = b.bar.Set64(completed)
}

func (b *encodeBar) finish() {
	if b.done {
		return
	}
	b.done = true
	_ = b.bar.Finish()
}

// contextOrBackground guards commands executed without a context.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
