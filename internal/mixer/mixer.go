// Package mixer lays a background music track under a finished timeline.
package mixer

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"jigsawreveal/internal/config"
	"jigsawreveal/internal/logging"
	"jigsawreveal/internal/media/ffprobe"
	"jigsawreveal/internal/services"
	"jigsawreveal/internal/timeline"
)

// Prober reports the natural properties of an audio file.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Info, error)
}

// Mixer applies background music with a fixed gain and trailing fade.
type Mixer struct {
	Gain    float64
	FadeOut time.Duration

	probe  Prober
	logger *slog.Logger
}

// New returns a mixer using the music settings from cfg.
func New(cfg *config.Config, probe Prober, logger *slog.Logger) *Mixer {
	return &Mixer{
		Gain:    cfg.Music.Gain,
		FadeOut: cfg.MusicFadeOut(),
		probe:   probe,
		logger:  logging.NewComponentLogger(logger, "mixer"),
	}
}

// ApplyBackgroundMusic returns a copy of tl carrying trackPath as its
// soundtrack. The track loops from its start to exactly the timeline
// duration, fades out over the final FadeOut, and is scaled by Gain. When the
// timeline already has sound the track is mixed additively with it;
// otherwise it becomes the only audio. tl is not modified. An empty
// trackPath returns tl unchanged.
func (m *Mixer) ApplyBackgroundMusic(ctx context.Context, tl *timeline.Timeline, trackPath string) (*timeline.Timeline, error) {
	trackPath = strings.TrimSpace(trackPath)
	if trackPath == "" || tl == nil {
		return tl, nil
	}
	info, err := m.probe.Probe(ctx, trackPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "mix_audio", filepath.Base(trackPath), "probe background music", err)
	}
	if !info.HasAudio {
		return nil, services.Wrap(services.ErrConfiguration, "mix_audio", filepath.Base(trackPath), "background music has no audio stream", nil)
	}

	total := tl.Duration()
	track := timeline.Sound{
		Role:     "bgm",
		Path:     trackPath,
		Duration: total,
		FadeOut:  min(m.FadeOut, total),
		Gain:     m.Gain,
		Channels: max(info.Channels, 1),
		Loop:     true,
	}
	mode := "sole"
	if tl.HasForegroundAudio() {
		mode = "mixed"
	}
	m.logger.Debug("background music applied",
		logging.String("track", filepath.Base(trackPath)),
		logging.Duration("track_natural", info.Duration),
		logging.Duration("duration", total),
		logging.Float64("gain", m.Gain),
		logging.String("mode", mode),
	)
	return tl.WithSoundtrack(track), nil
}
