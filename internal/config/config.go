package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string   `toml:"staging_dir"`
	LogDir     string   `toml:"log_dir"`
	HistoryDB  string   `toml:"history_db"`
	AssetDirs  []string `toml:"asset_dirs"`
}

// Canvas describes the fixed output frame every layer is positioned within.
type Canvas struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	FPS    int `toml:"fps"`
}

// Timing holds the page durations, in seconds.
type Timing struct {
	PageSeconds      float64 `toml:"page_seconds"`
	FinalHoldSeconds float64 `toml:"final_hold_seconds"`
	FadeSeconds      float64 `toml:"fade_seconds"`
	SoundSeconds     float64 `toml:"sound_seconds"`
}

// Layout positions the fixed overlays on the canvas.
type Layout struct {
	PuzzleX      int `toml:"puzzle_x"`
	PuzzleY      int `toml:"puzzle_y"`
	PuzzleWidth  int `toml:"puzzle_width"`
	PuzzleHeight int `toml:"puzzle_height"`
	BadgeX       int `toml:"badge_x"`
	BadgeY       int `toml:"badge_y"`
	BadgeWidth   int `toml:"badge_width"`
	BadgeHeight  int `toml:"badge_height"`
	CaptionY     int `toml:"caption_y"`
}

// Caption styles the closing text shown on the last page.
type Caption struct {
	Font        string  `toml:"font"`
	Size        float64 `toml:"size"`
	Fill        string  `toml:"fill"`
	Stroke      string  `toml:"stroke"`
	StrokeWidth int     `toml:"stroke_width"`
	Margin      int     `toml:"margin"`
}

// Assets names the decoration files looked up on the asset search path.
type Assets struct {
	Frame    string `toml:"frame"`
	Badge    string `toml:"badge"`
	Confetti string `toml:"confetti"`
	Sound    string `toml:"sound"`
}

// Music controls the optional background track.
type Music struct {
	Gain           float64 `toml:"gain"`
	FadeOutSeconds float64 `toml:"fade_out_seconds"`
}

// Encode contains settings for the final materialization step.
type Encode struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	VideoCodec    string `toml:"video_codec"`
	AudioCodec    string `toml:"audio_codec"`
	Preset        string `toml:"preset"`
	PixelFormat   string `toml:"pixel_format"`
	ArchiveAV1    bool   `toml:"archive_av1"`
	ArchiveDir    string `toml:"archive_dir"`
}

// Publish configures the optional S3 upload of finished videos.
type Publish struct {
	Bucket       string `toml:"s3_bucket"`
	Prefix       string `toml:"s3_prefix"`
	Region       string `toml:"region"`
	Profile      string `toml:"profile"`
	UsePathStyle bool   `toml:"use_path_style"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for a render.
//
// Configuration sections by subsystem:
//   - Paths: staging, logs, run history and default asset directories
//   - Canvas: output frame size and frame rate
//   - Timing: page, final hold, fade and sound effect durations
//   - Layout: puzzle area anchor, badge rectangle and caption baseline
//   - Caption: closing text font and colours
//   - Assets: decoration file names
//   - Music: background track gain and fade
//   - Encode: ffmpeg settings and optional AV1 archive copy
//   - Publish: optional S3 upload
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Canvas  Canvas  `toml:"canvas"`
	Timing  Timing  `toml:"timing"`
	Layout  Layout  `toml:"layout"`
	Caption Caption `toml:"caption"`
	Assets  Assets  `toml:"assets"`
	Music   Music   `toml:"music"`
	Encode  Encode  `toml:"encode"`
	Publish Publish `toml:"publish"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/jigsaw/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/jigsaw/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("jigsaw.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the staging and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Encode.ArchiveAV1 && strings.TrimSpace(c.Encode.ArchiveDir) != "" {
		if err := os.MkdirAll(c.Encode.ArchiveDir, 0o755); err != nil {
			return fmt.Errorf("create archive directory %q: %w", c.Encode.ArchiveDir, err)
		}
	}
	return nil
}

// PageDuration returns the base duration of every page.
func (c *Config) PageDuration() time.Duration {
	return seconds(c.Timing.PageSeconds)
}

// FinalHoldDuration returns the extra time the last page of a puzzle is held.
func (c *Config) FinalHoldDuration() time.Duration {
	return seconds(c.Timing.FinalHoldSeconds)
}

// FadeDuration returns the length of piece, outline and caption fades.
func (c *Config) FadeDuration() time.Duration {
	return seconds(c.Timing.FadeSeconds)
}

// SoundDuration returns how much of the page sound effect is played.
func (c *Config) SoundDuration() time.Duration {
	return seconds(c.Timing.SoundSeconds)
}

// MusicFadeOut returns the background track fade-out tail.
func (c *Config) MusicFadeOut() time.Duration {
	return seconds(c.Music.FadeOutSeconds)
}

func seconds(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
