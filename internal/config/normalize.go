package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCaption()
	c.normalizeAssets()
	if err := c.normalizeEncode(); err != nil {
		return err
	}
	c.normalizePublish()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) != "" {
		if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
			return fmt.Errorf("paths.history_db: %w", err)
		}
	}

	dirs := c.Paths.AssetDirs
	if value, ok := os.LookupEnv("JIGSAW_ASSET_PATH"); ok && strings.TrimSpace(value) != "" {
		dirs = append(strings.Split(value, ","), dirs...)
	}
	expanded := make([]string, 0, len(dirs))
	seen := make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		abs, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("paths.asset_dirs: %w", err)
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		expanded = append(expanded, abs)
	}
	c.Paths.AssetDirs = expanded
	return nil
}

func (c *Config) normalizeCaption() {
	c.Caption.Font = strings.TrimSpace(c.Caption.Font)
	if c.Caption.Font == "" {
		c.Caption.Font = defaultCaptionFont
	}
	c.Caption.Fill = strings.ToLower(strings.TrimSpace(c.Caption.Fill))
	if c.Caption.Fill == "" {
		c.Caption.Fill = defaultCaptionFill
	}
	c.Caption.Stroke = strings.ToLower(strings.TrimSpace(c.Caption.Stroke))
	if c.Caption.Stroke == "" {
		c.Caption.Stroke = defaultCaptionStroke
	}
	if c.Caption.StrokeWidth < 0 {
		c.Caption.StrokeWidth = 0
	}
	if c.Caption.Margin < 0 {
		c.Caption.Margin = 0
	}
}

func (c *Config) normalizeAssets() {
	trimOr := func(value, fallback string) string {
		if value = strings.TrimSpace(value); value == "" {
			return fallback
		}
		return value
	}
	c.Assets.Frame = trimOr(c.Assets.Frame, defaultFrameAsset)
	c.Assets.Badge = trimOr(c.Assets.Badge, defaultBadgeAsset)
	c.Assets.Confetti = trimOr(c.Assets.Confetti, defaultConfettiAsset)
	c.Assets.Sound = trimOr(c.Assets.Sound, defaultSoundAsset)
}

func (c *Config) normalizeEncode() error {
	c.Encode.FFmpegBinary = strings.TrimSpace(c.Encode.FFmpegBinary)
	if c.Encode.FFmpegBinary == "" {
		c.Encode.FFmpegBinary = defaultFFmpegBinary
	}
	c.Encode.FFprobeBinary = strings.TrimSpace(c.Encode.FFprobeBinary)
	if c.Encode.FFprobeBinary == "" {
		c.Encode.FFprobeBinary = defaultFFprobeBinary
	}
	c.Encode.VideoCodec = strings.TrimSpace(c.Encode.VideoCodec)
	if c.Encode.VideoCodec == "" {
		c.Encode.VideoCodec = defaultVideoCodec
	}
	c.Encode.AudioCodec = strings.TrimSpace(c.Encode.AudioCodec)
	if c.Encode.AudioCodec == "" {
		c.Encode.AudioCodec = defaultAudioCodec
	}
	c.Encode.Preset = strings.ToLower(strings.TrimSpace(c.Encode.Preset))
	if c.Encode.Preset == "" {
		c.Encode.Preset = defaultPreset
	}
	c.Encode.PixelFormat = strings.TrimSpace(c.Encode.PixelFormat)
	if c.Encode.PixelFormat == "" {
		c.Encode.PixelFormat = defaultPixelFormat
	}
	if strings.TrimSpace(c.Encode.ArchiveDir) == "" {
		c.Encode.ArchiveDir = defaultArchiveDir
	}
	var err error
	if c.Encode.ArchiveDir, err = expandPath(c.Encode.ArchiveDir); err != nil {
		return fmt.Errorf("encode.archive_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePublish() {
	c.Publish.Bucket = strings.TrimSpace(c.Publish.Bucket)
	if c.Publish.Bucket == "" {
		if value, ok := os.LookupEnv("JIGSAW_S3_BUCKET"); ok {
			c.Publish.Bucket = strings.TrimSpace(value)
		}
	}
	c.Publish.Prefix = strings.Trim(strings.TrimSpace(c.Publish.Prefix), "/")
	c.Publish.Region = strings.TrimSpace(c.Publish.Region)
	c.Publish.Profile = strings.TrimSpace(c.Publish.Profile)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
