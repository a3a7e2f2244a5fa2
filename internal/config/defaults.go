package config

const (
	defaultStagingDir       = "~/.local/share/jigsaw/staging"
	defaultLogDir           = "~/.local/share/jigsaw/logs"
	defaultHistoryDB        = "~/.local/share/jigsaw/history.db"
	defaultCanvasWidth      = 1920
	defaultCanvasHeight     = 1080
	defaultFPS              = 24
	defaultPageSeconds      = 3
	defaultFinalHoldSeconds = 3
	defaultFadeSeconds      = 1
	defaultSoundSeconds     = 1.5
	defaultPuzzleX          = 231
	defaultPuzzleY          = 162
	defaultPuzzleWidth      = 1550
	defaultPuzzleHeight     = 880
	defaultBadgeX           = 1498
	defaultBadgeY           = 52
	defaultBadgeWidth       = 379
	defaultBadgeHeight      = 147
	defaultCaptionY         = 714
	defaultCaptionFont      = "Super_Adorable.ttf"
	defaultCaptionSize      = 200
	defaultCaptionFill      = "#000000"
	defaultCaptionStroke    = "#ffffff"
	defaultCaptionStrokePx  = 5
	defaultCaptionMargin    = 50
	defaultFrameAsset       = "Frame.png"
	defaultBadgeAsset       = "Subscribe2.gif"
	defaultConfettiAsset    = "Confetti.gif"
	defaultSoundAsset       = "guitar-string-fade-out-332451.mp3"
	defaultMusicGain        = 0.33
	defaultMusicFadeOut     = 2
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultVideoCodec       = "libx264"
	defaultAudioCodec       = "aac"
	defaultPreset           = "medium"
	defaultPixelFormat      = "yuv420p"
	defaultArchiveDir       = "~/.local/share/jigsaw/archive"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			HistoryDB:  defaultHistoryDB,
		},
		Canvas: Canvas{
			Width:  defaultCanvasWidth,
			Height: defaultCanvasHeight,
			FPS:    defaultFPS,
		},
		Timing: Timing{
			PageSeconds:      defaultPageSeconds,
			FinalHoldSeconds: defaultFinalHoldSeconds,
			FadeSeconds:      defaultFadeSeconds,
			SoundSeconds:     defaultSoundSeconds,
		},
		Layout: Layout{
			PuzzleX:      defaultPuzzleX,
			PuzzleY:      defaultPuzzleY,
			PuzzleWidth:  defaultPuzzleWidth,
			PuzzleHeight: defaultPuzzleHeight,
			BadgeX:       defaultBadgeX,
			BadgeY:       defaultBadgeY,
			BadgeWidth:   defaultBadgeWidth,
			BadgeHeight:  defaultBadgeHeight,
			CaptionY:     defaultCaptionY,
		},
		Caption: Caption{
			Font:        defaultCaptionFont,
			Size:        defaultCaptionSize,
			Fill:        defaultCaptionFill,
			Stroke:      defaultCaptionStroke,
			StrokeWidth: defaultCaptionStrokePx,
			Margin:      defaultCaptionMargin,
		},
		Assets: Assets{
			Frame:    defaultFrameAsset,
			Badge:    defaultBadgeAsset,
			Confetti: defaultConfettiAsset,
			Sound:    defaultSoundAsset,
		},
		Music: Music{
			Gain:           defaultMusicGain,
			FadeOutSeconds: defaultMusicFadeOut,
		},
		Encode: Encode{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			VideoCodec:    defaultVideoCodec,
			AudioCodec:    defaultAudioCodec,
			Preset:        defaultPreset,
			PixelFormat:   defaultPixelFormat,
			ArchiveDir:    defaultArchiveDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
