package config

const (
	defaultWorkDir         = "~/.local/share/vidsim/work"
	defaultIncomingDir     = "videos/incoming"
	defaultReadyDir        = "videos/ready"
	defaultDownloadDir     = "downloads"
	defaultLogDir          = "~/.local/share/vidsim/logs"
	defaultHistoryDB       = "~/.local/share/vidsim/history.db"
	defaultBackgroundAudio = "assets/audio/background.mp3"

	// DefaultCompareWidth is the normalization frame width used for comparisons.
	DefaultCompareWidth = 720
	// DefaultCompareHeight is the normalization frame height used for comparisons.
	DefaultCompareHeight = 1280
	// DefaultCompareTimeoutSecs bounds a single ffmpeg SSIM run.
	DefaultCompareTimeoutSecs = 600

	DefaultCropMin       = 0.01
	DefaultCropMax       = 0.03
	DefaultBrightnessMin = -0.03
	DefaultBrightnessMax = 0.03
	DefaultSaturationMin = 0.97
	DefaultSaturationMax = 1.03
	DefaultSpeedMin      = 0.98
	DefaultSpeedMax      = 1.02

	// DefaultCRF is the libx264 CRF for transformed outputs.
	DefaultCRF uint8 = 23
	// MaxCRF is the maximum valid libx264 CRF value.
	MaxCRF uint8 = 51
	// DefaultX264Preset is the libx264 speed preset.
	DefaultX264Preset = "veryfast"
	// DefaultAudioBitrateKbps is the AAC bitrate for transformed outputs.
	DefaultAudioBitrateKbps = 128
	// DefaultBackgroundVolume is the mix level of the background track.
	DefaultBackgroundVolume = 0.1

	// DefaultDownloadTimeoutSecs bounds a single yt-dlp run.
	DefaultDownloadTimeoutSecs = 180
	// DefaultMaxProfileVideos caps how many recent videos a profile request fetches.
	DefaultMaxProfileVideos = 10
	// DefaultDownloadFormat is the yt-dlp format selector.
	DefaultDownloadFormat = "bv*+ba/best"

	// DefaultSessionTTLSecs is how long pending chat uploads are kept.
	DefaultSessionTTLSecs = 1800
	// DefaultBotMaxConcurrent bounds simultaneous heavy bot jobs.
	DefaultBotMaxConcurrent = 2

	BotModeSSIM     = "ssim"
	BotModeDownload = "download"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:         defaultWorkDir,
			IncomingDir:     defaultIncomingDir,
			ReadyDir:        defaultReadyDir,
			DownloadDir:     defaultDownloadDir,
			LogDir:          defaultLogDir,
			HistoryDB:       defaultHistoryDB,
			BackgroundAudio: defaultBackgroundAudio,
		},
		Compare: Compare{
			Width:          DefaultCompareWidth,
			Height:         DefaultCompareHeight,
			TimeoutSeconds: DefaultCompareTimeoutSecs,
		},
		Transform: Transform{
			CropMin:          DefaultCropMin,
			CropMax:          DefaultCropMax,
			BrightnessMin:    DefaultBrightnessMin,
			BrightnessMax:    DefaultBrightnessMax,
			SaturationMin:    DefaultSaturationMin,
			SaturationMax:    DefaultSaturationMax,
			SpeedMin:         DefaultSpeedMin,
			SpeedMax:         DefaultSpeedMax,
			Mirror:           false,
			CRF:              DefaultCRF,
			Preset:           DefaultX264Preset,
			AudioBitrateKbps: DefaultAudioBitrateKbps,
			BackgroundVolume: DefaultBackgroundVolume,
			CompareAfter:     true,
			Workers:          1,
		},
		Download: Download{
			Binary:           "yt-dlp",
			TimeoutSeconds:   DefaultDownloadTimeoutSecs,
			MaxProfileVideos: DefaultMaxProfileVideos,
			Format:           DefaultDownloadFormat,
		},
		Bot: Bot{
			Mode:              BotModeSSIM,
			SessionTTLSeconds: DefaultSessionTTLSecs,
			MaxConcurrent:     DefaultBotMaxConcurrent,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
