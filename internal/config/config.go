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

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir         string `toml:"work_dir"`
	IncomingDir     string `toml:"incoming_dir"`
	ReadyDir        string `toml:"ready_dir"`
	DownloadDir     string `toml:"download_dir"`
	LogDir          string `toml:"log_dir"`
	HistoryDB       string `toml:"history_db"`
	BackgroundAudio string `toml:"background_audio"`
}

// Compare contains SSIM comparison settings.
type Compare struct {
	Width          int `toml:"width"`
	Height         int `toml:"height"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Transform contains randomized re-encode settings.
type Transform struct {
	CropMin          float64 `toml:"crop_min"`
	CropMax          float64 `toml:"crop_max"`
	BrightnessMin    float64 `toml:"brightness_min"`
	BrightnessMax    float64 `toml:"brightness_max"`
	SaturationMin    float64 `toml:"saturation_min"`
	SaturationMax    float64 `toml:"saturation_max"`
	SpeedMin         float64 `toml:"speed_min"`
	SpeedMax         float64 `toml:"speed_max"`
	Mirror           bool    `toml:"mirror"`
	CRF              uint8   `toml:"crf"`
	Preset           string  `toml:"preset"`
	AudioBitrateKbps int     `toml:"audio_bitrate_kbps"`
	BackgroundVolume float64 `toml:"background_volume"`
	CompareAfter     bool    `toml:"compare_after"`
	Workers          int     `toml:"workers"`
}

// Download contains yt-dlp settings.
type Download struct {
	Binary           string `toml:"binary"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	MaxProfileVideos int    `toml:"max_profile_videos"`
	Format           string `toml:"format"`
}

// Bot contains chat bot settings.
type Bot struct {
	Token             string `toml:"token"`
	Mode              string `toml:"mode"`
	SessionTTLSeconds int    `toml:"session_ttl_seconds"`
	MaxConcurrent     int    `toml:"max_concurrent"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vidsim.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Compare   Compare   `toml:"compare"`
	Transform Transform `toml:"transform"`
	Download  Download  `toml:"download"`
	Bot       Bot       `toml:"bot"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vidsim/config.toml")
}

// Load locates, parses, and validates a configuration file. A .env file in the
// working directory is read first so secrets can stay out of the TOML file.
// The returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, "", false, err
	}

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

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	for _, key := range []string{"VIDSIM_TELEGRAM_TOKEN", "TELEGRAM_TOKEN"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			c.Bot.Token = v
			return
		}
	}
}

func (c *Config) normalize() error {
	fields := []*string{
		&c.Paths.WorkDir,
		&c.Paths.IncomingDir,
		&c.Paths.ReadyDir,
		&c.Paths.DownloadDir,
		&c.Paths.LogDir,
		&c.Paths.HistoryDB,
		&c.Paths.BackgroundAudio,
	}
	for _, f := range fields {
		expanded, err := expandPath(strings.TrimSpace(*f))
		if err != nil {
			return err
		}
		*f = expanded
	}
	c.Bot.Mode = strings.ToLower(strings.TrimSpace(c.Bot.Mode))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Transform.Preset = strings.TrimSpace(c.Transform.Preset)
	if c.Transform.Workers <= 0 {
		c.Transform.Workers = 1
	}
	if c.Bot.MaxConcurrent <= 0 {
		c.Bot.MaxConcurrent = 1
	}
	return nil
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

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vidsim.toml")
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

// EnsureDirectories creates the working directories used by all commands.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.WorkDir,
		c.Paths.IncomingDir,
		c.Paths.ReadyDir,
		c.Paths.DownloadDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.HistoryDB),
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CompareTimeout returns the deadline for one comparison run.
func (c *Config) CompareTimeout() time.Duration {
	return time.Duration(c.Compare.TimeoutSeconds) * time.Second
}

// DownloadTimeout returns the deadline for one download run.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.TimeoutSeconds) * time.Second
}

// SessionTTL returns how long pending chat state is kept.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Bot.SessionTTLSeconds) * time.Second
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
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

// ExpandPath exposes the path expansion rules for other packages.
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
