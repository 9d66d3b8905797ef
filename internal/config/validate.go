package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCompare(); err != nil {
		return err
	}
	if err := c.validateTransform(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	return c.validateBot()
}

func (c *Config) validateCompare() error {
	if c.Compare.Width <= 0 || c.Compare.Height <= 0 {
		return fmt.Errorf("%w: compare.width and compare.height must be positive, got %dx%d",
			ErrInvalidGeometry, c.Compare.Width, c.Compare.Height)
	}
	if c.Compare.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: compare.timeout_seconds must be positive, got %d",
			ErrInvalidTimeout, c.Compare.TimeoutSeconds)
	}
	return nil
}

func (c *Config) validateTransform() error {
	t := c.Transform
	ranges := []struct {
		name     string
		min, max float64
		lo, hi   float64
	}{
		{"crop", t.CropMin, t.CropMax, 0, 0.5},
		{"brightness", t.BrightnessMin, t.BrightnessMax, -1, 1},
		{"saturation", t.SaturationMin, t.SaturationMax, 0, 3},
		{"speed", t.SpeedMin, t.SpeedMax, 0.25, 4},
	}
	for _, r := range ranges {
		if r.min > r.max {
			return fmt.Errorf("%w: transform.%s_min %g exceeds transform.%s_max %g",
				ErrInvalidRange, r.name, r.min, r.name, r.max)
		}
		if r.min < r.lo || r.max > r.hi {
			return fmt.Errorf("%w: transform.%s must stay within [%g, %g]",
				ErrInvalidRange, r.name, r.lo, r.hi)
		}
	}
	if t.CRF > MaxCRF {
		return fmt.Errorf("%w: must be 0-%d, got %d", ErrInvalidCRF, MaxCRF, t.CRF)
	}
	if t.BackgroundVolume < 0 {
		return fmt.Errorf("%w: transform.background_volume must not be negative", ErrInvalidRange)
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: download.timeout_seconds must be positive, got %d",
			ErrInvalidTimeout, c.Download.TimeoutSeconds)
	}
	if c.Download.MaxProfileVideos <= 0 {
		return fmt.Errorf("%w: download.max_profile_videos must be positive", ErrInvalidRange)
	}
	return nil
}

func (c *Config) validateBot() error {
	switch c.Bot.Mode {
	case BotModeSSIM, BotModeDownload:
	default:
		return fmt.Errorf("%w: '%s', valid options: %s, %s", ErrInvalidBotMode, c.Bot.Mode, BotModeSSIM, BotModeDownload)
	}
	if c.Bot.SessionTTLSeconds <= 0 {
		return fmt.Errorf("%w: bot.session_ttl_seconds must be positive", ErrInvalidTimeout)
	}
	return nil
}

// RequireBotToken reports ErrMissingToken when no token is available.
// Only the bot command needs a token, so Validate does not check it.
func (c *Config) RequireBotToken() error {
	if strings.TrimSpace(c.Bot.Token) == "" {
		return fmt.Errorf("%w: set TELEGRAM_TOKEN or bot.token", ErrMissingToken)
	}
	return nil
}
