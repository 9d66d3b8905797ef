// Package config provides configuration types and defaults for vidsim.
package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrInvalidGeometry indicates a non-positive comparison frame size.
	ErrInvalidGeometry = errors.New("invalid comparison geometry")

	// ErrInvalidRange indicates a randomization range with min > max or out of bounds.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidCRF indicates a CRF value outside the valid 0-51 x264 range.
	ErrInvalidCRF = errors.New("CRF value out of range")

	// ErrInvalidTimeout indicates a non-positive timeout.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidBotMode indicates an unknown bot mode.
	ErrInvalidBotMode = errors.New("invalid bot mode")

	// ErrMissingToken indicates the bot token is not configured.
	ErrMissingToken = errors.New("bot token is not configured")
)
