package scenewatch

import (
	"github.com/pkg/errors"
)

// Config is the threshold surface of the scene monitor. All counters are
// measured in frames of the monotonic frame clock.
type Config struct {
	// Consecutive presence frames before a candidate is confirmed as a new object
	NNew int
	// Consecutive presence frames before a returning object is re-confirmed
	NReturn int
	// Consecutive absence frames before a baseline object becomes missing-pending
	MMissing int
	// Additional absence frames before missing-pending is confirmed as missing
	ConfirmDelay int
	// Consecutive absence frames after which a missing entity is forgotten
	RetentionWindow int
	// Fraction of the baseline window an identity must appear in to qualify
	StableFraction float64
	// Number of startup frames used to establish the scene baseline
	BaselineWindow int
	// Frame bounds for observation validation. Zero disables the bounds check
	FrameWidth  float64
	FrameHeight float64
	// Time step between frames fed to the Kalman filter (e.g. 1.0/25.0 for 25 fps)
	DT float64
}

// DefaultConfig returns thresholds reasonable for a 25 fps stream.
func DefaultConfig() Config {
	return Config{
		NNew:            5,
		NReturn:         3,
		MMissing:        15,
		ConfirmDelay:    5,
		RetentionWindow: 75,
		StableFraction:  0.8,
		BaselineWindow:  30,
		FrameWidth:      0,
		FrameHeight:     0,
		DT:              1.0 / 25.0,
	}
}

// Validate rejects an invalid configuration. The monitor never starts
// processing frames with invalid thresholds.
func (cfg Config) Validate() error {
	if cfg.NNew < 1 {
		return errors.Errorf("NNew must be >= 1, got %d", cfg.NNew)
	}
	if cfg.NReturn < 1 {
		return errors.Errorf("NReturn must be >= 1, got %d", cfg.NReturn)
	}
	if cfg.MMissing < 1 {
		return errors.Errorf("MMissing must be >= 1, got %d", cfg.MMissing)
	}
	if cfg.ConfirmDelay < 0 {
		return errors.Errorf("ConfirmDelay must be >= 0, got %d", cfg.ConfirmDelay)
	}
	if cfg.RetentionWindow < 1 {
		return errors.Errorf("RetentionWindow must be >= 1, got %d", cfg.RetentionWindow)
	}
	if cfg.StableFraction <= 0 || cfg.StableFraction > 1 {
		return errors.Errorf("StableFraction must be in (0, 1], got %f", cfg.StableFraction)
	}
	if cfg.BaselineWindow < 1 {
		return errors.Errorf("BaselineWindow must be >= 1, got %d", cfg.BaselineWindow)
	}
	if cfg.DT <= 0 {
		return errors.Errorf("DT must be positive, got %f", cfg.DT)
	}
	return nil
}
