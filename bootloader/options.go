package bootloader

import (
	"time"

	"github.com/moffa90/go-maestro-flash/protocol"
)

// Config holds the uploader configuration.
type Config struct {
	// ProgressCallback is called after each transferred chunk (optional)
	ProgressCallback ProgressCallback

	// PhaseCallback is called on every phase transition (optional)
	PhaseCallback PhaseCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// SettleDelay is waited after the last chunk and again after the reset command
	SettleDelay time.Duration

	// Sleep implements the settle delays. Tests replace it with a virtual clock.
	Sleep func(time.Duration)
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		SettleDelay: protocol.DefaultSettleDelay,
		Sleep:       time.Sleep,
	}
}

// Option is a functional option for configuring the Uploader.
type Option func(*Config)

// WithProgressCallback sets a callback function to track transfer progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithPhaseCallback sets a callback that observes state machine transitions.
//
// Example:
//
//	up := bootloader.New(port, bootloader.WithPhaseCallback(func(p bootloader.Phase) {
//	    if p == bootloader.PhaseErasing {
//	        fmt.Println("Erasing existing firmware...")
//	    }
//	}))
func WithPhaseCallback(callback PhaseCallback) Option {
	return func(c *Config) {
		c.PhaseCallback = callback
	}
}

// WithLogger sets a logger for the uploader operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithSettleDelay overrides the 200ms wait around the completion check.
// Negative values are ignored; zero disables the wait.
func WithSettleDelay(delay time.Duration) Option {
	return func(c *Config) {
		if delay >= 0 {
			c.SettleDelay = delay
		}
	}
}

// WithSleeper replaces time.Sleep for the settle delays.
//
// Example:
//
//	var waited []time.Duration
//	up := bootloader.New(port, bootloader.WithSleeper(func(d time.Duration) {
//	    waited = append(waited, d)
//	}))
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Config) {
		if sleep != nil {
			c.Sleep = sleep
		}
	}
}
