package harness

import (
	"fmt"
	"time"

	imsm "github.com/pkhuong/direct-mode-fsm"
)

type config struct {
	notifyTimeout  time.Duration
	logger         *imsm.Logger
	metricsEnabled bool
	frameHook      func(FrameStats)
}

// Option configures [New]. Modeled on this corpus's functional-options
// pattern for constructors that can fail: New validates and returns an
// error rather than panicking, since a bad option (e.g. a non-positive
// timeout) is the caller's mistake to fix, not this package's to abort
// over.
type Option interface {
	apply(*config) error
}

type optionFunc func(*config) error

func (f optionFunc) apply(c *config) error { return f(c) }

// WithNotifyTimeout bounds how long each frame's Notifier.Wait may
// block. Must be positive.
func WithNotifyTimeout(d time.Duration) Option {
	return optionFunc(func(c *config) error {
		if d <= 0 {
			return fmt.Errorf("harness: notify timeout must be positive, got %v", d)
		}
		c.notifyTimeout = d
		return nil
	})
}

// WithLogger attaches a logger for frame-boundary diagnostics (never
// the hot per-entry path).
func WithLogger(l *imsm.Logger) Option {
	return optionFunc(func(c *config) error {
		c.logger = l
		return nil
	})
}

// WithMetrics enables streaming percentile tracking of frame duration
// and per-frame notification batch size, retrievable via frame hooks or
// [Driver.Stats].
func WithMetrics(enabled bool) Option {
	return optionFunc(func(c *config) error {
		c.metricsEnabled = enabled
		return nil
	})
}

// WithFrameHook registers fn to be called with a snapshot of this
// frame's statistics at the end of every frame.
func WithFrameHook(fn func(FrameStats)) Option {
	return optionFunc(func(c *config) error {
		c.frameHook = fn
		return nil
	})
}

func resolveOptions(opts []Option) (*config, error) {
	cfg := &config{notifyTimeout: 100 * time.Millisecond}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
