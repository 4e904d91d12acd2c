package imsm

// initOptions holds the resolved configuration for a [Machine]'s Init.
type initOptions struct {
	initFn   func(*Entry)
	deinitFn func(*Entry)
	logger   *Logger
}

// Option configures [Init].
type Option interface {
	applyInit(*initOptions) error
}

type optionFunc func(*initOptions) error

func (f optionFunc) applyInit(o *initOptions) error { return f(o) }

// WithInitFn registers a callback invoked once per slot, from the
// highest slot index down to slot 0, when the arena is first populated — e.g. to allocate nested resources
// a slot's type needs for its entire lifetime.
func WithInitFn(fn func(*Entry)) Option {
	return optionFunc(func(o *initOptions) error {
		o.initFn = fn
		return nil
	})
}

// WithDeinitFn registers a callback invoked whenever an entry is
// returned to the slab (explicit Put, or PutN), before the slot becomes
// available for reuse.
func WithDeinitFn(fn func(*Entry)) Option {
	return optionFunc(func(o *initOptions) error {
		o.deinitFn = fn
		return nil
	})
}

// WithLogger attaches a [Logger] for Init diagnostics. Never
// consulted from the hot Get/Put/StageIO path.
func WithLogger(l *Logger) Option {
	return optionFunc(func(o *initOptions) error {
		o.logger = l
		return nil
	})
}

func resolveOptions(opts []Option) (*initOptions, error) {
	cfg := &initOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyInit(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
