package events

// loopOptions holds the resolved configuration for a [Loop].
type loopOptions struct {
	rateLimit    int
	stopWhenIdle bool
	logger       Logger
}

// LoopOption configures a [Loop] at construction time.
type LoopOption interface {
	applyLoop(*loopOptions)
}

type loopOptionFunc func(*loopOptions)

func (f loopOptionFunc) applyLoop(opts *loopOptions) { f(opts) }

// WithRateLimit bounds how many timer fires or notification deliveries a
// single iteration will process before yielding, per §4.5/§4.7. Zero
// disables rate limiting. Defaults to 20, matching the original
// implementation's default.
func WithRateLimit(n int) LoopOption {
	return loopOptionFunc(func(opts *loopOptions) { opts.rateLimit = n })
}

// WithStopWhenIdle sets whether the loop stops itself once no user sources
// and no timers remain registered (§4.8 step 3). Defaults to true for a
// bare [Loop]; [NewThread] overrides this to false, per §4.10.
func WithStopWhenIdle(enabled bool) LoopOption {
	return loopOptionFunc(func(opts *loopOptions) { opts.stopWhenIdle = enabled })
}

// WithLogger sets the diagnostic [Logger] consumed by the loop and its
// monitor. The default is a no-op logger; a nil logger also disables
// diagnostic logging.
func WithLogger(logger Logger) LoopOption {
	return loopOptionFunc(func(opts *loopOptions) { opts.logger = logger })
}

func resolveLoopOptions(opts []LoopOption) *loopOptions {
	cfg := &loopOptions{
		rateLimit:    20,
		stopWhenIdle: true,
		logger:       noopLogger{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyLoop(cfg)
	}
	return cfg
}
