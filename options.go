package trajcache

import "log/slog"

type options struct {
	scheme    ChunkScheme
	logger    *Logger
	metrics   MetricsCollector
	batchSize int
}

// Option configures AsyncCache construction.
type Option func(*options)

// WithChunkScheme configures the frame-to-chunk mapping.
//
// If nil is passed, Blocked with the Config's FramesPerChunk is used.
// The scheme's stride must match the layout the dataset was written with.
func WithChunkScheme(s ChunkScheme) Option {
	return func(o *options) {
		o.scheme = s
	}
}

// WithLogger configures structured logging for cache operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithWarmFillConcurrency caps in-flight loads during the parallel
// initial fill (Config.Parallel). Values below 1 fall back to the
// default of 4.
func WithWarmFillConcurrency(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
