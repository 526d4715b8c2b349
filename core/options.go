package core

import (
	"log/slog"

	"github.com/0xRadioAc7iv/go-kvs/internal/metrics"
)

type options struct {
	logger        *slog.Logger
	metrics       *metrics.Collector
	syncOnWrite   bool
	lockDirectory bool
}

func defaultOptions() *options {
	return &options{
		logger: slog.New(slog.DiscardHandler),
	}
}

// Option configures a Store opened with Open.
type Option func(*options)

// WithLogger sets the logger used for lifecycle and write events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records store activity on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

// WithSyncOnWrite makes every Set and Remove fsync the active segment before
// returning. Without it a write survives a process crash but not a power
// failure.
func WithSyncOnWrite(enabled bool) Option {
	return func(o *options) {
		o.syncOnWrite = enabled
	}
}

// WithDirectoryLock takes an exclusive lock on the store directory for the
// lifetime of the Store, so a second instance fails to open it.
func WithDirectoryLock(enabled bool) Option {
	return func(o *options) {
		o.lockDirectory = enabled
	}
}
