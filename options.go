// File: options.go
package switchboard

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hashicorp/go-metrics"
)

type config struct {
	logger       *slog.Logger
	metricSink   metrics.MetricSink
	metricLabels []metrics.Label
	pollInterval time.Duration
	now          func() time.Time
	sleep        func(time.Duration)
}

func defaultConfig() *config {
	return &config{
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		metricSink:   &metrics.BlackholeSink{},
		pollInterval: DefaultPollInterval,
		now:          time.Now,
		sleep:        time.Sleep,
	}
}

// Option configures an Environment.
type Option func(*config) error

// WithLogger sets the logger used by the run loop. Nothing is logged by
// default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return fmt.Errorf("%w: nil logger", ErrInvalidOption)
		}
		c.logger = logger
		return nil
	}
}

// WithLogHandler is WithLogger for callers holding a slog.Handler.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *config) error {
		if handler == nil {
			return fmt.Errorf("%w: nil log handler", ErrInvalidOption)
		}
		c.logger = slog.New(handler)
		return nil
	}
}

// WithMetricSink chooses where runtime metrics go. A nil sink discards them.
func WithMetricSink(sink metrics.MetricSink) Option {
	return func(c *config) error {
		if sink == nil {
			sink = &metrics.BlackholeSink{}
		}
		c.metricSink = sink
		return nil
	}
}

// WithMetricLabels adds static labels to every metric of the Environment.
func WithMetricLabels(labels []metrics.Label) Option {
	return func(c *config) error {
		c.metricLabels = append([]metrics.Label(nil), labels...)
		return nil
	}
}

// WithPollInterval overrides DefaultPollInterval. It drives both the NotReady
// backoff and the idle sleep.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return fmt.Errorf("%w: poll interval must be positive, got %s", ErrInvalidOption, d)
		}
		c.pollInterval = d
		return nil
	}
}

// WithClock replaces time.Now for the async tracker.
func WithClock(now func() time.Time) Option {
	return func(c *config) error {
		if now == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidOption)
		}
		c.now = now
		return nil
	}
}

// WithSleep replaces time.Sleep for the idle wait of the run loop.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *config) error {
		if sleep == nil {
			return fmt.Errorf("%w: nil sleep", ErrInvalidOption)
		}
		c.sleep = sleep
		return nil
	}
}
