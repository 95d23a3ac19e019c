package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lguibr/switchboard/internal/logging"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Runtime.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: runtime.poll_interval must be positive, got %s", ErrInvalidConfig, c.Runtime.PollInterval))
	}

	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("%w: logging.level %q is not one of %s",
			ErrInvalidConfig, c.Logging.Level, strings.Join(logging.ValidLevels(), ", ")))
	}
	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("%w: logging.format %q must be text or json", ErrInvalidConfig, c.Logging.Format))
	}

	if c.Metrics.Enabled {
		if c.Metrics.Interval <= 0 {
			errs = append(errs, fmt.Errorf("%w: metrics.interval must be positive", ErrInvalidConfig))
		}
		if c.Metrics.Retain < c.Metrics.Interval {
			errs = append(errs, fmt.Errorf("%w: metrics.retain must be at least metrics.interval", ErrInvalidConfig))
		}
	}

	if c.Scan.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: scan.workers must be at least 1, got %d", ErrInvalidConfig, c.Scan.Workers))
	}
	switch strings.ToLower(c.Scan.Format) {
	case "yaml", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: scan.format %q must be yaml or json", ErrInvalidConfig, c.Scan.Format))
	}

	return errors.Join(errs...)
}
