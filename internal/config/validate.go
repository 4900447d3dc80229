package config

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/pgtop/internal/errors"
)

// Block size bounds for the bytes-to-ops conversion.
const (
	MinBlockSize = 512
	MaxBlockSize = 65536
)

// Refresh interval hard bounds. Config may tighten these but not exceed them.
const (
	MinRefreshInterval = 500 * time.Millisecond
	MaxRefreshInterval = time.Minute
)

// Validate checks the config for errors before the poll loop is allowed to
// start. Everything rejected here is a construction-time failure; nothing
// in this file can fire mid-loop.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but pgtop only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade pgtop, or reset the version field in your .pgtop.yaml")
	}

	if err := validateBlockSize(cfg.BlockSize); err != nil {
		return err
	}
	if err := validateRefresh(cfg.Refresh); err != nil {
		return err
	}
	if err := validateConnection(cfg.Connection); err != nil {
		return err
	}

	if cfg.Filters.MinDuration < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("filters.min_duration can't be negative (got %g)", cfg.Filters.MinDuration),
			"Use 0 to show every query, or a positive number of seconds.")
	}

	if cfg.Selection.InactivityTicks < 0 {
		return errors.New(errors.ErrConfig,
			"selection.inactivity_ticks can't be negative",
			"Use 0 for the default budget, or a positive tick count.")
	}

	return nil
}

// validateBlockSize requires a power of two within the supported range.
func validateBlockSize(size int64) error {
	if size < MinBlockSize || size > MaxBlockSize {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("block_size %d is out of range", size),
			fmt.Sprintf("Use a power of two between %d and %d.", MinBlockSize, MaxBlockSize))
	}
	if size&(size-1) != 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("block_size %d is not a power of two", size),
			"Use 512, 1024, 2048, 4096, 8192, 16384, 32768 or 65536.")
	}
	return nil
}

func validateRefresh(r RefreshConfig) error {
	if r.Min < MinRefreshInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh.min %s is below the %s floor", r.Min, MinRefreshInterval),
			"Polling faster than twice a second hammers the server for no benefit.")
	}
	if r.Max > MaxRefreshInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh.max %s is above the %s ceiling", r.Max, MaxRefreshInterval),
			fmt.Sprintf("Use a max of %s or less.", MaxRefreshInterval))
	}
	if r.Min > r.Max {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh.min %s is greater than refresh.max %s", r.Min, r.Max),
			"Swap the bounds.")
	}
	if r.Interval < r.Min || r.Interval > r.Max {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh.interval %s is outside [%s, %s]", r.Interval, r.Min, r.Max),
			"Pick an interval within the configured bounds.")
	}
	return nil
}

func validateConnection(c ConnectionConfig) error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("connection.port %d is not a valid TCP port", c.Port),
			"Postgres usually listens on 5432.")
	}
	return nil
}
