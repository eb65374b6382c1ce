package timetracking

import (
	"fmt"
	"time"
)

// Config holds the policy knobs of the time tracking engine.
type Config struct {
	AllowFutureClockIn            bool
	RequireLocation               bool
	MaxDailyHours                 float64
	OvertimeThreshold             float64
	DoubleTimeThreshold           *float64 // optional third bucket above this many hours
	AutoClockOutAfterHours        float64
	RequireApprovalForManualEntry bool
	MaxPastDaysForManualEntry     int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		AllowFutureClockIn:            false,
		RequireLocation:               false,
		MaxDailyHours:                 16,
		OvertimeThreshold:             8,
		DoubleTimeThreshold:           nil,
		AutoClockOutAfterHours:        24,
		RequireApprovalForManualEntry: true,
		MaxPastDaysForManualEntry:     30,
	}
}

// Validate checks that the thresholds are usable together.
func (c Config) Validate() error {
	if c.MaxDailyHours <= 0 {
		return fmt.Errorf("%w: max daily hours must be positive", ErrInvalidEngineConfig)
	}
	if c.OvertimeThreshold <= 0 {
		return fmt.Errorf("%w: overtime threshold must be positive", ErrInvalidEngineConfig)
	}
	if c.DoubleTimeThreshold != nil && *c.DoubleTimeThreshold <= c.OvertimeThreshold {
		return fmt.Errorf("%w: double time threshold must be greater than overtime threshold", ErrInvalidEngineConfig)
	}
	if c.AutoClockOutAfterHours <= 0 {
		return fmt.Errorf("%w: auto clock-out hours must be positive", ErrInvalidEngineConfig)
	}
	if c.MaxPastDaysForManualEntry < 0 {
		return fmt.Errorf("%w: max past days for manual entry cannot be negative", ErrInvalidEngineConfig)
	}
	return nil
}

// AutoClockOutAfter returns AutoClockOutAfterHours as a duration.
func (c Config) AutoClockOutAfter() time.Duration {
	return hoursToDuration(c.AutoClockOutAfterHours)
}

// MaxDaily returns MaxDailyHours as a duration.
func (c Config) MaxDaily() time.Duration {
	return hoursToDuration(c.MaxDailyHours)
}

// ManualEntryWindow returns how far back a manual entry may start.
func (c Config) ManualEntryWindow() time.Duration {
	return time.Duration(c.MaxPastDaysForManualEntry) * 24 * time.Hour
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
