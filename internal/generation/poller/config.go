package poller

import "time"

// Config controls the poll cadence and the transient-error budget.
type Config struct {
	Interval           time.Duration
	MaxTransientErrors int
}

func DefaultConfig() Config {
	return Config{
		Interval:           2 * time.Second,
		MaxTransientErrors: 5,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = defaults.Interval
	}
	if c.MaxTransientErrors <= 0 {
		c.MaxTransientErrors = defaults.MaxTransientErrors
	}
	return c
}
