package domain

import "time"

// SchedulerConfig configures the host loop that drives the engine.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// Interval is the time between ticks.
	Interval time.Duration
}

// DefaultSchedulerConfig returns sensible defaults for the scheduler.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:  true,
		Interval: DefaultTickInterval,
	}
}

// TickResult summarises one engine tick.
type TickResult struct {
	// Changed reports whether any item or catalog state was mutated.
	Changed bool

	// Completed counts operations retired during the tick.
	Completed int

	// Started counts operations issued during the tick.
	Started int
}
