// Package services implements the driving port interfaces.
//
// Engine is the single owner of item and catalog state: callers trigger
// work, and Tick drains finished fetches, starts due refreshes and queues
// update checks. Scheduler ticks it on an interval for long-running
// commands. ActionRegistry runs named actions on local payloads, and
// SettingsService reads and validates config.toml.
//
// Services depend only on domain and the port interfaces.
package services
