// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the engine to function:
//
//   - ItemStore: Item persistence (survives restarts)
//   - CatalogStateStore: Catalog snapshot and last refresh time
//   - Fetcher: Conditional GET transport (GitHub contents API)
//   - CatalogParser: Decodes a catalog listing body
//   - PayloadStore: Local payload files
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - PresenceWatcher: Reports local payload changes. Without it, local
//     presence is only discovered at startup and after engine writes.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
