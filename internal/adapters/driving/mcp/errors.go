// Package mcp provides an MCP (Model Context Protocol) server adapter for catsync.
// It lets AI assistants browse the item catalog, trigger downloads and read
// local payloads while a scheduler keeps the engine ticking.
package mcp

import "errors"

// ErrMissingEngine is returned when the sync engine is not provided.
var ErrMissingEngine = errors.New("mcp: sync engine is required")
