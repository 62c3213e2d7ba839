// Package connectors holds the outbound transports catsync syncs through.
//
//   - github: conditional GETs against the GitHub contents API, with rate
//     limiting, plus the catalog listing parser
//   - filesystem: the local payload directory and its change watcher
package connectors
