// Package github implements the catalog and item transport for catalogs
// served by the GitHub repository contents API.
//
// # Architecture
//
// The package provides the driven ports the engine fetches through:
//
//   - Client: conditional GETs ([driven.Fetcher]) with rate limiting
//   - CatalogParser: decodes a contents listing ([driven.CatalogParser])
//   - RateLimiter: proactive throttle plus X-RateLimit-* tracking
//
// # Conditional requests
//
// Every request carries Cache-Control and Pragma no-cache so intermediaries
// do not answer from their own cache. When the caller supplies a non-zero
// IfModifiedSince, it is sent as an HTTP date. A 304 answer is returned as
// an *APIError that matches domain.ErrNotModified.
//
// # Authentication
//
// Anonymous requests work for public repositories but are limited to 60 per
// hour. Setting http.token to a personal access token raises the limit to
// 5,000 per hour and allows private repositories.
//
// # Errors
//
// Every non-200 status is returned as *APIError (or *RateLimitError) and
// matches domain.ErrUnexpectedStatus with errors.Is. DNS, connection and
// timeout failures match domain.ErrTransportFailure.
package github
