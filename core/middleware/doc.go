// Package middleware groups the Fiber middleware of the HTTP server.
//
//   - auth: API key check on the X-API-Key header.
//   - rayid: per-request trace id, reused from X-Ray-ID when the caller sends one.
//
// Register rayid first so request logs carry the id.
package middleware
