// Package server holds the HTTP server configuration.
//
// While the start command handles the server startup, this package defines
// the configuration structure: listen port, API key and the request body
// limit for inline comparison requests.
package server
