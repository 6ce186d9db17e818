// Package server holds the HTTP server configuration.
//
// While the start command handles the server startup, this package defines the
// listener port, the API key protecting every route and the request body limit
// used when snapshots are posted directly to the sync endpoint.
package server
