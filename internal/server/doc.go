// Package server implements the HTTP API that serves city layouts to
// browser clients.
//
// The server exposes three endpoints:
//
//   - GET /health     - liveness probe with build information
//   - GET /api/city   - run the full pipeline for a repository and
//     return the resulting GeoJSON feature collection
//   - GET /ws         - websocket endpoint for live city updates
//
// When file watching is enabled, the server rebuilds the layout after
// each debounced batch of filesystem events and pushes the fresh
// GeoJSON to every connected websocket client.
package server
