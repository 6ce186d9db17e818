// Package middleware contains HTTP middleware for the Fiber application.
//
// It provides cross-cutting concerns that sit between the request and the handler.
//
// # Components
//
//   - auth: API key validation (X-API-Key or Bearer token) protecting every route.
//   - rayid: assigns each request a unique RayID, stored in the context locals
//     under "ray_id" and echoed in the X-Ray-ID response header for tracing.
//
// These middleware components are registered globally in the start command.
package middleware
