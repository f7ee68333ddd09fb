// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation through the X-API-Key header.
//   - rayid: assigns a request id (RayID) to every request, stored in the
//     fiber locals and echoed in the X-Ray-ID response header for tracing.
//
// Both are registered globally by the start command when the status
// server is enabled.
package middleware
