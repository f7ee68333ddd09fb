// Package status exposes the sync loop over HTTP.
//
// The Tracker observes every finished cycle and keeps a copy of the last
// report. The Handler serves it:
//
//   - GET /health returns {"status":"ok"}.
//   - GET /sync/status returns the last cycle report, the number of tracked
//     conversations and the last successful sync time.
package status
