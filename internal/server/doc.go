// Package server hosts the Fiber HTTP service: request ID and CORS middleware,
// the /releases handlers, and the mapping from release/upstream errors to HTTP
// status codes. Handlers hold no state of their own; they call into the
// release service built once at startup, which owns the caches. Diagnostics
// endpoints live in the routes subpackage so they can be mounted separately.
package server
