// Package cache implements the in-memory read-through store that sits between
// HTTP handlers and the upstream release API. Each Store instance owns one key
// space: lookups inside the TTL are served from memory, misses are coalesced so
// that a single fill computation runs per key, and only successful fills are
// written back. Failed fills leave the slot empty so the next request retries.
// Instances are built once at startup and shared by reference; nothing here is
// persisted across restarts.
package cache
