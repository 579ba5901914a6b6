// Package cache holds upstream GET responses in process memory and drops
// them again when a write makes them stale.
//
// A Cache maps "METHOD:path" keys to raw response bodies for a fixed TTL.
// Expired entries are evicted lazily on read; there is no background sweep
// and nothing survives a restart.
//
// An Invalidator derives, from the path of a successful write, the set of
// keys that may now be stale. The derivation follows the fixed
// projects/{id}/{type}/{id}/tags/{id} hierarchy of the upstream API and
// deliberately over-invalidates:
//
//	PATCH /projects/1/scenarios/2/tags/3
//	  -> GET:/projects/1
//	  -> GET:/projects/1/scenarios            (+ ?include=tags)
//	  -> GET:/projects/1/scenarios/2          (+ ?include=tags)
//	  -> GET:/projects/1/scenarios/2/tags
//	  -> GET:/projects/1/scenarios/2/tags/3
//
// Search endpoints whose keys carry arbitrary query strings are purged by
// substring instead (see SearchPatterns).
package cache
