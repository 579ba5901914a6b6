package cache

import (
	"net/http"
	"strings"

	"studiomcp/pkg/logging"
)

const (
	projectsSegment = "projects"
	tagsSegment     = "tags"
	scenarioSegment = "scenarios"

	includeTagsQuery = "?include=tags"
	findByTagsPath   = "find_by_tags"
)

// Invalidator purges the cache entries a successful write may have made stale.
type Invalidator struct {
	cache *Cache
}

// NewInvalidator creates an invalidator for c.
func NewInvalidator(c *Cache) *Invalidator {
	return &Invalidator{cache: c}
}

// Segments splits a request path into its non-empty components, ignoring the query string.
func Segments(path string) []string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// StaleKeys returns the GET keys a write to path may have invalidated, in
// derivation order and without duplicates.
func StaleKeys(path string) []string {
	segments := Segments(path)
	var keys []string

	if len(segments) >= 2 && segments[0] == projectsSegment {
		project := "/" + projectsSegment + "/" + segments[1]
		keys = append(keys, Key(http.MethodGet, project))

		if len(segments) >= 3 {
			collection := project + "/" + segments[2]
			keys = append(keys,
				Key(http.MethodGet, collection),
				Key(http.MethodGet, collection+includeTagsQuery),
			)

			if len(segments) >= 4 {
				resource := collection + "/" + segments[3]
				keys = append(keys,
					Key(http.MethodGet, resource),
					Key(http.MethodGet, resource+includeTagsQuery),
				)

				if len(segments) >= 5 && segments[4] == tagsSegment {
					tags := resource + "/" + tagsSegment
					keys = append(keys, Key(http.MethodGet, tags))

					if len(segments) >= 6 {
						keys = append(keys, Key(http.MethodGet, tags+"/"+segments[5]))
					}
				}
			}
		}
	}

	keys = append(keys, Key(http.MethodGet, path))
	return dedupe(keys)
}

// SearchPatterns returns substring patterns for search results whose keys
// cannot be enumerated because they embed caller-supplied query strings.
func SearchPatterns(path string) []string {
	segments := Segments(path)
	if len(segments) >= 3 && segments[0] == projectsSegment && segments[2] == scenarioSegment {
		return []string{
			Key(http.MethodGet, "/"+projectsSegment+"/"+segments[1]+"/"+scenarioSegment+"/"+findByTagsPath),
		}
	}
	return nil
}

// Invalidate drops every key derived from a write of method to path and
// returns the number of entries removed. GET requests invalidate nothing.
func (i *Invalidator) Invalidate(method, path string) int {
	if strings.EqualFold(method, http.MethodGet) {
		return 0
	}

	removed := 0
	for _, key := range StaleKeys(path) {
		if i.cache.Invalidate(key) {
			removed++
		}
	}
	for _, pattern := range SearchPatterns(path) {
		removed += i.cache.InvalidateMatching(pattern)
	}

	logging.Debug("Cache", "Invalidated %d entries after %s %s", removed, strings.ToUpper(method), path)
	return removed
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
