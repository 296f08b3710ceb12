// Package descriptor resolves the property descriptor that governs an access
// to a key, walking an object's prototype chain, and memoizes resolutions per
// wrapped class.
//
// The cache is keyed by property key only. Every instance of a wrapped class
// shares the same layout, so the first resolution for a key is valid for all
// of them. Objects whose shape changes after the first access (properties
// added or removed per instance) see stale results; wrap such classes with
// caching disabled.
package descriptor
