// Package tags holds the pure domain model: track descriptors and their
// normalized identities, blueprints (maximal-detail classification results),
// detail configurations, and the deterministic renderer that derives a
// trimmed tag set from a blueprint. Nothing in this package performs I/O.
package tags
