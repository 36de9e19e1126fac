// Package blueprint is the content-addressed cache of maximal-detail
// classification results. Blueprints are keyed by normalized track identity
// and stored in SQLite; the only mutation is insert-or-replace, so concurrent
// writers for the same identity converge on one row (last write wins) rather
// than corrupting each other. The cache never evicts.
package blueprint
