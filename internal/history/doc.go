// Package history is the incremental-diff core.
//
// A Set holds the keys of items already notified for one category, each with
// the item's own logical date so old entries can be pruned. Diff compares a
// freshly fetched snapshot against a Set and returns the items never seen
// before, appending them to the Set in snapshot order.
//
// Persistence is not handled here; see internal/storage.
package history
