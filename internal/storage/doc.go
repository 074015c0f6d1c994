// Package storage persists per-category notification history and raw
// snapshot dumps.
//
// Drivers:
//   - "file": one UTF-8 JSON document per category in the home directory,
//     rewritten wholesale on every save
//   - "sqlite": a single SQLite database file
package storage
