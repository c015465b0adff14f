// Package registry owns the durable subscriber set.
//
// It persists through a small Store port with two drivers:
//   - file: a JSON array of chat ids, atomically replaced on every change
//   - sqlite: optional, behind the "sqlite" build tag
package registry
