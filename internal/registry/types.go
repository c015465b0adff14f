package registry

import "time"

// Config configures subscriber persistence.
//
// Driver values:
//   - "file" (default when empty): JSON array of chat ids, fully rewritten
//     and atomically swapped on every mutation
//   - "sqlite": SQLite database file (optional build tag)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}
