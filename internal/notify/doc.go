// Package notify orchestrates the daily birthday broadcast: lookup, message
// formatting, and fan-out to all subscribers with per-recipient failure
// isolation.
package notify
