package config

type Config struct {
	Telegram  TelegramConfig   `json:"telegram"`
	Logging   LoggingConfig    `json:"logging"`
	Broadcast *BroadcastConfig `json:"broadcast,omitempty"`
	Registry  RegistryConfig   `json:"registry"`
	Data      DataConfig       `json:"data"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// BroadcastConfig controls the daily birthday broadcast.
//
// If the whole section is omitted, the broadcast defaults to enabled with the
// stock schedule (08:00 Europe/Moscow).
//
// Enabled is a pointer so we can distinguish "omitted" from an explicit false.
type BroadcastConfig struct {
	Enabled *bool `json:"enabled,omitempty"`

	// At is the daily fire time, "HH:MM" in Timezone. Default "08:00".
	At string `json:"at,omitempty"`
	// Timezone is an IANA name, e.g. "Europe/Moscow" (the default).
	Timezone string `json:"timezone,omitempty"`

	Workers    int `json:"workers,omitempty"`
	RatePerSec int `json:"rate_per_sec,omitempty"`
	// SendTimeout bounds a single recipient delivery. Go duration string.
	SendTimeout string `json:"send_timeout,omitempty"`
}

// RegistryConfig controls subscriber persistence.
//
// Driver values:
//   - "file" (default): a JSON array of chat ids, fully rewritten on each change
//   - "sqlite": SQLite database file (optional build tag)
type RegistryConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// DataConfig points at the birthday spreadsheet.
type DataConfig struct {
	// Path to the xlsx file. Default "./birthday_data.xlsx".
	// A missing file means "no birthdays", not an error.
	Path string `json:"path,omitempty"`
	// Sheet to read. Empty means the workbook's first sheet.
	Sheet string `json:"sheet,omitempty"`
}
