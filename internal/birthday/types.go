package birthday

import (
	"fmt"
	"strings"
	"time"
)

// Person is one row of the record source.
type Person struct {
	LastName   string
	FirstName  string
	MiddleName string
	Birth      Birth
}

// DisplayName is the broadcast form, "Last First Middle" in source casing.
func (p Person) DisplayName() string {
	return fmt.Sprintf("%s %s %s", p.LastName, p.FirstName, p.MiddleName)
}

type birthKind int

const (
	birthNone birthKind = iota
	birthText
	birthDate
)

// Birth is the birth-date cell as a tagged variant. Spreadsheet cells hold
// either free text ("DD.MM" or "DD.MM.YYYY", not always well-formed) or a
// real date value; anything else counts as "no birthday".
type Birth struct {
	kind  birthKind
	text  string
	day   int
	month time.Month
}

// NoBirth marks a record without a usable birth date. Such records are
// skipped, never matched.
func NoBirth() Birth { return Birth{} }

// TextBirth wraps a free-text birth date. The text is kept verbatim; matching
// is literal string comparison against the zero-padded query, so "5.3" does
// not match a "05.03" query. That mirrors the data this bot has always been
// fed and is covered by tests.
func TextBirth(s string) Birth { return Birth{kind: birthText, text: s} }

// DateBirth wraps a structured date value. Only day and month matter.
func DateBirth(day int, month time.Month) Birth {
	return Birth{kind: birthDate, day: day, month: month}
}

// DayMonth returns the comparable day-month token for this birth value and
// whether one exists.
//
//   - text: the first two "."-separated components joined back verbatim,
//     surrounding whitespace trimmed, no numeric re-validation
//   - date: zero-padded "DD.MM"
func (b Birth) DayMonth() (string, bool) {
	switch b.kind {
	case birthText:
		parts := strings.SplitN(b.text, ".", 3)
		if len(parts) > 2 {
			parts = parts[:2]
		}
		return strings.TrimSpace(strings.Join(parts, ".")), true
	case birthDate:
		return fmt.Sprintf("%02d.%02d", b.day, int(b.month)), true
	default:
		return "", false
	}
}
