// Package birthday derives "who has a birthday on this date" from a tabular
// record source (an xlsx workbook in production, a fake in tests).
package birthday
