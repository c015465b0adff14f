package app

// StopReason records why the app is shutting down (for the final log line).
type StopReason string

const (
	StopReasonSignal StopReason = "signal"
	StopReasonError  StopReason = "error"
)
