package recorder

import "time"

// CommandEvent describes one handled chat command. No market data is kept.
type CommandEvent struct {
	At      time.Time
	Command string
	Tickers string
	GuildID string
	UserID  string
	Outcome string // "ok", "input_error", "not_closed", "not_found", "timeout", "error"
	Elapsed time.Duration
}

// Recorder keeps an audit trail of handled commands.
type Recorder interface {
	RecordCommand(evt *CommandEvent) error
	Close() error
}
