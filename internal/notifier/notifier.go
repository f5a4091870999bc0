package notifier

import (
	"context"
	"strings"
)

// Attachment is a file on disk to upload with a message.
type Attachment struct {
	Name        string
	ContentType string
	Path        string
}

// Message is a chat reply: text, files, or both.
type Message struct {
	Content string
	Files   []Attachment
}

// Responder delivers replies for one command invocation.
type Responder interface {
	Send(ctx context.Context, msg Message) error
}

// Command is a slash command invocation with its options flattened to strings.
type Command struct {
	Name      string
	Options   map[string]string
	GuildID   string
	ChannelID string
	UserID    string
}

// Option returns the trimmed value of an option, or "" when absent.
func (c Command) Option(name string) string {
	return strings.TrimSpace(c.Options[name])
}

// CommandHandler is called for every accepted command. It owns all replies.
type CommandHandler func(ctx context.Context, cmd Command, r Responder)
