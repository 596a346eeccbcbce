package domain

import "context"

// Profile carries the display fields of a Telegram user. Only ID is ever persisted.
type Profile struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	IsBot     bool
}

// DisplayName renders "First Last (@username)", skipping empty parts.
func (p Profile) DisplayName() string {
	name := p.FirstName
	if p.LastName != "" {
		name += " " + p.LastName
	}
	if p.Username != "" {
		name += " (@" + p.Username + ")"
	}
	return name
}

type ChatKind string

const (
	ChatPrivate    ChatKind = "private"
	ChatGroup      ChatKind = "group"
	ChatSupergroup ChatKind = "supergroup"
	ChatChannel    ChatKind = "channel"
)

type Chat struct {
	ID    int64
	Kind  ChatKind
	Title string
}

func (c Chat) IsGroup() bool {
	return c.Kind == ChatGroup || c.Kind == ChatSupergroup
}

// Abstraction for sending messages (implemented by Telegram adapter)
type MessageSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// SessionRepository keeps per-conversation flags that are not part of the registry.
type SessionRepository interface {
	ContactShared(ctx context.Context, userID int64) (bool, error)
	MarkContactShared(ctx context.Context, userID int64) error
	End(ctx context.Context, userID int64) error
}
