package notify

import (
	"context"
	"time"

	"siteplan/internal/queue"
)

// Queue is the durable at-least-once queue the pipeline drains.
type Queue interface {
	Read(ctx context.Context, n int, vt time.Duration) ([]queue.Message, error)
	Delete(ctx context.Context, msgID int64) error
	Archive(ctx context.Context, msgID int64) error
}

// UserDirectory resolves a user id to an email address. It returns
// ErrUserNotFound for unknown users and "" when the user has no email.
type UserDirectory interface {
	Email(ctx context.Context, userID string) (string, error)
}

type PreferenceSource interface {
	Preferences(ctx context.Context, userID string) (Preferences, error)
}

type TokenSource interface {
	ActivePushTokens(ctx context.Context, userID string) ([]string, error)
}

// LogStore is the append-only notification log.
type LogStore interface {
	SentSince(ctx context.Context, key DedupKey, since time.Time) (bool, error)
	Record(ctx context.Context, entry LogEntry) error
}

type PushSender interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]any) error
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// DedupKey identifies a notification for same-day duplicate suppression.
type DedupKey struct {
	UserID    string
	Type      EventType
	RelatedID string
	Channel   Channel
}

// LogEntry is one attempted channel send.
type LogEntry struct {
	UserID       string
	Type         EventType
	Title        string
	Body         string
	Data         map[string]any
	Channel      Channel
	Status       Status
	SentAt       *time.Time
	ErrorMessage string
	RelatedType  string
	RelatedID    string
	CreatedAt    time.Time
}
