package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"siteplan/internal/notify"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store implements the pipeline's user, preference, token and log lookups
// on Postgres.
type Store struct {
	DB *gorm.DB
}

func (s *Store) Email(ctx context.Context, userID string) (string, error) {
	var u User
	if err := s.DB.WithContext(ctx).Select("id", "email").Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", notify.ErrUserNotFound
		}
		return "", err
	}
	return strings.TrimSpace(u.Email), nil
}

// Preferences returns the zero value (all enabled) when the user has no
// profile row.
func (s *Store) Preferences(ctx context.Context, userID string) (notify.Preferences, error) {
	var p Profile
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notify.Preferences{}, nil
		}
		return notify.Preferences{}, err
	}
	prefs, err := notify.ParsePreferences(p.NotificationPreferences)
	if err != nil {
		return notify.Preferences{}, fmt.Errorf("parse preferences for %s: %w", userID, err)
	}
	return prefs, nil
}

func (s *Store) ActivePushTokens(ctx context.Context, userID string) ([]string, error) {
	var tokens []string
	err := s.DB.WithContext(ctx).
		Model(&PushToken{}).
		Where("user_id = ? AND is_active = true", userID).
		Order("created_at asc").
		Pluck("token", &tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *Store) SentSince(ctx context.Context, key notify.DedupKey, since time.Time) (bool, error) {
	var found bool
	err := s.DB.WithContext(ctx).Raw(`
select exists (
  select 1
  from notification_logs
  where user_id = ?
    and type = ?
    and related_id = ?
    and channel = ?
    and status = 'sent'
    and created_at >= ?
)`, key.UserID, string(key.Type), key.RelatedID, string(key.Channel), since).Scan(&found).Error
	if err != nil {
		return false, err
	}
	return found, nil
}

// Record appends one log row. The insert is explicit so the column list
// matches the dedup index and does not depend on model defaults.
func (s *Store) Record(ctx context.Context, e notify.LogEntry) error {
	data := e.Data
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode log data: %w", err)
	}
	return s.DB.WithContext(ctx).Exec(`
insert into notification_logs
  (id, user_id, type, title, body, data, channel, status, sent_at, error_message, related_type, related_id, created_at)
values
  (?, ?, ?, ?, ?, ?::jsonb, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New(), e.UserID, string(e.Type), e.Title, e.Body, string(b),
		string(e.Channel), string(e.Status), e.SentAt,
		optional(e.ErrorMessage), optional(e.RelatedType), optional(e.RelatedID), e.CreatedAt,
	).Error
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
