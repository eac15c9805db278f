package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// User is the account identity. Only the email is read here.
type User struct {
	ID        string    `gorm:"type:text;primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

// Profile holds the user's settings blob, written by the app.
type Profile struct {
	UserID                  string         `gorm:"type:text;primaryKey"`
	NotificationPreferences datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'::jsonb"`
	UpdatedAt               time.Time      `gorm:"not null;default:now()"`
}

// PushToken is a device registration. A user may have several.
type PushToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:text;index;not null"`
	Token     string    `gorm:"type:text;uniqueIndex;not null"`
	Platform  string    `gorm:"type:text;not null;default:''"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// NotificationLog is append-only: one row per attempted channel send.
type NotificationLog struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	UserID       string            `gorm:"type:text;index;not null"`
	Type         string            `gorm:"type:text;not null"`
	Title        string            `gorm:"type:text;not null;default:''"`
	Body         string            `gorm:"type:text;not null;default:''"`
	Data         datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'::jsonb"`
	Channel      string            `gorm:"type:text;not null"`
	Status       string            `gorm:"type:text;not null"`
	SentAt       *time.Time        `gorm:"type:timestamptz"`
	ErrorMessage *string           `gorm:"type:text"`
	RelatedType  *string           `gorm:"type:text"`
	RelatedID    *string           `gorm:"type:text"`
	CreatedAt    time.Time         `gorm:"not null;default:now()"`
}
