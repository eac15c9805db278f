package queue

import (
	"time"

	"gorm.io/datatypes"
)

// Message is a row of the notification queue. ReadCt is 0 on enqueue and
// incremented by every read, so it is the number of the current delivery
// attempt while a message is being processed.
type Message struct {
	MsgID      int64          `gorm:"column:msg_id;primaryKey;autoIncrement"`
	ReadCt     int            `gorm:"column:read_ct;not null;default:0"`
	EnqueuedAt time.Time      `gorm:"column:enqueued_at;not null;default:now()"`
	VT         time.Time      `gorm:"column:vt;index;not null;default:now()"`
	Message    datatypes.JSON `gorm:"column:message;type:jsonb;not null;default:'{}'::jsonb"`
}

func (Message) TableName() string { return "notification_queue" }

// ArchivedMessage is a dead-lettered message, kept for audit.
type ArchivedMessage struct {
	MsgID      int64          `gorm:"column:msg_id;primaryKey;autoIncrement:false"`
	ReadCt     int            `gorm:"column:read_ct;not null"`
	EnqueuedAt time.Time      `gorm:"column:enqueued_at;not null"`
	VT         time.Time      `gorm:"column:vt;not null"`
	Message    datatypes.JSON `gorm:"column:message;type:jsonb;not null"`
	ArchivedAt time.Time      `gorm:"column:archived_at;index;not null;default:now()"`
}

func (ArchivedMessage) TableName() string { return "notification_queue_archive" }
