package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultChannel = "notification_queue"

type Repo struct {
	DB *gorm.DB
	// Channel is the NOTIFY channel signalled on enqueue.
	Channel string
}

func (r *Repo) channel() string {
	if r.Channel == "" {
		return DefaultChannel
	}
	return r.Channel
}

// Send enqueues a payload, visible immediately, and signals listeners.
func (r *Repo) Send(ctx context.Context, payload any) (int64, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}
	now := time.Now()
	m := Message{
		EnqueuedAt: now,
		VT:         now,
		Message:    datatypes.JSON(b),
	}
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		// delivered to listeners on commit
		return tx.Exec(`select pg_notify(?, ?)`, r.channel(), strconv.FormatInt(m.MsgID, 10)).Error
	})
	if err != nil {
		return 0, err
	}
	return m.MsgID, nil
}

// Read claims up to n visible messages. Claimed rows become invisible for
// vt and their read count is incremented.
// FOR UPDATE SKIP LOCKED keeps concurrent readers from claiming the same row.
func (r *Repo) Read(ctx context.Context, n int, vt time.Duration) ([]Message, error) {
	var msgs []Message
	err := r.DB.WithContext(ctx).Raw(`
with cte as (
  select msg_id
  from notification_queue
  where vt <= now()
  order by msg_id asc
  limit ?
  for update skip locked
)
update notification_queue q
set vt = now() + make_interval(secs => ?),
    read_ct = q.read_ct + 1
from cte
where q.msg_id = cte.msg_id
returning q.*;
`, n, vt.Seconds()).Scan(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *Repo) Delete(ctx context.Context, msgID int64) error {
	return r.DB.WithContext(ctx).Exec(`delete from notification_queue where msg_id=?`, msgID).Error
}

// Archive moves a message to the archive table in one statement.
func (r *Repo) Archive(ctx context.Context, msgID int64) error {
	return r.DB.WithContext(ctx).Exec(`
with moved as (
  delete from notification_queue
  where msg_id = ?
  returning msg_id, read_ct, enqueued_at, vt, message
)
insert into notification_queue_archive (msg_id, read_ct, enqueued_at, vt, message, archived_at)
select msg_id, read_ct, enqueued_at, vt, message, now()
from moved;
`, msgID).Error
}
