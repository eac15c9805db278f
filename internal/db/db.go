package db

import (
	"fmt"

	"siteplan/internal/queue"
	"siteplan/internal/store"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&queue.Message{},
		&queue.ArchivedMessage{},
		&store.User{},
		&store.Profile{},
		&store.PushToken{},
		&store.NotificationLog{},
	); err != nil {
		return err
	}

	stmts := []string{
		// dedup lookup: (user, type, related entity, channel) since start of day
		`create index if not exists idx_logs_dedup on notification_logs(user_id, type, related_id, channel, created_at desc) where status = 'sent';`,
		`create index if not exists idx_logs_user_created on notification_logs(user_id, created_at desc);`,
		`create index if not exists idx_push_tokens_active on push_tokens(user_id) where is_active;`,
		`create index if not exists idx_queue_visible on notification_queue(vt, msg_id);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
