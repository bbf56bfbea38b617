package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/catalog_backend/config"
	mysqlDriver "github.com/go-sql-driver/mysql"
)

// TaskMessageRecord dedupes Pub/Sub push deliveries. Push is at-least-once;
// the unique message_id makes the second insert fail so the handler can ack
// without re-running the task.
type TaskMessageRecord struct {
	ID        int       `gorm:"primary_key" json:"id"`
	MessageId string    `gorm:"size:255;not null;uniqueIndex" json:"message_id"`
	JobId     int       `gorm:"index" json:"job_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// RecordTaskMessage returns alreadySeen=true when this delivery is a
// duplicate of an earlier one.
func RecordTaskMessage(ctx context.Context, messageId string, jobId int) (bool, error) {
	if messageId == "" {
		return false, nil
	}
	db := config.GetDB()
	record := TaskMessageRecord{MessageId: messageId, JobId: jobId}
	err := db.WithContext(ctx).Create(&record).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
