package model

import "time"

type NotificationLog struct {
	LogID        uint64    `gorm:"column:log_id;primaryKey;autoIncrement"`
	RequestID    uint64    `gorm:"column:request_id;not null;index:idx_request_channel"`
	Channel      string    `gorm:"column:channel;type:text;not null;index:idx_request_channel"`
	Status       string    `gorm:"column:status;type:text;not null;index"`
	SentAt       time.Time `gorm:"column:sent_at;not null;autoCreateTime"`
	ErrorMessage string    `gorm:"column:error_message;type:text"`
}

func (NotificationLog) TableName() string {
	return "notification_logs"
}
