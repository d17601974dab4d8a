package model

import "time"

type Request struct {
	RequestID   uint64    `gorm:"column:request_id;primaryKey;autoIncrement"`
	SubmitterID string    `gorm:"column:submitter_id;type:text;not null;index:idx_submitter_status"`
	ContentType string    `gorm:"column:content_type;type:text;not null"`
	Fingerprint string    `gorm:"column:content_fingerprint;type:text;not null;uniqueIndex"`
	Status      string    `gorm:"column:status;type:text;not null;index:idx_submitter_status"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

func (Request) TableName() string {
	return "moderation_requests"
}
