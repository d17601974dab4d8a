package model

import "time"

type Result struct {
	ResultID       uint64    `gorm:"column:result_id;primaryKey;autoIncrement"`
	RequestID      uint64    `gorm:"column:request_id;not null;uniqueIndex"`
	Classification string    `gorm:"column:classification;type:text;not null;index"`
	Confidence     float64   `gorm:"column:confidence;not null"`
	Reasoning      string    `gorm:"column:reasoning;type:text"`
	RawResponse    string    `gorm:"column:raw_response;type:text"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
}

func (Result) TableName() string {
	return "moderation_results"
}
