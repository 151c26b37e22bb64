package models

import (
	"time"

	"gorm.io/datatypes"
)

// Job is the durable record of one asynchronous operation. The full unified
// message envelope is kept as jsonb so a row can be re-dispatched without
// reconstruction; the remaining columns exist for claiming and audit.
type Job struct {
	ID             string         `gorm:"type:uuid;primaryKey"`
	AppID          string         `gorm:"type:varchar(64);index:idx_jobs_app_status_retry,priority:1"`
	ExecutionType  string         `gorm:"type:varchar(32);not null;index"`
	Status         string         `gorm:"type:varchar(16);not null;default:'PENDING';index:idx_jobs_app_status_retry,priority:2"`
	Message        datatypes.JSON `gorm:"type:jsonb;not null"`
	RetryCount     int            `gorm:"not null;default:0"`
	MaxRetries     int            `gorm:"not null;default:10"`
	NextRetryAt    *time.Time     `gorm:"index:idx_jobs_app_status_retry,priority:3"`
	LastError      string         `gorm:"type:text"`
	ScheduleRef    string         `gorm:"type:varchar(255)"`
	IdempotencyKey string         `gorm:"type:varchar(255);index"`
	MessageGroupID string         `gorm:"type:varchar(255)"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}
