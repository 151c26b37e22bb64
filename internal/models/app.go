package models

import "time"

// App is the minimal tenant projection the engine needs: where legacy
// callbacks go and which secret signs them. Tenant CRUD lives elsewhere.
type App struct {
	ID              string    `gorm:"type:uuid;primaryKey"`
	CallbackBaseURL string    `gorm:"type:varchar(512)"`
	CallbackSecret  string    `gorm:"type:varchar(128)"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}
