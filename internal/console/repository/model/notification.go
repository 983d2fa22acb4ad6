package model

import (
	"time"

	"gorm.io/gorm"
)

// Notification 通知历史表，Dismiss 时软删除
type Notification struct {
	ID        string         `gorm:"primaryKey;type:text;column:id"`
	Level     string         `gorm:"type:text;not null;column:level"`
	Message   string         `gorm:"type:text;not null;column:message"`
	Key       string         `gorm:"type:text;column:key"`
	Sticky    bool           `gorm:"not null;default:false;column:sticky"`
	CreatedAt time.Time      `gorm:"type:datetime;not null;index:idx_notifications_created_at;column:created_at"`
	DeletedAt gorm.DeletedAt `gorm:"type:datetime;index:idx_notifications_deleted_at;column:deleted_at"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
