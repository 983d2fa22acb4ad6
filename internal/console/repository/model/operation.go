package model

import "time"

// Operation 命令审计记录表
type Operation struct {
	ID         string    `gorm:"primaryKey;type:text;column:id"`
	ResourceID string    `gorm:"type:text;not null;index:idx_operations_resource_id;column:resource_id"`
	Kind       string    `gorm:"type:text;not null;column:kind"`    // start, stop, delete, resize, ...
	Outcome    string    `gorm:"type:text;not null;column:outcome"` // ok, busy, conflict, failed
	Message    string    `gorm:"type:text;column:message"`
	StartedAt  time.Time `gorm:"type:datetime;not null;index:idx_operations_started_at;column:started_at"`
	FinishedAt time.Time `gorm:"type:datetime;not null;column:finished_at"`
}

// TableName 指定表名
func (Operation) TableName() string {
	return "operations"
}
