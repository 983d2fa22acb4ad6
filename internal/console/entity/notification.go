package entity

import "time"

// NotificationLevel 通知级别
type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelSuccess NotificationLevel = "success"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
)

// Notification 面向操作员的一条提示
type Notification struct {
	ID        string            `json:"id"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	Key       string            `json:"key,omitempty"`    // 相同 Key 的提示会覆盖旧的一条
	Sticky    bool              `json:"sticky,omitempty"` // 常驻提示，直到显式清除
	CreatedAt time.Time         `json:"created_at"`
}

// Operation 一次已发送（或被本地拦截）的命令记录
type Operation struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Kind       string    `json:"kind"`
	Outcome    string    `json:"outcome"`
	Message    string    `json:"message,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
