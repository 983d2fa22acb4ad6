package entity

import "encoding/json"

// 推送通道消息类型
const (
	PushTypeConnectionEstablished = "connection_established"
	PushTypeVMStatusUpdate        = "vm_status_update"
	PushTypePing                  = "ping"
	PushTypePong                  = "pong"
)

// PushMessage 推送通道上的消息信封
type PushMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// VMStatusUpdate vm_status_update 消息的负载
type VMStatusUpdate struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	OldStatus VMStatus `json:"old_status"`
	NewStatus VMStatus `json:"new_status"`
}
