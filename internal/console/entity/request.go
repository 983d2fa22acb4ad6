package entity

// SourceType 启动源类型
type SourceType string

const (
	SourceImage            SourceType = "image"
	SourceInstanceSnapshot SourceType = "instance_snapshot"
	SourceVolume           SourceType = "volume"
	SourceVolumeSnapshot   SourceType = "volume_snapshot"
)

// Valid 判断是否是已知的启动源类型
func (t SourceType) Valid() bool {
	switch t {
	case SourceImage, SourceInstanceSnapshot, SourceVolume, SourceVolumeSnapshot:
		return true
	}
	return false
}

// BackendField 返回该启动源在后端 Nova 风格接口中对应的字段名
func (t SourceType) BackendField() string {
	switch t {
	case SourceImage, SourceInstanceSnapshot:
		return "image_id"
	case SourceVolume:
		return "volume_id"
	case SourceVolumeSnapshot:
		return "snapshot_id"
	}
	return ""
}

// CreateVMRequest 创建虚拟机请求（POST create-vm）
type CreateVMRequest struct {
	Name             string     `json:"name"`
	SystemID         string     `json:"system_id"`
	FlavorID         string     `json:"flavor_id"`
	NetworkID        string     `json:"network_id"`
	SourceType       SourceType `json:"source_type"`
	SourceID         string     `json:"source_id"`
	AvailabilityZone string     `json:"availability_zone,omitempty"`
	DataCenterType   string     `json:"data_center_type,omitempty"`
	Description      string     `json:"description,omitempty"`
	// 以下三个字段按 SourceType 只填其一
	ImageID    string `json:"image_id,omitempty"`
	VolumeID   string `json:"volume_id,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`
}

// CreateVMResponse 创建虚拟机响应
type CreateVMResponse struct {
	ID     string   `json:"id"`
	Status VMStatus `json:"status,omitempty"`
}

// ControlAction 启停动作
type ControlAction string

const (
	ActionStart ControlAction = "start"
	ActionStop  ControlAction = "stop"
)

// ControlResourceRequest 启停请求（POST control-resource）
type ControlResourceRequest struct {
	ResourceID   string        `json:"resource_id"`
	ResourceType string        `json:"resource_type"`
	Action       ControlAction `json:"action"`
}

// ResizeRequest 调整规格请求
type ResizeRequest struct {
	NewFlavorID string `json:"new_flavor_id"`
	Confirm     bool   `json:"confirm"`
}

// CreateSnapshotRequest 创建实例快照请求
type CreateSnapshotRequest struct {
	Name string `json:"name"`
}

// RestoreSnapshotRequest 从快照恢复请求
type RestoreSnapshotRequest struct {
	SnapshotID string `json:"snapshot_id"`
}
