package entity

// Image 镜像
type Image struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
	SizeGB int    `json:"size_gb,omitempty"`
}

// InstanceSnapshot 实例快照，创建时与镜像一样作为 image_id 使用
type InstanceSnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SourceVM string `json:"source_vm_id,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Volume 云硬盘
type Volume struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SizeGB   int    `json:"size_gb"`
	Bootable bool   `json:"bootable"`
	Status   string `json:"status,omitempty"`
}

// VolumeSnapshot 云硬盘快照
type VolumeSnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	VolumeID string `json:"volume_id,omitempty"`
	SizeGB   int    `json:"size_gb"`
}

// Network 网络
type Network struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	CIDR string `json:"cidr,omitempty"`
}

// AvailabilityZone 可用区
type AvailabilityZone struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Tenant 租户（仅管理员创建流程使用）
type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// System 租户下的业务系统，VM 归属于某个系统
type System struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TenantID string `json:"tenant_id"`
}
