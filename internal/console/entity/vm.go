// Package entity 定义控制台与后端交互的业务实体
package entity

import "time"

// VMStatus 虚拟机生命周期状态
type VMStatus string

const (
	VMStatusBuilding     VMStatus = "building"
	VMStatusRunning      VMStatus = "running"
	VMStatusStopped      VMStatus = "stopped"
	VMStatusPaused       VMStatus = "paused"
	VMStatusResizing     VMStatus = "resizing"
	VMStatusVerifyResize VMStatus = "verify_resize"
	VMStatusError        VMStatus = "error"
	VMStatusDeleting     VMStatus = "deleting"
)

// DataCenterTypeProduction 创建请求默认的数据中心分类
const DataCenterTypeProduction = "production"

// VirtualMachine 后端返回的虚拟机投影，客户端只读
type VirtualMachine struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Status           VMStatus  `json:"status"`
	Flavor           Flavor    `json:"flavor"`
	NetworkID        string    `json:"network_id,omitempty"`
	AvailabilityZone string    `json:"availability_zone,omitempty"`
	DataCenterType   string    `json:"data_center_type,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	// LastGoodFlavor 最近一次确认可用的规格，resize 回退时恢复到它
	LastGoodFlavor *Flavor `json:"last_good_flavor,omitempty"`
	// Optimistic 为 true 表示 Status 是命令被接受后的本地占位值，等待下一次同步覆盖
	Optimistic bool `json:"optimistic,omitempty"`
}

// Flavor 实例规格（vCPU/内存/磁盘）
type Flavor struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	VCPUs  int    `json:"vcpus"`
	RAMMB  int    `json:"ram_mb"`
	DiskGB int    `json:"disk_gb"`
}

// VMOverview 后端 VM 总览接口的响应
type VMOverview struct {
	VMs []VirtualMachine `json:"vms"`
}
