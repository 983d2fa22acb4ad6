package wizard

import (
	"strings"

	"github.com/jimyag/cloudconsole/internal/console/entity"
)

// Source 选中的启动源
type Source struct {
	Kind entity.SourceType `json:"kind"`
	ID   string            `json:"id"`
}

// Draft 向导累积的创建请求
type Draft struct {
	// TenantID 仅管理员模式使用
	TenantID         string `json:"tenant_id,omitempty"`
	SystemID         string `json:"system_id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Source           Source `json:"source"`
	FlavorID         string `json:"flavor_id"`
	NetworkID        string `json:"network_id"`
	AvailabilityZone string `json:"availability_zone,omitempty"`
	DataCenterType   string `json:"data_center_type"`
}

// Patch 对草稿的部分更新，nil 字段保持不变
// 租户只能通过 SelectTenant 修改
type Patch struct {
	SystemID         *string            `json:"system_id"`
	Name             *string            `json:"name"`
	Description      *string            `json:"description"`
	SourceKind       *entity.SourceType `json:"source_kind"`
	SourceID         *string            `json:"source_id"`
	FlavorID         *string            `json:"flavor_id"`
	NetworkID        *string            `json:"network_id"`
	AvailabilityZone *string            `json:"availability_zone"`
	DataCenterType   *string            `json:"data_center_type"`
}

// validateStage 校验某个阶段负责的字段，返回第一个未满足的规则
func (d *Draft) validateStage(stage Stage, admin bool) *ValidationError {
	switch stage {
	case StageDetails:
		if strings.TrimSpace(d.Name) == "" {
			return invalid(stage, "name", "name is required")
		}
		if admin && d.TenantID == "" {
			return invalid(stage, "tenant_id", "tenant is required")
		}
		if d.SystemID == "" {
			return invalid(stage, "system_id", "target system is required")
		}
	case StageSource:
		if !d.Source.Kind.Valid() {
			return invalid(stage, "source.kind", "boot source type is required")
		}
		if d.Source.ID == "" {
			return invalid(stage, "source.id", "a boot source must be selected")
		}
	case StageInstanceType:
		if d.FlavorID == "" {
			return invalid(stage, "flavor_id", "an instance type must be selected")
		}
	case StageNetwork:
		if d.NetworkID == "" {
			return invalid(stage, "network_id", "a network must be selected")
		}
	}
	return nil
}

// validateAll 按阶段顺序校验整个草稿
func (d *Draft) validateAll(admin bool) *ValidationError {
	for stage := StageDetails; stage < StageConfiguration; stage++ {
		if err := d.validateStage(stage, admin); err != nil {
			return err
		}
	}
	return nil
}

// SourceField 返回启动源类型在后端接口中对应的字段名
func SourceField(kind entity.SourceType) string {
	return kind.BackendField()
}

// request 把草稿转换为后端创建请求
func (d *Draft) request() *entity.CreateVMRequest {
	req := &entity.CreateVMRequest{
		Name:             strings.TrimSpace(d.Name),
		SystemID:         d.SystemID,
		FlavorID:         d.FlavorID,
		NetworkID:        d.NetworkID,
		SourceType:       d.Source.Kind,
		SourceID:         d.Source.ID,
		AvailabilityZone: d.AvailabilityZone,
		DataCenterType:   d.DataCenterType,
		Description:      d.Description,
	}
	if req.DataCenterType == "" {
		req.DataCenterType = entity.DataCenterTypeProduction
	}
	switch SourceField(d.Source.Kind) {
	case "image_id":
		req.ImageID = d.Source.ID
	case "volume_id":
		req.VolumeID = d.Source.ID
	case "snapshot_id":
		req.SnapshotID = d.Source.ID
	}
	return req
}
