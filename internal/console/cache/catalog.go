package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/jimyag/cloudconsole/internal/console/metrics"
	"github.com/jimyag/cloudconsole/pkg/apierror"
)

// 目录类型
const (
	KindFlavors           = "flavors"
	KindImages            = "images"
	KindInstanceSnapshots = "instance_snapshots"
	KindVolumes           = "volumes"
	KindVolumeSnapshots   = "volume_snapshots"
	KindNetworks          = "networks"
	KindAvailabilityZones = "availability_zones"
)

// Source 目录数据来源，由后端客户端实现
type Source interface {
	ListFlavors(ctx context.Context) ([]entity.Flavor, error)
	ListImages(ctx context.Context) ([]entity.Image, error)
	ListInstanceSnapshots(ctx context.Context) ([]entity.InstanceSnapshot, error)
	ListVolumes(ctx context.Context) ([]entity.Volume, error)
	ListVolumeSnapshots(ctx context.Context) ([]entity.VolumeSnapshot, error)
	ListNetworks(ctx context.Context) ([]entity.Network, error)
	ListAvailabilityZones(ctx context.Context) ([]entity.AvailabilityZone, error)
}

// TTLs 各类型目录的有效期
// 规格和可用区变化很少，镜像和网络次之，快照和云硬盘变化最快
type TTLs struct {
	Flavors           time.Duration `yaml:"flavors"`
	Images            time.Duration `yaml:"images"`
	Networks          time.Duration `yaml:"networks"`
	AvailabilityZones time.Duration `yaml:"availability_zones"`
	Snapshots         time.Duration `yaml:"snapshots"`
}

// DefaultTTLs 默认有效期
func DefaultTTLs() TTLs {
	return TTLs{
		Flavors:           30 * time.Minute,
		Images:            5 * time.Minute,
		Networks:          5 * time.Minute,
		AvailabilityZones: 30 * time.Minute,
		Snapshots:         time.Minute,
	}
}

// Catalog 会话级共享的目录缓存，向导和 resize 对话框共用
type Catalog struct {
	Flavors           *Resource[[]entity.Flavor]
	Images            *Resource[[]entity.Image]
	InstanceSnapshots *Resource[[]entity.InstanceSnapshot]
	Volumes           *Resource[[]entity.Volume]
	VolumeSnapshots   *Resource[[]entity.VolumeSnapshot]
	Networks          *Resource[[]entity.Network]
	AvailabilityZones *Resource[[]entity.AvailabilityZone]
}

// NewCatalog 创建目录缓存
func NewCatalog(src Source, ttls TTLs, m *metrics.Metrics) *Catalog {
	opts := Options{Metrics: m}
	return &Catalog{
		Flavors:           NewResource(KindFlavors, ttls.Flavors, src.ListFlavors, opts),
		Images:            NewResource(KindImages, ttls.Images, src.ListImages, opts),
		InstanceSnapshots: NewResource(KindInstanceSnapshots, ttls.Snapshots, src.ListInstanceSnapshots, opts),
		Volumes:           NewResource(KindVolumes, ttls.Snapshots, src.ListVolumes, opts),
		VolumeSnapshots:   NewResource(KindVolumeSnapshots, ttls.Snapshots, src.ListVolumeSnapshots, opts),
		Networks:          NewResource(KindNetworks, ttls.Networks, src.ListNetworks, opts),
		AvailabilityZones: NewResource(KindAvailabilityZones, ttls.AvailabilityZones, src.ListAvailabilityZones, opts),
	}
}

// Get 按类型名取目录，供 HTTP 层使用
func (c *Catalog) Get(ctx context.Context, kind string, force bool) (any, error) {
	switch kind {
	case KindFlavors:
		return c.Flavors.Get(ctx, force)
	case KindImages:
		return c.Images.Get(ctx, force)
	case KindInstanceSnapshots:
		return c.InstanceSnapshots.Get(ctx, force)
	case KindVolumes:
		return c.Volumes.Get(ctx, force)
	case KindVolumeSnapshots:
		return c.VolumeSnapshots.Get(ctx, force)
	case KindNetworks:
		return c.Networks.Get(ctx, force)
	case KindAvailabilityZones:
		return c.AvailabilityZones.Get(ctx, force)
	}
	return nil, apierror.WrapError(apierror.ErrInvalidParameter, fmt.Sprintf("unknown catalog kind %q", kind), nil)
}

// Flavor 按 ID 在规格目录中查找
func (c *Catalog) Flavor(ctx context.Context, id string) (entity.Flavor, bool, error) {
	flavors, err := c.Flavors.Get(ctx, false)
	if err != nil {
		return entity.Flavor{}, false, err
	}
	for _, f := range flavors {
		if f.ID == id {
			return f, true, nil
		}
	}
	return entity.Flavor{}, false, nil
}
