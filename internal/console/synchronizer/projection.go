package synchronizer

import (
	"sort"
	"strings"
	"sync"

	"github.com/jimyag/cloudconsole/internal/console/entity"
)

// Projection 客户端持有的虚拟机只读投影
// 每次同步整体替换，不做字段级合并；命令被接受后可以临时覆盖某台虚拟机的状态
type Projection struct {
	mu          sync.RWMutex
	vms         []entity.VirtualMachine
	overrides   map[string]entity.VMStatus
	fingerprint string
	version     uint64
}

func NewProjection() *Projection {
	return &Projection{overrides: make(map[string]entity.VMStatus)}
}

// Replace 用权威快照替换整个投影并清除所有乐观覆盖
// 快照与当前内容相同且没有覆盖时返回 false
func (p *Projection) Replace(snapshot []entity.VirtualMachine) bool {
	vms := dedupByID(snapshot)
	fp := fingerprint(vms)

	p.mu.Lock()
	defer p.mu.Unlock()

	if fp == p.fingerprint && len(p.overrides) == 0 && p.version > 0 {
		return false
	}
	p.vms = vms
	p.fingerprint = fp
	p.overrides = make(map[string]entity.VMStatus)
	p.version++
	return true
}

// MarkOptimistic 在下一次同步之前把虚拟机显示为 status
// 投影中不存在该虚拟机时返回 false
func (p *Projection) MarkOptimistic(vmID string, status entity.VMStatus) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, vm := range p.vms {
		if vm.ID == vmID {
			if current, ok := p.overrides[vmID]; ok && current == status {
				return false
			}
			p.overrides[vmID] = status
			p.version++
			return true
		}
	}
	return false
}

// List 返回当前投影，乐观覆盖已应用
func (p *Projection) List() []entity.VirtualMachine {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]entity.VirtualMachine, len(p.vms))
	for i, vm := range p.vms {
		if status, ok := p.overrides[vm.ID]; ok {
			vm.Status = status
			vm.Optimistic = true
		}
		out[i] = vm
	}
	return out
}

// Get 按 ID 查找虚拟机
func (p *Projection) Get(vmID string) (entity.VirtualMachine, bool) {
	for _, vm := range p.List() {
		if vm.ID == vmID {
			return vm, true
		}
	}
	return entity.VirtualMachine{}, false
}

// Version 每次投影内容变化时递增
func (p *Projection) Version() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.version
}

// dedupByID 同一个 ID 只保留最后一条，保持首次出现的顺序
func dedupByID(snapshot []entity.VirtualMachine) []entity.VirtualMachine {
	index := make(map[string]int, len(snapshot))
	out := make([]entity.VirtualMachine, 0, len(snapshot))
	for _, vm := range snapshot {
		if i, ok := index[vm.ID]; ok {
			out[i] = vm
			continue
		}
		index[vm.ID] = len(out)
		out = append(out, vm)
	}
	return out
}

// fingerprint 只包含展示相关的字段，与顺序无关
func fingerprint(vms []entity.VirtualMachine) string {
	keys := make([]string, len(vms))
	for i, vm := range vms {
		keys[i] = strings.Join([]string{vm.ID, vm.Name, string(vm.Status), vm.Flavor.ID, vm.NetworkID, vm.AvailabilityZone}, "\x1f")
	}
	sort.Strings(keys)
	return strings.Join(keys, "\x1e")
}
