// Package lock 提供按资源 ID 的操作锁登记表，保证同一 VM 同时只有一个控制命令在途
package lock

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry 操作锁登记表
// 只能通过 TryAcquire/Release 修改；没有超时自动释放，卡住的锁只能等命令结束或 Reset
type Registry struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewRegistry 创建空的登记表
func NewRegistry() *Registry {
	return &Registry{
		busy: make(map[string]struct{}),
	}
}

// TryAcquire 尝试锁定资源
// 已被锁定时返回 false 且不产生任何副作用
func (r *Registry) TryAcquire(resourceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.busy[resourceID]; ok {
		return false
	}
	r.busy[resourceID] = struct{}{}
	log.Debug().Str("resource_id", resourceID).Msg("Operation lock acquired")
	return true
}

// Release 释放资源锁，未锁定时为空操作
func (r *Registry) Release(resourceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.busy[resourceID]; !ok {
		return
	}
	delete(r.busy, resourceID)
	log.Debug().Str("resource_id", resourceID).Msg("Operation lock released")
}

// IsLocked 检查资源是否被锁定
func (r *Registry) IsLocked(resourceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.busy[resourceID]
	return ok
}

// Held 返回当前所有被锁定的资源 ID（已排序）
func (r *Registry) Held() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.busy))
	for id := range r.busy {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reset 清空所有锁，仅在会话结束时调用
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.busy); n > 0 {
		log.Warn().Int("count", n).Msg("Dropping operation locks at session teardown")
	}
	r.busy = make(map[string]struct{})
}

// Guard 在持有锁的情况下执行 fn
// 未能获取锁时不执行 fn，返回 acquired=false；fn 返回或 panic 后锁都会被释放
func (r *Registry) Guard(resourceID string, fn func() error) (acquired bool, err error) {
	if !r.TryAcquire(resourceID) {
		return false, nil
	}
	defer r.Release(resourceID)

	return true, fn()
}
