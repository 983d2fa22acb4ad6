// Package cache 提供参考数据（规格、镜像、网络等目录）的限时缓存
// 缓存过期后仍然保留，后端拉取失败时作为降级结果返回
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jimyag/cloudconsole/internal/console/metrics"
	"github.com/rs/zerolog"
)

// Fetcher 从后端拉取一次完整数据
type Fetcher[T any] func(ctx context.Context) (T, error)

// Entry 缓存条目
type Entry[T any] struct {
	Value     T
	FetchedAt time.Time
}

// Fresh 判断条目在 now 时刻是否仍在 ttl 内
func (e Entry[T]) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// Options 缓存可选项
type Options struct {
	Now     func() time.Time
	Metrics *metrics.Metrics
}

// Resource 单一类型目录的缓存
type Resource[T any] struct {
	kind    string
	ttl     time.Duration
	fetch   Fetcher[T]
	now     func() time.Time
	metrics *metrics.Metrics

	// mu 在拉取期间一直持有，同一类型同时只有一个拉取在途
	mu    sync.Mutex
	entry *Entry[T]
}

// NewResource 创建目录缓存
func NewResource[T any](kind string, ttl time.Duration, fetch Fetcher[T], opts Options) *Resource[T] {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Resource[T]{
		kind:    kind,
		ttl:     ttl,
		fetch:   fetch,
		now:     now,
		metrics: opts.Metrics,
	}
}

// Kind 返回目录类型
func (r *Resource[T]) Kind() string {
	return r.kind
}

// Get 返回目录数据
//   - 有新鲜条目且 force 为 false 时直接返回，不访问后端
//   - 否则拉取；成功则写入新时间戳
//   - 拉取失败时只要曾经缓存过（无论是否过期）就返回旧数据，不向上传递错误
func (r *Resource[T]) Get(ctx context.Context, force bool) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !force && r.entry != nil && r.entry.Fresh(r.now(), r.ttl) {
		return r.entry.Value, nil
	}

	value, err := r.fetch(ctx)
	r.metrics.CacheFetched(r.kind, err == nil)
	if err != nil {
		if r.entry != nil {
			zerolog.Ctx(ctx).Warn().
				Err(err).
				Str("kind", r.kind).
				Time("fetched_at", r.entry.FetchedAt).
				Msg("Catalog fetch failed, serving cached entry")
			r.metrics.CacheFallback(r.kind)
			return r.entry.Value, nil
		}
		var zero T
		return zero, err
	}

	r.entry = &Entry[T]{Value: value, FetchedAt: r.now()}
	return value, nil
}

// Peek 返回当前缓存条目，不触发拉取
func (r *Resource[T]) Peek() (Entry[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entry == nil {
		return Entry[T]{}, false
	}
	return *r.entry, true
}
