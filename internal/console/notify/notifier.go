// Package notify 管理面向操作员的提示（toast、警告、错误）
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/jimyag/cloudconsole/internal/console/repository"
	"github.com/jimyag/cloudconsole/pkg/idgen"
	"github.com/rs/zerolog/log"
)

// DefaultCapacity 内存中保留的最近通知数
const DefaultCapacity = 200

// Notifier 通知中心
// 内存中保留最近的通知并广播给订阅者；配置了仓库时同时写入历史
type Notifier struct {
	mu       sync.Mutex
	items    []entity.Notification
	capacity int
	subs     map[chan entity.Notification]struct{}

	idGen *idgen.Generator
	repo  repository.NotificationRepository
	now   func() time.Time
}

// New 创建通知中心，repo 可以为 nil
func New(repo repository.NotificationRepository, capacity int) *Notifier {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Notifier{
		capacity: capacity,
		subs:     make(map[chan entity.Notification]struct{}),
		idGen:    idgen.DefaultGenerator(),
		repo:     repo,
		now:      time.Now,
	}
}

func (n *Notifier) Info(format string, args ...any) entity.Notification {
	return n.Push(entity.Notification{Level: entity.LevelInfo, Message: fmt.Sprintf(format, args...)})
}

func (n *Notifier) Success(format string, args ...any) entity.Notification {
	return n.Push(entity.Notification{Level: entity.LevelSuccess, Message: fmt.Sprintf(format, args...)})
}

func (n *Notifier) Warning(format string, args ...any) entity.Notification {
	return n.Push(entity.Notification{Level: entity.LevelWarning, Message: fmt.Sprintf(format, args...)})
}

func (n *Notifier) Error(format string, args ...any) entity.Notification {
	return n.Push(entity.Notification{Level: entity.LevelError, Message: fmt.Sprintf(format, args...)})
}

// Push 发布一条通知
// Key 非空时替换已有的同 Key 通知，用于常驻警告和连续失败的去重
func (n *Notifier) Push(item entity.Notification) entity.Notification {
	if item.ID == "" {
		id, err := n.idGen.NotificationID()
		if err != nil {
			id = fmt.Sprintf("ntf-%d", n.now().UnixNano())
		}
		item.ID = id
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = n.now()
	}

	n.mu.Lock()
	if item.Key != "" {
		for i := range n.items {
			if n.items[i].Key == item.Key {
				item.ID = n.items[i].ID
				n.items = append(n.items[:i], n.items[i+1:]...)
				break
			}
		}
	}
	n.items = append(n.items, item)
	if len(n.items) > n.capacity {
		n.items = n.items[len(n.items)-n.capacity:]
	}
	for ch := range n.subs {
		select {
		case ch <- item:
		default:
			// 订阅者消费过慢时丢弃，完整列表可以通过 List 获取
		}
	}
	n.mu.Unlock()

	logEvent := log.Info()
	switch item.Level {
	case entity.LevelWarning:
		logEvent = log.Warn()
	case entity.LevelError:
		logEvent = log.Error()
	}
	logEvent.Str("notification_id", item.ID).Str("level", string(item.Level)).Msg(item.Message)

	if n.repo != nil {
		if err := n.repo.Save(context.Background(), &item); err != nil {
			log.Warn().Err(err).Str("notification_id", item.ID).Msg("Failed to persist notification")
		}
	}
	return item
}

// HasKey 判断是否存在指定 Key 的通知
func (n *Notifier) HasKey(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, item := range n.items {
		if item.Key == key {
			return true
		}
	}
	return false
}

// Dismiss 清除一条通知，返回是否存在
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	found := false
	for i := range n.items {
		if n.items[i].ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			found = true
			break
		}
	}
	n.mu.Unlock()

	if found && n.repo != nil {
		if err := n.repo.Dismiss(context.Background(), id); err != nil {
			log.Warn().Err(err).Str("notification_id", id).Msg("Failed to dismiss persisted notification")
		}
	}
	return found
}

// DismissKey 清除指定 Key 的通知
func (n *Notifier) DismissKey(key string) {
	n.mu.Lock()
	id := ""
	for _, item := range n.items {
		if item.Key == key {
			id = item.ID
			break
		}
	}
	n.mu.Unlock()

	if id != "" {
		n.Dismiss(id)
	}
}

// List 返回当前通知（按发布顺序）
func (n *Notifier) List() []entity.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]entity.Notification, len(n.items))
	copy(out, n.items)
	return out
}

// Subscribe 订阅新通知，ctx 结束时自动取消订阅并关闭通道
func (n *Notifier) Subscribe(ctx context.Context) <-chan entity.Notification {
	ch := make(chan entity.Notification, 16)

	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.subs, ch)
		close(ch)
		n.mu.Unlock()
	}()
	return ch
}
