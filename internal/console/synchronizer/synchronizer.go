// Package synchronizer 维护虚拟机投影与后端一致
//
// 两个来源驱动同步：有视图在观察时的定时轮询，以及推送通道上的状态变化通知。
// 任何一个来源触发的同步都是重新获取完整的总览并整体替换投影，最后完成的获取生效。
package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/jimyag/cloudconsole/internal/console/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// 同步的触发来源
const (
	TriggerPoll    = "poll"
	TriggerPush    = "push"
	TriggerCommand = "command"
	TriggerWatch   = "watch"
	TriggerManual  = "manual"
)

// 通知的去重 Key
const (
	KeyPollFailure      = "sync.poll_failure"
	KeyPushDisconnected = "sync.push_disconnected"
)

// MessagePushDisconnected 推送通道放弃重连后的常驻提示
const MessagePushDisconnected = "real-time updates disconnected"

// OverviewSource 虚拟机总览的来源，由 backend.Client 实现
type OverviewSource interface {
	Overview(ctx context.Context) ([]entity.VirtualMachine, error)
}

// Notifier 操作员提示，由 notify.Notifier 实现
type Notifier interface {
	Info(format string, args ...any) entity.Notification
	Push(item entity.Notification) entity.Notification
}

// Config 同步器配置
type Config struct {
	PollInterval time.Duration
	// Push 为空 URL 时只使用轮询
	Push PushConfig
}

// Synchronizer 状态同步器
type Synchronizer struct {
	cfg        Config
	source     OverviewSource
	notifier   Notifier
	metrics    *metrics.Metrics
	projection *Projection
	push       *PushClient

	refreshCh chan struct{}

	mu           sync.Mutex
	views        map[*View]struct{}
	viewsChanged chan struct{}
	pollFailing  bool
	cancel       context.CancelFunc
	done         chan struct{}
}

// New 创建同步器
func New(cfg Config, source OverviewSource, notifier Notifier, m *metrics.Metrics) *Synchronizer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	s := &Synchronizer{
		cfg:          cfg,
		source:       source,
		notifier:     notifier,
		metrics:      m,
		projection:   NewProjection(),
		refreshCh:    make(chan struct{}, 1),
		views:        make(map[*View]struct{}),
		viewsChanged: make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	if cfg.Push.URL != "" {
		s.push = NewPushClient(cfg.Push, m, s.handleStatusUpdate, s.handlePushExhausted)
	}
	return s
}

// Projection 返回虚拟机投影
func (s *Synchronizer) Projection() *Projection {
	return s.projection
}

// List 返回当前投影
func (s *Synchronizer) List() []entity.VirtualMachine {
	return s.projection.List()
}

// MarkOptimistic 命令被接受后显示占位状态
func (s *Synchronizer) MarkOptimistic(vmID string, status entity.VMStatus) {
	if s.projection.MarkOptimistic(vmID, status) {
		s.broadcast()
	}
}

// RequestRefresh 请求一次异步同步，多次请求会被合并
func (s *Synchronizer) RequestRefresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

// Refresh 获取完整总览并替换投影
// 内容有变化时通知所有视图，相同的快照不会产生任何通知
func (s *Synchronizer) Refresh(ctx context.Context, trigger string) error {
	vms, err := s.source.Overview(ctx)
	if err != nil {
		s.metrics.SyncRefreshed(trigger, false)
		if errors.Is(err, context.Canceled) {
			return err
		}
		zerolog.Ctx(ctx).Warn().Err(err).Str("trigger", trigger).Msg("Failed to refresh VM overview")
		s.reportFailure(err)
		return fmt.Errorf("refresh vm overview: %w", err)
	}
	s.metrics.SyncRefreshed(trigger, true)

	s.mu.Lock()
	s.pollFailing = false
	s.mu.Unlock()

	if s.projection.Replace(vms) {
		s.broadcast()
	}
	return nil
}

// reportFailure 连续失败期间只提示一次，保留已有的投影
func (s *Synchronizer) reportFailure(err error) {
	s.mu.Lock()
	already := s.pollFailing
	s.pollFailing = true
	s.mu.Unlock()

	if already {
		return
	}
	s.notifier.Push(entity.Notification{
		Level:   entity.LevelError,
		Message: fmt.Sprintf("Failed to refresh VM list: %v", err),
		Key:     KeyPollFailure,
	})
}

func (s *Synchronizer) handleStatusUpdate(ctx context.Context, update entity.VMStatusUpdate) {
	name := update.Name
	if name == "" {
		name = update.ID
	}
	s.notifier.Info("%s: %s → %s", name, update.OldStatus, update.NewStatus)
	_ = s.Refresh(ctx, TriggerPush)
}

func (s *Synchronizer) handlePushExhausted() {
	s.notifier.Push(entity.Notification{
		Level:   entity.LevelWarning,
		Message: MessagePushDisconnected,
		Key:     KeyPushDisconnected,
		Sticky:  true,
	})
}

// Run 运行轮询和推送通道，直到 ctx 结束或 Shutdown 被调用
func (s *Synchronizer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer close(s.done)
	defer cancel()

	var wg sync.WaitGroup
	if s.push != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.push.Run(ctx)
		}()
	}

	s.loop(ctx)
	wg.Wait()
	log.Info().Msg("Synchronizer stopped")
	return nil
}

// loop 只有存在活动视图时才启动轮询定时器
func (s *Synchronizer) loop(ctx context.Context) {
	var (
		ticker *time.Ticker
		tickC  <-chan time.Time
	)
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tickC = nil, nil
		}
	}
	defer stopTicker()

	for {
		active := s.ActiveViews() > 0
		switch {
		case active && ticker == nil:
			ticker = time.NewTicker(s.cfg.PollInterval)
			tickC = ticker.C
			_ = s.Refresh(ctx, TriggerWatch)
		case !active:
			stopTicker()
		}

		select {
		case <-ctx.Done():
			return
		case <-s.viewsChanged:
		case <-tickC:
			_ = s.Refresh(ctx, TriggerPoll)
		case <-s.refreshCh:
			_ = s.Refresh(ctx, TriggerCommand)
		}
	}
}

// Shutdown 停止所有定时器和推送连接
func (s *Synchronizer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Name 实现 grace.Grace 接口
func (s *Synchronizer) Name() string {
	return "Status Synchronizer"
}
