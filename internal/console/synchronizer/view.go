package synchronizer

import (
	"context"

	"github.com/jimyag/cloudconsole/internal/console/entity"
)

// View 一个正在观察虚拟机列表的消费者
// Updates 只保留最新的一份列表，消费慢的视图不会阻塞同步
type View struct {
	updates chan []entity.VirtualMachine
	done    chan struct{}
}

// Updates 投影变化后的最新列表，视图结束时关闭
func (v *View) Updates() <-chan []entity.VirtualMachine {
	return v.updates
}

// Done 视图结束时关闭
func (v *View) Done() <-chan struct{} {
	return v.done
}

// offer 替换尚未被读取的旧列表
func (v *View) offer(vms []entity.VirtualMachine) {
	select {
	case <-v.updates:
	default:
	}
	select {
	case v.updates <- vms:
	default:
	}
}

// Watch 注册一个视图，ctx 结束时注销
// 有视图时同步器开始轮询，最后一个视图结束后轮询停止
func (s *Synchronizer) Watch(ctx context.Context) *View {
	v := &View{
		updates: make(chan []entity.VirtualMachine, 1),
		done:    make(chan struct{}),
	}
	if s.projection.Version() > 0 {
		v.updates <- s.projection.List()
	}

	s.mu.Lock()
	s.views[v] = struct{}{}
	s.mu.Unlock()
	s.signalViews()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.views, v)
		close(v.updates)
		close(v.done)
		s.mu.Unlock()
		s.signalViews()
	}()
	return v
}

// ActiveViews 当前活动视图数
func (s *Synchronizer) ActiveViews() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

func (s *Synchronizer) signalViews() {
	select {
	case s.viewsChanged <- struct{}{}:
	default:
	}
}

// broadcast 把最新的投影发给所有视图
func (s *Synchronizer) broadcast() {
	vms := s.projection.List()

	s.mu.Lock()
	defer s.mu.Unlock()
	for v := range s.views {
		v.offer(vms)
	}
}
