package resize

import (
	"context"
	"fmt"
	"sync"

	"github.com/jimyag/cloudconsole/internal/console/dispatcher"
	"github.com/jimyag/cloudconsole/pkg/apierror"
)

// Manager 每台虚拟机最多一个调整规格工作流
type Manager struct {
	mu         sync.Mutex
	workflows  map[string]*Workflow
	dispatcher Dispatcher
}

func NewManager(d Dispatcher) *Manager {
	return &Manager{
		workflows:  make(map[string]*Workflow),
		dispatcher: d,
	}
}

// Begin 为虚拟机开始新的工作流
// 已有工作流请求在途或等待确认时拒绝，空闲或终态的工作流被替换
func (m *Manager) Begin(draft Draft) (*Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkReplaceable(draft.VMID); err != nil {
		return nil, err
	}
	w := NewWorkflow(draft, m.dispatcher)
	m.workflows[draft.VMID] = w
	return w, nil
}

// Submit 开始并提交一次调整规格
// 替换和标记在途在同一把锁内完成，并发提交只有一个会发出请求
func (m *Manager) Submit(ctx context.Context, draft Draft) (*Workflow, dispatcher.Result, error) {
	m.mu.Lock()
	if err := m.checkReplaceable(draft.VMID); err != nil {
		m.mu.Unlock()
		return nil, dispatcher.Result{}, err
	}
	w := NewWorkflow(draft, m.dispatcher)
	reserved, err := w.reserve()
	if err != nil {
		m.mu.Unlock()
		return nil, dispatcher.Result{}, err
	}
	m.workflows[draft.VMID] = w
	m.mu.Unlock()

	return w, w.dispatch(ctx, reserved), nil
}

// checkReplaceable 调用方持有 m.mu
func (m *Manager) checkReplaceable(vmID string) error {
	existing, ok := m.workflows[vmID]
	if !ok || !existing.Busy() {
		return nil
	}
	msg := fmt.Sprintf("resize of %s is awaiting confirm or revert", vmID)
	if existing.State() == StateIdle {
		msg = fmt.Sprintf("resize of %s is already being submitted", vmID)
	}
	return apierror.WrapError(apierror.ErrOperationInProgress, msg, nil)
}

// Get 返回虚拟机当前的工作流
func (m *Manager) Get(vmID string) (*Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.workflows[vmID]
	if !ok {
		return nil, apierror.WrapError(apierror.ErrNotFound, fmt.Sprintf("no resize in progress for %s", vmID), nil)
	}
	return w, nil
}

func (m *Manager) Confirm(ctx context.Context, vmID string) (*Workflow, dispatcher.Result, error) {
	w, err := m.Get(vmID)
	if err != nil {
		return nil, dispatcher.Result{}, err
	}
	result, err := w.Confirm(ctx)
	return w, result, err
}

func (m *Manager) Revert(ctx context.Context, vmID string) (*Workflow, dispatcher.Result, error) {
	w, err := m.Get(vmID)
	if err != nil {
		return nil, dispatcher.Result{}, err
	}
	result, err := w.Revert(ctx)
	return w, result, err
}
