// Package resize 实现与后端两阶段调整规格一致的工作流
//
// 提交后后端进入 verify_resize，操作员随后确认或回滚。工作流自身不轮询后端，
// 真实状态由状态同步器的下一次快照反映。
package resize

import (
	"context"
	"fmt"
	"sync"

	"github.com/jimyag/cloudconsole/internal/console/dispatcher"
	"github.com/jimyag/cloudconsole/pkg/apierror"
)

// State 工作流状态
type State string

const (
	StateIdle State = "idle"
	// StateSubmitted 后端处于 verify_resize，等待确认或回滚
	StateSubmitted State = "submitted"
	StateConfirmed State = "confirmed"
	StateReverted  State = "reverted"
)

// Terminal 是否为终态
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateReverted
}

// Dispatcher 调整规格相关的命令，由 dispatcher.Dispatcher 实现
type Dispatcher interface {
	SubmitResize(ctx context.Context, vmID, flavorID string) dispatcher.Result
	ConfirmResize(ctx context.Context, vmID string) dispatcher.Result
	RevertResize(ctx context.Context, vmID string) dispatcher.Result
}

// Draft 调整规格草稿
type Draft struct {
	VMID         string `json:"vm_id"`
	FromFlavorID string `json:"from_flavor_id"`
	ToFlavorID   string `json:"to_flavor_id"`
}

// Validate 目标规格必须与当前规格不同
func (d Draft) Validate() error {
	switch {
	case d.VMID == "":
		return apierror.WrapError(apierror.ErrValidationFailed, "vm id is required", nil)
	case d.ToFlavorID == "":
		return apierror.WrapError(apierror.ErrValidationFailed, "destination instance type is required", nil)
	case d.FromFlavorID == "":
		return apierror.WrapError(apierror.ErrValidationFailed, "current instance type is unknown", nil)
	case d.ToFlavorID == d.FromFlavorID:
		return apierror.WrapError(apierror.ErrValidationFailed,
			fmt.Sprintf("destination instance type %s is the current instance type", d.ToFlavorID), nil)
	}
	return nil
}

// Status 工作流的只读快照
type Status struct {
	Draft     Draft  `json:"draft"`
	State     State  `json:"state"`
	InFlight  bool   `json:"in_flight,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// Workflow 一台虚拟机的一次调整规格
type Workflow struct {
	mu         sync.Mutex
	draft      Draft
	state      State
	lastError  string
	inFlight   bool
	dispatcher Dispatcher
}

// NewWorkflow 创建工作流，初始状态为 Idle
func NewWorkflow(draft Draft, d Dispatcher) *Workflow {
	return &Workflow{
		draft:      draft,
		state:      StateIdle,
		dispatcher: d,
	}
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{Draft: w.draft, State: w.state, InFlight: w.inFlight, LastError: w.lastError}
}

// Busy 请求在途或等待确认
func (w *Workflow) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight || w.state == StateSubmitted
}

// Submit 提交调整规格
// 校验失败时不发出任何请求；被拒绝或失败时保持 Idle
func (w *Workflow) Submit(ctx context.Context) (dispatcher.Result, error) {
	draft, err := w.reserve()
	if err != nil {
		return dispatcher.Result{}, err
	}
	return w.dispatch(ctx, draft), nil
}

// reserve 校验并标记提交在途，之后的 Submit 和 Manager.Begin 都会被拒绝
func (w *Workflow) reserve() (Draft, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inFlight {
		return Draft{}, apierror.WrapError(apierror.ErrOperationInProgress,
			fmt.Sprintf("resize of %s is already being submitted", w.draft.VMID), nil)
	}
	if w.state != StateIdle {
		return Draft{}, apierror.WrapError(apierror.ErrValidationFailed,
			fmt.Sprintf("resize of %s cannot be submitted in state %s", w.draft.VMID, w.state), nil)
	}
	if err := w.draft.Validate(); err != nil {
		return Draft{}, err
	}
	w.inFlight = true
	return w.draft, nil
}

func (w *Workflow) dispatch(ctx context.Context, draft Draft) dispatcher.Result {
	result := w.dispatcher.SubmitResize(ctx, draft.VMID, draft.ToFlavorID)
	w.settle(StateIdle, StateSubmitted, result)
	return result
}

// Confirm 确认新的规格
func (w *Workflow) Confirm(ctx context.Context) (dispatcher.Result, error) {
	return w.finish(ctx, StateConfirmed, w.dispatcher.ConfirmResize)
}

// Revert 回滚到原规格
func (w *Workflow) Revert(ctx context.Context) (dispatcher.Result, error) {
	return w.finish(ctx, StateReverted, w.dispatcher.RevertResize)
}

// finish 从 Submitted 发出确认或回滚，只有成功才进入终态
func (w *Workflow) finish(ctx context.Context, target State, call func(ctx context.Context, vmID string) dispatcher.Result) (dispatcher.Result, error) {
	w.mu.Lock()
	if w.inFlight {
		w.mu.Unlock()
		return dispatcher.Result{}, apierror.WrapError(apierror.ErrOperationInProgress,
			fmt.Sprintf("resize of %s already has a request in flight", w.draft.VMID), nil)
	}
	if w.state != StateSubmitted {
		state := w.state
		w.mu.Unlock()
		return dispatcher.Result{}, apierror.WrapError(apierror.ErrValidationFailed,
			fmt.Sprintf("resize of %s is %s, nothing to %s", w.draft.VMID, state, verb(target)), nil)
	}
	w.inFlight = true
	vmID := w.draft.VMID
	w.mu.Unlock()

	result := call(ctx, vmID)
	w.settle(StateSubmitted, target, result)
	return result, nil
}

// settle 根据结果迁移状态，期间状态已被其他调用改变时不覆盖
func (w *Workflow) settle(from, to State, result dispatcher.Result) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.inFlight = false
	if !result.OK() {
		w.lastError = result.Message
		return
	}
	if w.state == from {
		w.state = to
		w.lastError = ""
	}
}

func verb(target State) string {
	if target == StateConfirmed {
		return "confirm"
	}
	return "revert"
}
