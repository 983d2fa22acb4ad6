// Package dispatcher 负责把虚拟机命令发送到后端
//
// 每个针对已有虚拟机的命令都先通过操作锁，保证同一台虚拟机同一时间最多只有一个
// 由本控制台发出的命令。后端的响应被归为四种结果：成功、本地拒绝、后端冲突和失败，
// 无论哪种结果锁都会被释放。
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/jimyag/cloudconsole/internal/console/backend"
	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/jimyag/cloudconsole/internal/console/events"
	"github.com/jimyag/cloudconsole/internal/console/lock"
	"github.com/jimyag/cloudconsole/internal/console/metrics"
	"github.com/jimyag/cloudconsole/internal/console/repository"
	"github.com/jimyag/cloudconsole/pkg/idgen"
	"github.com/rs/zerolog"
)

// Operation 命令类型
type Operation string

const (
	OpCreate          Operation = "create"
	OpStart           Operation = "start"
	OpStop            Operation = "stop"
	OpDelete          Operation = "delete"
	OpResize          Operation = "resize"
	OpConfirmResize   Operation = "confirm_resize"
	OpRevertResize    Operation = "revert_resize"
	OpCreateSnapshot  Operation = "create_snapshot"
	OpRestoreSnapshot Operation = "restore_snapshot"
)

// placeholders 命令被接受后在本地投影上显示的乐观状态
var placeholders = map[Operation]entity.VMStatus{
	OpStart:         entity.VMStatusRunning,
	OpStop:          entity.VMStatusStopped,
	OpDelete:        entity.VMStatusDeleting,
	OpResize:        entity.VMStatusVerifyResize,
	OpConfirmResize: entity.VMStatusRunning,
	OpRevertResize:  entity.VMStatusRunning,
}

// Backend 后端命令接口，由 backend.Client 实现
type Backend interface {
	CreateVM(ctx context.Context, req *entity.CreateVMRequest) (*entity.CreateVMResponse, error)
	ControlResource(ctx context.Context, vmID string, action entity.ControlAction) error
	DeleteVM(ctx context.Context, vmID string) error
	Resize(ctx context.Context, vmID, flavorID string) error
	ConfirmResize(ctx context.Context, vmID string) error
	RevertResize(ctx context.Context, vmID string) error
	CreateSnapshot(ctx context.Context, vmID, name string) error
	RestoreSnapshot(ctx context.Context, vmID, snapshotID string) error
}

// Notifier 操作员提示
type Notifier interface {
	Success(format string, args ...any) entity.Notification
	Warning(format string, args ...any) entity.Notification
	Error(format string, args ...any) entity.Notification
}

// Projection 本地虚拟机投影，由状态同步器实现
type Projection interface {
	MarkOptimistic(vmID string, status entity.VMStatus)
	RequestRefresh()
}

// Options 构造 Dispatcher 的依赖，除 Locks、Backend、Notifier 外都可以为空
type Options struct {
	Locks      *lock.Registry
	Backend    Backend
	Notifier   Notifier
	Projection Projection
	Operations repository.OperationRepository
	Metrics    *metrics.Metrics
	Publisher  events.Publisher
}

// Dispatcher 虚拟机命令分发器
type Dispatcher struct {
	locks      *lock.Registry
	backend    Backend
	notifier   Notifier
	projection Projection
	operations repository.OperationRepository
	metrics    *metrics.Metrics
	publisher  events.Publisher
	idGen      *idgen.Generator
	now        func() time.Time
}

// New 创建 Dispatcher
func New(opts Options) *Dispatcher {
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Dispatcher{
		locks:      opts.Locks,
		backend:    opts.Backend,
		notifier:   opts.Notifier,
		projection: opts.Projection,
		operations: opts.Operations,
		metrics:    opts.Metrics,
		publisher:  publisher,
		idGen:      idgen.DefaultGenerator(),
		now:        time.Now,
	}
}

// SetProjection 设置本地投影
// 状态同步器依赖 Dispatcher 之外的组件，组装时可能晚于 Dispatcher 创建
func (d *Dispatcher) SetProjection(p Projection) {
	d.projection = p
}

// Locks 返回操作锁
func (d *Dispatcher) Locks() *lock.Registry {
	return d.locks
}

func (d *Dispatcher) Start(ctx context.Context, vmID string) Result {
	return d.guarded(ctx, OpStart, vmID, func(ctx context.Context) error {
		return d.backend.ControlResource(ctx, vmID, entity.ActionStart)
	})
}

func (d *Dispatcher) Stop(ctx context.Context, vmID string) Result {
	return d.guarded(ctx, OpStop, vmID, func(ctx context.Context) error {
		return d.backend.ControlResource(ctx, vmID, entity.ActionStop)
	})
}

func (d *Dispatcher) Delete(ctx context.Context, vmID string) Result {
	return d.guarded(ctx, OpDelete, vmID, func(ctx context.Context) error {
		return d.backend.DeleteVM(ctx, vmID)
	})
}

// SubmitResize 提交调整规格，后端进入 verify_resize 等待确认或回滚
func (d *Dispatcher) SubmitResize(ctx context.Context, vmID, flavorID string) Result {
	return d.guarded(ctx, OpResize, vmID, func(ctx context.Context) error {
		return d.backend.Resize(ctx, vmID, flavorID)
	})
}

func (d *Dispatcher) ConfirmResize(ctx context.Context, vmID string) Result {
	return d.guarded(ctx, OpConfirmResize, vmID, func(ctx context.Context) error {
		return d.backend.ConfirmResize(ctx, vmID)
	})
}

func (d *Dispatcher) RevertResize(ctx context.Context, vmID string) Result {
	return d.guarded(ctx, OpRevertResize, vmID, func(ctx context.Context) error {
		return d.backend.RevertResize(ctx, vmID)
	})
}

func (d *Dispatcher) CreateSnapshot(ctx context.Context, vmID, name string) Result {
	return d.guarded(ctx, OpCreateSnapshot, vmID, func(ctx context.Context) error {
		return d.backend.CreateSnapshot(ctx, vmID, name)
	})
}

func (d *Dispatcher) RestoreSnapshot(ctx context.Context, vmID, snapshotID string) Result {
	return d.guarded(ctx, OpRestoreSnapshot, vmID, func(ctx context.Context) error {
		return d.backend.RestoreSnapshot(ctx, vmID, snapshotID)
	})
}

// Create 创建虚拟机
// 新虚拟机还没有 ID，因此不经过操作锁
func (d *Dispatcher) Create(ctx context.Context, req *entity.CreateVMRequest) Result {
	startedAt := d.now()
	resourceID := req.Name

	resp, err := d.backend.CreateVM(ctx, req)
	if err == nil && resp != nil && resp.ID != "" {
		resourceID = resp.ID
	}

	result := d.classify(OpCreate, resourceID, err)
	if result.OK() {
		result.Message = fmt.Sprintf("VM %s creation accepted", req.Name)
	}
	d.finish(ctx, result, startedAt)
	return result
}

// guarded 在操作锁保护下执行一次后端调用
func (d *Dispatcher) guarded(ctx context.Context, op Operation, vmID string, call func(ctx context.Context) error) Result {
	startedAt := d.now()

	var callErr error
	acquired, _ := d.locks.Guard(vmID, func() error {
		callErr = call(ctx)
		return callErr
	})
	if !acquired {
		d.metrics.LockRejected(string(op))
		result := Result{
			Outcome:    OutcomeBusy,
			Operation:  op,
			ResourceID: vmID,
			Message:    fmt.Sprintf("%s %s: operation already in progress", op, vmID),
		}
		d.finish(ctx, result, startedAt)
		return result
	}

	result := d.classify(op, vmID, callErr)
	d.finish(ctx, result, startedAt)
	return result
}

// classify 把后端调用的错误归类为结果
func (d *Dispatcher) classify(op Operation, vmID string, err error) Result {
	result := Result{Operation: op, ResourceID: vmID, Err: err}
	if err == nil {
		result.Outcome = OutcomeOK
		result.Message = fmt.Sprintf("%s %s accepted", op, vmID)
		return result
	}

	detail := err.Error()
	if httpErr, ok := backend.AsHTTPError(err); ok {
		if httpErr.Detail != "" {
			detail = httpErr.Detail
		}
		if httpErr.IsConflict() {
			result.Outcome = OutcomeConflict
			// 冲突信息原样展示
			result.Message = detail
			if result.Message == "" {
				result.Message = fmt.Sprintf("%s is busy with another operation", vmID)
			}
			return result
		}
	}

	result.Outcome = OutcomeFailed
	result.Message = fmt.Sprintf("Failed to %s %s: %s", op, vmID, detail)
	return result
}

// finish 在锁释放后处理结果：提示、乐观更新、刷新、审计和指标
func (d *Dispatcher) finish(ctx context.Context, result Result, startedAt time.Time) {
	logger := zerolog.Ctx(ctx).With().
		Str("operation", string(result.Operation)).
		Str("vm_id", result.ResourceID).
		Str("outcome", string(result.Outcome)).
		Logger()

	switch result.Outcome {
	case OutcomeOK:
		logger.Info().Msg(result.Message)
		d.notifier.Success("%s", result.Message)
		if d.projection != nil {
			if status, ok := placeholders[result.Operation]; ok {
				d.projection.MarkOptimistic(result.ResourceID, status)
			}
			d.projection.RequestRefresh()
		}
	case OutcomeBusy, OutcomeConflict:
		logger.Warn().Err(result.Err).Msg(result.Message)
		d.notifier.Warning("%s", result.Message)
	default:
		logger.Error().Err(result.Err).Msg(result.Message)
		d.notifier.Error("%s", result.Message)
	}

	finishedAt := d.now()
	d.metrics.ObserveCommand(string(result.Operation), string(result.Outcome), finishedAt.Sub(startedAt).Seconds())

	op := &entity.Operation{
		ResourceID: result.ResourceID,
		Kind:       string(result.Operation),
		Outcome:    string(result.Outcome),
		Message:    result.Message,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	id, err := d.idGen.OperationID()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to generate operation id")
		id = fmt.Sprintf("%s-%d", idgen.PrefixOperation, startedAt.UnixNano())
	}
	op.ID = id

	// 审计和事件都是尽力而为，失败不影响命令结果
	if d.operations != nil {
		if err := d.operations.Record(context.WithoutCancel(ctx), op); err != nil {
			logger.Warn().Err(err).Str("operation_id", op.ID).Msg("Failed to record operation")
		}
	}
	if err := d.publisher.PublishOperation(ctx, op); err != nil {
		logger.Warn().Err(err).Str("operation_id", op.ID).Msg("Failed to publish operation")
	}
}
