// Package wizard 实现虚拟机创建向导
//
// 向导按 Details → Source → InstanceType → Network → Configuration 线性推进，
// 每次前进只校验当前阶段负责的字段，后退从不清除数据。提交只允许在 Configuration
// 阶段进行，并且只向后端发出一次创建请求。
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jimyag/cloudconsole/internal/console/dispatcher"
	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/rs/zerolog"
)

// ErrClosed 向导已经提交成功或被关闭
var ErrClosed = errors.New("wizard is closed")

// Creator 发出创建请求，由 dispatcher.Dispatcher 实现
type Creator interface {
	Create(ctx context.Context, req *entity.CreateVMRequest) dispatcher.Result
}

// SystemLister 按租户列出目标系统
type SystemLister interface {
	ListSystems(ctx context.Context, tenantID string) ([]entity.System, error)
}

// State 向导的只读快照
type State struct {
	ID        string          `json:"id"`
	Admin     bool            `json:"admin"`
	Stage     Stage           `json:"stage"`
	Draft     Draft           `json:"draft"`
	Systems   []entity.System `json:"systems,omitempty"`
	LastError string          `json:"last_error,omitempty"`
}

// Wizard 一次创建会话
type Wizard struct {
	mu sync.Mutex

	id    string
	admin bool
	stage Stage
	draft Draft

	systems       []entity.System
	systemsLoaded bool
	// tenantGen 每次切换租户递增，丢弃旧租户的系统列表响应
	tenantGen uint64

	submitting bool
	lastError  string

	creator Creator
	lister  SystemLister
}

// New 创建向导
func New(id string, admin bool, creator Creator, lister SystemLister) *Wizard {
	return &Wizard{
		id:      id,
		admin:   admin,
		stage:   StageDetails,
		draft:   Draft{DataCenterType: entity.DataCenterTypeProduction},
		creator: creator,
		lister:  lister,
	}
}

func (w *Wizard) ID() string {
	return w.id
}

func (w *Wizard) Stage() Stage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stage
}

// State 返回当前快照
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	systems := make([]entity.System, len(w.systems))
	copy(systems, w.systems)
	return State{
		ID:        w.id,
		Admin:     w.admin,
		Stage:     w.stage,
		Draft:     w.draft,
		Systems:   systems,
		LastError: w.lastError,
	}
}

// Update 修改草稿字段，任何阶段都可以修改（提交之后除外）
func (w *Wizard) Update(p Patch) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stage == StageSubmitted {
		return ErrClosed
	}
	if p.SystemID != nil {
		if err := w.checkSystemLocked(*p.SystemID); err != nil {
			return err
		}
		w.draft.SystemID = *p.SystemID
	}
	if p.SourceKind != nil {
		if *p.SourceKind != "" && !p.SourceKind.Valid() {
			return invalid(StageSource, "source.kind", fmt.Sprintf("unknown boot source type %q", *p.SourceKind))
		}
		// 切换启动源类型时旧的选择不再有效
		if *p.SourceKind != w.draft.Source.Kind {
			w.draft.Source.ID = ""
		}
		w.draft.Source.Kind = *p.SourceKind
	}

	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&w.draft.Name, p.Name)
	assign(&w.draft.Description, p.Description)
	assign(&w.draft.Source.ID, p.SourceID)
	assign(&w.draft.FlavorID, p.FlavorID)
	assign(&w.draft.NetworkID, p.NetworkID)
	assign(&w.draft.AvailabilityZone, p.AvailabilityZone)
	assign(&w.draft.DataCenterType, p.DataCenterType)
	return nil
}

// SelectSystem 选择目标系统
func (w *Wizard) SelectSystem(systemID string) error {
	return w.Update(Patch{SystemID: &systemID})
}

// checkSystemLocked 系统列表已加载时，目标系统必须在列表中
func (w *Wizard) checkSystemLocked(systemID string) error {
	if systemID == "" || !w.systemsLoaded {
		return nil
	}
	for _, s := range w.systems {
		if s.ID == systemID {
			return nil
		}
	}
	return invalid(StageDetails, "system_id", fmt.Sprintf("system %s does not belong to the selected tenant", systemID))
}

// SelectTenant 管理员模式下切换租户
// 已选的目标系统被清除，系统列表按新租户重新获取
func (w *Wizard) SelectTenant(ctx context.Context, tenantID string) error {
	w.mu.Lock()
	if w.stage == StageSubmitted {
		w.mu.Unlock()
		return ErrClosed
	}
	if !w.admin {
		w.mu.Unlock()
		return invalid(StageDetails, "tenant_id", "tenant selection is only available to administrators")
	}
	w.draft.TenantID = tenantID
	w.draft.SystemID = ""
	w.systems = nil
	w.systemsLoaded = false
	w.tenantGen++
	gen := w.tenantGen
	w.mu.Unlock()

	if tenantID == "" || w.lister == nil {
		return nil
	}

	systems, err := w.lister.ListSystems(ctx, tenantID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("wizard_id", w.id).Str("tenant_id", tenantID).Msg("Failed to list systems")
		return fmt.Errorf("list systems for tenant %s: %w", tenantID, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.tenantGen {
		// 期间又切换了租户
		return nil
	}
	w.systems = systems
	w.systemsLoaded = true
	return nil
}

// Systems 返回当前租户的系统列表
func (w *Wizard) Systems() []entity.System {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]entity.System, len(w.systems))
	copy(out, w.systems)
	return out
}

// Advance 校验当前阶段并前进一步，失败时阶段和数据都不变
func (w *Wizard) Advance() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.stage {
	case StageSubmitted:
		return ErrClosed
	case StageConfiguration:
		return invalid(StageConfiguration, "", "configuration is the last stage, submit the wizard instead")
	}
	if err := w.draft.validateStage(w.stage, w.admin); err != nil {
		return err
	}
	w.stage++
	return nil
}

// Retreat 后退一步，在第一个阶段时不做任何事
func (w *Wizard) Retreat() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stage == StageSubmitted {
		return ErrClosed
	}
	if w.stage > StageDetails {
		w.stage--
	}
	return nil
}

// Submit 重新校验整个草稿并发出一次创建请求
// 校验失败返回 *ValidationError 且不发送请求；后端失败时停留在 Configuration，草稿保持不变
func (w *Wizard) Submit(ctx context.Context) (dispatcher.Result, error) {
	w.mu.Lock()
	switch {
	case w.stage == StageSubmitted:
		w.mu.Unlock()
		return dispatcher.Result{}, ErrClosed
	case w.stage != StageConfiguration:
		stage := w.stage
		w.mu.Unlock()
		return dispatcher.Result{}, invalid(stage, "", "the wizard can only be submitted from the configuration stage")
	case w.submitting:
		w.mu.Unlock()
		return dispatcher.Result{}, invalid(StageConfiguration, "", "submission already in progress")
	}
	if err := w.draft.validateAll(w.admin); err != nil {
		w.mu.Unlock()
		return dispatcher.Result{}, err
	}
	req := w.draft.request()
	w.submitting = true
	w.mu.Unlock()

	result := w.creator.Create(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if result.OK() {
		w.stage = StageSubmitted
		w.lastError = ""
	} else {
		w.lastError = result.Message
	}
	return result, nil
}
