package wizard

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jimyag/cloudconsole/internal/console/cache"
	"github.com/jimyag/cloudconsole/internal/console/dispatcher"
	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/jimyag/cloudconsole/pkg/apierror"
	"github.com/jimyag/cloudconsole/pkg/idgen"
	"github.com/rs/zerolog"
)

// Catalog 启动源列表的来源，由 cache.Catalog 实现
type Catalog interface {
	Get(ctx context.Context, kind string, force bool) (any, error)
}

// sourceKinds 启动源类型对应的目录
var sourceKinds = map[entity.SourceType]string{
	entity.SourceImage:            cache.KindImages,
	entity.SourceInstanceSnapshot: cache.KindInstanceSnapshots,
	entity.SourceVolume:           cache.KindVolumes,
	entity.SourceVolumeSnapshot:   cache.KindVolumeSnapshots,
}

// Manager 管理所有打开的向导
type Manager struct {
	mu      sync.Mutex
	wizards map[string]*Wizard

	creator Creator
	lister  SystemLister
	catalog Catalog
	idGen   *idgen.Generator
}

// NewManager 创建向导管理器
func NewManager(creator Creator, lister SystemLister, catalog Catalog) *Manager {
	return &Manager{
		wizards: make(map[string]*Wizard),
		creator: creator,
		lister:  lister,
		catalog: catalog,
		idGen:   idgen.DefaultGenerator(),
	}
}

// Open 打开一个新的向导
func (m *Manager) Open(admin bool) (*Wizard, error) {
	id, err := m.idGen.WizardID()
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "failed to generate wizard id", err)
	}
	w := New(id, admin, m.creator, m.lister)

	m.mu.Lock()
	m.wizards[id] = w
	m.mu.Unlock()
	return w, nil
}

// Get 按 ID 获取向导
func (m *Manager) Get(id string) (*Wizard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wizards[id]
	if !ok {
		return nil, apierror.WrapError(apierror.ErrNotFound, fmt.Sprintf("wizard %s not found", id), nil)
	}
	return w, nil
}

// Close 关闭向导，返回是否存在
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.wizards[id]
	delete(m.wizards, id)
	return ok
}

// List 返回所有打开的向导，按 ID 排序
func (m *Manager) List() []State {
	m.mu.Lock()
	wizards := make([]*Wizard, 0, len(m.wizards))
	for _, w := range m.wizards {
		wizards = append(wizards, w)
	}
	m.mu.Unlock()

	out := make([]State, 0, len(wizards))
	for _, w := range wizards {
		out = append(out, w.State())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Submit 提交向导，成功后向导被关闭
func (m *Manager) Submit(ctx context.Context, id string) (dispatcher.Result, error) {
	w, err := m.Get(id)
	if err != nil {
		return dispatcher.Result{}, err
	}

	result, err := w.Submit(ctx)
	if err != nil {
		return result, err
	}
	if result.OK() {
		m.Close(id)
		zerolog.Ctx(ctx).Info().Str("wizard_id", id).Str("vm_id", result.ResourceID).Msg("Wizard submitted and closed")
	}
	return result, nil
}

// Sources 列出某种启动源的可选项
func (m *Manager) Sources(ctx context.Context, kind entity.SourceType, force bool) (any, error) {
	catalogKind, ok := sourceKinds[kind]
	if !ok {
		return nil, apierror.WrapError(apierror.ErrInvalidParameter, fmt.Sprintf("unknown boot source type %q", kind), nil)
	}
	return m.catalog.Get(ctx, catalogKind, force)
}
