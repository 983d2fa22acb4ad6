// Package api 提供控制台的 HTTP 接口
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/cloudconsole/internal/console/dispatcher"
	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/jimyag/cloudconsole/internal/console/repository"
	"github.com/jimyag/cloudconsole/internal/console/resize"
	"github.com/jimyag/cloudconsole/internal/console/synchronizer"
	"github.com/jimyag/cloudconsole/internal/console/wizard"
	"github.com/jimyag/cloudconsole/pkg/ginx"
)

// VMCommander 虚拟机命令，由 dispatcher.Dispatcher 实现
type VMCommander interface {
	Start(ctx context.Context, vmID string) dispatcher.Result
	Stop(ctx context.Context, vmID string) dispatcher.Result
	Delete(ctx context.Context, vmID string) dispatcher.Result
	CreateSnapshot(ctx context.Context, vmID, name string) dispatcher.Result
	RestoreSnapshot(ctx context.Context, vmID, snapshotID string) dispatcher.Result
}

// VMStore 虚拟机投影，由 synchronizer.Synchronizer 实现
type VMStore interface {
	List() []entity.VirtualMachine
	Watch(ctx context.Context) *synchronizer.View
	Refresh(ctx context.Context, trigger string) error
}

// ResizeService 调整规格工作流，由 resize.Manager 实现
type ResizeService interface {
	Submit(ctx context.Context, draft resize.Draft) (*resize.Workflow, dispatcher.Result, error)
	Confirm(ctx context.Context, vmID string) (*resize.Workflow, dispatcher.Result, error)
	Revert(ctx context.Context, vmID string) (*resize.Workflow, dispatcher.Result, error)
	Get(vmID string) (*resize.Workflow, error)
}

// CatalogService 目录缓存，由 cache.Catalog 实现
type CatalogService interface {
	Get(ctx context.Context, kind string, force bool) (any, error)
	Flavor(ctx context.Context, id string) (entity.Flavor, bool, error)
}

// NotificationCenter 操作员提示，由 notify.Notifier 实现
type NotificationCenter interface {
	List() []entity.Notification
	Dismiss(id string) bool
	Subscribe(ctx context.Context) <-chan entity.Notification
}

// LockLister 操作锁诊断，由 lock.Registry 实现
type LockLister interface {
	Held() []string
}

// Deps API 依赖的组件
type Deps struct {
	Commands      VMCommander
	VMs           VMStore
	Resizes       ResizeService
	Wizards       *wizard.Manager
	Catalog       CatalogService
	Notifications NotificationCenter
	Operations    repository.OperationRepository
	Locks         LockLister
	Metrics       http.Handler
}

type API struct {
	engine *gin.Engine
	server *http.Server

	// closing 在 Shutdown 时关闭，结束所有 SSE 流
	closing   chan struct{}
	closeOnce sync.Once

	vm           *VM
	wizard       *Wizard
	catalog      *Catalog
	notification *Notification
}

func New(address string, deps Deps) (*API, error) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	// 让 zerolog.Ctx(ginCtx) 能取到请求上下文中的 logger
	engine.ContextWithFallback = true
	engine.Use(gin.Recovery(), ginx.RequestID(), ginx.AccessLog())

	api := &API{
		engine:  engine,
		closing: make(chan struct{}),
	}
	api.vm = NewVM(deps.Commands, deps.VMs, deps.Resizes, deps.Catalog, deps.Notifications, api.closing)
	api.wizard = NewWizard(deps.Wizards)
	api.catalog = NewCatalog(deps.Catalog)
	api.notification = NewNotification(deps.Notifications, deps.Operations, deps.Locks)

	apiGroup := engine.Group("/api")
	api.vm.RegisterRoutes(apiGroup)
	api.wizard.RegisterRoutes(apiGroup)
	api.catalog.RegisterRoutes(apiGroup)
	api.notification.RegisterRoutes(apiGroup)
	if deps.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	api.server = &http.Server{
		Addr:    address,
		Handler: engine,
	}
	api.server.RegisterOnShutdown(api.close)
	return api, nil
}

// Handler 返回 HTTP handler，供测试使用
func (a *API) Handler() http.Handler {
	return a.engine
}

func (a *API) Run(ctx context.Context) error {
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *API) Shutdown(ctx context.Context) error {
	a.close()
	return a.server.Shutdown(ctx)
}

// Name 实现 grace.Grace 接口
func (a *API) Name() string {
	return "Console API"
}

func (a *API) close() {
	a.closeOnce.Do(func() { close(a.closing) })
}
