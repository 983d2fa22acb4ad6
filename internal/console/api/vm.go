package api

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/cloudconsole/internal/console/dispatcher"
	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/jimyag/cloudconsole/internal/console/resize"
	"github.com/jimyag/cloudconsole/internal/console/synchronizer"
	"github.com/jimyag/cloudconsole/pkg/apierror"
	"github.com/jimyag/cloudconsole/pkg/ginx"
	"github.com/rs/zerolog"
)

type VM struct {
	commands      VMCommander
	vms           VMStore
	resizes       ResizeService
	catalog       CatalogService
	notifications NotificationCenter
	closing       <-chan struct{}
}

func NewVM(commands VMCommander, vms VMStore, resizes ResizeService, catalog CatalogService, notifications NotificationCenter, closing <-chan struct{}) *VM {
	return &VM{
		commands:      commands,
		vms:           vms,
		resizes:       resizes,
		catalog:       catalog,
		notifications: notifications,
		closing:       closing,
	}
}

func (v *VM) RegisterRoutes(router *gin.RouterGroup) {
	vmRouter := router.Group("/vms")
	vmRouter.GET("", ginx.Adapt3(v.ListVMs))
	vmRouter.GET("/watch", v.Watch)
	vmRouter.POST("/refresh", ginx.Adapt3(v.RefreshVMs))
	vmRouter.POST("/:id/start", ginx.Adapt5(v.StartVM))
	vmRouter.POST("/:id/stop", ginx.Adapt5(v.StopVM))
	vmRouter.POST("/:id/delete", ginx.Adapt5(v.DeleteVM))
	vmRouter.POST("/:id/snapshots", ginx.Adapt5(v.CreateSnapshot))
	vmRouter.POST("/:id/restore", ginx.Adapt5(v.RestoreSnapshot))
	vmRouter.GET("/:id/resize", ginx.Adapt5(v.DescribeResize))
	vmRouter.POST("/:id/resize", ginx.Adapt5(v.SubmitResize))
	vmRouter.POST("/:id/resize/confirm", ginx.Adapt5(v.ConfirmResize))
	vmRouter.POST("/:id/resize/revert", ginx.Adapt5(v.RevertResize))
}

func (v *VM) ListVMs(ctx *gin.Context) (*ListVMsResponse, error) {
	return &ListVMsResponse{VMs: v.vms.List()}, nil
}

func (v *VM) RefreshVMs(ctx *gin.Context) (*ListVMsResponse, error) {
	if err := v.vms.Refresh(ctx, synchronizer.TriggerManual); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to refresh VM overview")
		return nil, apierror.WrapError(apierror.ErrBackendFailure, err.Error(), err)
	}
	return &ListVMsResponse{VMs: v.vms.List()}, nil
}

// Watch 以 SSE 推送虚拟机列表和操作员提示，连接期间视为一个活动视图
func (v *VM) Watch(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()
	view := v.vms.Watch(reqCtx)

	var notes <-chan entity.Notification
	if v.notifications != nil {
		notes = v.notifications.Subscribe(reqCtx)
	}

	zerolog.Ctx(reqCtx).Info().Msg("VM watch stream opened")
	ctx.Stream(func(w io.Writer) bool {
		select {
		case <-reqCtx.Done():
			return false
		case <-v.closing:
			return false
		case vms, ok := <-view.Updates():
			if !ok {
				return false
			}
			ctx.SSEvent("vms", vms)
			return true
		case note, ok := <-notes:
			if !ok {
				return false
			}
			ctx.SSEvent("notification", note)
			return true
		}
	})
	zerolog.Ctx(reqCtx).Info().Msg("VM watch stream closed")
}

func (v *VM) StartVM(ctx *gin.Context, args *VMArgs) (*CommandResponse, error) {
	return commandResponse(ctx, v.commands.Start(ctx, args.ID))
}

func (v *VM) StopVM(ctx *gin.Context, args *VMArgs) (*CommandResponse, error) {
	return commandResponse(ctx, v.commands.Stop(ctx, args.ID))
}

func (v *VM) DeleteVM(ctx *gin.Context, args *VMArgs) (*CommandResponse, error) {
	return commandResponse(ctx, v.commands.Delete(ctx, args.ID))
}

func (v *VM) CreateSnapshot(ctx *gin.Context, args *CreateSnapshotArgs) (*CommandResponse, error) {
	return commandResponse(ctx, v.commands.CreateSnapshot(ctx, args.ID, args.Name))
}

func (v *VM) RestoreSnapshot(ctx *gin.Context, args *RestoreSnapshotArgs) (*CommandResponse, error) {
	return commandResponse(ctx, v.commands.RestoreSnapshot(ctx, args.ID, args.SnapshotID))
}

func (v *VM) DescribeResize(ctx *gin.Context, args *VMArgs) (*ResizeResponse, error) {
	w, err := v.resizes.Get(args.ID)
	if err != nil {
		return nil, err
	}
	return &ResizeResponse{Resize: w.Status()}, nil
}

// SubmitResize 以虚拟机当前规格为起点提交调整
func (v *VM) SubmitResize(ctx *gin.Context, args *ResizeArgs) (*ResizeResponse, error) {
	logger := zerolog.Ctx(ctx)

	var from string
	found := false
	for _, vm := range v.vms.List() {
		if vm.ID == args.ID {
			from, found = vm.Flavor.ID, true
			break
		}
	}
	if !found {
		return nil, apierror.WrapError(apierror.ErrNotFound, fmt.Sprintf("vm %s not found", args.ID), nil)
	}

	if v.catalog != nil {
		_, ok, err := v.catalog.Flavor(ctx, args.FlavorID)
		switch {
		case err != nil:
			// 目录不可用时交给后端判断
			logger.Warn().Err(err).Msg("Failed to look up flavor catalog")
		case !ok:
			return nil, apierror.WrapError(apierror.ErrValidationFailed, fmt.Sprintf("unknown instance type %s", args.FlavorID), nil)
		}
	}

	w, result, err := v.resizes.Submit(ctx, resize.Draft{VMID: args.ID, FromFlavorID: from, ToFlavorID: args.FlavorID})
	return resizeResponse(w, result, err)
}

func (v *VM) ConfirmResize(ctx *gin.Context, args *VMArgs) (*ResizeResponse, error) {
	w, result, err := v.resizes.Confirm(ctx, args.ID)
	return resizeResponse(w, result, err)
}

func (v *VM) RevertResize(ctx *gin.Context, args *VMArgs) (*ResizeResponse, error) {
	w, result, err := v.resizes.Revert(ctx, args.ID)
	return resizeResponse(w, result, err)
}

// commandResponse 把命令结果映射为 HTTP 响应
func commandResponse(ctx *gin.Context, result dispatcher.Result) (*CommandResponse, error) {
	if apiErr := result.APIError(); apiErr != nil {
		zerolog.Ctx(ctx).Warn().
			Str("operation", string(result.Operation)).
			Str("vm_id", result.ResourceID).
			Str("outcome", string(result.Outcome)).
			Msg(result.Message)
		return nil, apiErr
	}
	return &CommandResponse{Result: result}, nil
}

func resizeResponse(w *resize.Workflow, result dispatcher.Result, err error) (*ResizeResponse, error) {
	if err != nil {
		return nil, err
	}
	if apiErr := result.APIError(); apiErr != nil {
		return nil, apiErr
	}
	return &ResizeResponse{Resize: w.Status(), Result: &result}, nil
}
