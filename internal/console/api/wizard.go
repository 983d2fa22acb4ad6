package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jimyag/cloudconsole/internal/console/wizard"
	"github.com/jimyag/cloudconsole/pkg/apierror"
	"github.com/jimyag/cloudconsole/pkg/ginx"
	"github.com/rs/zerolog"
)

type Wizard struct {
	manager *wizard.Manager
}

func NewWizard(manager *wizard.Manager) *Wizard {
	return &Wizard{manager: manager}
}

func (w *Wizard) RegisterRoutes(router *gin.RouterGroup) {
	wizardRouter := router.Group("/wizards")
	wizardRouter.POST("", ginx.Adapt5(w.OpenWizard))
	wizardRouter.GET("", ginx.Adapt3(w.ListWizards))
	wizardRouter.GET("/:id", ginx.Adapt5(w.DescribeWizard))
	wizardRouter.PATCH("/:id", ginx.Adapt5(w.UpdateWizard))
	wizardRouter.DELETE("/:id", ginx.Adapt5(w.CloseWizard))
	wizardRouter.POST("/:id/tenant", ginx.Adapt5(w.SelectTenant))
	wizardRouter.POST("/:id/advance", ginx.Adapt5(w.Advance))
	wizardRouter.POST("/:id/retreat", ginx.Adapt5(w.Retreat))
	wizardRouter.POST("/:id/submit", ginx.Adapt5(w.Submit))
	wizardRouter.GET("/:id/sources", ginx.Adapt5(w.ListSources))
}

func (w *Wizard) OpenWizard(ctx *gin.Context, args *OpenWizardArgs) (*wizard.State, error) {
	wz, err := w.manager.Open(args.Admin)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("wizard_id", wz.ID()).Bool("admin", args.Admin).Msg("Wizard opened")
	state := wz.State()
	return &state, nil
}

func (w *Wizard) ListWizards(ctx *gin.Context) (*ListWizardsResponse, error) {
	return &ListWizardsResponse{Wizards: w.manager.List()}, nil
}

func (w *Wizard) DescribeWizard(ctx *gin.Context, args *WizardArgs) (*wizard.State, error) {
	wz, err := w.manager.Get(args.ID)
	if err != nil {
		return nil, err
	}
	state := wz.State()
	return &state, nil
}

func (w *Wizard) UpdateWizard(ctx *gin.Context, args *UpdateWizardArgs) (*wizard.State, error) {
	return w.apply(args.ID, func(wz *wizard.Wizard) error {
		return wz.Update(args.Patch)
	})
}

func (w *Wizard) CloseWizard(ctx *gin.Context, args *WizardArgs) (any, error) {
	if !w.manager.Close(args.ID) {
		return nil, apierror.WrapError(apierror.ErrNotFound, "wizard "+args.ID+" not found", nil)
	}
	return nil, nil
}

func (w *Wizard) SelectTenant(ctx *gin.Context, args *SelectTenantArgs) (*wizard.State, error) {
	return w.apply(args.ID, func(wz *wizard.Wizard) error {
		err := wz.SelectTenant(ctx, args.TenantID)
		var ve *wizard.ValidationError
		if err != nil && !errors.As(err, &ve) && !errors.Is(err, wizard.ErrClosed) {
			return apierror.WrapError(apierror.ErrBackendFailure, err.Error(), err)
		}
		return err
	})
}

func (w *Wizard) Advance(ctx *gin.Context, args *WizardArgs) (*wizard.State, error) {
	return w.apply(args.ID, func(wz *wizard.Wizard) error {
		return wz.Advance()
	})
}

func (w *Wizard) Retreat(ctx *gin.Context, args *WizardArgs) (*wizard.State, error) {
	return w.apply(args.ID, func(wz *wizard.Wizard) error {
		return wz.Retreat()
	})
}

// Submit 提交向导；后端拒绝时返回对应的错误，向导保留在 Configuration
func (w *Wizard) Submit(ctx *gin.Context, args *WizardArgs) (*SubmitWizardResponse, error) {
	wz, err := w.manager.Get(args.ID)
	if err != nil {
		return nil, err
	}
	result, err := w.manager.Submit(ctx, args.ID)
	if err != nil {
		return nil, wizardError(err)
	}
	if apiErr := result.APIError(); apiErr != nil {
		return nil, apiErr
	}
	return &SubmitWizardResponse{Wizard: wz.State(), Result: result}, nil
}

func (w *Wizard) ListSources(ctx *gin.Context, args *WizardSourcesArgs) (*CatalogResponse, error) {
	if _, err := w.manager.Get(args.ID); err != nil {
		return nil, err
	}
	items, err := w.manager.Sources(ctx, args.Kind, args.Force)
	if err != nil {
		return nil, catalogError(err)
	}
	return &CatalogResponse{Kind: string(args.Kind), Items: items}, nil
}

// apply 对向导执行一次修改并返回最新状态
func (w *Wizard) apply(id string, fn func(wz *wizard.Wizard) error) (*wizard.State, error) {
	wz, err := w.manager.Get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(wz); err != nil {
		return nil, wizardError(err)
	}
	state := wz.State()
	return &state, nil
}

// wizardError 把向导的错误转换为 API 错误
func wizardError(err error) error {
	var ve *wizard.ValidationError
	switch {
	case errors.As(err, &ve):
		return apierror.WrapError(apierror.ErrValidationFailed, ve.Error(), ve)
	case errors.Is(err, wizard.ErrClosed):
		return apierror.WrapError(apierror.ErrValidationFailed, err.Error(), err)
	}
	return err
}
