package api

import (
	"github.com/jimyag/cloudconsole/internal/console/dispatcher"
	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/jimyag/cloudconsole/internal/console/resize"
	"github.com/jimyag/cloudconsole/internal/console/wizard"
	"github.com/jimyag/cloudconsole/pkg/apierror"
)

type VMArgs struct {
	ID string `uri:"id"`
}

func (a *VMArgs) IsValid() error {
	if a.ID == "" {
		return apierror.WrapError(apierror.ErrInvalidParameter, "vm id is required", nil)
	}
	return nil
}

type CreateSnapshotArgs struct {
	ID   string `uri:"id" json:"-"`
	Name string `json:"name"`
}

func (a *CreateSnapshotArgs) IsValid() error {
	if a.Name == "" {
		return apierror.WrapError(apierror.ErrValidationFailed, "snapshot name is required", nil)
	}
	return nil
}

type RestoreSnapshotArgs struct {
	ID         string `uri:"id" json:"-"`
	SnapshotID string `json:"snapshot_id"`
}

func (a *RestoreSnapshotArgs) IsValid() error {
	if a.SnapshotID == "" {
		return apierror.WrapError(apierror.ErrValidationFailed, "snapshot_id is required", nil)
	}
	return nil
}

type ResizeArgs struct {
	ID       string `uri:"id" json:"-"`
	FlavorID string `json:"flavor_id"`
}

func (a *ResizeArgs) IsValid() error {
	if a.FlavorID == "" {
		return apierror.WrapError(apierror.ErrValidationFailed, "flavor_id is required", nil)
	}
	return nil
}

type ListVMsResponse struct {
	VMs []entity.VirtualMachine `json:"vms"`
}

type CommandResponse struct {
	Result dispatcher.Result `json:"result"`
}

type ResizeResponse struct {
	Resize resize.Status      `json:"resize"`
	Result *dispatcher.Result `json:"result,omitempty"`
}

type OpenWizardArgs struct {
	Admin bool `json:"admin"`
}

type WizardArgs struct {
	ID string `uri:"id"`
}

type UpdateWizardArgs struct {
	ID string `uri:"id" json:"-"`
	wizard.Patch
}

type SelectTenantArgs struct {
	ID       string `uri:"id" json:"-"`
	TenantID string `json:"tenant_id"`
}

type WizardSourcesArgs struct {
	ID    string            `uri:"id"`
	Kind  entity.SourceType `form:"kind"`
	Force bool              `form:"force"`
}

func (a *WizardSourcesArgs) IsValid() error {
	if !a.Kind.Valid() {
		return apierror.WrapError(apierror.ErrInvalidParameter, "kind must be one of image, instance_snapshot, volume, volume_snapshot", nil)
	}
	return nil
}

type SubmitWizardResponse struct {
	Wizard wizard.State      `json:"wizard"`
	Result dispatcher.Result `json:"result"`
}

type ListWizardsResponse struct {
	Wizards []wizard.State `json:"wizards"`
}

type CatalogArgs struct {
	Kind  string `uri:"kind"`
	Force bool   `form:"force"`
}

type CatalogResponse struct {
	Kind  string `json:"kind"`
	Items any    `json:"items"`
}

type NotificationArgs struct {
	ID string `uri:"id"`
}

type ListNotificationsResponse struct {
	Notifications []entity.Notification `json:"notifications"`
}

type ListOperationsArgs struct {
	ResourceID string `form:"resource_id"`
	Limit      int    `form:"limit"`
}

type ListOperationsResponse struct {
	Operations []entity.Operation `json:"operations"`
}

type ListLocksResponse struct {
	Held []string `json:"held"`
}
