package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jimyag/cloudconsole/internal/console/repository"
	"github.com/jimyag/cloudconsole/pkg/apierror"
	"github.com/jimyag/cloudconsole/pkg/ginx"
)

const defaultOperationLimit = 50

// Notification 提示、审计日志和锁诊断
type Notification struct {
	notifications NotificationCenter
	operations    repository.OperationRepository
	locks         LockLister
}

func NewNotification(notifications NotificationCenter, operations repository.OperationRepository, locks LockLister) *Notification {
	return &Notification{
		notifications: notifications,
		operations:    operations,
		locks:         locks,
	}
}

func (n *Notification) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/notifications", ginx.Adapt3(n.ListNotifications))
	router.DELETE("/notifications/:id", ginx.Adapt5(n.DismissNotification))
	router.GET("/operations", ginx.Adapt5(n.ListOperations))
	router.GET("/locks", ginx.Adapt3(n.ListLocks))
}

func (n *Notification) ListNotifications(ctx *gin.Context) (*ListNotificationsResponse, error) {
	return &ListNotificationsResponse{Notifications: n.notifications.List()}, nil
}

func (n *Notification) DismissNotification(ctx *gin.Context, args *NotificationArgs) (any, error) {
	if !n.notifications.Dismiss(args.ID) {
		return nil, apierror.WrapError(apierror.ErrNotFound, "notification "+args.ID+" not found", nil)
	}
	return nil, nil
}

func (n *Notification) ListOperations(ctx *gin.Context, args *ListOperationsArgs) (*ListOperationsResponse, error) {
	if n.operations == nil {
		return nil, apierror.WrapError(apierror.ErrServiceUnavailable, "operation log is not configured", nil)
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultOperationLimit
	}
	ops, err := n.operations.ListRecent(ctx, args.ResourceID, limit)
	if err != nil {
		return nil, apierror.WrapError(apierror.ErrInternalError, "failed to list operations", err)
	}
	return &ListOperationsResponse{Operations: ops}, nil
}

func (n *Notification) ListLocks(ctx *gin.Context) (*ListLocksResponse, error) {
	return &ListLocksResponse{Held: n.locks.Held()}, nil
}
