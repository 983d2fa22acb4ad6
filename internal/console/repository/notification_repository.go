package repository

import (
	"context"

	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/jimyag/cloudconsole/internal/console/repository/model"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// NotificationRepository 通知历史仓库
type NotificationRepository interface {
	Save(ctx context.Context, n *entity.Notification) error
	Dismiss(ctx context.Context, id string) error
	ListRecent(ctx context.Context, limit int) ([]entity.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知历史仓库
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Save 写入或覆盖一条通知
func (r *notificationRepository) Save(ctx context.Context, n *entity.Notification) error {
	m := &model.Notification{}
	if err := copier.Copy(m, n); err != nil {
		return err
	}
	m.Level = string(n.Level)
	return r.db.WithContext(ctx).Save(m).Error
}

// Dismiss 软删除通知
func (r *notificationRepository) Dismiss(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Notification{}, "id = ?", id).Error
}

// ListRecent 按创建时间倒序列出未清除的通知
func (r *notificationRepository) ListRecent(ctx context.Context, limit int) ([]entity.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []*model.Notification
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]entity.Notification, 0, len(rows))
	for _, row := range rows {
		n := entity.Notification{}
		if err := copier.Copy(&n, row); err != nil {
			return nil, err
		}
		n.Level = entity.NotificationLevel(row.Level)
		out = append(out, n)
	}
	return out, nil
}
