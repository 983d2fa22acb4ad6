package repository

import (
	"context"

	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/jimyag/cloudconsole/internal/console/repository/model"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// OperationRepository 命令审计记录仓库
type OperationRepository interface {
	Record(ctx context.Context, op *entity.Operation) error
	ListRecent(ctx context.Context, resourceID string, limit int) ([]entity.Operation, error)
}

type operationRepository struct {
	db *gorm.DB
}

// NewOperationRepository 创建命令审计记录仓库
func NewOperationRepository(db *gorm.DB) OperationRepository {
	return &operationRepository{db: db}
}

// Record 写入一条记录
func (r *operationRepository) Record(ctx context.Context, op *entity.Operation) error {
	m := &model.Operation{}
	if err := copier.Copy(m, op); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

// ListRecent 按开始时间倒序列出最近的记录，resourceID 为空时不过滤
func (r *operationRepository) ListRecent(ctx context.Context, resourceID string, limit int) ([]entity.Operation, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx).Model(&model.Operation{})
	if resourceID != "" {
		query = query.Where("resource_id = ?", resourceID)
	}

	var rows []*model.Operation
	if err := query.Order("started_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]entity.Operation, 0, len(rows))
	for _, row := range rows {
		op := entity.Operation{}
		if err := copier.Copy(&op, row); err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, nil
}
