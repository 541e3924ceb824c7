package repository

import (
	"context"
	"time"

	"github.com/shinyyama/campus-market/internal/model"
	"gorm.io/gorm"
)

type AuditLogFilter struct {
	ActorUID     string
	Action       model.AuditAction
	ResourceType model.AuditResourceType
	ResourceID   string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	List(ctx context.Context, f AuditLogFilter) ([]model.AuditLog, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, log *model.AuditLog) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return translate("create audit log", r.db.WithContext(ctx).Create(log).Error)
}

func (r *auditLogRepository) List(ctx context.Context, f AuditLogFilter) ([]model.AuditLog, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if f.ActorUID != "" {
		q = q.Where("actor_uid = ?", f.ActorUID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.ResourceType != "" {
		q = q.Where("resource_type = ?", f.ResourceType)
	}
	if f.ResourceID != "" {
		q = q.Where("resource_id = ?", f.ResourceID)
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		q = q.Where("created_at <= ?", *f.CreatedTo)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var list []model.AuditLog
	if err := q.Order("id desc").Limit(limit).Offset(f.Offset).Find(&list).Error; err != nil {
		return nil, translate("list audit logs", err)
	}
	return list, nil
}
