package repository

import (
	"context"
	"time"

	"github.com/shinyyama/campus-market/internal/model"
	"gorm.io/gorm"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 50
)

type NotificationFilter struct {
	UserUID    string
	UnreadOnly bool
	Type       model.NotificationType
	Limit      int
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// List returns newest first.
	List(ctx context.Context, f NotificationFilter) ([]model.Notification, error)
	CountUnread(ctx context.Context, userUID string) (int64, error)
	// MarkRead stamps the user's unread rows, only those for itemID when it is
	// non-empty, and reports how many changed.
	MarkRead(ctx context.Context, userUID, itemID string, at time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return translate("create notification", r.db.WithContext(ctx).Create(n).Error)
}

func (r *notificationRepository) unread(ctx context.Context, userUID string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_uid = ? AND read_at IS NULL", userUID)
}

func (r *notificationRepository) List(ctx context.Context, f NotificationFilter) ([]model.Notification, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	var q *gorm.DB
	if f.UnreadOnly {
		q = r.unread(ctx, f.UserUID)
	} else {
		q = r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_uid = ?", f.UserUID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	var list []model.Notification
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, translate("list notifications", err)
	}
	return list, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userUID string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var n int64
	if err := r.unread(ctx, userUID).Count(&n).Error; err != nil {
		return 0, translate("count notifications", err)
	}
	return n, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userUID, itemID string, at time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	q := r.unread(ctx, userUID)
	if itemID != "" {
		q = q.Where("item_id = ?", itemID)
	}
	res := q.Update("read_at", at)
	if res.Error != nil {
		return 0, translate("mark notifications read", res.Error)
	}
	return res.RowsAffected, nil
}
