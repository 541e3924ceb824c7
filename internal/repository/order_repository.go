package repository

import (
	"context"
	"time"

	"github.com/shinyyama/campus-market/internal/model"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]model.Order, error)
	CompareAndSwapStatus(ctx context.Context, id string, from, to model.OrderStatus, set map[string]interface{}) (bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return translate("create order", r.db.WithContext(ctx).Create(o).Error)
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var o model.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		return nil, translate("find order", err)
	}
	return &o, nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]model.Order, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("buyer_id = ?", buyerID).
		Order("created_at desc").
		Find(&list).Error; err != nil {
		return nil, translate("list orders", err)
	}
	return list, nil
}

func (r *orderRepository) CompareAndSwapStatus(ctx context.Context, id string, from, to model.OrderStatus, set map[string]interface{}) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	updates := map[string]interface{}{}
	for k, v := range set {
		updates[k] = v
	}
	updates["status"] = to
	updates["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, translate("swap order status", res.Error)
	}
	return res.RowsAffected == 1, nil
}
