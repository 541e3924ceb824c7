package repository

import (
	"context"
	"time"

	"github.com/shinyyama/campus-market/internal/model"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, p *model.PurchaseRecord) error
	FindByID(ctx context.Context, id string) (*model.PurchaseRecord, error)
	FindByItem(ctx context.Context, itemID string) (*model.PurchaseRecord, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]model.PurchaseRecord, error)
	ListBySeller(ctx context.Context, sellerID string) ([]model.PurchaseRecord, error)
	MarkCollectedIfPending(ctx context.Context, itemID, buyerID string) (int64, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, p *model.PurchaseRecord) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return translate("create purchase", r.db.WithContext(ctx).Create(p).Error)
}

func (r *purchaseRepository) FindByID(ctx context.Context, id string) (*model.PurchaseRecord, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var p model.PurchaseRecord
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate("find purchase", err)
	}
	return &p, nil
}

func (r *purchaseRepository) FindByItem(ctx context.Context, itemID string) (*model.PurchaseRecord, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var p model.PurchaseRecord
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at desc").
		First(&p).Error; err != nil {
		return nil, translate("find purchase by item", err)
	}
	return &p, nil
}

func (r *purchaseRepository) ListByBuyer(ctx context.Context, buyerID string) ([]model.PurchaseRecord, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.PurchaseRecord
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at desc").
		Find(&list).Error; err != nil {
		return nil, translate("list purchases", err)
	}
	return list, nil
}

func (r *purchaseRepository) ListBySeller(ctx context.Context, sellerID string) ([]model.PurchaseRecord, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.PurchaseRecord
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at desc").
		Find(&list).Error; err != nil {
		return nil, translate("list sales", err)
	}
	return list, nil
}

func (r *purchaseRepository) MarkCollectedIfPending(ctx context.Context, itemID, buyerID string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.PurchaseRecord{}).
		Where("item_id = ? AND buyer_id = ? AND collection_status = ?", itemID, buyerID, model.CollectionStatusPending).
		Updates(map[string]interface{}{
			"collection_status": model.CollectionStatusCollected,
			"collected_at":      now,
			"updated_at":        now,
		})
	if res.Error != nil {
		return 0, translate("mark purchase collected", res.Error)
	}
	return res.RowsAffected, nil
}
