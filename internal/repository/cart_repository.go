package repository

import (
	"context"

	"github.com/shinyyama/campus-market/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	// Upsert keeps one entry per (cart, item); an existing entry takes the new quantity.
	Upsert(ctx context.Context, entry *model.CartEntry) error
	ListByCart(ctx context.Context, cartID string) ([]model.CartEntry, error)
	ListByItem(ctx context.Context, itemID string) ([]model.CartEntry, error)
	ListAll(ctx context.Context) ([]model.CartEntry, error)
	DeleteEntry(ctx context.Context, cartID, itemID string) (int64, error)
	DeleteByItem(ctx context.Context, itemID string) (int64, error)
	DeleteByCart(ctx context.Context, cartID string) (int64, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Upsert(ctx context.Context, entry *model.CartEntry) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(entry).Error
	return translate("upsert cart entry", err)
}

func (r *cartRepository) ListByCart(ctx context.Context, cartID string) ([]model.CartEntry, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.CartEntry
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at asc").
		Find(&list).Error; err != nil {
		return nil, translate("list cart", err)
	}
	return list, nil
}

func (r *cartRepository) ListByItem(ctx context.Context, itemID string) ([]model.CartEntry, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.CartEntry
	if err := r.db.WithContext(ctx).Where("item_id = ?", itemID).Find(&list).Error; err != nil {
		return nil, translate("list cart entries by item", err)
	}
	return list, nil
}

func (r *cartRepository) ListAll(ctx context.Context) ([]model.CartEntry, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.CartEntry
	if err := r.db.WithContext(ctx).Order("id asc").Find(&list).Error; err != nil {
		return nil, translate("list cart entries", err)
	}
	return list, nil
}

func (r *cartRepository) DeleteEntry(ctx context.Context, cartID, itemID string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).Where("cart_id = ? AND item_id = ?", cartID, itemID).Delete(&model.CartEntry{})
	return res.RowsAffected, translate("delete cart entry", res.Error)
}

func (r *cartRepository) DeleteByItem(ctx context.Context, itemID string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).Where("item_id = ?", itemID).Delete(&model.CartEntry{})
	return res.RowsAffected, translate("delete cart entries by item", res.Error)
}

func (r *cartRepository) DeleteByCart(ctx context.Context, cartID string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartEntry{})
	return res.RowsAffected, translate("clear cart", res.Error)
}

func (r *cartRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.CartEntry{})
	return res.RowsAffected, translate("delete cart entries", res.Error)
}
