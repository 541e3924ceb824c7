package repository

import (
	"context"
	"time"

	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ItemSort string

const (
	SortNewest    ItemSort = "newest"
	SortOldest    ItemSort = "oldest"
	SortPriceAsc  ItemSort = "price_asc"
	SortPriceDesc ItemSort = "price_desc"
)

func (s ItemSort) orderClause() string {
	switch s {
	case SortOldest:
		return "updated_at asc"
	case SortPriceAsc:
		return "price asc, updated_at desc"
	case SortPriceDesc:
		return "price desc, updated_at desc"
	default:
		return "updated_at desc"
	}
}

// ItemFilter predicates are combined with AND. Zero values are ignored.
type ItemFilter struct {
	SellerID  string
	BuyerID   string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Condition model.Condition
	Category  model.Category
	Statuses  []lifecycle.Status
	Sort      ItemSort
	Limit     int
	Offset    int
}

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, id string) (*model.Item, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Item, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	ReplaceImages(ctx context.Context, id string, refs []string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ItemFilter) ([]model.Item, int64, error)
	// CompareAndSwapStatus moves the item to `to` only while it is still in
	// `from`, applying set in the same statement. It reports whether the row
	// was swapped.
	CompareAndSwapStatus(ctx context.Context, id string, from, to lifecycle.Status, set map[string]interface{}) (bool, error)
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *model.Item) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return translate("create item", r.db.WithContext(ctx).Create(item).Error)
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

func (r *itemRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var item model.Item
	if err := r.db.WithContext(ctx).Preload("Images", orderedImages).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate("find item", err)
	}
	return &item, nil
}

func (r *itemRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Item, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var items []model.Item
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, translate("find items", err)
	}
	return items, nil
}

func (r *itemRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate("update item", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("update item", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *itemRepository) ReplaceImages(ctx context.Context, id string, refs []string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", id).Delete(&model.ItemImage{}).Error; err != nil {
			return err
		}
		images := model.NewItemImages(id, refs)
		if len(images) == 0 {
			return nil
		}
		return tx.Create(&images).Error
	})
	return translate("replace item images", err)
}

func (r *itemRepository) Delete(ctx context.Context, id string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", id).Delete(&model.ItemImage{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Item{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate("delete item", err)
}

func (r *itemRepository) List(ctx context.Context, f ItemFilter) ([]model.Item, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).Model(&model.Item{})
	if f.SellerID != "" {
		q = q.Where("seller_id = ?", f.SellerID)
	}
	if f.BuyerID != "" {
		q = q.Where("buyer_id = ?", f.BuyerID)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Condition != "" {
		q = q.Where("item_condition = ?", f.Condition)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}

	var (
		items []model.Item
		total int64
	)
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate("count items", err)
	}
	q = q.Preload("Images", orderedImages).Order(f.Sort.orderClause())
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, 0, translate("list items", err)
	}
	return items, total, nil
}

func (r *itemRepository) CompareAndSwapStatus(ctx context.Context, id string, from, to lifecycle.Status, set map[string]interface{}) (bool, error) {
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
		Model(&model.Item{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, translate("swap item status", res.Error)
	}
	return res.RowsAffected == 1, nil
}
