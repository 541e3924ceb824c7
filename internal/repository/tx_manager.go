package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxRepos are repositories bound to one open transaction.
type TxRepos interface {
	Items() ItemRepository
	Carts() CartRepository
	Purchases() PurchaseRepository
	Orders() OrderRepository
}

// TransactionManager runs fn atomically; a non-nil return rolls everything back.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}

type txRepos struct {
	items     ItemRepository
	carts     CartRepository
	purchases PurchaseRepository
	orders    OrderRepository
}

func (r *txRepos) Items() ItemRepository         { return r.items }
func (r *txRepos) Carts() CartRepository         { return r.carts }
func (r *txRepos) Purchases() PurchaseRepository { return r.purchases }
func (r *txRepos) Orders() OrderRepository       { return r.orders }

type gormTxManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) WithinTx(ctx context.Context, fn func(r TxRepos) error) error {
	if m.db == nil {
		return ErrDBNotReady
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepos{
			items:     NewItemRepository(tx),
			carts:     NewCartRepository(tx),
			purchases: NewPurchaseRepository(tx),
			orders:    NewOrderRepository(tx),
		})
	})
}
