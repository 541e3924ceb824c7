package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusOpen     OrderStatus = "open"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusCanceled OrderStatus = "canceled"
)

// Order groups one buyer's reserved items from a single seller.
type Order struct {
	ID        string          `gorm:"primaryKey;size:36"`
	BuyerID   string          `gorm:"column:buyer_id;size:128;not null;index"`
	SellerID  string          `gorm:"column:seller_id;size:128;not null;index"`
	Status    OrderStatus     `gorm:"size:20;not null;index"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentID *string         `gorm:"column:payment_id;size:128"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID   string          `gorm:"column:order_id;size:36;not null;index"`
	ItemID    string          `gorm:"column:item_id;size:36;not null;index"`
	Title     string          `gorm:"size:120;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2);not null"`
	Quantity  int             `gorm:"not null"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (it OrderItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// ComputeTotal sums price * quantity over the order's items.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}
