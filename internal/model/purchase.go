package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseStatus string

const (
	PurchaseStatusPaid PurchaseStatus = "paid"
)

type CollectionStatus string

const (
	CollectionStatusPending   CollectionStatus = "pending"
	CollectionStatusCollected CollectionStatus = "collected"
)

// PurchaseRecord snapshots the item and both parties at the moment a payment
// was honored. One row per (payment, item).
type PurchaseRecord struct {
	ID               string           `gorm:"primaryKey;size:36"`
	ItemID           string           `gorm:"column:item_id;size:36;not null;index;uniqueIndex:uk_purchase_payment_item"`
	ItemTitle        string           `gorm:"column:item_title;size:120;not null"`
	ItemPrice        decimal.Decimal  `gorm:"column:item_price;type:decimal(12,2);not null"`
	Quantity         int              `gorm:"not null;default:1"`
	SellerID         string           `gorm:"column:seller_id;size:128;not null;index"`
	SellerEmail      string           `gorm:"column:seller_email;size:255"`
	BuyerID          string           `gorm:"column:buyer_id;size:128;not null;index"`
	BuyerEmail       string           `gorm:"column:buyer_email;size:255"`
	PaymentID        string           `gorm:"column:payment_id;size:128;not null;uniqueIndex:uk_purchase_payment_item"`
	OrderID          *string          `gorm:"column:order_id;size:36;index"`
	TotalAmount      decimal.Decimal  `gorm:"column:total_amount;type:decimal(12,2);not null"`
	Status           PurchaseStatus   `gorm:"column:status;size:32;not null"`
	CollectionStatus CollectionStatus `gorm:"column:collection_status;size:32;not null"`
	CollectedAt      *time.Time       `gorm:"column:collected_at"`
	CreatedAt        time.Time        `gorm:"autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime"`
}

func (PurchaseRecord) TableName() string {
	return "purchase_records"
}
