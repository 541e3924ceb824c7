package model

import (
	"time"

	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/shopspring/decimal"
)

type Item struct {
	ID                string           `gorm:"primaryKey;size:36"`
	Title             string           `gorm:"size:120;not null"`
	Description       string           `gorm:"type:text;not null"`
	Price             decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Category          Category         `gorm:"size:40;not null;index"`
	Condition         Condition        `gorm:"column:item_condition;size:20;not null;index"`
	Status            lifecycle.Status `gorm:"size:20;not null;index"`
	SellerID          string           `gorm:"column:seller_id;size:128;not null;index"`
	BuyerID           *string          `gorm:"column:buyer_id;size:128;index"`
	CollectionAddress string           `gorm:"column:collection_address;type:text"`
	Images            []ItemImage      `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	ModerationNote    string           `gorm:"column:moderation_note;size:500"`
	ApprovedBy        *string          `gorm:"column:approved_by;size:128"`
	ApprovedAt        *time.Time       `gorm:"column:approved_at"`
	CollectedBy       *string          `gorm:"column:collected_by;size:128"`
	CollectedAt       *time.Time       `gorm:"column:collected_at"`
	CreatedAt         time.Time        `gorm:"autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime;index"`
}

func (Item) TableName() string {
	return "items"
}

func (i *Item) SoldTo(uid string) bool {
	return i.BuyerID != nil && uid != "" && *i.BuyerID == uid
}

// Reserved reports whether an open legacy order holds the item. Only the
// order itself may move it until the order is paid or canceled.
func (i *Item) Reserved() bool {
	return i.Status == lifecycle.StatusPending && i.BuyerID != nil
}

// ImageRefs returns the storage references in display order.
func (i *Item) ImageRefs() []string {
	refs := make([]string, 0, len(i.Images))
	for _, img := range i.Images {
		refs = append(refs, img.Ref)
	}
	return refs
}
