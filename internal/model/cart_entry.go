package model

import "time"

// CartEntry belongs to the cart whose id is the owning user's uid.
type CartEntry struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CartID    string    `gorm:"column:cart_id;size:128;not null;uniqueIndex:uk_cart_entries_cart_item"`
	ItemID    string    `gorm:"column:item_id;size:36;not null;uniqueIndex:uk_cart_entries_cart_item;index"`
	Quantity  int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CartEntry) TableName() string {
	return "cart_entries"
}
