package model

import "time"

type NotificationType string

const (
	NotificationItemApproved  NotificationType = "item_approved"
	NotificationItemRejected  NotificationType = "item_rejected"
	NotificationItemSuspended NotificationType = "item_suspended"
	NotificationItemSold      NotificationType = "item_sold"
	NotificationItemCollected NotificationType = "item_collected"
)

// Notification is an in-app message to one user about one of their items or
// purchases. ReadAt stays nil until the user has seen it.
type Notification struct {
	ID         uint64           `gorm:"primaryKey;autoIncrement"`
	UserUID    string           `gorm:"column:user_uid;size:128;not null;index:idx_notifications_user_read,priority:1"`
	Type       NotificationType `gorm:"column:type;size:64;not null"`
	Title      string           `gorm:"column:title;size:255"`
	Body       string           `gorm:"column:body;type:text"`
	ItemID     *string          `gorm:"column:item_id;size:36;index"`
	PurchaseID *string          `gorm:"column:purchase_id;size:36"`
	ReadAt     *time.Time       `gorm:"column:read_at;index:idx_notifications_user_read,priority:2"`
	CreatedAt  time.Time        `gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) Unread() bool { return n.ReadAt == nil }
