package model

// All lists every persisted model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Item{},
		&ItemImage{},
		&CartEntry{},
		&PurchaseRecord{},
		&Order{},
		&OrderItem{},
		&UserProfile{},
		&AuditLog{},
		&Notification{},
	}
}
