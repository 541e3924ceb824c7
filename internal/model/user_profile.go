package model

import "time"

type UserProfile struct {
	UID         string     `gorm:"column:uid;primaryKey;size:128"`
	Email       string     `gorm:"column:email;size:255;index"`
	DisplayName string     `gorm:"column:display_name;size:120"`
	IsAdmin     bool       `gorm:"column:is_admin;not null;default:false"`
	Suspended   bool       `gorm:"column:suspended;not null;default:false"`
	SuspendedAt *time.Time `gorm:"column:suspended_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
