package model

import "time"

type AuditAction string

const (
	AuditActionApproveItem    AuditAction = "APPROVE_ITEM"
	AuditActionRejectItem     AuditAction = "REJECT_ITEM"
	AuditActionSuspendItem    AuditAction = "SUSPEND_ITEM"
	AuditActionOverrideStatus AuditAction = "OVERRIDE_ITEM_STATUS"
	AuditActionDeleteItem     AuditAction = "DELETE_ITEM"
	AuditActionSuspendUser    AuditAction = "SUSPEND_USER"
	AuditActionReinstateUser  AuditAction = "REINSTATE_USER"
	AuditActionGrantAdmin     AuditAction = "GRANT_ADMIN"
	AuditActionRevokeAdmin    AuditAction = "REVOKE_ADMIN"
	AuditActionReconcileCarts AuditAction = "RECONCILE_CARTS"
)

type AuditResourceType string

const (
	AuditResourceItem AuditResourceType = "item"
	AuditResourceUser AuditResourceType = "user"
	AuditResourceCart AuditResourceType = "cart"
)

// AuditLog records who changed what during admin moderation, including how
// many cart entries the accompanying purge removed.
type AuditLog struct {
	ID           string            `gorm:"primaryKey;size:26"`
	ActorUID     string            `gorm:"column:actor_uid;size:128;not null;index"`
	Action       AuditAction       `gorm:"size:50;not null;index"`
	ResourceType AuditResourceType `gorm:"column:resource_type;size:50;not null;index"`
	ResourceID   string            `gorm:"column:resource_id;size:128;not null;index"`
	BeforeJSON   string            `gorm:"column:before_json;type:text"`
	AfterJSON    string            `gorm:"column:after_json;type:text"`
	CartsPurged  int64             `gorm:"column:carts_purged;not null;default:0"`
	CreatedAt    time.Time         `gorm:"not null;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
