package models

import (
	"time"

	"github.com/google/uuid"
)

// Signature exposes the subscription ceilings owned by the billing service.
// LogViewQuota is the delivery-log retention window in days.
type Signature struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID        uuid.UUID `gorm:"column:account_id;type:uuid;not null"`
	PlanID           *string   `gorm:"column:plan_id"`
	Active           bool      `gorm:"column:active;not null;default:true"`
	WebhookQuota     int64     `gorm:"column:webhook_quota;not null;default:0"`
	IntegrationQuota int64     `gorm:"column:integration_quota;not null;default:0"`
	LogViewQuota     *int      `gorm:"column:log_view_quota"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Signature) TableName() string { return "signatures" }
