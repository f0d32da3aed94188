package models

import (
	"time"

	"github.com/google/uuid"
)

// UserStats holds the per-account running quota counters.
type UserStats struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID            uuid.UUID `gorm:"column:account_id;type:uuid;not null;unique"`
	UsedWebhookQuota     int64     `gorm:"column:used_webhook_quota;not null;default:0"`
	UsedIntegrationQuota int64     `gorm:"column:used_integration_quota;not null;default:0"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserStats) TableName() string { return "user_stats" }
