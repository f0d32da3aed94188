package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hookrelay-backend/pkg/enums"
	"github.com/angelmondragon/hookrelay-backend/pkg/types"
)

// Webhook is the append-only record of one dispatch attempt, original or retry.
// RequestBody holds the mapped outbound payload; ResponseBody holds the inbound
// payload as received and is what a retry replays.
type Webhook struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID         uuid.UUID            `gorm:"column:account_id;type:uuid;not null"`
	IntegrationID     uuid.UUID            `gorm:"column:integration_id;type:uuid;not null"`
	Status            enums.DeliveryStatus `gorm:"column:status;not null"`
	Endpoint          *string              `gorm:"column:endpoint"`
	Method            enums.HTTPMethod     `gorm:"column:method;not null;default:POST"`
	RequestBody       *string              `gorm:"column:request_body"`
	ResponseBody      *string              `gorm:"column:response_body"`
	ResponseStatus    *int                 `gorm:"column:response_status"`
	ResponseTimeMS    *int64               `gorm:"column:response_time_ms"`
	Error             *types.DeliveryError `gorm:"column:error;type:jsonb"`
	TriggeredAt       time.Time            `gorm:"column:triggered_at;not null"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;not null"`
	IsRetry           bool                 `gorm:"column:is_retry;not null;default:false"`
	OriginalWebhookID *uuid.UUID           `gorm:"column:original_webhook_id;type:uuid"`
}

func (Webhook) TableName() string { return "webhooks" }
