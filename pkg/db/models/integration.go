package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hookrelay-backend/pkg/enums"
	"github.com/angelmondragon/hookrelay-backend/pkg/types"
)

// Integration is an account-owned routing rule binding one source trigger to one destination action.
type Integration struct {
	ID                           uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID                    uuid.UUID               `gorm:"column:account_id;type:uuid;not null"`
	URLCode                      string                  `gorm:"column:url_code;not null;unique"`
	Name                         *string                 `gorm:"column:name"`
	SourcePlatform               string                  `gorm:"column:source_platform;not null"`
	SourceEvent                  string                  `gorm:"column:source_event;not null"`
	SourceName                   *string                 `gorm:"column:source_name"`
	SourceDescription            *string                 `gorm:"column:source_description"`
	SourceEventDescription       *string                 `gorm:"column:source_event_description"`
	DestinationPlatform          string                  `gorm:"column:destination_platform;not null"`
	DestinationAction            string                  `gorm:"column:destination_action;not null"`
	DestinationName              *string                 `gorm:"column:destination_name"`
	DestinationDescription       *string                 `gorm:"column:destination_description"`
	DestinationActionDescription *string                 `gorm:"column:destination_action_description"`
	AdditionalFields             types.AdditionalFields  `gorm:"column:additional_fields;type:jsonb;not null"`
	Status                       enums.IntegrationStatus `gorm:"column:status;not null;default:ACTIVE"`
	SuccessCount                 int64                   `gorm:"column:success_count;not null;default:0"`
	ErrorCount                   int64                   `gorm:"column:error_count;not null;default:0"`
	LastTriggeredAt              *time.Time              `gorm:"column:last_triggered_at"`
	OrderBump                    types.OrderBump         `gorm:"column:order_bump;type:jsonb"`
	CreatedAt                    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (Integration) TableName() string { return "integrations" }
