package webhooks

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hookrelay-backend/internal/integrations"
	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
	"github.com/angelmondragon/hookrelay-backend/pkg/enums"
	"github.com/angelmondragon/hookrelay-backend/pkg/pagination"
	"github.com/angelmondragon/hookrelay-backend/pkg/types"
)

// InboundMessage is the queue body published by the inbound endpoint.
type InboundMessage struct {
	URLCode string          `json:"urlCode"`
	Payload json.RawMessage `json:"payload"`
}

// ListParams are the raw query inputs of the delivery log listing.
type ListParams struct {
	Page          int
	Limit         int
	IntegrationID string
	Status        string
}

type ListFiltersDTO struct {
	IntegrationID string `json:"integrationId,omitempty"`
	Status        string `json:"status,omitempty"`
}

type ListResult struct {
	Webhooks   []WebhookDTO    `json:"webhooks"`
	Pagination pagination.Meta `json:"pagination"`
	Filters    ListFiltersDTO  `json:"filters"`
}

// WebhookDTO is the API view of one delivery attempt. Status is lower-case.
type WebhookDTO struct {
	ID                uuid.UUID             `json:"id"`
	IntegrationID     uuid.UUID             `json:"integrationId"`
	Status            string                `json:"status"`
	Endpoint          *string               `json:"endpoint"`
	Method            enums.HTTPMethod      `json:"method"`
	RequestBody       *string               `json:"requestBody"`
	ResponseBody      *string               `json:"responseBody"`
	ResponseStatus    *int                  `json:"responseStatus"`
	ResponseTime      *int64                `json:"responseTime"`
	Error             *types.DeliveryError  `json:"error"`
	TriggeredAt       time.Time             `json:"triggeredAt"`
	IsRetry           bool                  `json:"isRetry"`
	OriginalWebhookID *uuid.UUID            `json:"originalWebhookId"`
	Integration       *integrations.Summary `json:"integration,omitempty"`
}

type RetryResult struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	NewWebhookID uuid.UUID `json:"newWebhookId"`
	RetriedAt    time.Time `json:"retriedAt"`
}

func toDTO(m models.Webhook, integration *integrations.Summary) WebhookDTO {
	return WebhookDTO{
		ID:                m.ID,
		IntegrationID:     m.IntegrationID,
		Status:            m.Status.Public(),
		Endpoint:          m.Endpoint,
		Method:            m.Method,
		RequestBody:       m.RequestBody,
		ResponseBody:      m.ResponseBody,
		ResponseStatus:    m.ResponseStatus,
		ResponseTime:      m.ResponseTimeMS,
		Error:             m.Error,
		TriggeredAt:       m.TriggeredAt,
		IsRetry:           m.IsRetry,
		OriginalWebhookID: m.OriginalWebhookID,
		Integration:       integration,
	}
}
