package integrations

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hookrelay-backend/internal/catalog"
	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
	"github.com/angelmondragon/hookrelay-backend/pkg/enums"
	"github.com/angelmondragon/hookrelay-backend/pkg/types"
)

type SourceInput struct {
	Platform string `json:"platform" validate:"required"`
	Event    string `json:"event" validate:"required"`
}

type DestinationInput struct {
	Platform string  `json:"platform" validate:"required"`
	Action   string  `json:"action" validate:"required"`
	URL      *string `json:"url,omitempty" validate:"omitempty,url"`
	APIKey   *string `json:"apiKey,omitempty"`
}

// CreateInput is the payload for a new routing rule. Destination url and apiKey
// are shorthands for the "url" and "apiKey" additional fields.
type CreateInput struct {
	Name             *string                `json:"name,omitempty" validate:"omitempty,max=120"`
	Source           SourceInput            `json:"source" validate:"required"`
	Destination      DestinationInput       `json:"destination" validate:"required"`
	AdditionalFields types.AdditionalFields `json:"additionalFields" validate:"omitempty,dive"`
	OrderBump        types.OrderBump        `json:"orderBump,omitempty"`
}

type UpdateInput struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	DestinationURL *string          `json:"destinationUrl,omitempty" validate:"omitempty,url"`
	Status         *string          `json:"status,omitempty" validate:"omitempty,oneof=active inactive ACTIVE INACTIVE"`
	OrderBump      *types.OrderBump `json:"orderBump,omitempty"`
}

type ListParams struct {
	Status string
	Source string
	Limit  int
	Offset int
}

type StatusDTO struct {
	Value enums.IntegrationStatus `json:"value"`
	Label string                  `json:"label"`
}

type SourceDTO struct {
	Platform         string  `json:"platform"`
	Event            string  `json:"event"`
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	EventDescription *string `json:"eventDescription"`
}

type DestinationDTO struct {
	Platform          string  `json:"platform"`
	Action            string  `json:"action"`
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	ActionDescription *string `json:"actionDescription"`
}

// IntegrationDTO is the API view of a routing rule.
type IntegrationDTO struct {
	ID               uuid.UUID              `json:"id"`
	Name             *string                `json:"name"`
	URLCode          string                 `json:"urlCode"`
	WebhookURL       string                 `json:"webhookUrl"`
	Source           SourceDTO              `json:"source"`
	Destination      DestinationDTO         `json:"destination"`
	AdditionalFields types.AdditionalFields `json:"additionalFields"`
	OrderBump        types.OrderBump        `json:"orderBump"`
	Status           StatusDTO              `json:"status"`
	SuccessCount     int64                  `json:"successCount"`
	ErrorCount       int64                  `json:"errorCount"`
	LastTriggeredAt  *time.Time             `json:"lastTriggeredAt"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

type ListResult struct {
	Integrations []IntegrationDTO `json:"integrations"`
	Total        int64            `json:"total"`
	Limit        int              `json:"limit"`
	Offset       int              `json:"offset"`
}

type DeleteResult struct {
	ID        uuid.UUID `json:"id"`
	Name      *string   `json:"name"`
	DeletedAt time.Time `json:"deletedAt"`
	Success   bool      `json:"success"`
}

type AvailableResult struct {
	Sources []catalog.Source `json:"sources"`
}

// Summary is the compact rule view embedded in delivery listings.
type Summary struct {
	ID                  uuid.UUID               `json:"id"`
	Name                *string                 `json:"name"`
	SourcePlatform      string                  `json:"sourcePlatform"`
	SourceEvent         string                  `json:"sourceEvent"`
	DestinationPlatform string                  `json:"destinationPlatform"`
	DestinationAction   string                  `json:"destinationAction"`
	Status              enums.IntegrationStatus `json:"status"`
}

func SummaryOf(m models.Integration) Summary {
	return Summary{
		ID:                  m.ID,
		Name:                m.Name,
		SourcePlatform:      m.SourcePlatform,
		SourceEvent:         m.SourceEvent,
		DestinationPlatform: m.DestinationPlatform,
		DestinationAction:   m.DestinationAction,
		Status:              m.Status,
	}
}

func toDTO(m models.Integration, webhookURL string) IntegrationDTO {
	fields := m.AdditionalFields
	if fields == nil {
		fields = types.AdditionalFields{}
	}
	return IntegrationDTO{
		ID:         m.ID,
		Name:       m.Name,
		URLCode:    m.URLCode,
		WebhookURL: webhookURL,
		Source: SourceDTO{
			Platform:         m.SourcePlatform,
			Event:            m.SourceEvent,
			Name:             m.SourceName,
			Description:      m.SourceDescription,
			EventDescription: m.SourceEventDescription,
		},
		Destination: DestinationDTO{
			Platform:          m.DestinationPlatform,
			Action:            m.DestinationAction,
			Name:              m.DestinationName,
			Description:       m.DestinationDescription,
			ActionDescription: m.DestinationActionDescription,
		},
		AdditionalFields: fields,
		OrderBump:        m.OrderBump,
		Status:           StatusDTO{Value: m.Status, Label: m.Status.Label()},
		SuccessCount:     m.SuccessCount,
		ErrorCount:       m.ErrorCount,
		LastTriggeredAt:  m.LastTriggeredAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
