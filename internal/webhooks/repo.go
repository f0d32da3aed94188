package webhooks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hookrelay-backend/internal/repo"
	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
	"github.com/angelmondragon/hookrelay-backend/pkg/enums"
)

// ListFilters narrows an account's delivery records.
type ListFilters struct {
	AccountID     uuid.UUID
	IntegrationID *uuid.UUID
	Status        *enums.DeliveryStatus
	// Since clips the log to records triggered at or after the instant.
	Since *time.Time
}

// Repository is the append-only delivery log.
type Repository interface {
	Create(ctx context.Context, webhook *models.Webhook) error
	FindByID(ctx context.Context, id, accountID uuid.UUID) (*models.Webhook, error)
	List(ctx context.Context, filters ListFilters, offset, limit int) ([]models.Webhook, int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository binds the delivery recorder to the provided connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Create(ctx context.Context, webhook *models.Webhook) error {
	return r.DB(ctx).Create(webhook).Error
}

// FindByID scopes the lookup to the owning account; nil when nothing matched.
func (r *repository) FindByID(ctx context.Context, id, accountID uuid.UUID) (*models.Webhook, error) {
	var webhook models.Webhook
	found, err := repo.First(r.DB(ctx).Where("id = ? AND account_id = ?", id, accountID), &webhook)
	if err != nil || !found {
		return nil, err
	}
	return &webhook, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters, offset, limit int) ([]models.Webhook, int64, error) {
	query := r.DB(ctx).Model(&models.Webhook{}).Where("account_id = ?", filters.AccountID)
	if filters.IntegrationID != nil {
		query = query.Where("integration_id = ?", *filters.IntegrationID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Since != nil {
		query = query.Where("triggered_at >= ?", *filters.Since)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Webhook
	if err := query.Scopes(repo.Page(offset, limit)).Order("triggered_at DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
