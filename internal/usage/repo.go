package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hookrelay-backend/internal/repo"
	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
)

const (
	columnWebhookQuota     = "used_webhook_quota"
	columnIntegrationQuota = "used_integration_quota"
)

// Repository reads and bumps the per-account usage counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByAccount(ctx context.Context, accountID uuid.UUID) (*models.UserStats, error)
	IncrementWebhookQuota(ctx context.Context, accountID uuid.UUID) error
	IncrementIntegrationQuota(ctx context.Context, accountID uuid.UUID) error
	DecrementIntegrationQuota(ctx context.Context, accountID uuid.UUID) error
}

type repository struct {
	repo.Base
	now func() time.Time
}

// NewRepository binds the usage repository to the provided connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db), now: time.Now}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx), now: r.now}
}

// FindByAccount returns nil when the account has no counters row.
func (r *repository) FindByAccount(ctx context.Context, accountID uuid.UUID) (*models.UserStats, error) {
	var stats models.UserStats
	found, err := repo.First(r.DB(ctx).Where("account_id = ?", accountID), &stats)
	if err != nil || !found {
		return nil, err
	}
	return &stats, nil
}

func (r *repository) IncrementWebhookQuota(ctx context.Context, accountID uuid.UUID) error {
	return r.bump(ctx, accountID, columnWebhookQuota, gorm.Expr(columnWebhookQuota+" + 1"))
}

func (r *repository) IncrementIntegrationQuota(ctx context.Context, accountID uuid.UUID) error {
	return r.bump(ctx, accountID, columnIntegrationQuota, gorm.Expr(columnIntegrationQuota+" + 1"))
}

// DecrementIntegrationQuota never drives the counter below zero.
func (r *repository) DecrementIntegrationQuota(ctx context.Context, accountID uuid.UUID) error {
	expr := gorm.Expr(fmt.Sprintf("CASE WHEN %[1]s > 0 THEN %[1]s - 1 ELSE 0 END", columnIntegrationQuota))
	return r.bump(ctx, accountID, columnIntegrationQuota, expr)
}

func (r *repository) bump(ctx context.Context, accountID uuid.UUID, column string, expr any) error {
	res := r.DB(ctx).
		Model(&models.UserStats{}).
		Where("account_id = ?", accountID).
		Updates(map[string]any{
			column:       expr,
			"updated_at": r.now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("update %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s: %w", column, gorm.ErrRecordNotFound)
	}
	return nil
}
