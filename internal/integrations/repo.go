package integrations

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hookrelay-backend/internal/repo"
	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
	"github.com/angelmondragon/hookrelay-backend/pkg/enums"
)

// Counters is the outcome delta applied after a dispatch.
type Counters struct {
	Success int64
	Error   int64
}

// ListFilters narrows an account's routing rules.
type ListFilters struct {
	AccountID      uuid.UUID
	Status         *enums.IntegrationStatus
	SourcePlatform string
}

// Repository persists routing rules.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, integration *models.Integration) error
	Update(ctx context.Context, integration *models.Integration) error
	Delete(ctx context.Context, id, accountID uuid.UUID) (*models.Integration, error)
	FindByURLCode(ctx context.Context, urlCode string) (*models.Integration, error)
	FindByID(ctx context.Context, id, accountID uuid.UUID) (*models.Integration, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Integration, error)
	ListByAccount(ctx context.Context, filters ListFilters, offset, limit int) ([]models.Integration, int64, error)
	IncrementCounters(ctx context.Context, id uuid.UUID, delta Counters) error
}

type repository struct {
	repo.Base
	now func() time.Time
}

// NewRepository binds the routing rule repository to the provided connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db), now: time.Now}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx), now: r.now}
}

func (r *repository) Create(ctx context.Context, integration *models.Integration) error {
	return r.DB(ctx).Create(integration).Error
}

func (r *repository) Update(ctx context.Context, integration *models.Integration) error {
	return r.DB(ctx).Save(integration).Error
}

// Delete removes the rule owned by accountID and returns it; nil when nothing matched.
func (r *repository) Delete(ctx context.Context, id, accountID uuid.UUID) (*models.Integration, error) {
	existing, err := r.FindByID(ctx, id, accountID)
	if err != nil || existing == nil {
		return nil, err
	}
	res := r.DB(ctx).Where("id = ? AND account_id = ?", id, accountID).Delete(&models.Integration{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return existing, nil
}

func (r *repository) FindByURLCode(ctx context.Context, urlCode string) (*models.Integration, error) {
	code := strings.TrimSpace(urlCode)
	if code == "" {
		return nil, nil
	}
	var integration models.Integration
	found, err := repo.First(r.DB(ctx).Where("url_code = ?", code), &integration)
	if err != nil || !found {
		return nil, err
	}
	return &integration, nil
}

func (r *repository) FindByID(ctx context.Context, id, accountID uuid.UUID) (*models.Integration, error) {
	var integration models.Integration
	found, err := repo.First(r.DB(ctx).Where("id = ? AND account_id = ?", id, accountID), &integration)
	if err != nil || !found {
		return nil, err
	}
	return &integration, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Integration, error) {
	if len(ids) == 0 {
		return []models.Integration{}, nil
	}
	var rows []models.Integration
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByAccount(ctx context.Context, filters ListFilters, offset, limit int) ([]models.Integration, int64, error) {
	query := r.DB(ctx).Model(&models.Integration{}).Where("account_id = ?", filters.AccountID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if source := strings.TrimSpace(filters.SourcePlatform); source != "" {
		query = query.Where("source_platform = ?", source)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Integration
	if err := query.Scopes(repo.Page(offset, limit)).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// IncrementCounters applies the delta atomically and stamps last_triggered_at.
func (r *repository) IncrementCounters(ctx context.Context, id uuid.UUID, delta Counters) error {
	now := r.now().UTC()
	return r.DB(ctx).
		Model(&models.Integration{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"success_count":     gorm.Expr("success_count + ?", delta.Success),
			"error_count":       gorm.Expr("error_count + ?", delta.Error),
			"last_triggered_at": now,
			"updated_at":        now,
		}).Error
}
