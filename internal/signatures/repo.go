package signatures

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hookrelay-backend/internal/repo"
	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
)

// Repository reads the subscription ceilings written by the billing service.
type Repository interface {
	FindActiveByAccount(ctx context.Context, accountID uuid.UUID) (*models.Signature, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

// FindActiveByAccount returns the newest active signature, or nil when the account has none.
func (r *repository) FindActiveByAccount(ctx context.Context, accountID uuid.UUID) (*models.Signature, error) {
	var sig models.Signature
	query := r.DB(ctx).
		Where("account_id = ? AND active = ?", accountID, true).
		Order("created_at DESC")
	found, err := repo.First(query, &sig)
	if err != nil || !found {
		return nil, err
	}
	return &sig, nil
}
