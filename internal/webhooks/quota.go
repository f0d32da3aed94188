package webhooks

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
	"github.com/angelmondragon/hookrelay-backend/pkg/metrics"
)

// CanDeliver reports whether one more delivery fits under the ceiling.
func CanDeliver(used, ceiling int64) bool {
	return ceiling > used
}

type quotaCheck struct {
	stats     *models.UserStats
	signature *models.Signature
	allowed   bool
	// dropReason is set when the counters or the ceiling could not be found.
	dropReason string
}

// checkQuota reads the counters and the ceiling without locking. Concurrent
// deliveries for one account may each pass before any increment lands.
func (s *Service) checkQuota(ctx context.Context, accountID uuid.UUID) (quotaCheck, error) {
	stats, err := s.usage.FindByAccount(ctx, accountID)
	if err != nil {
		return quotaCheck{}, err
	}
	if stats == nil {
		return quotaCheck{dropReason: metrics.DropUsageNotFound}, nil
	}
	sig, err := s.signatures.FindActiveByAccount(ctx, accountID)
	if err != nil {
		return quotaCheck{}, err
	}
	if sig == nil {
		return quotaCheck{stats: stats, dropReason: metrics.DropSignatureMissing}, nil
	}
	return quotaCheck{
		stats:     stats,
		signature: sig,
		allowed:   CanDeliver(stats.UsedWebhookQuota, sig.WebhookQuota),
	}, nil
}
