package integrations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
	"github.com/angelmondragon/hookrelay-backend/pkg/enums"
	"github.com/angelmondragon/hookrelay-backend/pkg/types"
)

const integrationsTable = `
CREATE TABLE integrations (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  url_code TEXT NOT NULL UNIQUE,
  name TEXT,
  source_platform TEXT NOT NULL,
  source_event TEXT NOT NULL,
  source_name TEXT,
  source_description TEXT,
  source_event_description TEXT,
  destination_platform TEXT NOT NULL,
  destination_action TEXT NOT NULL,
  destination_name TEXT,
  destination_description TEXT,
  destination_action_description TEXT,
  additional_fields TEXT NOT NULL DEFAULT '[]',
  status TEXT NOT NULL DEFAULT 'ACTIVE',
  success_count INTEGER NOT NULL DEFAULT 0,
  error_count INTEGER NOT NULL DEFAULT 0,
  last_triggered_at DATETIME,
  order_bump TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`

const userStatsTable = `
CREATE TABLE user_stats (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL UNIQUE,
  used_webhook_quota INTEGER NOT NULL DEFAULT 0,
  used_integration_quota INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`

const signaturesTable = `
CREATE TABLE signatures (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  plan_id TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  webhook_quota INTEGER NOT NULL DEFAULT 0,
  integration_quota INTEGER NOT NULL DEFAULT 0,
  log_view_quota INTEGER,
  created_at DATETIME,
  updated_at DATETIME
);`

func setupIntegrationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	for _, ddl := range []string{integrationsTable, userStatsTable, signaturesTable} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

type gormTx struct {
	db *gorm.DB
}

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func newIntegration(accountID uuid.UUID, mutate func(*models.Integration)) *models.Integration {
	integration := &models.Integration{
		ID:                  uuid.New(),
		AccountID:           accountID,
		URLCode:             uuid.NewString(),
		SourcePlatform:      "lastlink",
		SourceEvent:         "abandoned.cart",
		DestinationPlatform: "hotzapp",
		DestinationAction:   "create.product",
		AdditionalFields:    types.AdditionalFields{{Name: "url", Value: "https://hotzapp.example/hook"}, {Name: "apiKey", Value: "k"}},
		Status:              enums.IntegrationStatusActive,
	}
	if mutate != nil {
		mutate(integration)
	}
	return integration
}
