package webhooks

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
	"github.com/angelmondragon/hookrelay-backend/pkg/enums"
	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
	"github.com/angelmondragon/hookrelay-backend/pkg/types"
)

const webhooksTable = `
CREATE TABLE webhooks (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  integration_id TEXT NOT NULL,
  status TEXT NOT NULL,
  endpoint TEXT,
  method TEXT NOT NULL DEFAULT 'POST',
  request_body TEXT,
  response_body TEXT,
  response_status INTEGER,
  response_time_ms INTEGER,
  error TEXT,
  triggered_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  is_retry INTEGER NOT NULL DEFAULT 0,
  original_webhook_id TEXT
);`

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

func setupWebhooksTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	for _, ddl := range []string{webhooksTable, integrationsTable, userStatsTable, signaturesTable} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "webhooks-test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

// astromembersRule routes approved hotmart purchases to an Astromembers endpoint.
func astromembersRule(accountID uuid.UUID, endpoint string) *models.Integration {
	name := "Astro onboarding"
	return &models.Integration{
		ID:                  uuid.New(),
		AccountID:           accountID,
		URLCode:             uuid.NewString(),
		Name:                &name,
		SourcePlatform:      "hotmart",
		SourceEvent:         "PURCHASE_APPROVED",
		DestinationPlatform: "astromembers",
		DestinationAction:   "create_member",
		AdditionalFields: types.AdditionalFields{
			{Name: "url", Value: endpoint},
			{Name: "apiKey", Value: "astro-key"},
			{Name: "courseId", Value: "c-1"},
		},
		Status: enums.IntegrationStatusActive,
	}
}

const hotmartApproved = `{
  "id": "evt-h1",
  "event": "PURCHASE_APPROVED",
  "data": {
    "product": {"id": 213344, "name": "Curso Astro"},
    "buyer": {"name": "Caio", "email": "caio@example.com", "checkout_phone": "5511977776666", "document": "98765432100"},
    "purchase": {"transaction": "HP1121336654889", "status": "APPROVED", "price": {"value": 1500, "currency_value": "BRL"}}
  }
}`
