package integrations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/hookrelay-backend/internal/catalog"
	"github.com/angelmondragon/hookrelay-backend/internal/mapping"
	"github.com/angelmondragon/hookrelay-backend/internal/signatures"
	"github.com/angelmondragon/hookrelay-backend/internal/usage"
	"github.com/angelmondragon/hookrelay-backend/pkg/db"
	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
	"github.com/angelmondragon/hookrelay-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hookrelay-backend/pkg/errors"
	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
	"github.com/angelmondragon/hookrelay-backend/pkg/pagination"
	"github.com/angelmondragon/hookrelay-backend/pkg/types"
)

// Machine-readable reasons attached to NOT_FOUND and QUOTA_EXCEEDED details.
const (
	ReasonIntegrationNotFound      = "INTEGRATION_NOT_FOUND"
	ReasonUserStatsNotFound        = "USER_STATS_NOT_FOUND"
	ReasonSignatureNotFound        = "SIGNATURE_NOT_FOUND"
	ReasonIntegrationQuotaExceeded = "INTEGRATION_QUOTA_EXCEEDED"
)

const urlCodeConstraint = "integrations_url_code_key"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type routeRegistry interface {
	Has(key string) bool
}

// Service manages an account's routing rules.
type Service interface {
	Available(source string) AvailableResult
	Create(ctx context.Context, accountID uuid.UUID, input CreateInput) (*IntegrationDTO, error)
	List(ctx context.Context, accountID uuid.UUID, params ListParams) (*ListResult, error)
	Get(ctx context.Context, accountID, id uuid.UUID) (*IntegrationDTO, error)
	Update(ctx context.Context, accountID, id uuid.UUID, input UpdateInput) (*IntegrationDTO, error)
	Delete(ctx context.Context, accountID, id uuid.UUID) (*DeleteResult, error)
}

// ServiceParams groups dependencies for the integrations service.
type ServiceParams struct {
	Repo       Repository
	Usage      usage.Repository
	Signatures signatures.Repository
	Catalog    *catalog.Catalog
	Routes     routeRegistry
	Tx         txRunner
	WebhookURL func(urlCode string) string
	Logger     *logger.Logger
}

type service struct {
	repo       Repository
	usage      usage.Repository
	signatures signatures.Repository
	catalog    *catalog.Catalog
	routes     routeRegistry
	tx         txRunner
	webhookURL func(string) string
	logg       *logger.Logger
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "integrations repo is required")
	case params.Usage == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage repo is required")
	case params.Signatures == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "signatures repo is required")
	case params.Catalog == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog is required")
	case params.Routes == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "route registry is required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	case params.WebhookURL == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook url builder is required")
	}
	return &service{
		repo:       params.Repo,
		usage:      params.Usage,
		signatures: params.Signatures,
		catalog:    params.Catalog,
		routes:     params.Routes,
		tx:         params.Tx,
		webhookURL: params.WebhookURL,
		logg:       params.Logger,
		now:        time.Now,
	}, nil
}

func (s *service) Available(source string) AvailableResult {
	return AvailableResult{Sources: s.catalog.Filter(source)}
}

// Create validates the route against the catalog, enforces the integration quota and stores an ACTIVE rule.
func (s *service) Create(ctx context.Context, accountID uuid.UUID, input CreateInput) (*IntegrationDTO, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}

	route := mapping.Route{
		SourcePlatform: strings.TrimSpace(input.Source.Platform),
		SourceEvent:    strings.TrimSpace(input.Source.Event),
		DestPlatform:   strings.TrimSpace(input.Destination.Platform),
		DestAction:     strings.TrimSpace(input.Destination.Action),
	}
	entry, ok := s.catalog.Find(route)
	if !ok || !s.routes.Has(route.Key()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported integration route").
			WithDetails(map[string]any{"route": route.Key()})
	}

	fields := input.AdditionalFields
	if input.Destination.URL != nil {
		fields = fields.Set("url", strings.TrimSpace(*input.Destination.URL))
	}
	if input.Destination.APIKey != nil {
		fields = fields.Set("apiKey", strings.TrimSpace(*input.Destination.APIKey))
	}
	if missing := missingFields(entry, fields); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing destination fields").
			WithDetails(map[string]any{"missingFields": missing})
	}

	integration := &models.Integration{
		ID:                           uuid.New(),
		AccountID:                    accountID,
		URLCode:                      uuid.NewString(),
		Name:                         trimmedPtr(input.Name),
		SourcePlatform:               route.SourcePlatform,
		SourceEvent:                  route.SourceEvent,
		SourceName:                   optional(entry.SourceName),
		SourceDescription:            optional(entry.SourceDescription),
		SourceEventDescription:       optional(entry.SourceEventDescription),
		DestinationPlatform:          route.DestPlatform,
		DestinationAction:            route.DestAction,
		DestinationName:              optional(entry.DestinationName),
		DestinationDescription:       optional(entry.DestinationDescription),
		DestinationActionDescription: optional(entry.DestinationActionDescription),
		AdditionalFields:             fields,
		Status:                       enums.IntegrationStatusActive,
		OrderBump:                    input.OrderBump,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usageRepo := s.usage.WithTx(tx)
		stats, err := usageRepo.FindByAccount(ctx, accountID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load usage")
		}
		if stats == nil {
			return notFound("usage not found", ReasonUserStatsNotFound)
		}
		sig, err := s.signatures.FindActiveByAccount(ctx, accountID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load signature")
		}
		if sig == nil {
			return notFound("signature not found", ReasonSignatureNotFound)
		}
		if !(sig.IntegrationQuota > stats.UsedIntegrationQuota) {
			return pkgerrors.New(pkgerrors.CodeQuotaExceeded, "integration quota exceeded").
				WithDetails(map[string]any{"reason": ReasonIntegrationQuotaExceeded})
		}
		if err := s.repo.WithTx(tx).Create(ctx, integration); err != nil {
			if db.IsUniqueViolation(err, urlCodeConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "url code already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create integration")
		}
		if err := usageRepo.IncrementIntegrationQuota(ctx, accountID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment integration quota")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithIntegrationID(s.logg.WithAccountID(ctx, accountID.String()), integration.ID.String())
		s.logg.Info(logCtx, "integrations.created")
	}
	dto := toDTO(*integration, s.webhookURL(integration.URLCode))
	return &dto, nil
}

func (s *service) List(ctx context.Context, accountID uuid.UUID, params ListParams) (*ListResult, error) {
	filters := ListFilters{AccountID: accountID, SourcePlatform: params.Source}
	if raw := strings.TrimSpace(params.Status); raw != "" {
		status, err := enums.ParseIntegrationStatus(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	limit := pagination.NormalizeLimit(params.Limit)
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	rows, total, err := s.repo.ListByAccount(ctx, filters, offset, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list integrations")
	}
	out := make([]IntegrationDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row, s.webhookURL(row.URLCode)))
	}
	return &ListResult{Integrations: out, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *service) Get(ctx context.Context, accountID, id uuid.UUID) (*IntegrationDTO, error) {
	integration, err := s.load(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*integration, s.webhookURL(integration.URLCode))
	return &dto, nil
}

// Update applies the partial change. destinationUrl rewrites the "url" field.
func (s *service) Update(ctx context.Context, accountID, id uuid.UUID, input UpdateInput) (*IntegrationDTO, error) {
	integration, err := s.load(ctx, accountID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		integration.Name = trimmedPtr(input.Name)
	}
	if input.DestinationURL != nil {
		integration.AdditionalFields = integration.AdditionalFields.Set("url", strings.TrimSpace(*input.DestinationURL))
	}
	if input.Status != nil {
		status, err := enums.ParseIntegrationStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		integration.Status = status
	}
	if input.OrderBump != nil {
		integration.OrderBump = *input.OrderBump
	}
	integration.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, integration); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update integration")
	}
	dto := toDTO(*integration, s.webhookURL(integration.URLCode))
	return &dto, nil
}

// Delete removes the rule and releases one unit of integration quota.
func (s *service) Delete(ctx context.Context, accountID, id uuid.UUID) (*DeleteResult, error) {
	var deleted *models.Integration
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := s.repo.WithTx(tx).Delete(ctx, id, accountID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete integration")
		}
		if row == nil {
			return notFound("integration not found", ReasonIntegrationNotFound)
		}
		// accounts without a counters row have nothing to release
		if err := s.usage.WithTx(tx).DecrementIntegrationQuota(ctx, accountID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement integration quota")
		}
		deleted = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithIntegrationID(s.logg.WithAccountID(ctx, accountID.String()), id.String())
		s.logg.Info(logCtx, "integrations.deleted")
	}
	return &DeleteResult{ID: deleted.ID, Name: deleted.Name, DeletedAt: s.now().UTC(), Success: true}, nil
}

func (s *service) load(ctx context.Context, accountID, id uuid.UUID) (*models.Integration, error) {
	integration, err := s.repo.FindByID(ctx, id, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load integration")
	}
	if integration == nil {
		return nil, notFound("integration not found", ReasonIntegrationNotFound)
	}
	return integration, nil
}

func missingFields(entry catalog.Entry, fields types.AdditionalFields) []string {
	missing := []string{}
	for _, name := range entry.RequiredFields() {
		if value, ok := fields.Lookup(name); !ok || strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func notFound(message, reason string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeNotFound, message).WithDetails(map[string]any{"reason": reason})
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	return optional(*v)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
