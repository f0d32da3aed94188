package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hookrelay-backend/internal/integrations"
	"github.com/angelmondragon/hookrelay-backend/internal/mapping"
	"github.com/angelmondragon/hookrelay-backend/internal/signatures"
	"github.com/angelmondragon/hookrelay-backend/internal/usage"
	"github.com/angelmondragon/hookrelay-backend/pkg/db/models"
	"github.com/angelmondragon/hookrelay-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hookrelay-backend/pkg/errors"
	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
	"github.com/angelmondragon/hookrelay-backend/pkg/metrics"
	"github.com/angelmondragon/hookrelay-backend/pkg/pagination"
	"github.com/angelmondragon/hookrelay-backend/pkg/types"
)

const (
	ReasonWebhookNotFound      = "WEBHOOK_NOT_FOUND"
	ReasonWebhookQuotaExceeded = "WEBHOOK_QUOTA_EXCEEDED"

	retryMessage        = "webhook retried"
	unknownErrorMessage = "Unknown error"
	endpointField       = "url"
)

type ruleRepository interface {
	FindByURLCode(ctx context.Context, urlCode string) (*models.Integration, error)
	FindByID(ctx context.Context, id, accountID uuid.UUID) (*models.Integration, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Integration, error)
	IncrementCounters(ctx context.Context, id uuid.UUID, delta integrations.Counters) error
}

type dispatcher interface {
	Execute(ctx context.Context, payload json.RawMessage, rule *models.Integration) (*mapping.Result, error)
}

// ServiceParams groups dependencies for the delivery pipeline.
type ServiceParams struct {
	Webhooks   Repository
	Rules      ruleRepository
	Usage      usage.Repository
	Signatures signatures.Repository
	Dispatcher dispatcher
	Metrics    *metrics.DeliveryMetrics
	Logger     *logger.Logger
}

// Service runs inbound events through quota, dispatch and recording, and serves
// the delivery log.
type Service struct {
	webhooks   Repository
	rules      ruleRepository
	usage      usage.Repository
	signatures signatures.Repository
	dispatcher dispatcher
	metrics    *metrics.DeliveryMetrics
	logg       *logger.Logger
	now        func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Webhooks == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhooks repo required")
	case params.Rules == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "integrations repo required")
	case params.Usage == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "usage repo required")
	case params.Signatures == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "signatures repo required")
	case params.Dispatcher == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "dispatcher required")
	case params.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		webhooks:   params.Webhooks,
		rules:      params.Rules,
		usage:      params.Usage,
		signatures: params.Signatures,
		dispatcher: params.Dispatcher,
		metrics:    params.Metrics,
		logg:       params.Logger,
		now:        time.Now,
	}, nil
}

// ProcessInbound dispatches one inbound event. Dispatch failures become ERROR
// records; the returned error only reports lookups that could not run.
func (s *Service) ProcessInbound(ctx context.Context, msg InboundMessage) error {
	logCtx := s.logg.WithField(ctx, "url_code", msg.URLCode)

	rule, err := s.rules.FindByURLCode(ctx, msg.URLCode)
	if err != nil {
		s.metrics.IncDropped(metrics.DropLookupFailed)
		return fmt.Errorf("find integration by url code: %w", err)
	}
	if rule == nil {
		s.logg.Warn(logCtx, "webhooks.integration_not_found")
		s.metrics.IncDropped(metrics.DropRuleNotFound)
		return nil
	}
	logCtx = s.logg.WithAccountID(logCtx, rule.AccountID.String())
	logCtx = s.logg.WithIntegrationID(logCtx, rule.ID.String())

	quota, err := s.checkQuota(ctx, rule.AccountID)
	if err != nil {
		s.metrics.IncDropped(metrics.DropLookupFailed)
		return fmt.Errorf("load quota: %w", err)
	}
	if quota.dropReason != "" {
		s.logg.Warn(s.logg.WithField(logCtx, "reason", quota.dropReason), "webhooks.dropped")
		s.metrics.IncDropped(quota.dropReason)
		return nil
	}
	if !quota.allowed {
		s.logg.Warn(logCtx, "webhooks.quota_exceeded")
		s.metrics.IncDropped(metrics.DropQuotaExceeded)
		return nil
	}

	record := s.newRecord(rule, msg.Payload)
	s.dispatch(ctx, logCtx, rule, msg.Payload, record)

	if err := s.webhooks.Create(ctx, record); err != nil {
		s.logg.Error(logCtx, "webhooks.record.save_failed", err)
		return nil
	}
	if err := s.usage.IncrementWebhookQuota(ctx, rule.AccountID); err != nil {
		s.logg.Error(logCtx, "webhooks.quota.increment_failed", err)
	}
	return nil
}

// Retry replays a recorded inbound payload through the current rule and stores
// the attempt as a new record linked to the original.
func (s *Service) Retry(ctx context.Context, accountID, webhookID uuid.UUID) (*RetryResult, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}

	original, err := s.webhooks.FindByID(ctx, webhookID, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load webhook")
	}
	if original == nil {
		return nil, notFound("webhook not found", ReasonWebhookNotFound)
	}

	rule, err := s.rules.FindByID(ctx, original.IntegrationID, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load integration")
	}
	if rule == nil {
		return nil, notFound("integration not found", integrations.ReasonIntegrationNotFound)
	}

	quota, err := s.checkQuota(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load quota")
	}
	switch {
	case quota.dropReason == metrics.DropUsageNotFound:
		return nil, notFound("user stats not found", integrations.ReasonUserStatsNotFound)
	case quota.dropReason == metrics.DropSignatureMissing:
		return nil, notFound("signature not found", integrations.ReasonSignatureNotFound)
	case !quota.allowed:
		return nil, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "webhook quota exceeded").
			WithDetails(map[string]any{"reason": ReasonWebhookQuotaExceeded})
	}

	logCtx := s.logg.WithAccountID(ctx, accountID.String())
	logCtx = s.logg.WithIntegrationID(logCtx, rule.ID.String())
	logCtx = s.logg.WithField(logCtx, "original_webhook_id", original.ID.String())

	payload := json.RawMessage("null")
	if original.ResponseBody != nil {
		payload = json.RawMessage(*original.ResponseBody)
	}

	record := s.newRecord(rule, payload)
	record.Method = original.Method
	record.IsRetry = true
	record.OriginalWebhookID = &original.ID
	s.dispatch(ctx, logCtx, rule, payload, record)

	if err := s.webhooks.Create(ctx, record); err != nil {
		s.logg.Error(logCtx, "webhooks.record.save_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save webhook record")
	}
	if err := s.usage.IncrementWebhookQuota(ctx, accountID); err != nil {
		s.logg.Error(logCtx, "webhooks.quota.increment_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment webhook quota")
	}

	s.logg.Info(s.logg.WithField(logCtx, "webhook_id", record.ID.String()), "webhooks.retried")
	return &RetryResult{
		Success:      true,
		Message:      retryMessage,
		NewWebhookID: record.ID,
		RetriedAt:    record.TriggeredAt,
	}, nil
}

// List pages through the account's delivery log, newest first, clipped to the
// plan's log view window.
func (s *Service) List(ctx context.Context, accountID uuid.UUID, params ListParams) (*ListResult, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is required")
	}

	page := pagination.Params{Page: params.Page, Limit: params.Limit}.Normalize()
	filters := ListFilters{AccountID: accountID}
	echo := ListFiltersDTO{}

	if raw := strings.TrimSpace(params.IntegrationID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "integrationId must be a uuid").
				WithDetails(map[string]any{"field": "integrationId"})
		}
		filters.IntegrationID = &id
		echo.IntegrationID = id.String()
	}
	if raw := strings.TrimSpace(params.Status); raw != "" {
		status, err := enums.ParseDeliveryStatus(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "status must be success or error").
				WithDetails(map[string]any{"field": "status"})
		}
		filters.Status = &status
		echo.Status = status.Public()
	}

	sig, err := s.signatures.FindActiveByAccount(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load signature")
	}
	if sig != nil && sig.LogViewQuota != nil && *sig.LogViewQuota > 0 {
		since := LogWindowStart(s.now(), *sig.LogViewQuota)
		filters.Since = &since
	}

	rows, total, err := s.webhooks.List(ctx, filters, (page.Page-1)*page.Limit, page.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list webhooks")
	}

	summaries, err := s.summaries(ctx, rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load integrations")
	}

	items := make([]WebhookDTO, 0, len(rows))
	for _, row := range rows {
		var summary *integrations.Summary
		if found, ok := summaries[row.IntegrationID]; ok {
			summary = &found
		}
		items = append(items, toDTO(row, summary))
	}

	return &ListResult{
		Webhooks:   items,
		Pagination: pagination.NewMeta(page, total),
		Filters:    echo,
	}, nil
}

// LogWindowStart is midnight UTC of the day `days` before now.
func LogWindowStart(now time.Time, days int) time.Time {
	past := now.UTC().AddDate(0, 0, -days)
	return time.Date(past.Year(), past.Month(), past.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) summaries(ctx context.Context, rows []models.Webhook) (map[uuid.UUID]integrations.Summary, error) {
	seen := make(map[uuid.UUID]struct{}, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if row.IntegrationID == uuid.Nil {
			continue
		}
		if _, ok := seen[row.IntegrationID]; ok {
			continue
		}
		seen[row.IntegrationID] = struct{}{}
		ids = append(ids, row.IntegrationID)
	}

	out := make(map[uuid.UUID]integrations.Summary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	found, err := s.rules.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, integration := range found {
		out[integration.ID] = integrations.SummaryOf(integration)
	}
	return out, nil
}

func (s *Service) newRecord(rule *models.Integration, payload json.RawMessage) *models.Webhook {
	now := s.now().UTC()
	record := &models.Webhook{
		ID:            uuid.New(),
		AccountID:     rule.AccountID,
		IntegrationID: rule.ID,
		Method:        enums.HTTPMethodPost,
		ResponseBody:  inboundBody(payload),
		TriggeredAt:   now,
		UpdatedAt:     now,
	}
	if endpoint, ok := rule.AdditionalFields.Lookup(endpointField); ok {
		record.Endpoint = &endpoint
	}
	return record
}

// dispatch runs the mapper, fills the outcome into record and bumps the rule counters.
func (s *Service) dispatch(ctx, logCtx context.Context, rule *models.Integration, payload json.RawMessage, record *models.Webhook) {
	route := mapping.RouteOf(rule).Key()
	started := time.Now()
	result, err := s.dispatcher.Execute(ctx, payload, rule)
	elapsed := time.Since(started)

	var delta integrations.Counters
	if err != nil {
		de := mapping.AsDispatchError(err)
		message := de.Message
		if message == "" {
			message = unknownErrorMessage
		}
		record.Status = enums.DeliveryStatusError
		record.Error = &types.DeliveryError{Message: message, Code: de.Code, Details: de.Details()}
		if de.MappedPayload != nil {
			record.RequestBody = encodeBody(de.MappedPayload)
		}
		delta.Error = 1
		s.logg.Error(s.logg.WithFields(logCtx, map[string]any{"route": route, "code": de.Code}), "webhooks.dispatch.failed", err)
	} else {
		status := result.ResponseStatus
		latency := result.ResponseTime.Milliseconds()
		record.Status = enums.DeliveryStatusSuccess
		record.RequestBody = encodeBody(result.MappedPayload)
		record.ResponseStatus = &status
		record.ResponseTimeMS = &latency
		delta.Success = 1
		s.logg.Info(s.logg.WithFields(logCtx, map[string]any{"route": route, "response_status": status}), "webhooks.dispatch.succeeded")
	}
	s.metrics.ObserveDelivery(route, record.Status.Public(), elapsed)

	if err := s.rules.IncrementCounters(ctx, rule.ID, delta); err != nil {
		s.logg.Error(logCtx, "webhooks.counters.increment_failed", err)
	}
}

func inboundBody(payload json.RawMessage) *string {
	if len(bytes.TrimSpace(payload)) == 0 {
		body := "null"
		return &body
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		body := string(payload)
		return &body
	}
	body := buf.String()
	return &body
}

func encodeBody(v any) *string {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	body := string(buf)
	return &body
}

func notFound(message, reason string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, message).WithDetails(map[string]any{"reason": reason})
}
