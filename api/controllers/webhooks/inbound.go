package webhooks

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/hookrelay-backend/api/responses"
	internalwebhooks "github.com/angelmondragon/hookrelay-backend/internal/webhooks"
	pkgerrors "github.com/angelmondragon/hookrelay-backend/pkg/errors"
	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
	"github.com/angelmondragon/hookrelay-backend/pkg/queue"
)

// DefaultMaxInboundBytes bounds an inbound event body.
const DefaultMaxInboundBytes int64 = 1 << 20

type inboundResponse struct {
	Message   string `json:"message"`
	URLCode   string `json:"urlCode"`
	MessageID string `json:"messageId"`
}

// Inbound accepts a third-party event for a routing rule and enqueues it for the
// worker. The rule is not looked up here; unknown codes are dropped downstream.
func Inbound(publisher queue.Publisher, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxInboundBytes
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if publisher == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "queue publisher unavailable"))
			return
		}

		urlCode := strings.TrimSpace(chi.URLParam(r, "urlCode"))
		if urlCode == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "url code is required"))
			return
		}

		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large").
					WithDetails(map[string]any{"limit": maxBytes}))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || !json.Valid(raw) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid JSON body"))
			return
		}
		if raw[0] != '{' {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "JSON body must be an object"))
			return
		}

		body, err := json.Marshal(internalwebhooks.InboundMessage{URLCode: urlCode, Payload: raw})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode inbound message"))
			return
		}

		messageID, err := publisher.Publish(ctx, body, map[string]string{queue.AttrURLCode: urlCode})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enqueue webhook"))
			return
		}

		if logg != nil {
			logg.Info(logg.WithFields(ctx, map[string]any{
				"url_code":   urlCode,
				"message_id": messageID,
			}), "webhooks.inbound.enqueued")
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, inboundResponse{
			Message:   "enqueued",
			URLCode:   urlCode,
			MessageID: messageID,
		})
	}
}
