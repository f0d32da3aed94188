package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/hookrelay-backend/api/responses"
	pkgerrors "github.com/angelmondragon/hookrelay-backend/pkg/errors"
	"github.com/angelmondragon/hookrelay-backend/pkg/logger"
)

// Recoverer turns a handler panic into a 500 envelope. The log entry names the
// route and, for inbound events, the url code so the failing rule can be found.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := fmt.Errorf("panic: %v", rec)
					ctx := r.Context()
					if logg != nil {
						fields := map[string]any{
							"panic":  rec,
							"method": r.Method,
							"path":   r.URL.Path,
						}
						if urlCode := chi.URLParam(r, "urlCode"); urlCode != "" {
							fields["url_code"] = urlCode
						}
						ctx = logg.WithFields(ctx, fields)
						logg.Error(ctx, "http.panic_recovered", err)
					}
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
