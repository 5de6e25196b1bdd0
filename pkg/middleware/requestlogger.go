package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Ado-go/farmly-sub001/pkg/logger"
)

// RequestLogger stores a logger enriched with correlation_id, user_id,
// user_role, trace_id and span_id in the request context. Handlers fetch it
// with logger.FromContext. Mount it after RequestLogging, Tracing and
// IdentityFromHeaders.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, _ := IdentityFromContext(ctx)
			if id.Authenticated() {
				ctx = logger.WithUserID(ctx, strconv.FormatInt(id.UserID, 10))
			}

			l := logger.WithContext(ctx, base)
			if id.Role != "" {
				l = l.With(slog.String("user_role", id.Role))
			}

			next.ServeHTTP(w, r.WithContext(logger.NewContext(ctx, l)))
		})
	}
}
