package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
	"github.com/Ado-go/farmly-sub001/pkg/httputil"
	"github.com/Ado-go/farmly-sub001/pkg/middleware"
)

// CartSessionHeader identifies the cart of an anonymous shopper.
const CartSessionHeader = "X-Cart-Session"

type sessionKey struct{}

// CartSession resolves the cart slot a request works on. Signed-in users
// own the slot "user:<id>"; guests send a UUID in X-Cart-Session and own
// "guest:<uuid>". Requests carrying neither are rejected with 401.
func CartSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var session string
		if userID := middleware.UserIDFromContext(r.Context()); userID > 0 {
			session = "user:" + strconv.FormatInt(userID, 10)
		} else if raw := strings.TrimSpace(r.Header.Get(CartSessionHeader)); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid "+CartSessionHeader+" header"), nil)
				return
			}
			session = "guest:" + id.String()
		} else {
			httputil.WriteError(w, r, apperrors.Unauthorized("a signed-in user or a cart session is required"), nil)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey{}).(string)
	return s
}
