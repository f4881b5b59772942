package middleware

import (
	"errors"
	"net/http"

	"github.com/angelmondragon/lockerlend-backend/api/responses"
	"github.com/angelmondragon/lockerlend-backend/pkg/auth"
	"github.com/angelmondragon/lockerlend-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/lockerlend-backend/pkg/errors"
	"github.com/angelmondragon/lockerlend-backend/pkg/logger"
)

// Auth requires a member access token and puts the member id on the request context.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := auth.ParseRequest(cfg, r)
			switch {
			case errors.Is(err, auth.ErrNoToken):
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			case err != nil:
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			memberID := claims.MemberID.String()
			ctx := WithMemberID(r.Context(), memberID)
			if logg != nil {
				ctx = logg.WithMemberID(ctx, memberID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
