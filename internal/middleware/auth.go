package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// Auth verifies the bearer token when one is sent. Requests without one
// continue anonymously; mutations then fail further down with auth required.
func Auth(secretKey string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, span := otel.Tracer.Start(r.Context(), "middleware Auth")
			defer span.End()

			logger := zerolog.Ctx(c).With().Str(log.KeyTag, "middleware Auth").Logger()

			authorization := r.Header.Get(inHttp.KEY_HEADER_AUTHORIZATION)
			if authorization == "" {
				logger.Trace().Msg("no authorization header, continuing anonymously")
				next.ServeHTTP(w, r)
				return
			}
			if len(authorization) < len(inHttp.VALUE_BEARER_PREFIX) ||
				!strings.EqualFold(authorization[:len(inHttp.VALUE_BEARER_PREFIX)], inHttp.VALUE_BEARER_PREFIX) {
				otel.RecordError(inErrors.ErrEmptyAuth, span)
				logger.Error().Err(inErrors.ErrEmptyAuth).Msg(inErrors.ErrEmptyAuth.Error())
				inHttp.WriteJsonResponse(
					c,
					w,
					map[string]string{},
					inHttp.Failed(http.StatusUnauthorized, inErrors.ErrEmptyAuth.Error()),
				)
				return
			}

			logger.Trace().Msg("verifying token")
			token, err := auth.VerifyToken(c, authorization[len(inHttp.VALUE_BEARER_PREFIX):], secretKey)
			if err != nil {
				otel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteJsonResponse(
					c,
					w,
					map[string]string{},
					inHttp.Failed(http.StatusUnauthorized, inErrors.ErrTokenInvalid.Error()),
				)
				return
			}
			logger.Trace().Msg("verified token")

			next.ServeHTTP(w, r.WithContext(auth.AttachJwtToken(r.Context(), token)))
		})
	}
}
