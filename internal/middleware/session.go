package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
)

// Session requires the X-Session-Id header that scopes a browser tab's state.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(inHttp.KEY_HEADER_SESSION_ID)
		logger := zerolog.Ctx(r.Context()).
			With().
			Str(log.KeyTag, "middleware Session").
			Str(log.KeySessionID, sessionID).
			Logger()

		if sessionID == "" {
			logger.Error().Err(inErrors.ErrEmptySession).Msg(inErrors.ErrEmptySession.Error())
			inHttp.WriteJsonResponse(
				r.Context(),
				w,
				map[string]string{},
				inHttp.Failed(http.StatusBadRequest, inErrors.ErrEmptySession.Error()),
			)
			return
		}

		c := inHttp.AttachSessionID(logger.WithContext(r.Context()), sessionID)
		next.ServeHTTP(w, r.WithContext(c))
	})
}
