package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/common/validate"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

var errInvalidRequestBody = errors.New("invalid request body")

func statusCodeOf(err error) int {
	switch {
	case errors.Is(err, inErrors.ErrAuthRequired),
		errors.Is(err, inErrors.ErrEmptySubject):
		return http.StatusUnauthorized
	case errors.Is(err, inErrors.ErrSessionForbidden):
		return http.StatusForbidden
	case errors.Is(err, inErrors.ErrInvalidQuantity),
		errors.Is(err, inErrors.ErrInvalidProduct),
		errors.Is(err, inErrors.ErrEmptySession),
		errors.Is(err, errInvalidRequestBody):
		return http.StatusBadRequest
	case errors.Is(err, inErrors.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrRemoteFailure),
		errors.Is(err, inErrors.ErrMalformedServerPayload):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status err maps to. data, when set, is the
// collection as it stands after the failure.
func writeError(c context.Context, w http.ResponseWriter, span trace.Span, logger zerolog.Logger, err error, data any) {
	otel.RecordError(err, span)
	logger.Error().Err(err).Msg(err.Error())
	body := inHttp.Failed(statusCodeOf(err), err.Error())
	body.Data = data
	inHttp.WriteJsonResponse(c, w, map[string]string{}, body)
}

// sessionStore resolves the caller's store and identity and checks the caller
// may act on it. userID is "" for anonymous callers.
func sessionStore(
	c context.Context,
	registry *service.Registry,
	logger zerolog.Logger,
) (*service.Store, string, zerolog.Logger, error) {
	sessionID := inHttp.SessionIDFromContext(c)
	logger = logger.With().Str(log.KeySessionID, sessionID).Logger()

	logger.Trace().Msg("getting session store")
	store, err := registry.Get(c, sessionID)
	if err != nil {
		return nil, "", logger, fmt.Errorf("failed getting session store with error=%w", err)
	}

	logger.Trace().Msg("getting userId from jwtToken")
	userID, err := auth.UserIdFromContext(c)
	if err != nil {
		return nil, "", logger, fmt.Errorf("failed getting userId from jwtToken with error=%w", err)
	}
	logger = logger.With().Str(log.KeyUserID, userID).Logger()

	logger.Trace().Msg("authorizing session")
	if err := store.Authorize(c, userID); err != nil {
		return nil, "", logger, err
	}

	return store, userID, logger, nil
}

func requireUser(userID string, operation string) error {
	if userID == "" {
		return fmt.Errorf("failed %s with error=%w", operation, inErrors.ErrAuthRequired)
	}
	return nil
}

func decodeBody(c context.Context, r *http.Request, body any) error {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		return fmt.Errorf("failed decoding request body with error=%w", fmt.Errorf("%w: %w", errInvalidRequestBody, err))
	}
	if err := validate.New().StructCtx(c, body); err != nil {
		return fmt.Errorf("failed validating request body with error=%w", fmt.Errorf("%w: %w", errInvalidRequestBody, err))
	}
	return nil
}
