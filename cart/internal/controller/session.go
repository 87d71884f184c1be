package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/common/otel"
	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/cart/response"
	"github.com/Alturino/storefront/internal/auth"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
)

type SessionController struct {
	registry *service.Registry
}

func AttachSessionController(mux *mux.Router, registry *service.Registry) {
	controller := SessionController{registry: registry}

	router := mux.PathPrefix("/session").Subrouter()
	router.HandleFunc("", controller.Login).Methods(http.MethodPost)
	router.HandleFunc("", controller.Logout).Methods(http.MethodDelete)
	router.HandleFunc("/orders", controller.CompleteOrder).Methods(http.MethodPost)
}

// Login hydrates the session from the profile service using the caller's bearer token.
func (t SessionController) Login(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController Login")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "SessionController Login").Logger()

	store, userID, logger, err := sessionStore(c, t.registry, logger)
	if err == nil {
		err = requireUser(userID, "login")
	}
	if err != nil {
		writeError(c, w, span, logger, err, nil)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "logging in").Logger()
	logger.Info().Msg("logging in")
	user, err := store.Login(logger.WithContext(c), auth.RawTokenFromContext(c), userID)
	if err != nil {
		writeError(c, w, span, logger, err, nil)
		return
	}
	logger.Info().Msg("logged in")

	inHttp.WriteJsonResponse(
		c,
		w,
		map[string]string{},
		inHttp.Success(
			http.StatusOK,
			"successfully logged in",
			response.FromSession(user, store.Cart.View(), store.Wishlist.View()),
		),
	)
}

func (t SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController Logout")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "SessionController Logout").Logger()

	store, userID, logger, err := sessionStore(c, t.registry, logger)
	if err == nil {
		err = requireUser(userID, "logout")
	}
	if err != nil {
		writeError(c, w, span, logger, err, nil)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "logging out").Logger()
	logger.Info().Msg("logging out")
	if err := store.Logout(logger.WithContext(c)); err != nil {
		writeError(c, w, span, logger, err, nil)
		return
	}
	t.registry.Drop(inHttp.SessionIDFromContext(c))
	logger.Info().Msg("logged out")

	inHttp.WriteJsonResponse(
		c,
		w,
		map[string]string{},
		inHttp.Success(http.StatusOK, "successfully logged out", nil),
	)
}

// CompleteOrder is called once checkout has placed the order; the server
// side cart is emptied by that order, so only the local cart is cleared.
func (t SessionController) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController CompleteOrder")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "SessionController CompleteOrder").Logger()

	store, userID, logger, err := sessionStore(c, t.registry, logger)
	if err == nil {
		err = requireUser(userID, "completing order")
	}
	if err != nil {
		writeError(c, w, span, logger, err, nil)
		return
	}

	store.CompleteOrder(logger.WithContext(c))

	inHttp.WriteJsonResponse(
		c,
		w,
		map[string]string{},
		inHttp.Success(http.StatusOK, "successfully completed order", response.FromCart(store.Cart.View())),
	)
}
