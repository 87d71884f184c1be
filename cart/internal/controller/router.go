package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/internal/common/constants"
	"github.com/Alturino/storefront/internal/middleware"
)

// NewRouter serves /metrics openly and every session route behind the auth
// and session middlewares.
func NewRouter(registry *service.Registry, secretKey string) *mux.Router {
	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(constants.APP_STOREFRONT_SERVICE),
		middleware.Logging,
		middleware.RecoverPanic,
	)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(middleware.Auth(secretKey), middleware.Session)
	AttachCartController(api, registry)
	AttachWishlistController(api, registry)
	AttachSessionController(api, registry)

	return router
}
