package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/storefront/cart/internal/common/otel"
	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/response"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
)

type WishlistController struct {
	registry *service.Registry
}

func AttachWishlistController(mux *mux.Router, registry *service.Registry) {
	controller := WishlistController{registry: registry}

	router := mux.PathPrefix("/wishlist").Subrouter()
	router.HandleFunc("", controller.FindWishlist).Methods(http.MethodGet)
	router.HandleFunc("/items", controller.AddWishlistItem).Methods(http.MethodPost)
	router.HandleFunc("/items/{productId}", controller.RemoveWishlistItem).Methods(http.MethodDelete)
}

func (t WishlistController) FindWishlist(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "WishlistController FindWishlist")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "WishlistController FindWishlist").Logger()

	store, _, logger, err := sessionStore(c, t.registry, logger)
	if err != nil {
		writeError(c, w, span, logger, err, nil)
		return
	}

	inHttp.WriteJsonResponse(
		c,
		w,
		map[string]string{},
		inHttp.Success(http.StatusOK, "successfully found wishlist", response.FromWishlist(store.Wishlist.View())),
	)
}

func (t WishlistController) AddWishlistItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "WishlistController AddWishlistItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "WishlistController AddWishlistItem").Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.AddItem{}
	if err := decodeBody(c, r, &reqBody); err != nil {
		writeError(c, w, span, logger, err, nil)
		return
	}
	span.SetAttributes(attribute.String(log.KeyProductID, reqBody.Product.ID))
	logger = logger.With().Str(log.KeyProductID, reqBody.Product.ID).Logger()
	logger.Info().Msg("decoded request body")

	store, userID, logger, err := sessionStore(c, t.registry, logger)
	if err != nil {
		writeError(c, w, span, logger, err, nil)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "adding wishlist item").Logger()
	logger.Info().Msg("adding wishlist item")
	wishlist, err := store.Wishlist.Add(logger.WithContext(c), reqBody.Product.ID, reqBody.Product, userID)
	if err != nil {
		writeError(c, w, span, logger, err, response.FromWishlist(wishlist))
		return
	}
	logger.Info().Msg("added wishlist item")

	inHttp.WriteJsonResponse(
		c,
		w,
		map[string]string{},
		inHttp.Success(http.StatusOK, "successfully added wishlist item", response.FromWishlist(wishlist)),
	)
}

func (t WishlistController) RemoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["productId"]
	c, span := otel.Tracer.Start(
		r.Context(),
		"WishlistController RemoveWishlistItem",
		trace.WithAttributes(attribute.String(log.KeyProductID, productID)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistController RemoveWishlistItem").
		Str(log.KeyProductID, productID).
		Logger()

	store, userID, logger, err := sessionStore(c, t.registry, logger)
	if err != nil {
		writeError(c, w, span, logger, err, nil)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "removing wishlist item").Logger()
	logger.Info().Msg("removing wishlist item")
	wishlist, err := store.Wishlist.Remove(logger.WithContext(c), productID, userID)
	if err != nil {
		writeError(c, w, span, logger, err, response.FromWishlist(wishlist))
		return
	}
	logger.Info().Msg("removed wishlist item")

	inHttp.WriteJsonResponse(
		c,
		w,
		map[string]string{},
		inHttp.Success(http.StatusOK, "successfully removed wishlist item", response.FromWishlist(wishlist)),
	)
}
