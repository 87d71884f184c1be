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

type CartController struct {
	registry *service.Registry
}

func AttachCartController(mux *mux.Router, registry *service.Registry) {
	controller := CartController{registry: registry}

	router := mux.PathPrefix("/cart").Subrouter()
	router.HandleFunc("", controller.FindCart).Methods(http.MethodGet)
	router.HandleFunc("", controller.ClearCart).Methods(http.MethodDelete)
	router.HandleFunc("/items", controller.AddCartItem).Methods(http.MethodPost)
	router.HandleFunc("/items/{productId}", controller.RemoveCartItem).Methods(http.MethodDelete)
	router.HandleFunc("/items/{productId}", controller.SetCartItemQuantity).Methods(http.MethodPut)
}

func (t CartController) FindCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController FindCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController FindCart").Logger()

	store, _, logger, err := sessionStore(c, t.registry, logger)
	if err != nil {
		writeError(c, w, span, logger, err, nil)
		return
	}

	inHttp.WriteJsonResponse(
		c,
		w,
		map[string]string{},
		inHttp.Success(http.StatusOK, "successfully found cart", response.FromCart(store.Cart.View())),
	)
}

func (t CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ClearCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController ClearCart").Logger()

	store, userID, logger, err := sessionStore(c, t.registry, logger)
	if err == nil {
		err = requireUser(userID, "clearing cart")
	}
	if err != nil {
		writeError(c, w, span, logger, err, nil)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "clearing cart").Logger()
	logger.Info().Msg("clearing cart")
	cart := store.Cart.Clear(logger.WithContext(c))
	logger.Info().Msg("cleared cart")

	inHttp.WriteJsonResponse(
		c,
		w,
		map[string]string{},
		inHttp.Success(http.StatusOK, "successfully cleared cart", response.FromCart(cart)),
	)
}

func (t CartController) AddCartItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddCartItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController AddCartItem").Logger()

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

	logger = logger.With().Str(log.KeyProcess, "adding cart item").Logger()
	logger.Info().Msg("adding cart item")
	cart, err := store.Cart.Add(logger.WithContext(c), reqBody.Product.ID, reqBody.Product, userID)
	if err != nil {
		writeError(c, w, span, logger, err, response.FromCart(cart))
		return
	}
	logger.Info().Msg("added cart item")

	inHttp.WriteJsonResponse(
		c,
		w,
		map[string]string{},
		inHttp.Success(http.StatusOK, "successfully added cart item", response.FromCart(cart)),
	)
}

func (t CartController) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["productId"]
	c, span := otel.Tracer.Start(
		r.Context(),
		"CartController RemoveCartItem",
		trace.WithAttributes(attribute.String(log.KeyProductID, productID)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController RemoveCartItem").
		Str(log.KeyProductID, productID).
		Logger()

	store, userID, logger, err := sessionStore(c, t.registry, logger)
	if err != nil {
		writeError(c, w, span, logger, err, nil)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "removing cart item").Logger()
	logger.Info().Msg("removing cart item")
	cart, err := store.Cart.Remove(logger.WithContext(c), productID, userID)
	if err != nil {
		writeError(c, w, span, logger, err, response.FromCart(cart))
		return
	}
	logger.Info().Msg("removed cart item")

	inHttp.WriteJsonResponse(
		c,
		w,
		map[string]string{},
		inHttp.Success(http.StatusOK, "successfully removed cart item", response.FromCart(cart)),
	)
}

func (t CartController) SetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["productId"]
	c, span := otel.Tracer.Start(
		r.Context(),
		"CartController SetCartItemQuantity",
		trace.WithAttributes(attribute.String(log.KeyProductID, productID)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController SetCartItemQuantity").
		Str(log.KeyProductID, productID).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.SetQuantity{}
	if err := decodeBody(c, r, &reqBody); err != nil {
		writeError(c, w, span, logger, err, nil)
		return
	}
	logger = logger.With().Int(log.KeyTargetQuantity, reqBody.Quantity).Logger()
	logger.Info().Msg("decoded request body")

	store, userID, logger, err := sessionStore(c, t.registry, logger)
	if err != nil {
		writeError(c, w, span, logger, err, nil)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "setting cart item quantity").Logger()
	logger.Info().Msg("setting cart item quantity")
	cart, err := store.Cart.SetQuantity(logger.WithContext(c), productID, reqBody.Quantity, userID)
	if err != nil {
		writeError(c, w, span, logger, err, response.FromCart(cart))
		return
	}
	logger.Info().Msg("set cart item quantity")

	inHttp.WriteJsonResponse(
		c,
		w,
		map[string]string{},
		inHttp.Success(http.StatusOK, "successfully set cart item quantity", response.FromCart(cart)),
	)
}
