package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/profile/pkg/response"
)

const (
	OperationAddCartItem        = "add cart item"
	OperationRemoveCartItem     = "remove cart item"
	OperationAddWishlistItem    = "add wishlist item"
	OperationRemoveWishlistItem = "remove wishlist item"
	OperationFindUserById       = "find user by id"
)

type ProfileClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewProfileClient(c context.Context, profile config.Profile, breaker config.Breaker) *ProfileClient {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "NewProfileClient").
		Str(log.KeyURL, profile.BaseURL).
		Logger()

	settings := gobreaker.Settings{
		Name:        "ProfileService",
		MaxRequests: breaker.MaxRequests,
		Interval:    breaker.Interval,
		Timeout:     breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= breaker.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= breaker.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().Msgf("circuit breaker=%s changed state from=%s to=%s", name, from, to)
		},
	}

	return &ProfileClient{
		baseURL: strings.TrimRight(profile.BaseURL, "/"),
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   profile.Timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *ProfileClient) AddCartItem(c context.Context, userID string, productID string) (response.User, error) {
	return p.do(c, OperationAddCartItem, http.MethodPost, p.itemURL(userID, "cart", productID))
}

func (p *ProfileClient) RemoveCartItem(c context.Context, userID string, productID string) (response.User, error) {
	return p.do(c, OperationRemoveCartItem, http.MethodDelete, p.itemURL(userID, "cart", productID))
}

func (p *ProfileClient) AddWishlistItem(c context.Context, userID string, productID string) (response.User, error) {
	return p.do(c, OperationAddWishlistItem, http.MethodPost, p.itemURL(userID, "wishlist", productID))
}

func (p *ProfileClient) RemoveWishlistItem(c context.Context, userID string, productID string) (response.User, error) {
	return p.do(c, OperationRemoveWishlistItem, http.MethodDelete, p.itemURL(userID, "wishlist", productID))
}

func (p *ProfileClient) FindUserById(c context.Context, userID string) (response.User, error) {
	return p.do(c, OperationFindUserById, http.MethodGet, p.baseURL+"/users/"+url.PathEscape(userID))
}

func (p *ProfileClient) itemURL(userID string, collection string, productID string) string {
	return fmt.Sprintf(
		"%s/users/%s/%s/%s",
		p.baseURL,
		url.PathEscape(userID),
		collection,
		url.PathEscape(productID),
	)
}

func (p *ProfileClient) do(
	c context.Context,
	operation string,
	method string,
	target string,
) (response.User, error) {
	c, span := otel.Tracer.Start(
		c,
		"ProfileClient "+operation,
		trace.WithAttributes(
			attribute.String(log.KeyOperation, operation),
			attribute.String(log.KeyURL, target),
		),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProfileClient do").
		Str(log.KeyOperation, operation).
		Str(log.KeyRequestMethod, method).
		Str(log.KeyURL, target).
		Logger()

	start := time.Now()
	status := "error"
	defer func() {
		metrics.RemoteCalls.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
	}()

	logger = logger.With().Str(log.KeyProcess, "sending request").Logger()
	logger.Info().Msgf("sending %s request", operation)
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.send(c, method, target)
	})
	if err != nil {
		if !errors.Is(err, inErrors.ErrMalformedServerPayload) {
			err = fmt.Errorf("%w: %w", inErrors.ErrRemoteFailure, err)
		}
		err = fmt.Errorf("failed sending %s request with error=%w", operation, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	status = "ok"
	logger.Info().Msgf("sent %s request", operation)

	return result.(response.User), nil
}

func (p *ProfileClient) send(c context.Context, method string, target string) (response.User, error) {
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProfileClient send").Logger()

	req, err := http.NewRequestWithContext(c, method, target, nil)
	if err != nil {
		return response.User{}, fmt.Errorf("failed creating request with error=%w", err)
	}
	req.Header.Add(inHttp.KEY_HEADER_CONTENT_TYPE, inHttp.VALUE_HEADER_APPLICATION_JSON)
	if requestID := log.RequestIDFromContext(c); requestID != "" {
		req.Header.Add(inHttp.KEY_HEADER_REQUEST_ID, requestID)
	}
	if token := auth.RawTokenFromContext(c); token != "" {
		req.Header.Add(inHttp.KEY_HEADER_AUTHORIZATION, inHttp.VALUE_BEARER_PREFIX+token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return response.User{}, fmt.Errorf("failed sending request with error=%w", err)
	}
	defer resp.Body.Close()
	logger = logger.With().Int(log.KeyStatusCode, resp.StatusCode).Logger()

	body := response.Envelope{}
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err = fmt.Errorf(
			"profile service returned status code=%d with message=%s",
			resp.StatusCode,
			body.Message,
		)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	if decodeErr != nil {
		return response.User{}, fmt.Errorf(
			"failed decoding response body with error=%w",
			fmt.Errorf("%w: %w", inErrors.ErrMalformedServerPayload, decodeErr),
		)
	}
	logger.Trace().Msg("decoded response body")

	return body.Data, nil
}
