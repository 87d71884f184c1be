package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/storefront/cart/internal/common/otel"
	"github.com/Alturino/storefront/cart/internal/payload"
	"github.com/Alturino/storefront/cart/pkg/model"
	"github.com/Alturino/storefront/internal/common/validate"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/mirror"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/profile/pkg/response"
)

const (
	operationAdd         = "add"
	operationRemove      = "remove"
	operationSetQuantity = "set quantity"
	operationClear       = "clear"
	operationHydrate     = "hydrate"
)

// DefaultMaxQuantity caps a cart entry unless WithMaxQuantity says otherwise.
const DefaultMaxQuantity = 99

// ProfileAPI is the remote profile service. Every mutation answers with the
// user's full authoritative snapshot.
type ProfileAPI interface {
	AddCartItem(c context.Context, userID string, productID string) (response.User, error)
	RemoveCartItem(c context.Context, userID string, productID string) (response.User, error)
	AddWishlistItem(c context.Context, userID string, productID string) (response.User, error)
	RemoveWishlistItem(c context.Context, userID string, productID string) (response.User, error)
	FindUserById(c context.Context, userID string) (response.User, error)
}

type remoteCall func(c context.Context, userID string, productID string) (response.User, error)

// undoFunc reverts one optimistic mutation against whatever the collection holds now.
type undoFunc func(items []model.LineItem) []model.LineItem

// mutation edits items in place and reports whether a remote call must follow.
type mutation func(items []model.LineItem) (next []model.LineItem, undo undoFunc, proceed bool)

// Synchronizer keeps one cart or wishlist consistent with the profile service.
// Local changes are applied before the remote call; a successful response
// replaces the collection wholesale and a failed one rolls the change back.
// Remote calls are neither queued nor cancelled, so responses may land out of order.
type Synchronizer struct {
	kind   model.Kind
	add    remoteCall
	remove remoteCall
	pick   func(response.User) json.RawMessage
	mirror mirror.Mirror
	key    string

	maxQuantity int

	mu        sync.Mutex
	items     []model.LineItem
	totals    model.Totals
	pending   int
	lastError error
	version   uint64

	persistMu sync.Mutex
	persisted uint64
}

type Option func(s *Synchronizer)

// WithMaxQuantity bounds how many units of one product a cart may hold.
// Values below 1 keep the default.
func WithMaxQuantity(limit int) Option {
	return func(s *Synchronizer) {
		if limit > 0 {
			s.maxQuantity = limit
		}
	}
}

func NewCartSynchronizer(api ProfileAPI, m mirror.Mirror, opts ...Option) *Synchronizer {
	return newSynchronizer(
		model.KindCart,
		api.AddCartItem,
		api.RemoveCartItem,
		func(u response.User) json.RawMessage { return u.Cart },
		m,
		mirror.KeyCart,
		opts...,
	)
}

func NewWishlistSynchronizer(api ProfileAPI, m mirror.Mirror, opts ...Option) *Synchronizer {
	return newSynchronizer(
		model.KindWishlist,
		api.AddWishlistItem,
		api.RemoveWishlistItem,
		func(u response.User) json.RawMessage { return u.Wishlist },
		m,
		mirror.KeyWishlist,
		opts...,
	)
}

func newSynchronizer(
	kind model.Kind,
	add remoteCall,
	remove remoteCall,
	pick func(response.User) json.RawMessage,
	m mirror.Mirror,
	key string,
	opts ...Option,
) *Synchronizer {
	s := &Synchronizer{
		kind:        kind,
		add:         add,
		remove:      remove,
		pick:        pick,
		mirror:      m,
		key:         key,
		maxQuantity: DefaultMaxQuantity,
		items:       []model.LineItem{},
		totals:      model.ComputeTotals(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synchronizer) MaxQuantity() int {
	return s.maxQuantity
}

func (s *Synchronizer) Kind() model.Kind {
	return s.kind
}

func (s *Synchronizer) View() model.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Synchronizer) viewLocked() model.Collection {
	view := model.Collection{
		Kind:      s.kind,
		Items:     model.Clone(s.items),
		Totals:    s.totals,
		IsLoading: s.pending > 0,
	}
	if s.lastError != nil {
		view.LastError = s.lastError.Error()
	}
	return view
}

func (s *Synchronizer) startSpan(
	c context.Context,
	operation string,
	attrs ...attribute.KeyValue,
) (context.Context, trace.Span, zerolog.Logger) {
	tag := fmt.Sprintf("Synchronizer %s %s", s.kind, operation)
	attrs = append(attrs, attribute.String(log.KeyCollection, string(s.kind)))
	c, span := otel.Tracer.Start(c, tag, trace.WithAttributes(attrs...))
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, tag).
		Str(log.KeyCollection, string(s.kind)).
		Logger()
	return c, span, logger
}

// Add puts one unit of productID into the collection. A wishlist already
// holding the product is left as is locally but the remote call is still made.
func (s *Synchronizer) Add(
	c context.Context,
	productID string,
	product model.Product,
	userID string,
) (model.Collection, error) {
	c, span, logger := s.startSpan(
		c,
		operationAdd,
		attribute.String(log.KeyProductID, productID),
		attribute.String(log.KeyUserID, userID),
	)
	defer span.End()
	logger = logger.With().Str(log.KeyProductID, productID).Str(log.KeyUserID, userID).Logger()

	if userID == "" {
		return s.reject(c, span, logger, operationAdd, inErrors.ErrAuthRequired)
	}
	if product.ID == "" {
		product.ID = productID
	}
	if err := validate.New().Struct(model.NewLineItem(product, 1)); err != nil || product.ID != productID {
		err = fmt.Errorf("%w: product snapshot does not describe productId=%s", inErrors.ErrInvalidProduct, productID)
		return s.reject(c, span, logger, operationAdd, err)
	}

	logger = logger.With().Str(log.KeyProcess, "applying optimistic add").Logger()
	logger.Info().Msg("applying optimistic add")
	full := false
	undo, proceed := s.start(c, func(items []model.LineItem) ([]model.LineItem, undoFunc, bool) {
		idx := model.IndexOf(items, productID)
		switch {
		case idx < 0:
			return append(items, model.NewLineItem(product, 1)), removeEntry(productID), true
		case s.kind == model.KindCart && items[idx].Quantity >= s.maxQuantity:
			full = true
			return items, nil, false
		case s.kind == model.KindCart:
			items[idx].Quantity++
			return items, decrementEntry(productID), true
		default:
			return items, nil, true
		}
	})
	if full {
		err := fmt.Errorf("%w: productId=%s already holds max quantity=%d", inErrors.ErrInvalidQuantity, productID, s.maxQuantity)
		return s.reject(c, span, logger, operationAdd, err)
	}
	if !proceed {
		return s.View(), nil
	}
	logger.Info().Msg("applied optimistic add")

	logger = logger.With().Str(log.KeyProcess, "adding item remotely").Logger()
	logger.Info().Msg("adding item remotely")
	c = logger.WithContext(c)
	user, err := s.add(c, userID, productID)
	return s.settle(c, span, logger, operationAdd, user, err, undo)
}

// Remove takes one unit of productID out of the cart, or the whole entry from
// a wishlist. Removing an absent product changes nothing and calls nothing.
func (s *Synchronizer) Remove(c context.Context, productID string, userID string) (model.Collection, error) {
	c, span, logger := s.startSpan(
		c,
		operationRemove,
		attribute.String(log.KeyProductID, productID),
		attribute.String(log.KeyUserID, userID),
	)
	defer span.End()
	logger = logger.With().Str(log.KeyProductID, productID).Str(log.KeyUserID, userID).Logger()

	if userID == "" {
		return s.reject(c, span, logger, operationRemove, inErrors.ErrAuthRequired)
	}

	logger = logger.With().Str(log.KeyProcess, "applying optimistic remove").Logger()
	logger.Info().Msg("applying optimistic remove")
	undo, proceed := s.start(c, func(items []model.LineItem) ([]model.LineItem, undoFunc, bool) {
		idx := model.IndexOf(items, productID)
		if idx < 0 {
			return items, nil, false
		}
		removed := items[idx]
		if s.kind == model.KindCart && removed.Quantity > 1 {
			items[idx].Quantity--
			return items, s.restoreUnits(removed, idx, 1), true
		}
		return append(items[:idx], items[idx+1:]...), s.restoreUnits(removed, idx, 1), true
	})
	if !proceed {
		metrics.SyncOperations.WithLabelValues(string(s.kind), operationRemove, metrics.OutcomeNoop).Inc()
		logger.Info().Msg("product is not in the collection, nothing to remove")
		return s.View(), nil
	}
	logger.Info().Msg("applied optimistic remove")

	logger = logger.With().Str(log.KeyProcess, "removing item remotely").Logger()
	logger.Info().Msg("removing item remotely")
	c = logger.WithContext(c)
	user, err := s.remove(c, userID, productID)
	return s.settle(c, span, logger, operationRemove, user, err, undo)
}

// SetQuantity moves a cart entry to quantity. The profile service only knows
// unit increments, so the delta is sent as that many sequential calls; only the
// last response is adopted and any failure restores the previous quantity
// locally. Calls that already succeeded stay applied on the server.
func (s *Synchronizer) SetQuantity(
	c context.Context,
	productID string,
	quantity int,
	userID string,
) (model.Collection, error) {
	c, span, logger := s.startSpan(
		c,
		operationSetQuantity,
		attribute.String(log.KeyProductID, productID),
		attribute.String(log.KeyUserID, userID),
		attribute.Int(log.KeyTargetQuantity, quantity),
	)
	defer span.End()
	logger = logger.With().
		Str(log.KeyProductID, productID).
		Str(log.KeyUserID, userID).
		Int(log.KeyTargetQuantity, quantity).
		Logger()

	if userID == "" {
		return s.reject(c, span, logger, operationSetQuantity, inErrors.ErrAuthRequired)
	}
	if quantity < 1 || quantity > s.maxQuantity || (s.kind == model.KindWishlist && quantity != 1) {
		err := fmt.Errorf("%w: got quantity=%d, max=%d", inErrors.ErrInvalidQuantity, quantity, s.maxQuantity)
		return s.reject(c, span, logger, operationSetQuantity, err)
	}

	logger = logger.With().Str(log.KeyProcess, "applying optimistic quantity").Logger()
	logger.Info().Msg("applying optimistic quantity")
	found, delta := false, 0
	undo, proceed := s.start(c, func(items []model.LineItem) ([]model.LineItem, undoFunc, bool) {
		idx := model.IndexOf(items, productID)
		if idx < 0 {
			return items, nil, false
		}
		found = true
		before := items[idx]
		delta = quantity - before.Quantity
		if delta == 0 {
			return items, nil, false
		}
		items[idx].Quantity = quantity
		return items, s.restoreQuantity(before, idx), true
	})
	if !found {
		err := fmt.Errorf("%w: productId=%s", inErrors.ErrItemNotFound, productID)
		return s.reject(c, span, logger, operationSetQuantity, err)
	}
	if !proceed {
		metrics.SyncOperations.WithLabelValues(string(s.kind), operationSetQuantity, metrics.OutcomeNoop).Inc()
		logger.Info().Msg("quantity already matches, nothing to do")
		return s.View(), nil
	}
	logger = logger.With().Int(log.KeyDelta, delta).Logger()
	logger.Info().Msg("applied optimistic quantity")

	call, calls := s.add, delta
	if delta < 0 {
		call, calls = s.remove, -delta
	}

	logger = logger.With().Str(log.KeyProcess, "sending quantity delta remotely").Logger()
	logger.Info().Msgf("sending %d sequential remote calls", calls)
	c = logger.WithContext(c)
	var (
		user response.User
		err  error
	)
	for i := 0; i < calls; i++ {
		user, err = call(c, userID, productID)
		if err != nil {
			err = fmt.Errorf("failed remote call %d of %d with error=%w", i+1, calls, err)
			break
		}
		span.AddEvent(fmt.Sprintf("remote call %d of %d succeeded", i+1, calls))
	}
	return s.settle(c, span, logger, operationSetQuantity, user, err, undo)
}

// Clear empties the collection without calling the profile service; the order
// placement or logout that triggers it owns the server side.
func (s *Synchronizer) Clear(c context.Context) model.Collection {
	c, span, logger := s.startSpan(c, operationClear)
	defer span.End()

	logger = logger.With().Str(log.KeyProcess, "clearing collection").Logger()
	logger.Info().Msg("clearing collection")
	s.mu.Lock()
	s.lastError = nil
	s.items = []model.LineItem{}
	version, view := s.commitLocked()
	s.mu.Unlock()
	s.persist(c, version, view.Items)
	metrics.SyncOperations.WithLabelValues(string(s.kind), operationClear, metrics.OutcomeCommitted).Inc()
	logger.Info().Msg("cleared collection")

	return view
}

// HydrateFromServerPayload replaces the collection with the server's
// representation. A payload that cannot be normalized leaves the collection untouched.
func (s *Synchronizer) HydrateFromServerPayload(
	c context.Context,
	raw json.RawMessage,
) (model.Collection, error) {
	c, span, logger := s.startSpan(c, operationHydrate)
	defer span.End()

	logger = logger.With().Str(log.KeyProcess, "decoding server payload").Logger()
	logger.Info().Msg("decoding server payload")
	items, err := payload.Decode(s.kind, raw)
	if err != nil {
		err = fmt.Errorf("failed decoding server payload with error=%w", err)
		metrics.SyncOperations.WithLabelValues(string(s.kind), operationHydrate, metrics.OutcomeMalformed).Inc()
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())

		s.mu.Lock()
		s.lastError = err
		view := s.viewLocked()
		s.mu.Unlock()
		return view, err
	}
	logger = logger.With().Int(log.KeyItemCount, len(items)).Logger()
	logger.Info().Msg("decoded server payload")

	s.mu.Lock()
	s.lastError = nil
	s.items = items
	version, view := s.commitLocked()
	s.mu.Unlock()
	s.persist(c, version, view.Items)
	metrics.SyncOperations.WithLabelValues(string(s.kind), operationHydrate, metrics.OutcomeCommitted).Inc()

	return view, nil
}

// Restore replays the mirrored collection. It is meant to run once before the
// authoritative snapshot arrives.
func (s *Synchronizer) Restore(c context.Context) error {
	c, span, logger := s.startSpan(c, "restore")
	defer span.End()

	logger = logger.With().Str(log.KeyProcess, "loading mirror").Str(log.KeyMirrorKey, s.key).Logger()
	logger.Info().Msg("loading mirror")
	value, err := s.mirror.Load(c, s.key)
	if err != nil {
		err = fmt.Errorf("failed loading mirror with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if value == nil {
		logger.Info().Msg("mirror is empty")
		return nil
	}

	items := []model.LineItem{}
	if err := json.Unmarshal(value, &items); err != nil {
		err = fmt.Errorf("failed unmarshaling mirror with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	for _, item := range items {
		if err := validate.New().Struct(item); err != nil {
			err = fmt.Errorf("failed validating mirrored item with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
	}
	merged := model.Merge(s.kind, items)
	if len(merged) != len(items) {
		logger.Warn().Int(log.KeyItemCount, len(items)).Msg("merged repeated products found in mirror")
	}
	items = merged

	s.mu.Lock()
	s.items = items
	s.totals = model.ComputeTotals(items)
	s.mu.Unlock()
	logger.Info().Int(log.KeyItemCount, len(items)).Msg("restored mirror")

	return nil
}

// start applies fn under the lock and marks a remote call as pending when fn proceeds.
func (s *Synchronizer) start(c context.Context, fn mutation) (undoFunc, bool) {
	s.mu.Lock()
	s.lastError = nil
	items, undo, proceed := fn(s.items)
	if !proceed {
		s.mu.Unlock()
		return nil, false
	}
	s.items = items
	s.pending++
	version, view := s.commitLocked()
	s.mu.Unlock()

	s.persist(c, version, view.Items)
	return undo, true
}

// finish ends a pending remote call, optionally rewriting the items and recording err.
func (s *Synchronizer) finish(
	c context.Context,
	fn func(items []model.LineItem) []model.LineItem,
	err error,
) model.Collection {
	s.mu.Lock()
	s.pending--
	if err != nil {
		s.lastError = err
	}
	if fn == nil {
		view := s.viewLocked()
		s.mu.Unlock()
		return view
	}
	s.items = fn(s.items)
	version, view := s.commitLocked()
	s.mu.Unlock()

	s.persist(c, version, view.Items)
	return view
}

func (s *Synchronizer) commitLocked() (uint64, model.Collection) {
	s.totals = model.ComputeTotals(s.items)
	s.version++
	return s.version, s.viewLocked()
}

func (s *Synchronizer) settle(
	c context.Context,
	span trace.Span,
	logger zerolog.Logger,
	operation string,
	user response.User,
	err error,
	undo undoFunc,
) (model.Collection, error) {
	if err != nil && !errors.Is(err, inErrors.ErrMalformedServerPayload) {
		if !errors.Is(err, inErrors.ErrRemoteFailure) {
			err = fmt.Errorf("%w: %w", inErrors.ErrRemoteFailure, err)
		}
		err = fmt.Errorf("failed %s %s item with error=%w", operation, s.kind, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())

		logger = logger.With().Str(log.KeyProcess, "rolling back optimistic change").Logger()
		logger.Info().Msg("rolling back optimistic change")
		if undo == nil {
			undo = func(items []model.LineItem) []model.LineItem { return items }
		}
		view := s.finish(c, undo, err)
		metrics.SyncOperations.WithLabelValues(string(s.kind), operation, metrics.OutcomeRolledBack).Inc()
		logger.Info().Msg("rolled back optimistic change")
		return view, err
	}

	var items []model.LineItem
	if err == nil {
		logger = logger.With().Str(log.KeyProcess, "adopting server snapshot").Logger()
		logger.Info().Msg("decoding server snapshot")
		items, err = payload.Decode(s.kind, s.pick(user))
	}
	if err != nil {
		err = fmt.Errorf("failed %s %s item with error=%w", operation, s.kind, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg("keeping optimistic state, " + err.Error())
		view := s.finish(c, nil, err)
		metrics.SyncOperations.WithLabelValues(string(s.kind), operation, metrics.OutcomeMalformed).Inc()
		return view, err
	}

	view := s.finish(c, func([]model.LineItem) []model.LineItem { return items }, nil)
	metrics.SyncOperations.WithLabelValues(string(s.kind), operation, metrics.OutcomeCommitted).Inc()
	logger.Info().Any(log.KeyTotals, view.Totals).Msg("adopted server snapshot")

	return view, nil
}

func (s *Synchronizer) reject(
	c context.Context,
	span trace.Span,
	logger zerolog.Logger,
	operation string,
	err error,
) (model.Collection, error) {
	err = fmt.Errorf("failed %s %s item with error=%w", operation, s.kind, err)
	inOtel.RecordError(err, span)
	logger.Error().Err(err).Msg(err.Error())
	metrics.SyncOperations.WithLabelValues(string(s.kind), operation, metrics.OutcomeRejected).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
	return s.viewLocked(), err
}

// persist writes a collection version to the mirror, skipping versions older
// than the last one written.
func (s *Synchronizer) persist(c context.Context, version uint64, items []model.LineItem) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Synchronizer persist").
		Str(log.KeyMirrorKey, s.key).
		Logger()

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if version <= s.persisted {
		return
	}

	value, err := json.Marshal(items)
	if err != nil {
		err = fmt.Errorf("failed marshaling collection with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	if err := s.mirror.Save(c, s.key, value); err != nil {
		err = fmt.Errorf("failed saving collection to mirror with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	s.persisted = version
}

func removeEntry(productID string) undoFunc {
	return func(items []model.LineItem) []model.LineItem {
		idx := model.IndexOf(items, productID)
		if idx < 0 {
			return items
		}
		return append(items[:idx], items[idx+1:]...)
	}
}

func decrementEntry(productID string) undoFunc {
	return func(items []model.LineItem) []model.LineItem {
		idx := model.IndexOf(items, productID)
		if idx < 0 {
			return items
		}
		if items[idx].Quantity > 1 {
			items[idx].Quantity--
			return items
		}
		return append(items[:idx], items[idx+1:]...)
	}
}

// restoreUnits gives back units of original, reinserting it at position when absent.
func (s *Synchronizer) restoreUnits(original model.LineItem, position int, units int) undoFunc {
	return func(items []model.LineItem) []model.LineItem {
		idx := model.IndexOf(items, original.ProductID)
		if idx >= 0 {
			if s.kind == model.KindCart {
				items[idx].Quantity += units
			}
			return items
		}
		original.Quantity = units
		return insertAt(items, position, original)
	}
}

func (s *Synchronizer) restoreQuantity(original model.LineItem, position int) undoFunc {
	return func(items []model.LineItem) []model.LineItem {
		idx := model.IndexOf(items, original.ProductID)
		if idx >= 0 {
			items[idx].Quantity = original.Quantity
			return items
		}
		return insertAt(items, position, original)
	}
}

func insertAt(items []model.LineItem, position int, item model.LineItem) []model.LineItem {
	if position > len(items) {
		position = len(items)
	}
	items = append(items, model.LineItem{})
	copy(items[position+1:], items[position:])
	items[position] = item
	return items
}
