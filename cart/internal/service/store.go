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
	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/mirror"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/profile/pkg/response"
)

// Store groups the collections of one session together with the credentials
// and user snapshot they are synchronized under. The first authenticated user
// to touch a session owns it until Logout.
type Store struct {
	Cart     *Synchronizer
	Wishlist *Synchronizer

	api    ProfileAPI
	mirror mirror.Mirror

	mu    sync.RWMutex
	token string
	user  *response.User
	owner string
}

func NewStore(api ProfileAPI, m mirror.Mirror, opts ...Option) *Store {
	return &Store{
		Cart:     NewCartSynchronizer(api, m, opts...),
		Wishlist: NewWishlistSynchronizer(api, m, opts...),
		api:      api,
		mirror:   m,
	}
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// Busy reports whether either collection still waits on the profile service.
func (s *Store) Busy() bool {
	return s.Cart.View().IsLoading || s.Wishlist.View().IsLoading
}

// Authorize checks that userID may act on this session. An owned session
// refuses anonymous callers and other users; an unowned one is claimed by
// the first authenticated caller.
func (s *Store) Authorize(c context.Context, userID string) error {
	s.mu.Lock()
	owner := s.owner
	claimed := owner == "" && userID != ""
	if claimed {
		s.owner = userID
	}
	s.mu.Unlock()

	switch {
	case owner != "" && userID == "":
		return fmt.Errorf("failed authorizing session with error=%w", inErrors.ErrAuthRequired)
	case owner != "" && owner != userID:
		return fmt.Errorf("failed authorizing userId=%s with error=%w", userID, inErrors.ErrSessionForbidden)
	case claimed:
		s.saveOwner(c, userID)
	}
	return nil
}

func (s *Store) saveOwner(c context.Context, userID string) {
	if err := s.mirror.Save(c, mirror.KeyOwner, []byte(userID)); err != nil {
		err = fmt.Errorf("failed saving session owner with error=%w", err)
		zerolog.Ctx(c).Error().Err(err).Str(log.KeyTag, "Store saveOwner").Msg(err.Error())
	}
}

// User returns the last snapshot received at login, or nil when logged out.
func (s *Store) User() *response.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// Restore replays everything mirrored for this session. Failures of one key
// do not stop the others.
func (s *Store) Restore(c context.Context) error {
	c, span := otel.Tracer.Start(c, "Store Restore")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Store Restore").
		Str(log.KeyProcess, "restoring session").
		Logger()
	logger.Info().Msg("restoring session")

	errs := []error{s.Cart.Restore(c), s.Wishlist.Restore(c)}

	token, err := s.mirror.Load(c, mirror.KeyToken)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed loading token with error=%w", err))
	}
	user, err := s.mirror.Load(c, mirror.KeyUser)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed loading user with error=%w", err))
	}
	owner, err := s.mirror.Load(c, mirror.KeyOwner)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed loading session owner with error=%w", err))
	}

	var snapshot *response.User
	if user != nil {
		snapshot = &response.User{}
		if err := json.Unmarshal(user, snapshot); err != nil {
			errs = append(errs, fmt.Errorf("failed unmarshaling user with error=%w", err))
			snapshot = nil
		}
	}

	s.mu.Lock()
	if token != nil {
		s.token = string(token)
	}
	s.user = snapshot
	switch {
	case owner != nil:
		s.owner = string(owner)
	case snapshot != nil:
		s.owner = snapshot.ID
	}
	s.mu.Unlock()

	if err := errors.Join(errs...); err != nil {
		err = fmt.Errorf("failed restoring session with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("restored session")

	return nil
}

// Login stores the token, fetches the authoritative user snapshot and
// hydrates both collections from it.
func (s *Store) Login(c context.Context, token string, userID string) (response.User, error) {
	c, span := otel.Tracer.Start(c, "Store Login", trace.WithAttributes(attribute.String(log.KeyUserID, userID)))
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Store Login").
		Str(log.KeyUserID, userID).
		Logger()

	if userID == "" || token == "" {
		err := fmt.Errorf("failed login with error=%w", inErrors.ErrAuthRequired)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}

	if err := s.Authorize(c, userID); err != nil {
		err = fmt.Errorf("failed login with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "saving token").Logger()
	logger.Info().Msg("saving token")
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	if err := s.mirror.Save(c, mirror.KeyToken, []byte(token)); err != nil {
		err = fmt.Errorf("failed saving token with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("saved token")

	if auth.RawTokenFromContext(c) == "" {
		c = auth.AttachRawToken(c, token)
	}

	logger = logger.With().Str(log.KeyProcess, "fetching user snapshot").Logger()
	logger.Info().Msg("fetching user snapshot")
	user, err := s.api.FindUserById(logger.WithContext(c), userID)
	if err != nil {
		err = fmt.Errorf("failed fetching user snapshot with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Msg("fetched user snapshot")

	logger = logger.With().Str(log.KeyProcess, "saving user snapshot").Logger()
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	if value, err := json.Marshal(user); err == nil {
		if err := s.mirror.Save(c, mirror.KeyUser, value); err != nil {
			err = fmt.Errorf("failed saving user snapshot with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
		}
	}

	logger = logger.With().Str(log.KeyProcess, "hydrating collections").Logger()
	logger.Info().Msg("hydrating collections")
	_, cartErr := s.Cart.HydrateFromServerPayload(c, user.Cart)
	_, wishlistErr := s.Wishlist.HydrateFromServerPayload(c, user.Wishlist)
	if err := errors.Join(cartErr, wishlistErr); err != nil {
		err = fmt.Errorf("failed hydrating collections with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return user, err
	}
	logger.Info().Msg("hydrated collections")

	return user, nil
}

// Logout clears both collections and forgets the credentials.
func (s *Store) Logout(c context.Context) error {
	c, span := otel.Tracer.Start(c, "Store Logout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Store Logout").
		Str(log.KeyProcess, "clearing session").
		Logger()
	logger.Info().Msg("clearing session")

	s.Cart.Clear(c)
	s.Wishlist.Clear(c)

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.owner = ""
	s.mu.Unlock()

	if err := s.mirror.Delete(c, mirror.KeyToken, mirror.KeyUser, mirror.KeyOwner); err != nil {
		err = fmt.Errorf("failed deleting credentials from mirror with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("cleared session")

	return nil
}

// CompleteOrder empties the cart once the order has been placed. The wishlist is kept.
func (s *Store) CompleteOrder(c context.Context) {
	c, span := otel.Tracer.Start(c, "Store CompleteOrder")
	defer span.End()

	zerolog.Ctx(c).Info().Str(log.KeyTag, "Store CompleteOrder").Msg("order completed, clearing cart")
	s.Cart.Clear(c)
}
