package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/common/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

func VerifyToken(c context.Context, token string, secretKey string) (*jwt.Token, error) {
	c, span := otel.Tracer.Start(c, "VerifyToken")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "VerifyToken").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing claims").Logger()
	logger.Trace().Msg("parsing claims")
	jwtToken, err := jwt.ParseWithClaims(token,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		},
		jwt.WithAudience(constants.AUDIENCE_USER),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(constants.ISSUER_USER_SERVICE),
	)
	if err != nil {
		err = fmt.Errorf("failed parsing claims with error=%w", fmt.Errorf("%w: %w", inErrors.ErrTokenInvalid, err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Msg("parsed claims")

	if !jwtToken.Valid {
		err = fmt.Errorf("failed validating token with error=%w", inErrors.ErrTokenInvalid)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Msg("validated token")

	return jwtToken, nil
}

// SignToken issues an HS256 token for userID with the claims VerifyToken expects.
func SignToken(userID string, secretKey string, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{constants.AUDIENCE_USER},
			Issuer:    constants.ISSUER_USER_SERVICE,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	)
	return token.SignedString([]byte(secretKey))
}

type jwtToken struct{}

func AttachJwtToken(c context.Context, token *jwt.Token) context.Context {
	return context.WithValue(c, jwtToken{}, token)
}

func JwtTokenFromContext(c context.Context) (*jwt.Token, bool) {
	token, ok := c.Value(jwtToken{}).(*jwt.Token)
	return token, ok && token != nil
}

type rawToken struct{}

// AttachRawToken carries a bearer token that did not come from a verified request,
// e.g. one replayed from the mirror.
func AttachRawToken(c context.Context, token string) context.Context {
	return context.WithValue(c, rawToken{}, token)
}

// RawTokenFromContext returns the bearer token to forward to the profile service.
func RawTokenFromContext(c context.Context) string {
	if token, ok := JwtTokenFromContext(c); ok {
		return token.Raw
	}
	raw, _ := c.Value(rawToken{}).(string)
	return raw
}

// UserIdFromContext returns "" for anonymous requests.
func UserIdFromContext(c context.Context) (string, error) {
	token, ok := JwtTokenFromContext(c)
	if !ok {
		return "", nil
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("failed getting subject from jwt with error=%w", err)
	}
	if subject == "" {
		return "", inErrors.ErrEmptySubject
	}
	return subject, nil
}
