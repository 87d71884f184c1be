package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

func TestVerifyToken(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name        string
		token       func(t *testing.T) string
		secret      string
		expectedSub string
		expectedErr error
	}{
		{
			name: "given valid token should return subject",
			token: func(t *testing.T) string {
				token, err := SignToken("U1", "secret", now, time.Minute)
				require.NoError(t, err)
				return token
			},
			secret:      "secret",
			expectedSub: "U1",
		},
		{
			name: "given token signed with other secret should return invalid token",
			token: func(t *testing.T) string {
				token, err := SignToken("U1", "other", now, time.Minute)
				require.NoError(t, err)
				return token
			},
			secret:      "secret",
			expectedErr: inErrors.ErrTokenInvalid,
		},
		{
			name: "given expired token should return invalid token",
			token: func(t *testing.T) string {
				token, err := SignToken("U1", "secret", now.Add(-time.Hour), time.Minute)
				require.NoError(t, err)
				return token
			},
			secret:      "secret",
			expectedErr: inErrors.ErrTokenInvalid,
		},
		{
			name:        "given garbage should return invalid token",
			token:       func(t *testing.T) string { return "not-a-token" },
			secret:      "secret",
			expectedErr: inErrors.ErrTokenInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := context.Background()
			token, err := VerifyToken(c, tt.token(t), tt.secret)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)

			c = AttachJwtToken(c, token)
			userID, err := UserIdFromContext(c)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedSub, userID)
			assert.NotEmpty(t, RawTokenFromContext(c))
		})
	}
}

func TestUserIdFromContextAnonymous(t *testing.T) {
	c := context.Background()
	userID, err := UserIdFromContext(c)
	assert.NoError(t, err)
	assert.Empty(t, userID)
	assert.Empty(t, RawTokenFromContext(c))

	c = AttachRawToken(c, "raw")
	assert.Equal(t, "raw", RawTokenFromContext(c))
}
