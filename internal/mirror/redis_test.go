package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container in short mode")
	}

	c := context.Background()
	container, err := testRedis.Run(c, "redis:7.4-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed terminating redis container with error=%s", err)
		}
	})

	uri, err := container.ConnectionString(c)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisMirror(t *testing.T) {
	client := setupRedis(t)
	c := context.Background()

	tests := []struct {
		name string
		run  func(t *testing.T, m Mirror)
	}{
		{
			name: "given missing key should load nil",
			run: func(t *testing.T, m Mirror) {
				value, err := m.Load(c, KeyWishlist)
				require.NoError(t, err)
				assert.Nil(t, value)
			},
		},
		{
			name: "given saved key should load the same value",
			run: func(t *testing.T, m Mirror) {
				require.NoError(t, m.Save(c, KeyCart, []byte(`[{"productId":"P1","quantity":2}]`)))
				value, err := m.Load(c, KeyCart)
				require.NoError(t, err)
				assert.JSONEq(t, `[{"productId":"P1","quantity":2}]`, string(value))
			},
		},
		{
			name: "given deleted keys should load nil",
			run: func(t *testing.T, m Mirror) {
				require.NoError(t, m.Save(c, KeyToken, []byte(`"t"`)))
				require.NoError(t, m.Save(c, KeyUser, []byte(`{"id":"U1"}`)))
				require.NoError(t, m.Delete(c, KeyToken, KeyUser))
				for _, key := range []string{KeyToken, KeyUser} {
					value, err := m.Load(c, key)
					require.NoError(t, err)
					assert.Nil(t, value)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, client.FlushDB(c).Err())
			factory := RedisFactory(client, "storefront:session", time.Hour)
			tt.run(t, factory("S1"))
		})
	}
}

func TestRedisMirrorKeyLayout(t *testing.T) {
	client := setupRedis(t)
	c := context.Background()

	m := NewRedisMirror(client, "storefront:session", "S9", time.Minute)
	require.NoError(t, m.Save(c, KeyCart, []byte(`[]`)))

	ttl, err := client.TTL(c, "storefront:session:S9:cart").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
