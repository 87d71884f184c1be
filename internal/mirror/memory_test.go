package mirror

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryMirror(t *testing.T) {
	c := context.Background()
	factory := MemoryFactory()
	first := factory("S1")
	second := factory("S2")

	value, err := first.Load(c, KeyCart)
	require.NoError(t, err)
	assert.Nil(t, value, "missing key should load as nil")

	require.NoError(t, first.Save(c, KeyCart, []byte(`[{"productId":"P1"}]`)))
	require.NoError(t, first.Save(c, KeyToken, []byte(`"token"`)))

	value, err = first.Load(c, KeyCart)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"productId":"P1"}]`, string(value))

	value, err = second.Load(c, KeyCart)
	require.NoError(t, err)
	assert.Nil(t, value, "sessions should not share keys")

	reopened := factory("S1")
	value, err = reopened.Load(c, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, `"token"`, string(value), "factory should hand out the same backing store")

	require.NoError(t, first.Delete(c, KeyCart, KeyToken))
	value, err = first.Load(c, KeyCart)
	require.NoError(t, err)
	assert.Nil(t, value)
}
