package payload

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/pkg/model"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

type quantities map[string]int

func toQuantities(items []model.LineItem) (ids []string, q quantities) {
	q = quantities{}
	for _, item := range items {
		ids = append(ids, item.ProductID)
		q[item.ProductID] = item.Quantity
	}
	return ids, q
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name               string
		kind               model.Kind
		raw                string
		expectedIDs        []string
		expectedQuantities quantities
	}{
		{
			name:               "given flattened repeated product should count repetitions",
			kind:               model.KindCart,
			raw:                `[{"id":"P","price":100},{"id":"P","price":100},{"id":"P","price":100}]`,
			expectedIDs:        []string{"P"},
			expectedQuantities: quantities{"P": 3},
		},
		{
			name:               "given paired product should read quantity",
			kind:               model.KindCart,
			raw:                `[{"product":{"id":"P","price":100},"quantity":3}]`,
			expectedIDs:        []string{"P"},
			expectedQuantities: quantities{"P": 3},
		},
		{
			name: "given flattened products should keep first occurrence order",
			kind: model.KindCart,
			raw: `[{"id":"B","price":"20"},{"id":"A","price":"10"},{"id":"B","price":"20"},
				{"id":"C","price":"5.5"}]`,
			expectedIDs:        []string{"B", "A", "C"},
			expectedQuantities: quantities{"A": 1, "B": 2, "C": 1},
		},
		{
			name:               "given paired duplicates should merge quantities",
			kind:               model.KindCart,
			raw:                `[{"product":{"id":"A","price":1},"quantity":2},{"product":{"id":"A","price":1},"quantity":1}]`,
			expectedIDs:        []string{"A"},
			expectedQuantities: quantities{"A": 3},
		},
		{
			name:               "given paired entry with zero quantity should skip it",
			kind:               model.KindCart,
			raw:                `[{"product":{"id":"A","price":1},"quantity":0},{"product":{"id":"B","price":2},"quantity":2}]`,
			expectedIDs:        []string{"B"},
			expectedQuantities: quantities{"B": 2},
		},
		{
			name:               "given legacy _id should use it as product id",
			kind:               model.KindCart,
			raw:                `[{"_id":"L1","price":10}]`,
			expectedIDs:        []string{"L1"},
			expectedQuantities: quantities{"L1": 1},
		},
		{
			name:               "given wishlist duplicates should keep quantity one",
			kind:               model.KindWishlist,
			raw:                `[{"id":"W","price":10},{"id":"W","price":10}]`,
			expectedIDs:        []string{"W"},
			expectedQuantities: quantities{"W": 1},
		},
		{
			name:               "given empty array should return empty collection",
			kind:               model.KindCart,
			raw:                `[]`,
			expectedQuantities: quantities{},
		},
		{
			name:               "given null should return empty collection",
			kind:               model.KindWishlist,
			raw:                `null`,
			expectedQuantities: quantities{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Decode(tt.kind, json.RawMessage(tt.raw))
			require.NoError(t, err)
			require.NotNil(t, items)

			ids, q := toQuantities(items)
			assert.Equal(t, tt.expectedIDs, ids)
			assert.Equal(t, tt.expectedQuantities, q)
		})
	}
}

func TestDecodeBothShapesAgree(t *testing.T) {
	flattened, err := Decode(model.KindCart, json.RawMessage(
		`[{"id":"P","name":"Fern","price":100},{"id":"P","name":"Fern","price":100},{"id":"P","name":"Fern","price":100}]`,
	))
	require.NoError(t, err)
	paired, err := Decode(model.KindCart, json.RawMessage(
		`[{"product":{"id":"P","name":"Fern","price":100},"quantity":3}]`,
	))
	require.NoError(t, err)

	require.Len(t, flattened, 1)
	require.Len(t, paired, 1)
	assert.Equal(t, paired[0].ProductID, flattened[0].ProductID)
	assert.Equal(t, paired[0].Quantity, flattened[0].Quantity)
	assert.True(t, paired[0].Product.Price.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "Fern", flattened[0].Product.Name)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "given object should fail", raw: `{"id":"P"}`},
		{name: "given array of strings should fail", raw: `["P1","P2"]`},
		{name: "given mixed shapes should fail", raw: `[{"product":{"id":"A","price":1},"quantity":1},{"id":"B","price":1}]`},
		{name: "given paired entry without quantity should fail", raw: `[{"product":{"id":"A","price":1}}]`},
		{name: "given negative quantity should fail", raw: `[{"product":{"id":"A","price":1},"quantity":-1}]`},
		{name: "given product without id should fail", raw: `[{"price":1}]`},
		{name: "given negative price should fail", raw: `[{"id":"A","price":-1}]`},
		{name: "given discount above 100 should fail", raw: `[{"id":"A","price":1,"discountPercentage":101}]`},
		{name: "given invalid json should fail", raw: `[{"id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Decode(model.KindCart, json.RawMessage(tt.raw))
			assert.ErrorIs(t, err, inErrors.ErrMalformedServerPayload)
			assert.Nil(t, items)
		})
	}
}
