package response

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/pkg/model"
)

func TestWishlistOmitsDiscountTotal(t *testing.T) {
	original := decimal.NewFromInt(120)
	pct := int32(25)
	items := []model.LineItem{
		model.NewLineItem(model.Product{ID: "P1", Price: decimal.NewFromInt(90), OriginalPrice: &original, DiscountPercentage: &pct}, 2),
	}
	collection := model.Collection{Items: items, Totals: model.ComputeTotals(items)}

	cart, err := json.Marshal(FromCart(collection))
	require.NoError(t, err)
	wishlist, err := json.Marshal(FromWishlist(collection))
	require.NoError(t, err)

	assert.Contains(t, string(cart), `"totalDiscount":"60"`)
	assert.NotContains(t, string(wishlist), "totalDiscount")
	assert.Contains(t, string(cart), `"subtotal":"180"`)
}
