package request

import (
	"github.com/Alturino/storefront/cart/pkg/model"
)

// AddItem is the catalog snapshot of the product being added to a cart or wishlist.
type AddItem struct {
	Product model.Product `json:"product" validate:"required"`
}

// SetQuantity is capped again by the configured maximum once it reaches the cart.
type SetQuantity struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=999"`
}
