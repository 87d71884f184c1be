package response

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/pkg/model"
)

type LineItem struct {
	ProductID          string          `json:"productId"`
	Product            model.Product   `json:"product"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	DiscountPercentage int32           `json:"discountPercentage"`
	Subtotal           decimal.Decimal `json:"subtotal"`
}

type Cart struct {
	Items         []LineItem      `json:"items"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalMRP      decimal.Decimal `json:"totalMRP"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	IsLoading     bool            `json:"isLoading"`
	LastError     string          `json:"lastError,omitempty"`
}

// Wishlist carries no discount total; membership is not a purchase.
type Wishlist struct {
	Items         []LineItem      `json:"items"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalMRP      decimal.Decimal `json:"totalMRP"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	IsLoading     bool            `json:"isLoading"`
	LastError     string          `json:"lastError,omitempty"`
}

type Session struct {
	UserID   string   `json:"userId"`
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Cart     Cart     `json:"cart"`
	Wishlist Wishlist `json:"wishlist"`
}
