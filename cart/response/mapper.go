package response

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/pkg/model"
	profile "github.com/Alturino/storefront/profile/pkg/response"
)

func lineItems(items []model.LineItem) []LineItem {
	result := make([]LineItem, len(items))
	for i, item := range items {
		result[i] = LineItem{
			ProductID:          item.ProductID,
			Product:            item.Product,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice(),
			DiscountPercentage: item.DiscountPercentage(),
			Subtotal:           item.UnitPrice().Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
	}
	return result
}

func FromCart(c model.Collection) Cart {
	return Cart{
		Items:         lineItems(c.Items),
		TotalQuantity: c.Totals.TotalQuantity,
		TotalMRP:      c.Totals.TotalMRP,
		TotalDiscount: c.Totals.TotalDiscount,
		TotalAmount:   c.Totals.TotalAmount,
		IsLoading:     c.IsLoading,
		LastError:     c.LastError,
	}
}

func FromWishlist(c model.Collection) Wishlist {
	return Wishlist{
		Items:         lineItems(c.Items),
		TotalQuantity: c.Totals.TotalQuantity,
		TotalMRP:      c.Totals.TotalMRP,
		TotalAmount:   c.Totals.TotalAmount,
		IsLoading:     c.IsLoading,
		LastError:     c.LastError,
	}
}

func FromSession(user profile.User, cart model.Collection, wishlist model.Collection) Session {
	return Session{
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Cart:     FromCart(cart),
		Wishlist: FromWishlist(wishlist),
	}
}
