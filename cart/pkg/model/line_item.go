package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindCart     Kind = "cart"
	KindWishlist Kind = "wishlist"
)

// Product is the catalog snapshot a line item was built from.
type Product struct {
	ID                 string           `json:"id"                           validate:"required"`
	Name               string           `json:"name"`
	Description        string           `json:"description,omitempty"`
	Images             []string         `json:"images,omitempty"`
	Price              decimal.Decimal  `json:"price"                        validate:"gte=0"`
	OriginalPrice      *decimal.Decimal `json:"originalPrice,omitempty"      validate:"omitempty,gte=0"`
	DiscountPercentage *int32           `json:"discountPercentage,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// UnmarshalJSON also accepts the "_id" key older profile payloads use.
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	aux := struct {
		*alias
		LegacyID string `json:"_id"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.LegacyID
	}
	return nil
}

type LineItem struct {
	ProductID string  `json:"productId" validate:"required"`
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"  validate:"gte=1"`
}

func NewLineItem(product Product, quantity int) LineItem {
	return LineItem{ProductID: product.ID, Product: product, Quantity: quantity}
}

func (i LineItem) UnitPrice() decimal.Decimal {
	return i.Product.Price
}

// MRPUnitPrice is the original price when the catalog carries one, else the unit price.
func (i LineItem) MRPUnitPrice() decimal.Decimal {
	if i.Product.OriginalPrice != nil {
		return *i.Product.OriginalPrice
	}
	return i.Product.Price
}

func (i LineItem) DiscountPercentage() int32 {
	if i.Product.DiscountPercentage == nil {
		return 0
	}
	return *i.Product.DiscountPercentage
}

// Collection is what the UI renders for a cart or a wishlist.
type Collection struct {
	Kind      Kind       `json:"kind"`
	Items     []LineItem `json:"items"`
	Totals    Totals     `json:"totals"`
	IsLoading bool       `json:"isLoading"`
	LastError string     `json:"lastError,omitempty"`
}

func IndexOf(items []LineItem, productID string) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func Clone(items []LineItem) []LineItem {
	if items == nil {
		return []LineItem{}
	}
	cloned := make([]LineItem, len(items))
	copy(cloned, items)
	return cloned
}

// Merge folds repeated products into their first entry. Cart quantities add up;
// wishlist entries stay at quantity 1.
func Merge(kind Kind, items []LineItem) []LineItem {
	merged := make([]LineItem, 0, len(items))
	for _, item := range items {
		if kind == KindWishlist {
			item.Quantity = 1
		}
		idx := IndexOf(merged, item.ProductID)
		if idx < 0 {
			merged = append(merged, item)
			continue
		}
		if kind == KindCart {
			merged[idx].Quantity += item.Quantity
		}
	}
	return merged
}
