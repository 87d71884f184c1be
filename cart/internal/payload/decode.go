// Package payload normalizes the cart and wishlist arrays returned by the profile
// service into line items. The service has returned two shapes over time:
//
//	paired:    [{"product": {...}, "quantity": 3}]
//	flattened: [{...product...}, {...product...}, {...product...}]
//
// Every element of one payload must use the same shape.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Alturino/storefront/cart/pkg/model"
	"github.com/Alturino/storefront/internal/common/validate"
	inErrors "github.com/Alturino/storefront/internal/errors"
)

type Shape int

const (
	ShapeEmpty Shape = iota
	ShapePaired
	ShapeFlattened
)

func (s Shape) String() string {
	switch s {
	case ShapePaired:
		return "paired"
	case ShapeFlattened:
		return "flattened"
	default:
		return "empty"
	}
}

type pairedEntry struct {
	Product  *model.Product `json:"product"`
	Quantity *int           `json:"quantity"`
}

type shapeHint struct {
	Product json.RawMessage `json:"product"`
}

// Decode returns the canonical collection for raw. Wishlist items always carry
// quantity 1 no matter how often the product repeats.
func Decode(kind model.Kind, raw json.RawMessage) ([]model.LineItem, error) {
	shape, elements, err := sniff(raw)
	if err != nil {
		return nil, err
	}

	var items []model.LineItem
	switch shape {
	case ShapeEmpty:
		return []model.LineItem{}, nil
	case ShapePaired:
		items, err = decodePaired(elements)
	case ShapeFlattened:
		items, err = decodeFlattened(elements)
	}
	if err != nil {
		return nil, err
	}

	if kind == model.KindWishlist {
		for i := range items {
			items[i].Quantity = 1
		}
	}
	return items, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", inErrors.ErrMalformedServerPayload, fmt.Sprintf(format, args...))
}

func sniff(raw json.RawMessage) (Shape, []json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ShapeEmpty, nil, nil
	}

	elements := []json.RawMessage{}
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return ShapeEmpty, nil, malformed("payload is not an array: %s", err)
	}
	if len(elements) == 0 {
		return ShapeEmpty, nil, nil
	}

	shape := ShapeEmpty
	for i, element := range elements {
		p := shapeHint{}
		if err := json.Unmarshal(element, &p); err != nil {
			return ShapeEmpty, nil, malformed("element %d is not an object: %s", i, err)
		}
		current := ShapeFlattened
		if len(p.Product) > 0 {
			current = ShapePaired
		}
		if shape != ShapeEmpty && shape != current {
			return ShapeEmpty, nil, malformed("element %d is %s but payload is %s", i, current, shape)
		}
		shape = current
	}
	return shape, elements, nil
}

func decodePaired(elements []json.RawMessage) ([]model.LineItem, error) {
	items := []model.LineItem{}
	for i, element := range elements {
		entry := pairedEntry{}
		if err := json.Unmarshal(element, &entry); err != nil {
			return nil, malformed("element %d: %s", i, err)
		}
		if entry.Product == nil {
			return nil, malformed("element %d has no product", i)
		}
		if entry.Quantity == nil {
			return nil, malformed("element %d has no quantity", i)
		}
		if *entry.Quantity == 0 {
			continue
		}

		item := model.NewLineItem(*entry.Product, *entry.Quantity)
		if err := validateItem(item); err != nil {
			return nil, malformed("element %d: %s", i, err)
		}

		if idx := model.IndexOf(items, item.ProductID); idx >= 0 {
			items[idx].Quantity += item.Quantity
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeFlattened(elements []json.RawMessage) ([]model.LineItem, error) {
	items := []model.LineItem{}
	for i, element := range elements {
		product := model.Product{}
		if err := json.Unmarshal(element, &product); err != nil {
			return nil, malformed("element %d: %s", i, err)
		}

		item := model.NewLineItem(product, 1)
		if err := validateItem(item); err != nil {
			return nil, malformed("element %d: %s", i, err)
		}

		if idx := model.IndexOf(items, item.ProductID); idx >= 0 {
			items[idx].Quantity++
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func validateItem(item model.LineItem) error {
	if err := validate.New().Struct(item); err != nil {
		return fmt.Errorf("invalid line item: %w", err)
	}
	return nil
}
