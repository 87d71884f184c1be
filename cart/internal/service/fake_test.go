package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/pkg/model"
	"github.com/Alturino/storefront/profile/pkg/response"
)

var errNetwork = errors.New("dial tcp 127.0.0.1:8080: connect: connection refused")

const (
	callAddCart        = "add cart"
	callRemoveCart     = "remove cart"
	callAddWishlist    = "add wishlist"
	callRemoveWishlist = "remove wishlist"
	callFindUser       = "find user"
)

// fakeProfile behaves like the profile service for a single user.
type fakeProfile struct {
	mu      sync.Mutex
	catalog map[string]model.Product
	server  map[model.Kind][]model.LineItem
	calls   map[string]int

	// failAfter lets that many calls of an operation succeed, then fails the rest.
	failAfter map[string]int
	malformed bool
	flattened bool
	gate      chan struct{}
}

func newFakeProfile(products ...model.Product) *fakeProfile {
	catalog := map[string]model.Product{}
	for _, p := range products {
		catalog[p.ID] = p
	}
	return &fakeProfile{
		catalog:   catalog,
		server:    map[model.Kind][]model.LineItem{model.KindCart: {}, model.KindWishlist: {}},
		calls:     map[string]int{},
		failAfter: map[string]int{},
	}
}

func (f *fakeProfile) AddCartItem(c context.Context, userID string, productID string) (response.User, error) {
	return f.mutate(callAddCart, model.KindCart, productID, 1)
}

func (f *fakeProfile) RemoveCartItem(c context.Context, userID string, productID string) (response.User, error) {
	return f.mutate(callRemoveCart, model.KindCart, productID, -1)
}

func (f *fakeProfile) AddWishlistItem(c context.Context, userID string, productID string) (response.User, error) {
	return f.mutate(callAddWishlist, model.KindWishlist, productID, 1)
}

func (f *fakeProfile) RemoveWishlistItem(c context.Context, userID string, productID string) (response.User, error) {
	return f.mutate(callRemoveWishlist, model.KindWishlist, productID, -1)
}

func (f *fakeProfile) FindUserById(c context.Context, userID string) (response.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[callFindUser]++
	if limit, ok := f.failAfter[callFindUser]; ok && f.calls[callFindUser] > limit {
		return response.User{}, errNetwork
	}
	user := f.snapshotLocked()
	user.ID = userID
	return user, nil
}

func (f *fakeProfile) mutate(call string, kind model.Kind, productID string, delta int) (response.User, error) {
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[call]++
	if limit, ok := f.failAfter[call]; ok && f.calls[call] > limit {
		return response.User{}, errNetwork
	}

	items := f.server[kind]
	idx := model.IndexOf(items, productID)
	switch {
	case delta > 0 && idx < 0:
		items = append(items, model.NewLineItem(f.catalog[productID], 1))
	case delta > 0 && kind == model.KindCart:
		items[idx].Quantity++
	case delta < 0 && idx >= 0 && kind == model.KindCart && items[idx].Quantity > 1:
		items[idx].Quantity--
	case delta < 0 && idx >= 0:
		items = append(items[:idx], items[idx+1:]...)
	}
	f.server[kind] = items

	return f.snapshotLocked(), nil
}

func (f *fakeProfile) snapshotLocked() response.User {
	if f.malformed {
		return response.User{ID: "U1", Cart: json.RawMessage(`{"items":1}`), Wishlist: json.RawMessage(`"nope"`)}
	}
	return response.User{
		ID:       "U1",
		Cart:     encodeItems(f.server[model.KindCart], f.flattened),
		Wishlist: encodeItems(f.server[model.KindWishlist], f.flattened),
	}
}

func (f *fakeProfile) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[call]
}

func (f *fakeProfile) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeProfile) seed(kind model.Kind, items []model.LineItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.server[kind] = model.Clone(items)
}

func encodeItems(items []model.LineItem, flattened bool) json.RawMessage {
	var value any
	if flattened {
		products := []model.Product{}
		for _, item := range items {
			for range item.Quantity {
				products = append(products, item.Product)
			}
		}
		value = products
	} else {
		type pair struct {
			Product  model.Product `json:"product"`
			Quantity int           `json:"quantity"`
		}
		pairs := []pair{}
		for _, item := range items {
			pairs = append(pairs, pair{Product: item.Product, Quantity: item.Quantity})
		}
		value = pairs
	}
	raw, _ := json.Marshal(value)
	return raw
}

func product(id string, price int64) model.Product {
	return model.Product{ID: id, Name: "product " + id, Price: decimal.NewFromInt(price)}
}

type itemQuantity struct {
	ProductID string
	Quantity  int
}

func quantities(items []model.LineItem) []itemQuantity {
	result := []itemQuantity{}
	for _, item := range items {
		result = append(result, itemQuantity{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return result
}

// seedCollection puts items on both sides so the synchronizer starts in agreement with the server.
func seedCollection(t *testing.T, f *fakeProfile, s *Synchronizer, items []model.LineItem) {
	t.Helper()
	f.seed(s.Kind(), items)
	_, err := s.HydrateFromServerPayload(context.Background(), encodeItems(items, false))
	require.NoError(t, err)
}
