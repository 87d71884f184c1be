// Package mirror persists a session's cart, wishlist, auth token and user snapshot
// so they survive a restart. Values are opaque JSON documents; a missing key loads as nil.
package mirror

import (
	"context"
	"fmt"
)

const (
	KeyCart     = "cart"
	KeyWishlist = "wishlist"
	KeyToken    = "token"
	KeyUser     = "user"
	KeyOwner    = "owner"
)

type Mirror interface {
	Load(c context.Context, key string) ([]byte, error)
	Save(c context.Context, key string, value []byte) error
	Delete(c context.Context, keys ...string) error
}

// Factory opens the mirror of one session.
type Factory func(sessionID string) Mirror

func namespaced(prefix string, sessionID string, key string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, sessionID, key)
}
