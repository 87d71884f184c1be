package response

import (
	"encoding/json"
)

// User is the authoritative snapshot the profile service returns after every
// cart or wishlist mutation. Cart and Wishlist stay raw because the service has
// shipped two shapes for them over time.
type User struct {
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	Email    string          `json:"email,omitempty"`
	Cart     json.RawMessage `json:"cart,omitempty"`
	Wishlist json.RawMessage `json:"wishlist,omitempty"`
}

type Envelope struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       User   `json:"data"`
}
