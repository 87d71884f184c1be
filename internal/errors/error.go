package errors

import (
	"errors"
)

var (
	ErrAuthRequired           = errors.New("authentication required")
	ErrInvalidQuantity        = errors.New("quantity is out of range")
	ErrItemNotFound           = errors.New("item is not in the collection")
	ErrRemoteFailure          = errors.New("profile service request failed")
	ErrMalformedServerPayload = errors.New("malformed server payload")
	ErrEmptyAuth              = errors.New("missing authorization")
	ErrEmptySubject           = errors.New("missing subject")
	ErrTokenInvalid           = errors.New("invalid token")
	ErrEmptySession           = errors.New("missing session id")
	ErrInvalidProduct         = errors.New("invalid product snapshot")
	ErrSessionForbidden       = errors.New("session belongs to another user")
)
