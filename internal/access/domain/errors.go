package domain

import inventory "github.com/tair/stockroom/internal/inventory/domain"

// Access shares the inventory error taxonomy so delivery maps both the same way
var (
	ErrInvalidInput      = inventory.ErrInvalidInput
	ErrNotFound          = inventory.ErrNotFound
	ErrUnauthenticated   = inventory.ErrUnauthenticated
	ErrRemoteUnavailable = inventory.ErrRemoteUnavailable
	ErrPermissionDenied  = inventory.ErrPermissionDenied
	ErrConflict          = inventory.ErrConflict
)

// Remote classifies an error returned by a remote call
func Remote(op string, err error) error {
	return inventory.Remote(op, err)
}

// Invalid builds an ErrInvalidInput with a reason
func Invalid(format string, args ...any) error {
	return inventory.Invalid(format, args...)
}
