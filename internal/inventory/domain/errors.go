package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNegativeStock     = errors.New("stock cannot be negative")
	ErrNotFound          = errors.New("not found")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	ErrPermissionDenied  = errors.New("permission denied")
	// ErrConflict is returned when a conditional write kept losing to
	// concurrent writers.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrSubscriberLagged closes a subscription that fell too far behind.
	ErrSubscriberLagged = errors.New("subscriber lagged behind change feed")
)

var taxonomy = []error{
	ErrInvalidInput,
	ErrNegativeStock,
	ErrNotFound,
	ErrUnauthenticated,
	ErrRemoteUnavailable,
	ErrPermissionDenied,
	ErrConflict,
}

// IsKnown reports whether err already carries one of the taxonomy errors
func IsKnown(err error) bool {
	for _, target := range taxonomy {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Remote classifies an error returned by a remote call. Taxonomy errors pass
// through with op context; anything else (transport, driver, deadline) becomes
// ErrRemoteUnavailable.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsKnown(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrRemoteUnavailable, err)
}

// Invalid builds an ErrInvalidInput with a reason
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
