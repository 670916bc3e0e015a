package engine

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tair/stockroom/internal/inventory/domain"
)

// ParseAdjustment resolves the magnitude of a stock adjustment from pending
// input. Blank input means 1; anything else must be a positive integer.
func ParseAdjustment(raw string) (int, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 1, nil
	}

	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, domain.Invalid("adjustment %q is not a whole number", raw)
	}
	if n <= 0 {
		return 0, domain.Invalid("adjustment must be positive, got %d", n)
	}
	return n, nil
}

// ParseQuantity parses a non-negative stock quantity such as an item's
// initial stock
func ParseQuantity(raw string) (int, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0, domain.Invalid("quantity is required")
	}

	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, domain.Invalid("quantity %q is not a whole number", raw)
	}
	if n < 0 {
		return 0, domain.Invalid("quantity cannot be negative, got %d", n)
	}
	return n, nil
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrNegativeStock):
		return "negative_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return "remote_unavailable"
	default:
		return "error"
	}
}
