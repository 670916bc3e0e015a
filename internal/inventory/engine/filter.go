package engine

import (
	"strings"

	"github.com/tair/stockroom/internal/inventory/domain"
)

// Filter returns the items whose name contains query, ignoring case. An empty
// query returns items unchanged.
func Filter(items []domain.InventoryItem, query string) []domain.InventoryItem {
	if query == "" {
		return items
	}

	needle := strings.ToLower(query)
	filtered := make([]domain.InventoryItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), needle) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
