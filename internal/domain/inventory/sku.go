package inventory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// FormatSKU builds "{year}-{subCategoryId}-{serial}"
func FormatSKU(year int, subCategoryID uuid.UUID, serial int64) string {
	return fmt.Sprintf("%d-%s-%d", year, subCategoryID.String(), serial)
}

// NeedsGeneratedSKU reports whether a caller-supplied SKU is too short to keep
func NeedsGeneratedSKU(sku string) bool {
	return len(strings.TrimSpace(sku)) < 2
}
