package subscriber

import (
	"errors"
	"strings"
)

var ErrNotFound = errors.New("subscriber: not found")

// Subscriber is an external endpoint that receives callbacks for one product category.
// Within a category it is identified by URL.
type Subscriber struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// NormalizeCategory returns the canonical, case-insensitive form of a product category.
func NormalizeCategory(category string) string {
	return strings.ToUpper(strings.TrimSpace(category))
}
