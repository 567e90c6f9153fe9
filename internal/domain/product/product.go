package product

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("product: not found")
	ErrInvalidTitle    = errors.New("product: title is required")
	ErrInvalidType     = errors.New("product: type is required")
	ErrInvalidPrice    = errors.New("product: price must be zero or greater")
	ErrInvalidQuantity = errors.New("product: quantity must be zero or greater")
)

// Product is a catalog entry. The notification core only reads ID and Title.
type Product struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"product_type"`
	Price     int64     `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// New validates the fields and returns a product without an ID.
// The type is stored upper-cased so it matches subscriber categories.
func New(title, productType string, price int64, quantity int) (*Product, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidTitle
	}
	productType = strings.ToUpper(strings.TrimSpace(productType))
	if productType == "" {
		return nil, ErrInvalidType
	}
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Product{
		Title:     title,
		Type:      productType,
		Price:     price,
		Quantity:  quantity,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
