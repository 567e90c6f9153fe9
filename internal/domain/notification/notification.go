package notification

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Zhima-Mochi/minishop-notify/internal/domain/product"
)

// Status names the product event being announced.
type Status string

const (
	StatusCreated  Status = "CREATED"
	StatusDeleted  Status = "DELETED"
	StatusPromoted Status = "PROMOTED"
)

// Notification is the callback payload. Every recipient of one event receives the
// same value except for SubscriberName.
type Notification struct {
	Status         Status `json:"status"`
	ProductURL     string `json:"id"`
	ProductTitle   string `json:"product_title"`
	ProductType    string `json:"product_type"`
	SubscriberName string `json:"subscriber_name"`
}

// New builds the shared part of a notification for one product event.
// SubscriberName is left blank; use For to address a recipient.
func New(p product.Product, status Status, category string) Notification {
	return Notification{
		Status:       status,
		ProductURL:   strconv.FormatInt(p.ID, 10),
		ProductTitle: p.Title,
		ProductType:  category,
	}
}

// For returns a copy addressed to the named subscriber.
func (n Notification) For(subscriberName string) Notification {
	n.SubscriberName = subscriberName
	return n
}

// Encoder turns a notification into its wire body.
type Encoder func(Notification) ([]byte, error)

// Encode renders n as JSON.
func Encode(n Notification) ([]byte, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("notification: encode: %w", err)
	}
	return body, nil
}
