package notification_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-notify/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-notify/internal/domain/product"
)

func TestNew_LeavesSubscriberBlank(t *testing.T) {
	t.Parallel()

	n := notification.New(product.Product{ID: 1, Title: "Systems Design"}, notification.StatusCreated, "BOOK")

	assert.Equal(t, notification.Notification{
		Status:       notification.StatusCreated,
		ProductURL:   "1",
		ProductTitle: "Systems Design",
		ProductType:  "BOOK",
	}, n)
}

func TestFor_CopiesWithoutMutatingBase(t *testing.T) {
	t.Parallel()

	base := notification.New(product.Product{ID: 7, Title: "Go"}, notification.StatusDeleted, "BOOK")

	a := base.For("A")
	b := base.For("B")

	assert.Empty(t, base.SubscriberName)
	assert.Equal(t, "A", a.SubscriberName)
	assert.Equal(t, "B", b.SubscriberName)
	a.SubscriberName, b.SubscriberName = "", ""
	assert.Equal(t, base, a)
	assert.Equal(t, base, b)
}

func TestEncode_WireNames(t *testing.T) {
	t.Parallel()

	n := notification.New(product.Product{ID: 1, Title: "Systems Design"}, notification.StatusCreated, "BOOK").For("A")

	body, err := notification.Encode(n)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, map[string]string{
		"status":          "CREATED",
		"id":              "1",
		"product_title":   "Systems Design",
		"product_type":    "BOOK",
		"subscriber_name": "A",
	}, got)
}
