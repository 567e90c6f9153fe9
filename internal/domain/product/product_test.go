package product_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-notify/internal/domain/product"
)

func TestNew_NormalizesType(t *testing.T) {
	t.Parallel()

	p, err := product.New(" Systems Design ", "book", 4200, 3)
	require.NoError(t, err)

	assert.Equal(t, "Systems Design", p.Title)
	assert.Equal(t, "BOOK", p.Type)
	assert.Zero(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		title    string
		typ      string
		price    int64
		quantity int
		want     error
	}{
		{"empty title", " ", "book", 1, 1, product.ErrInvalidTitle},
		{"empty type", "x", "", 1, 1, product.ErrInvalidType},
		{"negative price", "x", "book", -1, 1, product.ErrInvalidPrice},
		{"negative quantity", "x", "book", 1, -1, product.ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := product.New(tt.title, tt.typ, tt.price, tt.quantity)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
