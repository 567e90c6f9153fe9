package product

import "context"

type Repository interface {
	// Insert assigns the next ID to p and stores it.
	Insert(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Delete(ctx context.Context, id int64) (*Product, error)
}
