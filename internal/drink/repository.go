package drink

import "context"

// Repository persists drinks.
//
// Implementations return ErrNotFound for unknown ids and ErrDuplicateTitle
// when a title is already taken. Returned drinks never share memory with the
// repository's own state.
type Repository interface {
	// List returns all drinks ordered by id.
	List(ctx context.Context) ([]Drink, error)
	Get(ctx context.Context, id int64) (Drink, error)
	// Create stores d and returns it with its assigned id.
	Create(ctx context.Context, d Drink) (Drink, error)
	// Update replaces the stored drink with d.ID.
	Update(ctx context.Context, d Drink) (Drink, error)
	Delete(ctx context.Context, id int64) error
}
