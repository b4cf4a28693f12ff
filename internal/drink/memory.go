package drink

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryRepository is an in-process Repository.
// It is safe for concurrent use.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	drinks map[int64]Drink
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID: 1,
		drinks: make(map[int64]Drink),
	}
}

func (r *MemoryRepository) List(ctx context.Context) ([]Drink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(r.drinks))
	out := make([]Drink, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.drinks[id].Clone())
	}
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id int64) (Drink, error) {
	if err := ctx.Err(); err != nil {
		return Drink{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.drinks[id]
	if !ok {
		return Drink{}, ErrNotFound
	}
	return d.Clone(), nil
}

func (r *MemoryRepository) Create(ctx context.Context, d Drink) (Drink, error) {
	if err := ctx.Err(); err != nil {
		return Drink{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.titleTaken(d.Title, 0) {
		return Drink{}, ErrDuplicateTitle
	}

	d = d.Clone()
	d.ID = r.nextID
	r.nextID++
	r.drinks[d.ID] = d
	return d.Clone(), nil
}

func (r *MemoryRepository) Update(ctx context.Context, d Drink) (Drink, error) {
	if err := ctx.Err(); err != nil {
		return Drink{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.drinks[d.ID]; !ok {
		return Drink{}, ErrNotFound
	}
	if r.titleTaken(d.Title, d.ID) {
		return Drink{}, ErrDuplicateTitle
	}

	r.drinks[d.ID] = d.Clone()
	return d.Clone(), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.drinks[id]; !ok {
		return ErrNotFound
	}
	delete(r.drinks, id)
	return nil
}

// titleTaken must be called with r.mu held.
func (r *MemoryRepository) titleTaken(title string, except int64) bool {
	for id, d := range r.drinks {
		if id != except && d.Title == title {
			return true
		}
	}
	return false
}

var _ Repository = (*MemoryRepository)(nil)
