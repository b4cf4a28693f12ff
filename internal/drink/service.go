package drink

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/deepworx/drinks-api/pkg/tracing"
)

// Service manages the drinks menu.
type Service struct {
	repo Repository
}

// NewService creates a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every drink.
func (s *Service) List(ctx context.Context) ([]Drink, error) {
	return tracing.WithSpanResult(ctx, "drink.list", func(ctx context.Context) ([]Drink, error) {
		drinks, err := s.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list drinks: %w", err)
		}
		return drinks, nil
	})
}

// Get returns the drink with id.
func (s *Service) Get(ctx context.Context, id int64) (Drink, error) {
	return tracing.WithSpanResult(ctx, "drink.get", func(ctx context.Context) (Drink, error) {
		d, err := s.repo.Get(ctx, id)
		if err != nil {
			return Drink{}, fmt.Errorf("get drink %d: %w", id, err)
		}
		return d, nil
	}, attribute.Int64("drink.id", id))
}

// Create validates and stores a new drink.
func (s *Service) Create(ctx context.Context, title string, recipe []Ingredient) (Drink, error) {
	return tracing.WithSpanResult(ctx, "drink.create", func(ctx context.Context) (Drink, error) {
		d := Drink{Title: title, Recipe: recipe}
		if err := d.Validate(); err != nil {
			return Drink{}, err
		}

		created, err := s.repo.Create(ctx, d)
		if err != nil {
			return Drink{}, fmt.Errorf("create drink: %w", err)
		}

		slog.InfoContext(ctx, "drink created",
			slog.Int64("drink_id", created.ID),
			slog.String("title", created.Title),
		)
		return created, nil
	})
}

// Update applies p to the drink with id.
func (s *Service) Update(ctx context.Context, id int64, p Patch) (Drink, error) {
	return tracing.WithSpanResult(ctx, "drink.update", func(ctx context.Context) (Drink, error) {
		current, err := s.repo.Get(ctx, id)
		if err != nil {
			return Drink{}, fmt.Errorf("update drink %d: %w", id, err)
		}

		next := p.Apply(current)
		if err := next.Validate(); err != nil {
			return Drink{}, err
		}

		updated, err := s.repo.Update(ctx, next)
		if err != nil {
			return Drink{}, fmt.Errorf("update drink %d: %w", id, err)
		}

		slog.InfoContext(ctx, "drink updated", slog.Int64("drink_id", id))
		return updated, nil
	}, attribute.Int64("drink.id", id))
}

// Delete removes the drink with id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return tracing.WithSpan(ctx, "drink.delete", func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete drink %d: %w", id, err)
		}
		slog.InfoContext(ctx, "drink deleted", slog.Int64("drink_id", id))
		return nil
	}, attribute.Int64("drink.id", id))
}
