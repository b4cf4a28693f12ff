// Package gormstore persists drinks in PostgreSQL through GORM.
//
// The drinks table is expected to exist; schema management is left to
// migrations run outside the service.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/deepworx/drinks-api/internal/drink"
	"github.com/deepworx/drinks-api/pkg/postgres"
)

// Repository implements drink.Repository on a *gorm.DB.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a Repository using db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]drink.Drink, error) {
	var rows []drinkRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}

	items := make([]drink.Drink, 0, len(rows))
	for _, row := range rows {
		d, err := row.toDrink()
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (drink.Drink, error) {
	var row drinkRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		return drink.Drink{}, mapError(err)
	}
	return row.toDrink()
}

func (r *Repository) Create(ctx context.Context, d drink.Drink) (drink.Drink, error) {
	row, err := recordFromDrink(d)
	if err != nil {
		return drink.Drink{}, err
	}
	row.ID = 0

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return drink.Drink{}, mapError(err)
	}
	return row.toDrink()
}

func (r *Repository) Update(ctx context.Context, d drink.Drink) (drink.Drink, error) {
	row, err := recordFromDrink(d)
	if err != nil {
		return drink.Drink{}, err
	}

	result := r.db.WithContext(ctx).
		Model(&drinkRecord{}).
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"title":  row.Title,
			"recipe": row.Recipe,
		})
	if result.Error != nil {
		return drink.Drink{}, mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return drink.Drink{}, drink.ErrNotFound
	}
	return row.toDrink()
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&drinkRecord{})
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return drink.ErrNotFound
	}
	return nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return drink.ErrNotFound
	case postgres.IsUniqueViolation(err):
		return drink.ErrDuplicateTitle
	case postgres.IsUndefinedTable(err):
		return fmt.Errorf("drinks table missing, apply migrations: %w", err)
	default:
		return err
	}
}

var _ drink.Repository = (*Repository)(nil)
