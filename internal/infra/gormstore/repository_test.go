package gormstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/deepworx/drinks-api/internal/drink"
)

func TestRecordRoundTrip(t *testing.T) {
	t.Parallel()

	d := drink.Drink{ID: 7, Title: "Flat White", Recipe: []drink.Ingredient{
		{Name: "milk", Color: "white", Parts: 2},
		{Name: "espresso", Color: "brown", Parts: 1},
	}}

	row, err := recordFromDrink(d)
	if err != nil {
		t.Fatalf("recordFromDrink() error = %v", err)
	}
	want := `[{"name":"milk","color":"white","parts":2},{"name":"espresso","color":"brown","parts":1}]`
	if row.Recipe != want {
		t.Errorf("Recipe = %s, want %s", row.Recipe, want)
	}

	got, err := row.toDrink()
	if err != nil {
		t.Fatalf("toDrink() error = %v", err)
	}
	if got.ID != d.ID || got.Title != d.Title || len(got.Recipe) != 2 || got.Recipe[1] != d.Recipe[1] {
		t.Errorf("toDrink() = %+v, want %+v", got, d)
	}
}

func TestRecordFromDrink_NilRecipe(t *testing.T) {
	t.Parallel()

	row, err := recordFromDrink(drink.Drink{Title: "x"})
	if err != nil {
		t.Fatalf("recordFromDrink() error = %v", err)
	}
	if row.Recipe != "[]" {
		t.Errorf("Recipe = %q, want %q", row.Recipe, "[]")
	}
}

func TestToDrink_CorruptRecipe(t *testing.T) {
	t.Parallel()

	if _, err := (drinkRecord{ID: 1, Recipe: "{not json"}).toDrink(); err == nil {
		t.Error("toDrink() error = nil, want decode error")
	}
}

func TestTableName(t *testing.T) {
	t.Parallel()

	if got := (drinkRecord{}).TableName(); got != "drinks" {
		t.Errorf("TableName() = %q, want drinks", got)
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	other := errors.New("connection reset")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "not found", err: gorm.ErrRecordNotFound, want: drink.ErrNotFound},
		{name: "wrapped not found", err: fmt.Errorf("query: %w", gorm.ErrRecordNotFound), want: drink.ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: drink.ErrDuplicateTitle},
		{name: "other pg error", err: &pgconn.PgError{Code: "23503"}, want: nil},
		{name: "missing table", err: &pgconn.PgError{Code: "42P01"}, want: nil},
		{name: "passthrough", err: other, want: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := mapError(tt.err)
			want := tt.want
			if want == nil {
				want = tt.err
			}
			if !errors.Is(got, want) {
				t.Errorf("mapError() = %v, want %v", got, want)
			}
		})
	}
}
