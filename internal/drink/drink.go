// Package drink holds the drinks domain: the Drink entity, its validation
// and public representations, and the Service that manages the menu.
package drink

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// MaxTitleLength is the longest accepted title, in characters.
const MaxTitleLength = 80

// Ingredient is one component of a recipe.
type Ingredient struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

// Drink is a menu item.
type Drink struct {
	ID     int64
	Title  string
	Recipe []Ingredient
}

// ShortIngredient is the public view of an ingredient: no name.
type ShortIngredient struct {
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

// ShortDrink is the representation served to anonymous callers.
type ShortDrink struct {
	ID     int64             `json:"id"`
	Title  string            `json:"title"`
	Recipe []ShortIngredient `json:"recipe"`
}

// LongDrink is the full representation served to authorized callers.
type LongDrink struct {
	ID     int64        `json:"id"`
	Title  string       `json:"title"`
	Recipe []Ingredient `json:"recipe"`
}

// Short returns the public representation.
func (d Drink) Short() ShortDrink {
	recipe := make([]ShortIngredient, len(d.Recipe))
	for i, ing := range d.Recipe {
		recipe[i] = ShortIngredient{Color: ing.Color, Parts: ing.Parts}
	}
	return ShortDrink{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// Long returns the full representation.
func (d Drink) Long() LongDrink {
	recipe := slices.Clone(d.Recipe)
	if recipe == nil {
		recipe = []Ingredient{}
	}
	return LongDrink{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// Clone returns a deep copy.
func (d Drink) Clone() Drink {
	d.Recipe = slices.Clone(d.Recipe)
	return d
}

// Validate reports the first problem with d as an ErrInvalidDrink.
func (d Drink) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidDrink)
	}
	if utf8.RuneCountInString(d.Title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidDrink, MaxTitleLength)
	}
	if len(d.Recipe) == 0 {
		return fmt.Errorf("%w: recipe needs at least one ingredient", ErrInvalidDrink)
	}
	for i, ing := range d.Recipe {
		switch {
		case strings.TrimSpace(ing.Name) == "":
			return fmt.Errorf("%w: ingredient %d: name is required", ErrInvalidDrink, i)
		case strings.TrimSpace(ing.Color) == "":
			return fmt.Errorf("%w: ingredient %d: color is required", ErrInvalidDrink, i)
		case ing.Parts <= 0:
			return fmt.Errorf("%w: ingredient %d: parts must be positive", ErrInvalidDrink, i)
		}
	}
	return nil
}

// Patch lists the fields of an update. Zero values leave a field unchanged.
type Patch struct {
	Title  string
	Recipe []Ingredient
}

// Apply returns d with p's non-zero fields applied.
func (p Patch) Apply(d Drink) Drink {
	d = d.Clone()
	if p.Title != "" {
		d.Title = p.Title
	}
	if len(p.Recipe) > 0 {
		d.Recipe = slices.Clone(p.Recipe)
	}
	return d
}
