package http

import (
	"bytes"
	"encoding/json"

	"github.com/deepworx/drinks-api/internal/drink"
)

// recipeField accepts a recipe given as a list of ingredients or as a single
// ingredient object.
type recipeField []drink.Ingredient

func (r *recipeField) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one drink.Ingredient
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		*r = recipeField{one}
		return nil
	}

	var many []drink.Ingredient
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*r = many
	return nil
}

type drinkRequest struct {
	Title  string      `json:"title"`
	Recipe recipeField `json:"recipe"`
}

type drinksResponse[T any] struct {
	Success bool `json:"success"`
	Drinks  []T  `json:"drinks"`
}

type deleteResponse struct {
	Success bool  `json:"success"`
	Delete  int64 `json:"delete"`
}
