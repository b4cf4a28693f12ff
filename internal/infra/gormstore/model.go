package gormstore

import (
	"encoding/json"
	"fmt"

	"github.com/deepworx/drinks-api/internal/drink"
)

// drinkRecord maps the drinks table. Recipe holds the ingredient list as JSON.
type drinkRecord struct {
	ID     int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Title  string `gorm:"column:title;type:varchar(80);uniqueIndex;not null"`
	Recipe string `gorm:"column:recipe;type:text;not null"`
}

func (drinkRecord) TableName() string { return "drinks" }

func recordFromDrink(d drink.Drink) (drinkRecord, error) {
	recipe := d.Recipe
	if recipe == nil {
		recipe = []drink.Ingredient{}
	}
	raw, err := json.Marshal(recipe)
	if err != nil {
		return drinkRecord{}, fmt.Errorf("encode recipe: %w", err)
	}
	return drinkRecord{ID: d.ID, Title: d.Title, Recipe: string(raw)}, nil
}

func (r drinkRecord) toDrink() (drink.Drink, error) {
	var recipe []drink.Ingredient
	if err := json.Unmarshal([]byte(r.Recipe), &recipe); err != nil {
		return drink.Drink{}, fmt.Errorf("decode recipe of drink %d: %w", r.ID, err)
	}
	return drink.Drink{ID: r.ID, Title: r.Title, Recipe: recipe}, nil
}
