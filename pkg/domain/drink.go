package domain

import (
	"encoding"
	"encoding/json"
)

// Drink is a menu entry. Recipe is persisted as an opaque JSON blob and is
// only ever round-tripped by storage.
type Drink struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Recipe Recipe `json:"recipe"`
}

// Ingredient is one line of a recipe.
type Ingredient struct {
	Color string  `json:"color"`
	Name  string  `json:"name"`
	Parts float64 `json:"parts"`
}

type Recipe []Ingredient

// ShortIngredient is the public projection of an ingredient; the name is
// withheld from callers without the detail permission.
type ShortIngredient struct {
	Color string  `json:"color"`
	Parts float64 `json:"parts"`
}

type ShortDrink struct {
	ID     int64             `json:"id"`
	Title  string            `json:"title"`
	Recipe []ShortIngredient `json:"recipe"`
}

type LongDrink struct {
	ID     int64        `json:"id"`
	Title  string       `json:"title"`
	Recipe []Ingredient `json:"recipe"`
}

var (
	_ encoding.BinaryMarshaler   = (*Drink)(nil)
	_ encoding.BinaryUnmarshaler = (*Drink)(nil)
)

func (d *Drink) MarshalBinary() ([]byte, error)     { return json.Marshal(d) }
func (d *Drink) UnmarshalBinary(data []byte) error { return json.Unmarshal(data, d) }

// Short returns the public representation of the drink.
func (d *Drink) Short() ShortDrink {
	out := ShortDrink{ID: d.ID, Title: d.Title, Recipe: make([]ShortIngredient, 0, len(d.Recipe))}
	for _, ing := range d.Recipe {
		out.Recipe = append(out.Recipe, ShortIngredient{Color: ing.Color, Parts: ing.Parts})
	}
	return out
}

// Long returns the detailed representation of the drink.
func (d *Drink) Long() LongDrink {
	recipe := make([]Ingredient, len(d.Recipe))
	copy(recipe, d.Recipe)
	return LongDrink{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// Clone returns a deep copy so callers can hand drinks across storage
// boundaries without sharing the recipe slice.
func (d *Drink) Clone() *Drink {
	if d == nil {
		return nil
	}
	out := *d
	out.Recipe = make(Recipe, len(d.Recipe))
	copy(out.Recipe, d.Recipe)
	return &out
}

// EncodeRecipe serializes a recipe to its storage blob.
func EncodeRecipe(r Recipe) (string, error) {
	if r == nil {
		r = Recipe{}
	}
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeRecipe parses a storage blob written by EncodeRecipe.
func DecodeRecipe(blob string) (Recipe, error) {
	if blob == "" {
		return Recipe{}, nil
	}
	var r Recipe
	if err := json.Unmarshal([]byte(blob), &r); err != nil {
		return nil, err
	}
	if r == nil {
		r = Recipe{}
	}
	return r, nil
}
