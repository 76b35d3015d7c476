package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidRecipe is returned when a recipe payload does not have the
// expected shape. No part of a rejected recipe is ever stored.
var ErrInvalidRecipe = errors.New("invalid recipe")

var ingredientKeys = []string{"color", "name", "parts"}

// ValidateRecipe checks that raw is a JSON list whose every element is an
// object carrying color, name and parts, and returns the typed recipe.
// An empty list is valid.
func ValidateRecipe(raw json.RawMessage) (Recipe, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: recipe must be a list", ErrInvalidRecipe)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecipe, err)
	}

	recipe := make(Recipe, 0, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, fmt.Errorf("%w: ingredient %d is not an object", ErrInvalidRecipe, i)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			return nil, fmt.Errorf("%w: ingredient %d: %v", ErrInvalidRecipe, i, err)
		}
		for _, k := range ingredientKeys {
			if _, ok := fields[k]; !ok {
				return nil, fmt.Errorf("%w: ingredient %d missing %q", ErrInvalidRecipe, i, k)
			}
		}

		var ing Ingredient
		if err := json.Unmarshal(fields["color"], &ing.Color); err != nil {
			return nil, fmt.Errorf("%w: ingredient %d color: %v", ErrInvalidRecipe, i, err)
		}
		if err := json.Unmarshal(fields["name"], &ing.Name); err != nil {
			return nil, fmt.Errorf("%w: ingredient %d name: %v", ErrInvalidRecipe, i, err)
		}
		if err := json.Unmarshal(fields["parts"], &ing.Parts); err != nil {
			return nil, fmt.Errorf("%w: ingredient %d parts: %v", ErrInvalidRecipe, i, err)
		}
		recipe = append(recipe, ing)
	}
	return recipe, nil
}
