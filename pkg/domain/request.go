package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidBody is returned for request bodies that are not JSON objects or
// lack required fields.
var ErrInvalidBody = errors.New("invalid request body")

// NewDrink is a validated create request.
type NewDrink struct {
	Title  string
	Recipe Recipe
}

// DrinkPatch is a validated update request. Nil fields are left untouched.
type DrinkPatch struct {
	Title  *string
	Recipe *Recipe
}

// ParseNewDrink validates a create body: a JSON object with a non-blank
// title and a recipe.
func ParseNewDrink(body []byte) (*NewDrink, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	titleRaw, hasTitle := fields["title"]
	recipeRaw, hasRecipe := fields["recipe"]
	if !hasTitle || !hasRecipe {
		return nil, fmt.Errorf("%w: title and recipe are required", ErrInvalidBody)
	}
	title, err := decodeTitle(titleRaw)
	if err != nil {
		return nil, err
	}
	recipe, err := ValidateRecipe(recipeRaw)
	if err != nil {
		return nil, err
	}
	return &NewDrink{Title: title, Recipe: recipe}, nil
}

// ParseDrinkPatch validates an update body. At least one of title or recipe
// must be present; explicit nulls are ignored.
func ParseDrinkPatch(body []byte) (*DrinkPatch, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	titleRaw, hasTitle := fields["title"]
	recipeRaw, hasRecipe := fields["recipe"]
	if !hasTitle && !hasRecipe {
		return nil, fmt.Errorf("%w: title or recipe is required", ErrInvalidBody)
	}

	patch := &DrinkPatch{}
	if hasTitle && !isNull(titleRaw) {
		title, err := decodeTitle(titleRaw)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if hasRecipe && !isNull(recipeRaw) {
		recipe, err := ValidateRecipe(recipeRaw)
		if err != nil {
			return nil, err
		}
		patch.Recipe = &recipe
	}
	return patch, nil
}

// Apply copies the supplied fields onto d.
func (p *DrinkPatch) Apply(d *Drink) {
	if p == nil || d == nil {
		return
	}
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Recipe != nil {
		d.Recipe = append(Recipe{}, (*p.Recipe)...)
	}
}

func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidBody)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return fields, nil
}

func decodeTitle(raw json.RawMessage) (string, error) {
	var title string
	if isNull(raw) {
		return "", fmt.Errorf("%w: title must be a string", ErrInvalidBody)
	}
	if err := json.Unmarshal(raw, &title); err != nil {
		return "", fmt.Errorf("%w: title must be a string", ErrInvalidBody)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is empty", ErrInvalidBody)
	}
	return title, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
