package persistence

import (
	"context"
	"errors"

	"github.com/osvaldoandrade/coffeeshop/pkg/domain"
)

var (
	// ErrNotFound is returned when a drink does not exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a drink title is already taken
	ErrAlreadyExists = errors.New("already exists")
)

// PluginPersistence provides storage operations for persistence plugins.
// This is the main interface that all persistence backends must implement.
type PluginPersistence interface {
	// DrinkStorage returns the drink storage implementation
	DrinkStorage() DrinkStorage

	// Health checks if the persistence backend is healthy
	Health(ctx context.Context) error

	// Close releases resources held by the persistence backend
	Close() error
}

// DrinkStorage defines persistence operations for drinks. Titles are unique
// per backend; a clashing title yields ErrAlreadyExists.
type DrinkStorage interface {
	// Create stores a new drink and returns it with its assigned id
	Create(ctx context.Context, title string, recipe domain.Recipe) (*domain.Drink, error)

	// Get retrieves a drink by id
	Get(ctx context.Context, id int64) (*domain.Drink, error)

	// List returns every drink ordered by id
	List(ctx context.Context) ([]*domain.Drink, error)

	// Update replaces the title and recipe of an existing drink
	Update(ctx context.Context, drink *domain.Drink) error

	// Delete removes a drink
	Delete(ctx context.Context, id int64) error

	// Count returns the number of stored drinks
	Count(ctx context.Context) (int64, error)

	// Reset drops every drink and restarts id assignment
	Reset(ctx context.Context) error
}
