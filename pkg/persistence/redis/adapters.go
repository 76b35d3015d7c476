package redis

import (
	"context"
	"errors"

	"github.com/osvaldoandrade/coffeeshop/internal/repository"
	"github.com/osvaldoandrade/coffeeshop/pkg/domain"
	"github.com/osvaldoandrade/coffeeshop/pkg/persistence"
)

// drinkStorageAdapter adapts repository.DrinkRepository to
// persistence.DrinkStorage, translating repository errors.
type drinkStorageAdapter struct {
	repo repository.DrinkRepository
}

func (a *drinkStorageAdapter) Create(ctx context.Context, title string, recipe domain.Recipe) (*domain.Drink, error) {
	d, err := a.repo.Create(ctx, title, recipe)
	return d, translate(err)
}

func (a *drinkStorageAdapter) Get(ctx context.Context, id int64) (*domain.Drink, error) {
	d, err := a.repo.Get(ctx, id)
	return d, translate(err)
}

func (a *drinkStorageAdapter) List(ctx context.Context) ([]*domain.Drink, error) {
	return a.repo.List(ctx)
}

func (a *drinkStorageAdapter) Update(ctx context.Context, drink *domain.Drink) error {
	return translate(a.repo.Update(ctx, drink))
}

func (a *drinkStorageAdapter) Delete(ctx context.Context, id int64) error {
	return translate(a.repo.Delete(ctx, id))
}

func (a *drinkStorageAdapter) Count(ctx context.Context) (int64, error) {
	return a.repo.Count(ctx)
}

func (a *drinkStorageAdapter) Reset(ctx context.Context) error {
	return a.repo.Reset(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDrinkNotFound):
		return persistence.ErrNotFound
	case errors.Is(err, repository.ErrTitleTaken):
		return persistence.ErrAlreadyExists
	}
	return err
}
