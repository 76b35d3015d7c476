// Package persistencetest holds behaviour checks shared by every
// persistence plugin.
package persistencetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/osvaldoandrade/coffeeshop/pkg/domain"
	"github.com/osvaldoandrade/coffeeshop/pkg/persistence"
)

var water = domain.Recipe{{Name: "water", Color: "blue", Parts: 1}}

// RunDrinkStorage runs the shared storage checks. newStorage must return an
// empty store for every call.
func RunDrinkStorage(t *testing.T, newStorage func(t *testing.T) persistence.DrinkStorage) {
	t.Run("CreateAssignsIncreasingIDs", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		a, err := s.Create(ctx, "water", water)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		b, err := s.Create(ctx, "matcha", domain.Recipe{{Name: "milk", Color: "grey", Parts: 1}, {Name: "matcha", Color: "green", Parts: 3}})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if a.ID <= 0 || b.ID <= a.ID {
			t.Fatalf("expected increasing ids, got %d then %d", a.ID, b.ID)
		}
		got, err := s.Get(ctx, b.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "matcha" || len(got.Recipe) != 2 || got.Recipe[1].Name != "matcha" || got.Recipe[1].Parts != 3 {
			t.Fatalf("unexpected drink %+v", got)
		}
	})

	t.Run("DuplicateTitle", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		if _, err := s.Create(ctx, "water", water); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := s.Create(ctx, "water", water); !errors.Is(err, persistence.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		n, err := s.Count(ctx)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 drink, got %d", n)
		}
	})

	t.Run("EmptyRecipe", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		d, err := s.Create(ctx, "nothing", domain.Recipe{})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := s.Get(ctx, d.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Recipe == nil || len(got.Recipe) != 0 {
			t.Fatalf("expected empty non-nil recipe, got %#v", got.Recipe)
		}
	})

	t.Run("ListOrderedByID", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		for i := 0; i < 12; i++ {
			if _, err := s.Create(ctx, fmt.Sprintf("drink-%02d", i), water); err != nil {
				t.Fatalf("create %d: %v", i, err)
			}
		}
		list, err := s.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 12 {
			t.Fatalf("expected 12 drinks, got %d", len(list))
		}
		for i := 1; i < len(list); i++ {
			if list[i-1].ID >= list[i].ID {
				t.Fatalf("list not ordered by id: %d before %d", list[i-1].ID, list[i].ID)
			}
		}
	})

	t.Run("UpdateReplacesFields", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		d, err := s.Create(ctx, "water", water)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		d.Title = "sparkling water"
		d.Recipe = domain.Recipe{{Name: "soda", Color: "clear", Parts: 2}}
		if err := s.Update(ctx, d); err != nil {
			t.Fatalf("update: %v", err)
		}
		got, err := s.Get(ctx, d.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "sparkling water" || got.Recipe[0].Name != "soda" {
			t.Fatalf("update not applied: %+v", got)
		}
		// the old title is free again
		if _, err := s.Create(ctx, "water", water); err != nil {
			t.Fatalf("expected old title to be reusable: %v", err)
		}
	})

	t.Run("UpdateTitleClash", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		if _, err := s.Create(ctx, "water", water); err != nil {
			t.Fatalf("create: %v", err)
		}
		d, err := s.Create(ctx, "tea", water)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		d.Title = "water"
		if err := s.Update(ctx, d); !errors.Is(err, persistence.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		got, err := s.Get(ctx, d.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "tea" {
			t.Fatalf("failed update must not change the drink, got %q", got.Title)
		}
	})

	t.Run("UpdateKeepsOwnTitle", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		d, err := s.Create(ctx, "water", water)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		d.Recipe = domain.Recipe{}
		if err := s.Update(ctx, d); err != nil {
			t.Fatalf("update with unchanged title: %v", err)
		}
	})

	t.Run("MissingDrink", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		if _, err := s.Get(ctx, 42); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("get: expected ErrNotFound, got %v", err)
		}
		if err := s.Update(ctx, &domain.Drink{ID: 42, Title: "x", Recipe: water}); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("update: expected ErrNotFound, got %v", err)
		}
		if err := s.Delete(ctx, 42); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		d, err := s.Create(ctx, "water", water)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := s.Delete(ctx, d.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.Get(ctx, d.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if _, err := s.Create(ctx, "water", water); err != nil {
			t.Fatalf("expected title to be free after delete: %v", err)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		for _, title := range []string{"a", "b", "c"} {
			if _, err := s.Create(ctx, title, water); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		if err := s.Reset(ctx); err != nil {
			t.Fatalf("reset: %v", err)
		}
		n, err := s.Count(ctx)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 0 {
			t.Fatalf("expected empty store, got %d", n)
		}
		d, err := s.Create(ctx, "a", water)
		if err != nil {
			t.Fatalf("create after reset: %v", err)
		}
		if d.ID != 1 {
			t.Fatalf("expected ids to restart at 1, got %d", d.ID)
		}
	})

	t.Run("ConcurrentCreate", func(t *testing.T) {
		s := newStorage(t)
		ctx := context.Background()
		var wg sync.WaitGroup
		ids := make(chan int64, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				d, err := s.Create(ctx, fmt.Sprintf("drink-%d", i), water)
				if err != nil {
					t.Errorf("create %d: %v", i, err)
					return
				}
				ids <- d.ID
			}(i)
		}
		wg.Wait()
		close(ids)
		seen := map[int64]bool{}
		for id := range ids {
			if seen[id] {
				t.Fatalf("duplicate id %d", id)
			}
			seen[id] = true
		}
	})
}
