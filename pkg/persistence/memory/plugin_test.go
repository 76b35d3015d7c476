package memory

import (
	"context"
	"testing"

	"github.com/osvaldoandrade/coffeeshop/pkg/domain"
	"github.com/osvaldoandrade/coffeeshop/pkg/persistence"
	"github.com/osvaldoandrade/coffeeshop/pkg/persistence/persistencetest"
)

func TestMemoryPlugin(t *testing.T) {
	plugin, err := persistence.NewPersistence(persistence.ProviderConfig{Type: "memory"}, persistence.PluginConfig{})
	if err != nil {
		t.Fatalf("Failed to create plugin: %v", err)
	}
	defer plugin.Close()

	ctx := context.Background()
	if err := plugin.Health(ctx); err != nil {
		t.Errorf("Health check failed: %v", err)
	}
	if plugin.DrinkStorage() == nil {
		t.Fatal("DrinkStorage returned nil")
	}
}

func TestMemoryDrinkStorage(t *testing.T) {
	persistencetest.RunDrinkStorage(t, func(t *testing.T) persistence.DrinkStorage {
		return New().DrinkStorage()
	})
}

func TestMemoryReturnsCopies(t *testing.T) {
	s := New().DrinkStorage()
	ctx := context.Background()
	d, err := s.Create(ctx, "water", domain.Recipe{{Name: "water", Color: "blue", Parts: 1}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	d.Recipe[0].Name = "mutated"

	got, err := s.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Recipe[0].Name != "water" {
		t.Fatalf("stored recipe was mutated through returned value: %+v", got.Recipe)
	}
}
