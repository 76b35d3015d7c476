package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/osvaldoandrade/coffeeshop/pkg/domain"
	"github.com/osvaldoandrade/coffeeshop/pkg/persistence"
)

// Plugin implements PluginPersistence for in-memory storage
// This is primarily for testing and should not be used in production
type Plugin struct {
	mu     sync.RWMutex
	drinks map[int64]*domain.Drink
	titles map[string]int64
	nextID int64
}

// NewPlugin creates a new in-memory persistence plugin
func NewPlugin(config persistence.PluginConfig) (persistence.PluginPersistence, error) {
	return New(), nil
}

// New returns an empty store.
func New() *Plugin {
	return &Plugin{
		drinks: make(map[int64]*domain.Drink),
		titles: make(map[string]int64),
		nextID: 1,
	}
}

// DrinkStorage returns the drink storage implementation
func (p *Plugin) DrinkStorage() persistence.DrinkStorage {
	return &drinkStorage{plugin: p}
}

// Health always returns nil for in-memory storage
func (p *Plugin) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op for in-memory storage
func (p *Plugin) Close() error {
	return nil
}

func init() {
	persistence.RegisterProvider("memory", NewPlugin)
}

// drinkStorage implements persistence.DrinkStorage for in-memory storage
type drinkStorage struct {
	plugin *Plugin
}

func (s *drinkStorage) Create(ctx context.Context, title string, recipe domain.Recipe) (*domain.Drink, error) {
	s.plugin.mu.Lock()
	defer s.plugin.mu.Unlock()

	if _, taken := s.plugin.titles[title]; taken {
		return nil, persistence.ErrAlreadyExists
	}
	d := &domain.Drink{ID: s.plugin.nextID, Title: title, Recipe: recipe}
	s.plugin.nextID++
	s.plugin.drinks[d.ID] = d.Clone()
	s.plugin.titles[title] = d.ID
	return d.Clone(), nil
}

func (s *drinkStorage) Get(ctx context.Context, id int64) (*domain.Drink, error) {
	s.plugin.mu.RLock()
	defer s.plugin.mu.RUnlock()

	d, ok := s.plugin.drinks[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return d.Clone(), nil
}

func (s *drinkStorage) List(ctx context.Context) ([]*domain.Drink, error) {
	s.plugin.mu.RLock()
	defer s.plugin.mu.RUnlock()

	out := make([]*domain.Drink, 0, len(s.plugin.drinks))
	for _, d := range s.plugin.drinks {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *drinkStorage) Update(ctx context.Context, drink *domain.Drink) error {
	s.plugin.mu.Lock()
	defer s.plugin.mu.Unlock()

	current, ok := s.plugin.drinks[drink.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if owner, taken := s.plugin.titles[drink.Title]; taken && owner != drink.ID {
		return persistence.ErrAlreadyExists
	}
	delete(s.plugin.titles, current.Title)
	s.plugin.titles[drink.Title] = drink.ID
	s.plugin.drinks[drink.ID] = drink.Clone()
	return nil
}

func (s *drinkStorage) Delete(ctx context.Context, id int64) error {
	s.plugin.mu.Lock()
	defer s.plugin.mu.Unlock()

	d, ok := s.plugin.drinks[id]
	if !ok {
		return persistence.ErrNotFound
	}
	delete(s.plugin.titles, d.Title)
	delete(s.plugin.drinks, id)
	return nil
}

func (s *drinkStorage) Count(ctx context.Context) (int64, error) {
	s.plugin.mu.RLock()
	defer s.plugin.mu.RUnlock()
	return int64(len(s.plugin.drinks)), nil
}

func (s *drinkStorage) Reset(ctx context.Context) error {
	s.plugin.mu.Lock()
	defer s.plugin.mu.Unlock()

	s.plugin.drinks = make(map[int64]*domain.Drink)
	s.plugin.titles = make(map[string]int64)
	s.plugin.nextID = 1
	return nil
}
