package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/osvaldoandrade/coffeeshop/internal/metrics"
	"github.com/osvaldoandrade/coffeeshop/pkg/domain"
	"github.com/osvaldoandrade/coffeeshop/pkg/persistence"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrValidation marks a request body that cannot be processed.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown drink id.
	ErrNotFound = errors.New("drink not found")
	// ErrStorage marks a failed write. The wrapped error holds the cause.
	ErrStorage = errors.New("storage failure")
	// ErrInternal marks a failed read.
	ErrInternal = errors.New("internal error")
)

// SeedDrink is the drink inserted by Seed.
var SeedDrink = domain.NewDrink{
	Title:  "water",
	Recipe: domain.Recipe{{Name: "water", Color: "blue", Parts: 1}},
}

type DrinkService interface {
	List(ctx context.Context) ([]*domain.Drink, error)
	Get(ctx context.Context, id int64) (*domain.Drink, error)
	Create(ctx context.Context, body []byte) (*domain.Drink, error)
	Update(ctx context.Context, id int64, body []byte) (*domain.Drink, error)
	Delete(ctx context.Context, id int64) error
	Seed(ctx context.Context) error
	Health(ctx context.Context) error
}

type drinkService struct {
	store  persistence.PluginPersistence
	logger *slog.Logger
	tracer trace.Tracer
}

func NewDrinkService(store persistence.PluginPersistence, logger *slog.Logger) DrinkService {
	if logger == nil {
		logger = slog.Default()
	}
	return &drinkService{store: store, logger: logger, tracer: otel.Tracer("coffeeshop/drinks")}
}

func (s *drinkService) List(ctx context.Context) ([]*domain.Drink, error) {
	ctx, span := s.tracer.Start(ctx, "coffeeshop.drink.list")
	defer span.End()

	drinks, err := s.store.DrinkStorage().List(ctx)
	if err != nil {
		s.finish(span, "list", err)
		return nil, fmt.Errorf("%w: list drinks: %w", ErrInternal, err)
	}
	span.SetAttributes(attribute.Int("coffeeshop.drink.count", len(drinks)))
	s.finish(span, "list", nil)
	return drinks, nil
}

// Get returns the drink with id, or ErrNotFound.
func (s *drinkService) Get(ctx context.Context, id int64) (*domain.Drink, error) {
	ctx, span := s.tracer.Start(ctx, "coffeeshop.drink.get",
		trace.WithAttributes(attribute.Int64("coffeeshop.drink.id", id)))
	defer span.End()

	d, err := s.store.DrinkStorage().Get(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = fmt.Errorf("%w: %d", ErrNotFound, id)
		} else {
			err = fmt.Errorf("%w: get drink %d: %w", ErrInternal, id, err)
		}
		s.finish(span, "get", err)
		return nil, err
	}
	s.finish(span, "get", nil)
	return d, nil
}

func (s *drinkService) Create(ctx context.Context, body []byte) (*domain.Drink, error) {
	ctx, span := s.tracer.Start(ctx, "coffeeshop.drink.create")
	defer span.End()

	req, err := domain.ParseNewDrink(body)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrValidation, err)
		s.finish(span, "create", err)
		return nil, err
	}

	d, err := s.store.DrinkStorage().Create(ctx, req.Title, req.Recipe)
	if err != nil {
		err = fmt.Errorf("%w: create drink %q: %w", ErrStorage, req.Title, err)
		s.finish(span, "create", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("coffeeshop.drink.id", d.ID))
	s.finish(span, "create", nil)
	return d, nil
}

// Update checks the drink exists before looking at the body, so an unknown
// id wins over an invalid body.
func (s *drinkService) Update(ctx context.Context, id int64, body []byte) (*domain.Drink, error) {
	ctx, span := s.tracer.Start(ctx, "coffeeshop.drink.update",
		trace.WithAttributes(attribute.Int64("coffeeshop.drink.id", id)))
	defer span.End()

	storage := s.store.DrinkStorage()
	d, err := storage.Get(ctx, id)
	if err != nil {
		err = classifyWrite("load drink", id, err)
		s.finish(span, "update", err)
		return nil, err
	}

	patch, err := domain.ParseDrinkPatch(body)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrValidation, err)
		s.finish(span, "update", err)
		return nil, err
	}
	patch.Apply(d)

	if err := storage.Update(ctx, d); err != nil {
		err = classifyWrite("update drink", id, err)
		s.finish(span, "update", err)
		return nil, err
	}
	s.finish(span, "update", nil)
	return d, nil
}

func (s *drinkService) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "coffeeshop.drink.delete",
		trace.WithAttributes(attribute.Int64("coffeeshop.drink.id", id)))
	defer span.End()

	if err := s.store.DrinkStorage().Delete(ctx, id); err != nil {
		err = classifyWrite("delete drink", id, err)
		s.finish(span, "delete", err)
		return err
	}
	s.finish(span, "delete", nil)
	return nil
}

// Seed empties the store and inserts SeedDrink.
func (s *drinkService) Seed(ctx context.Context) error {
	storage := s.store.DrinkStorage()
	if err := storage.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	d, err := storage.Create(ctx, SeedDrink.Title, SeedDrink.Recipe)
	if err != nil {
		return fmt.Errorf("seed drink: %w", err)
	}
	s.logger.Info("store seeded", "drink_id", d.ID, "title", d.Title)
	return nil
}

func (s *drinkService) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

func classifyWrite(op string, id int64, err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return fmt.Errorf("%w: %s %d: %w", ErrStorage, op, id, err)
}

func (s *drinkService) finish(span trace.Span, op string, err error) {
	outcome := outcomeOf(err)
	metrics.DrinkOperationsTotal.WithLabelValues(op, outcome).Inc()
	if err == nil {
		return
	}
	span.SetAttributes(attribute.String("coffeeshop.outcome", outcome))
	if errors.Is(err, ErrStorage) || errors.Is(err, ErrInternal) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStorage):
		return "storage_error"
	default:
		return "error"
	}
}
