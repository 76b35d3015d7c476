// Package postgres stores drinks in a relational table through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/osvaldoandrade/coffeeshop/pkg/domain"
	"github.com/osvaldoandrade/coffeeshop/pkg/persistence"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	_ "github.com/jackc/pgx/v4/stdlib"
)

const (
	defaultMaxOpenConns = 10
	defaultMaxIdleConns = 5
)

const schema = `
CREATE TABLE IF NOT EXISTS drink (
	id SERIAL PRIMARY KEY,
	title VARCHAR(80) UNIQUE NOT NULL,
	recipe VARCHAR(180) NOT NULL
);`

// Config holds Postgres-specific configuration
type Config struct {
	DSN                string `json:"dsn"`
	MaxOpenConnections int    `json:"maxOpenConnections,omitempty"`
	MaxIdleConnections int    `json:"maxIdleConnections,omitempty"`
	ConnMaxLifetimeSec int    `json:"connMaxLifetimeSeconds,omitempty"`
}

// Plugin implements PluginPersistence on Postgres.
type Plugin struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPlugin opens the database and creates the drink table if needed.
func NewPlugin(config persistence.PluginConfig) (persistence.PluginPersistence, error) {
	var cfg Config
	if err := json.Unmarshal(config.Config, &cfg); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, errors.New("postgres persistence: dsn is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	maxOpen := defaultMaxOpenConns
	if cfg.MaxOpenConnections > 0 {
		maxOpen = cfg.MaxOpenConnections
	}
	maxIdle := defaultMaxIdleConns
	if cfg.MaxIdleConnections > 0 {
		maxIdle = cfg.MaxIdleConnections
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	if cfg.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeSec) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create drink table: %w", err)
	}
	logger.Info("postgres persistence ready", "maxOpenConns", maxOpen)

	return &Plugin{db: db, log: logger}, nil
}

func (p *Plugin) DrinkStorage() persistence.DrinkStorage {
	return &drinkStorage{db: p.db}
}

// DB exposes the pool for metrics collection.
func (p *Plugin) DB() *sql.DB {
	return p.db
}

func (p *Plugin) Health(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Plugin) Close() error {
	return p.db.Close()
}

func init() {
	persistence.RegisterProvider("postgres", NewPlugin)
}

type drinkStorage struct {
	db *sql.DB
}

func (s *drinkStorage) Create(ctx context.Context, title string, recipe domain.Recipe) (*domain.Drink, error) {
	blob, err := domain.EncodeRecipe(recipe)
	if err != nil {
		return nil, fmt.Errorf("encode recipe: %w", err)
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO drink (title, recipe) VALUES ($1, $2) RETURNING id`, title, blob).Scan(&id)
	if err != nil {
		return nil, mapError("insert drink", err)
	}
	if recipe == nil {
		recipe = domain.Recipe{}
	}
	return (&domain.Drink{ID: id, Title: title, Recipe: recipe}).Clone(), nil
}

func (s *drinkStorage) Get(ctx context.Context, id int64) (*domain.Drink, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, recipe FROM drink WHERE id = $1`, id)
	d, err := scanDrink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select drink: %w", err)
	}
	return d, nil
}

func (s *drinkStorage) List(ctx context.Context) ([]*domain.Drink, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, recipe FROM drink ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select drinks: %w", err)
	}
	defer rows.Close()

	out := []*domain.Drink{}
	for rows.Next() {
		d, err := scanDrink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan drink: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drinks: %w", err)
	}
	return out, nil
}

func (s *drinkStorage) Update(ctx context.Context, drink *domain.Drink) error {
	blob, err := domain.EncodeRecipe(drink.Recipe)
	if err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE drink SET title = $1, recipe = $2 WHERE id = $3`, drink.Title, blob, drink.ID)
	if err != nil {
		return mapError("update drink", err)
	}
	return requireRow(res)
}

func (s *drinkStorage) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drink WHERE id = $1`, id)
	if err != nil {
		return mapError("delete drink", err)
	}
	return requireRow(res)
}

func (s *drinkStorage) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drink`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count drinks: %w", err)
	}
	return n, nil
}

func (s *drinkStorage) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE drink RESTART IDENTITY`); err != nil {
		return fmt.Errorf("truncate drink: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDrink(row rowScanner) (*domain.Drink, error) {
	var (
		d    domain.Drink
		blob string
	)
	if err := row.Scan(&d.ID, &d.Title, &blob); err != nil {
		return nil, err
	}
	recipe, err := domain.DecodeRecipe(blob)
	if err != nil {
		return nil, fmt.Errorf("decode recipe of drink %d: %w", d.ID, err)
	}
	d.Recipe = recipe
	return &d, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// mapError turns unique violations into ErrAlreadyExists. Other postgres
// errors, such as a recipe blob longer than the column, pass through wrapped.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%s: %w", op, persistence.ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", op, err)
}
