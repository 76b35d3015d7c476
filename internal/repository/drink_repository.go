package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/osvaldoandrade/coffeeshop/pkg/domain"

	"github.com/go-redis/redis/v8"
)

var (
	ErrDrinkNotFound = errors.New("drink not found")
	ErrTitleTaken    = errors.New("drink title taken")
)

type DrinkRepository interface {
	Create(ctx context.Context, title string, recipe domain.Recipe) (*domain.Drink, error)
	Get(ctx context.Context, id int64) (*domain.Drink, error)
	List(ctx context.Context) ([]*domain.Drink, error)
	Update(ctx context.Context, d *domain.Drink) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}

type drinkRedisRepo struct {
	rdb    *redis.Client
	prefix string
}

// NewDrinkRepository stores drinks under keys starting with prefix
// ("coffeeshop" when empty).
func NewDrinkRepository(rdb *redis.Client, prefix string) DrinkRepository {
	if prefix == "" {
		prefix = "coffeeshop"
	}
	return &drinkRedisRepo{rdb: rdb, prefix: prefix}
}

func (r *drinkRedisRepo) keyDrinksHash() string { return r.prefix + ":drinks" }
func (r *drinkRedisRepo) keyTitleIndex() string { return r.prefix + ":drinks:titles" }
func (r *drinkRedisRepo) keyIDIndex() string    { return r.prefix + ":drinks:ids" }
func (r *drinkRedisRepo) keySequence() string   { return r.prefix + ":drinks:seq" }

func (r *drinkRedisRepo) keys() []string {
	return []string{r.keyDrinksHash(), r.keyTitleIndex(), r.keyIDIndex()}
}

// KEYS: drinks, titles, ids. ARGV: id, title, drink.
// Returns 1 on success, 0 when the title is taken.
var createDrinkScript = redis.NewScript(`
if redis.call("HSETNX", KEYS[2], ARGV[2], ARGV[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[3], ARGV[1], ARGV[2])
redis.call("HSET", KEYS[1], ARGV[1], ARGV[3])
return 1
`)

// KEYS: drinks, titles, ids. ARGV: id, title, drink.
// Returns 1 on success, 0 when the title belongs to another drink, -1 when
// the drink does not exist.
var updateDrinkScript = redis.NewScript(`
local old = redis.call("HGET", KEYS[3], ARGV[1])
if not old then
  return -1
end
local owner = redis.call("HGET", KEYS[2], ARGV[2])
if owner and owner ~= ARGV[1] then
  return 0
end
redis.call("HDEL", KEYS[2], old)
redis.call("HSET", KEYS[2], ARGV[2], ARGV[1])
redis.call("HSET", KEYS[3], ARGV[1], ARGV[2])
redis.call("HSET", KEYS[1], ARGV[1], ARGV[3])
return 1
`)

// KEYS: drinks, titles, ids. ARGV: id.
var deleteDrinkScript = redis.NewScript(`
local old = redis.call("HGET", KEYS[3], ARGV[1])
if not old then
  return 0
end
redis.call("HDEL", KEYS[2], old)
redis.call("HDEL", KEYS[3], ARGV[1])
redis.call("HDEL", KEYS[1], ARGV[1])
return 1
`)

func (r *drinkRedisRepo) Create(ctx context.Context, title string, recipe domain.Recipe) (*domain.Drink, error) {
	id, err := r.rdb.Incr(ctx, r.keySequence()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis INCR drink seq: %w", err)
	}
	if recipe == nil {
		recipe = domain.Recipe{}
	}
	d := &domain.Drink{ID: id, Title: title, Recipe: recipe}
	res, err := createDrinkScript.Run(ctx, r.rdb, r.keys(), strconv.FormatInt(id, 10), title, d).Int64()
	if err != nil {
		return nil, fmt.Errorf("redis create drink: %w", err)
	}
	if res == 0 {
		return nil, ErrTitleTaken
	}
	return d.Clone(), nil
}

func (r *drinkRedisRepo) Get(ctx context.Context, id int64) (*domain.Drink, error) {
	var d domain.Drink
	err := r.rdb.HGet(ctx, r.keyDrinksHash(), strconv.FormatInt(id, 10)).Scan(&d)
	if err == redis.Nil {
		return nil, ErrDrinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis HGET drink: %w", err)
	}
	normalize(&d)
	return &d, nil
}

func (r *drinkRedisRepo) List(ctx context.Context) ([]*domain.Drink, error) {
	all, err := r.rdb.HGetAll(ctx, r.keyDrinksHash()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL drinks: %w", err)
	}
	out := make([]*domain.Drink, 0, len(all))
	for field, js := range all {
		var d domain.Drink
		if err := d.UnmarshalBinary([]byte(js)); err != nil {
			return nil, fmt.Errorf("unmarshal drink %s: %w", field, err)
		}
		normalize(&d)
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *drinkRedisRepo) Update(ctx context.Context, d *domain.Drink) error {
	stored := d.Clone()
	normalize(stored)
	res, err := updateDrinkScript.Run(ctx, r.rdb, r.keys(), strconv.FormatInt(d.ID, 10), d.Title, stored).Int64()
	if err != nil {
		return fmt.Errorf("redis update drink: %w", err)
	}
	switch res {
	case -1:
		return ErrDrinkNotFound
	case 0:
		return ErrTitleTaken
	}
	return nil
}

func (r *drinkRedisRepo) Delete(ctx context.Context, id int64) error {
	res, err := deleteDrinkScript.Run(ctx, r.rdb, r.keys(), strconv.FormatInt(id, 10)).Int64()
	if err != nil {
		return fmt.Errorf("redis delete drink: %w", err)
	}
	if res == 0 {
		return ErrDrinkNotFound
	}
	return nil
}

func (r *drinkRedisRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.rdb.HLen(ctx, r.keyDrinksHash()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis HLEN drinks: %w", err)
	}
	return n, nil
}

func (r *drinkRedisRepo) Reset(ctx context.Context) error {
	keys := append(r.keys(), r.keySequence())
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis DEL drinks: %w", err)
	}
	return nil
}

func normalize(d *domain.Drink) {
	if d.Recipe == nil {
		d.Recipe = domain.Recipe{}
	}
}
