package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
)

const keyPrefix = "farmly:cart:"

// CartRepository implements repository.CartRepository using Redis.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a new Redis-backed cart repository. Every save
// refreshes the slot's TTL.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

// Load retrieves the cart of a session from Redis.
func (r *CartRepository) Load(ctx context.Context, sessionID string) (domain.CartState, error) {
	data, err := r.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.CartState{}, apperrors.NotFound("cart", sessionID)
		}
		return domain.CartState{}, fmt.Errorf("redis get cart: %w", err)
	}

	state, err := decodeCart(data)
	if err != nil {
		return domain.CartState{}, fmt.Errorf("decode cart %s: %w", sessionID, err)
	}
	return state, nil
}

// Save persists the cart of a session with the configured TTL.
func (r *CartRepository) Save(ctx context.Context, sessionID string, state domain.CartState) error {
	if state.Lines == nil {
		state.Lines = []domain.CartLine{}
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, keyPrefix+sessionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// Delete removes the cart of a session.
func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *CartRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
