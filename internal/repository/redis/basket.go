package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
	apperrors "github.com/SashaVektor/apple-store-clone/pkg/errors"
)

const basketKeyPrefix = "basket:"

var errVersionMismatch = errors.New("basket version mismatch")

// BasketRepository implements repository.BasketRepository on Redis. Each
// write refreshes the key's TTL, so idle baskets expire.
type BasketRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBasketRepository(client *redis.Client, ttl time.Duration) *BasketRepository {
	return &BasketRepository{
		client: client,
		ttl:    ttl,
	}
}

func basketKey(id string) string {
	return basketKeyPrefix + id
}

func (r *BasketRepository) Get(ctx context.Context, basketID string) (*domain.Basket, error) {
	data, err := r.client.Get(ctx, basketKey(basketID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("basket", basketID)
		}
		return nil, fmt.Errorf("redis get basket: %w", err)
	}

	var basket domain.Basket
	if err := json.Unmarshal(data, &basket); err != nil {
		return nil, fmt.Errorf("unmarshal basket: %w", err)
	}
	return &basket, nil
}

// SaveIfVersion runs a WATCH/MULTI transaction on the basket key. A write
// by another client between WATCH and EXEC also counts as a version clash.
func (r *BasketRepository) SaveIfVersion(ctx context.Context, basket *domain.Basket, expectedVersion int) (bool, error) {
	key := basketKey(basket.ID)

	txf := func(tx *redis.Tx) error {
		current := 0
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("redis get basket: %w", err)
		default:
			var stored struct {
				Version int `json:"version"`
			}
			if err := json.Unmarshal(data, &stored); err != nil {
				return fmt.Errorf("unmarshal stored basket: %w", err)
			}
			current = stored.Version
		}
		if current != expectedVersion {
			return errVersionMismatch
		}

		next := *basket
		next.Version = expectedVersion + 1
		payload, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("marshal basket: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, txf, key)
	switch {
	case err == nil:
		basket.Version = expectedVersion + 1
		return true, nil
	case errors.Is(err, errVersionMismatch), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("save basket %s: %w", basket.ID, err)
	}
}

func (r *BasketRepository) Delete(ctx context.Context, basketID string) error {
	if err := r.client.Del(ctx, basketKey(basketID)).Err(); err != nil {
		return fmt.Errorf("redis del basket: %w", err)
	}
	return nil
}
