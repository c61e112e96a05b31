package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/models"

	"github.com/redis/go-redis/v9"
)

// CartRepository stores persisted user carts in Redis as JSON blobs, one key
// per user. Guest carts never touch this store.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *CartRepository) getKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

func (r *CartRepository) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	key := r.getKey(userID)
	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// No cart found
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *CartRepository) SaveCart(ctx context.Context, cart *models.Cart) error {
	key := r.getKey(cart.Owner)
	cart.UpdatedAt = time.Now()

	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, key, data, r.ttl).Err()
}

func (r *CartRepository) DeleteCart(ctx context.Context, userID string) error {
	key := r.getKey(userID)
	return r.client.Del(ctx, key).Err()
}

// Merge fence helpers. The guest-to-user merge runs once per session; the
// fence key absorbs duplicated triggers.
func (r *CartRepository) getMergeKey(userID string) string {
	return "cartmerge:user:" + userID
}

// TryAcquireMergeFence returns true when this caller set the fence, false
// when a previous merge already holds it.
func (r *CartRepository) TryAcquireMergeFence(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.getMergeKey(userID), "1", ttl).Result()
}

// ReleaseMergeFence removes the fence, re-arming the merge for a new session.
func (r *CartRepository) ReleaseMergeFence(ctx context.Context, userID string) error {
	return r.client.Del(ctx, r.getMergeKey(userID)).Err()
}
