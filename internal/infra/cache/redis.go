package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/redis/go-redis/v9"
)

// カートとチェックアウトセッションの一時保存。TTL切れで消える。
type RedisStore struct {
	client     *redis.Client
	cartTTL    time.Duration
	sessionTTL time.Duration
	latchTTL   time.Duration
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:     client,
		cartTTL:    7 * 24 * time.Hour,
		sessionTTL: 30 * time.Minute,
		latchTTL:   10 * time.Minute,
	}
}

func cartKey(key string) string {
	return fmt.Sprintf("cart:%s", key)
}

func sessionKey(id string) string {
	return fmt.Sprintf("checkout:%s", id)
}

func latchKey(ref string) string {
	return fmt.Sprintf("settle:%s", ref)
}

func (r *RedisStore) GetCart(ctx context.Context, key string) (*model.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, usecase.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

func (r *RedisStore) SetCart(ctx context.Context, key string, cart *model.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	if err := r.client.Set(ctx, cartKey(key), data, r.cartTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteCart(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, cartKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisStore) GetSession(ctx context.Context, id string) (*model.CheckoutSession, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, usecase.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var s model.CheckoutSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) SetSession(ctx context.Context, s *model.CheckoutSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.sessionTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteSession(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// AcquireLatchは決済参照ごとのワンショットラッチ。
// SETNXで最初の1回だけtrueを返す。TTL切れ後はDB側の冪等チェックが守る。
func (r *RedisStore) AcquireLatch(ctx context.Context, paymentRef string) (bool, error) {
	ok, err := r.client.SetNX(ctx, latchKey(paymentRef), "1", r.latchTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

// ReleaseLatchはラッチを解放する。記録に失敗した到着が呼び、再訪をそのまま再試行にする。
func (r *RedisStore) ReleaseLatch(ctx context.Context, paymentRef string) error {
	if err := r.client.Del(ctx, latchKey(paymentRef)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
