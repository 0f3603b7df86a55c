package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// SeatCacheInterface は空席数キャッシュの抽象
// サービス層はこのインターフェース越しにキャッシュへ触る
type SeatCacheInterface interface {
	GetAvailableCount(ctx context.Context, showID string) (int, error)
	SetAvailableCount(ctx context.Context, showID string, count int, ttl time.Duration) error
	Invalidate(ctx context.Context, showID string) error
}

// SeatCache は公演ごとの空席数キャッシュを管理する
// 座席状態の正本はあくまでPostgreSQLで、ここは参照系の負荷逃がし。
// 座席を遷移させた操作は必ず Invalidate を呼ぶ
type SeatCache struct {
	client *redis.Client
}

// NewSeatCache は新しいSeatCacheインスタンスを作成する
func NewSeatCache(client *redis.Client) *SeatCache {
	return &SeatCache{client: client}
}

// GetAvailableCount は公演の空席数をキャッシュから取得する
func (c *SeatCache) GetAvailableCount(ctx context.Context, showID string) (int, error) {
	key := c.availableCountKey(showID)
	val, err := c.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetAvailableCount は公演の空席数をキャッシュに保存する
func (c *SeatCache) SetAvailableCount(ctx context.Context, showID string, count int, ttl time.Duration) error {
	key := c.availableCountKey(showID)
	if err := c.client.Set(ctx, key, count, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は公演のキャッシュを無効化する
func (c *SeatCache) Invalidate(ctx context.Context, showID string) error {
	key := c.availableCountKey(showID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *SeatCache) availableCountKey(showID string) string {
	return fmt.Sprintf("seats:available:%s", showID)
}

var _ SeatCacheInterface = (*SeatCache)(nil)
