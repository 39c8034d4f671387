package cache

import (
	"context"
	"fmt"

	"menu-recommender/internal/infrastructure/config"
	"menu-recommender/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// Service redis 後端的模型回應快取，與 Manager 共用 Store 介面
type Service struct {
	client *redis.Client
	config *config.CacheConfig
}

var (
	_ Store = (*Manager)(nil)
	_ Store = (*Service)(nil)
)

// New 依設定選擇快取後端，未啟用時回傳 (nil, nil)
func New(cfg *config.CacheConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Backend == "redis" {
		return NewService(cfg)
	}
	if m := NewManager(cfg); m != nil {
		return m, nil
	}
	return nil, nil
}

// NewService 創建 redis 緩存服務
func NewService(cfg *config.CacheConfig) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Service{
		client: client,
		config: cfg,
	}, nil
}

// Get 獲取緩存
func (s *Service) Get(ctx context.Context, userPrompt, systemPrompt string) (string, error) {
	key := generateKey(userPrompt, systemPrompt)

	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			common.LogCacheMiss("redis")
			return "", common.ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}

	common.LogCacheHit("redis")
	return val, nil
}

// Set 設置緩存
func (s *Service) Set(ctx context.Context, userPrompt, systemPrompt, value string) error {
	key := generateKey(userPrompt, systemPrompt)

	if err := s.client.Set(ctx, key, value, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// Close 關閉 redis 連接
func (s *Service) Close() error {
	return s.client.Close()
}
