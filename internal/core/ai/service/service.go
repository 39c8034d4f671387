package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"menu-recommender/internal/core/ai/cache"
	"menu-recommender/internal/core/ai/grok"
	"menu-recommender/internal/infrastructure/config"
)

// Response 模型回應
type Response struct {
	Content  string
	CacheHit bool
}

// Completer 模型客戶端介面，測試時以假實作替換
type Completer interface {
	Complete(ctx context.Context, userPrompt, systemPrompt string) (string, error)
}

// Service 模型完成服務：在客戶端之上疊快取與最短間隔保護
type Service struct {
	config      *config.Config
	client      Completer
	store       cache.Store
	mu          sync.Mutex
	lastRequest time.Time
}

// NewService 創建模型完成服務
func NewService(cfg *config.Config, store cache.Store) *Service {
	return &Service{
		config: cfg,
		client: grok.NewClient(&cfg.Grok),
		store:  store,
	}
}

// NewServiceWithClient 以自訂客戶端創建服務（測試用）
func NewServiceWithClient(cfg *config.Config, client Completer, store cache.Store) *Service {
	return &Service{
		config: cfg,
		client: client,
		store:  store,
	}
}

// Complete 回傳模型對 (user, system) prompt 的原始文字回應
// 快取只在啟用時介入；未命中時恰好發出一次對外請求
func (s *Service) Complete(ctx context.Context, userPrompt, systemPrompt string) (*Response, error) {
	if err := s.checkRequestRate(); err != nil {
		return nil, err
	}

	if s.config.Cache.Enabled && s.store != nil {
		if val, err := s.store.Get(ctx, userPrompt, systemPrompt); err == nil && val != "" {
			return &Response{Content: val, CacheHit: true}, nil
		}
	}

	content, err := s.client.Complete(ctx, userPrompt, systemPrompt)
	if err != nil {
		return nil, err
	}

	if s.config.Cache.Enabled && s.store != nil {
		_ = s.store.Set(ctx, userPrompt, systemPrompt, content)
	}

	return &Response{Content: content}, nil
}

// checkRequestRate 檢查請求頻率
func (s *Service) checkRequestRate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.config.Grok.MinInterval > 0 && now.Sub(s.lastRequest) < s.config.Grok.MinInterval {
		return errors.New("model request rate limit exceeded")
	}

	s.lastRequest = now
	return nil
}
