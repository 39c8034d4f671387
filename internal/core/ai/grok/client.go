package grok

import (
	"context"
	"fmt"
	"time"

	"menu-recommender/internal/infrastructure/config"
	"menu-recommender/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client 生成模型 API 客戶端（chat completions 介面）
type Client struct {
	config *config.GrokConfig
	client *resty.Client
}

// Message 對話消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request chat completions 請求體
// 取樣固定 temperature 0，非串流，讓相同輸入得到可重現的輸出
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature"`
}

// Response chat completions 回應體
type Response struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewClient 創建客戶端
func NewClient(cfg *config.GrokConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey))

	return &Client{
		config: cfg,
		client: client,
	}
}

// Complete 發送 (system, user) prompt 並回傳助手消息的原始文字
// 每次呼叫就是一次對外請求：不重試、不快取，由上層決定要不要重發
func (c *Client) Complete(ctx context.Context, userPrompt, systemPrompt string) (string, error) {
	req := Request{
		Model: c.config.Model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream:      false,
		Temperature: 0,
	}

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("")
	common.LogModelCall(time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("failed to send request to model API: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		common.LogError("模型 API 回傳錯誤狀態",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", c.config.Model),
		)
		return "", common.NewUpstreamError("grok", resp.StatusCode(), resp.String())
	}

	var result Response
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse model API response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", common.NewResponseShapeError("grok", "choices")
	}
	content := result.Choices[0].Message.Content
	if content == "" {
		return "", common.NewResponseShapeError("grok", "choices[0].message.content")
	}

	common.LogDebug("模型回應",
		zap.Int("content_length", len(content)),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)

	return content, nil
}

// Model 回傳目前使用的模型名稱
func (c *Client) Model() string {
	return c.config.Model
}
