// Package openai 提供 OpenAI 兼容 API 的 core.AIService 实现。
//
// 任何兼容 OpenAI REST 协议的服务均可使用（OpenAI、Azure OpenAI、vLLM、Ollama 等）：
//   - EmbedText 走 /v1/embeddings（内容入库链路，不在 feed 热路径上）
//   - Explain 走 /v1/chat/completions（推荐理由生成，失败由上层回退模板文案）
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rushteam/learnfeed/core"
)

// Client 是 OpenAI 兼容服务的客户端。
type Client struct {
	// Endpoint 服务端点，例如 "https://api.openai.com"
	Endpoint string

	// APIKey API 密钥（Bearer 认证），为空则不带认证头
	APIKey string

	// EmbedModel 向量化模型，默认 "text-embedding-3-small"
	EmbedModel string

	// ChatModel 理由生成模型，默认 "gpt-4o-mini"
	ChatModel string

	// Timeout 单次请求超时，默认 30s
	Timeout time.Duration

	httpClient *http.Client
}

// NewClient 创建一个 OpenAI 兼容客户端。
func NewClient(endpoint, apiKey string, opts ...Option) *Client {
	c := &Client{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		APIKey:     apiKey,
		EmbedModel: "text-embedding-3-small",
		ChatModel:  "gpt-4o-mini",
		Timeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = &http.Client{Timeout: c.Timeout}
	return c
}

// Option 客户端配置选项
type Option func(*Client)

// WithEmbedModel 设置向量化模型
func WithEmbedModel(model string) Option {
	return func(c *Client) { c.EmbedModel = model }
}

// WithChatModel 设置理由生成模型
func WithChatModel(model string) Option {
	return func(c *Client) { c.ChatModel = model }
}

// WithTimeout 设置超时时间
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.Timeout = timeout }
}

func (c *Client) Name() string { return "openai" }

// EmbedText 将文本映射为向量。
func (c *Client) EmbedText(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
			"openai: text is required")
	}

	reqBody := map[string]interface{}{
		"model": c.EmbedModel,
		"input": text,
	}
	var resp struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := c.post(ctx, "/v1/embeddings", reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeUnavailable,
			"openai: empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}

// Explain 为一条推荐生成自然语言理由。
func (c *Client) Explain(ctx context.Context, req *core.ExplainRequest) (string, error) {
	if req == nil || req.Content == nil {
		return "", core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			"openai: explain request requires content")
	}

	reqBody := map[string]interface{}{
		"model": c.ChatModel,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildExplainPrompt(req)},
		},
		"max_tokens":  80,
		"temperature": 0.7,
	}
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.post(ctx, "/v1/chat/completions", reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable,
			"openai: empty completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

const systemPrompt = "You write one-sentence recommendation explanations for a learning platform. " +
	"Be specific about why this content matches the learner. Plain text, no quotes, under 25 words."

// buildExplainPrompt 把内容与打分上下文拼成提示词。
func buildExplainPrompt(req *core.ExplainRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Content: %q (type %s, difficulty %s)\n",
		req.Content.Title, req.Content.ContentType, req.Content.DifficultyLevel)
	if len(req.Content.Topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(req.Content.Topics, ", "))
	}
	if len(req.ActiveDomains) > 0 {
		fmt.Fprintf(&b, "Learner interests: %s\n", strings.Join(req.ActiveDomains, ", "))
	}
	fmt.Fprintf(&b, "Relevance score: %.2f\n", req.Score)
	if v, ok := req.Labels["rank_seen"]; ok && v == "true" {
		b.WriteString("The learner has seen this before.\n")
	}
	b.WriteString("Explain in one sentence why this is recommended.")
	return b.String()
}

// post 发送 JSON 请求并解析响应；非 2xx 状态映射为 UNAVAILABLE 领域错误。
func (c *Client) post(ctx context.Context, path string, reqBody, respBody interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable,
			fmt.Sprintf("openai: request %s failed: %v", path, err))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("openai: read response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeUnavailable,
			fmt.Sprintf("openai: %s returned status %d: %s", path, httpResp.StatusCode, truncate(string(body), 200)))
	}
	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("openai: decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ core.AIService = (*Client)(nil)
