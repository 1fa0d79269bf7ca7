// internal/llm/providers/deepseek/deepseek.go
package deepseek

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/Corphon/PoetryKGQA/internal/llm"
)

const (
	defaultModel = "deepseek-chat"

	chatCompletionsPath = "/chat/completions"
)

func init() {
	llm.Register("deepseek", func() llm.Provider {
		return &Provider{}
	})
}

// Provider DeepSeek 提供者，使用 OpenAI 兼容协议
type Provider struct {
	client       *openai.Client
	baseURL      string
	defaultModel string
}

// Initialize 端点与密钥都必须提供
func (p *Provider) Initialize(config map[string]string) error {
	apiKey := strings.TrimSpace(config["api_key"])
	if apiKey == "" {
		return errors.New("DeepSeek API密钥未提供")
	}
	baseURL := strings.TrimSpace(config["base_url"])
	if baseURL == "" {
		return errors.New("DeepSeek API地址未提供")
	}

	p.baseURL = normalizeBaseURL(baseURL)
	p.defaultModel = defaultModel
	if model := strings.TrimSpace(config["default_model"]); model != "" {
		p.defaultModel = model
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = p.baseURL
	p.client = openai.NewClientWithConfig(clientConfig)
	return nil
}

// normalizeBaseURL 允许直接配置完整的 chat/completions 地址
func normalizeBaseURL(raw string) string {
	u := strings.TrimRight(raw, "/")
	u = strings.TrimSuffix(u, chatCompletionsPath)
	return strings.TrimRight(u, "/")
}

func (p *Provider) GetName() string {
	return "DeepSeek"
}

// CompleteText 调用 chat completions 接口，不重试
func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.client == nil {
		return nil, errors.New("DeepSeek 提供者未初始化")
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("DeepSeek请求失败: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, llm.ErrEmptyResponse
	}

	return &llm.CompletionResponse{
		Text:         resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		TokensUsed:   resp.Usage.TotalTokens,
		ModelName:    resp.Model,
		ProviderName: p.GetName(),
	}, nil
}
