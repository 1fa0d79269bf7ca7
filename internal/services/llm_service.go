// internal/services/llm_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Corphon/PoetryKGQA/internal/config"
	apperrors "github.com/Corphon/PoetryKGQA/internal/errors"
	"github.com/Corphon/PoetryKGQA/internal/llm"
)

// poetrySystemPrompt 兜底时的系统提示
const poetrySystemPrompt = "你是一位中国古典诗词专家。请用简洁的中文回答用户关于诗词、作者、朝代、内容、译文或赏析的问题；不确定时请直接说明。"

// LLMService AI兜底服务：知识图谱没有答案时把原始问题交给大模型
type LLMService struct {
	providerMutex sync.RWMutex
	provider      llm.Provider
	readyState    string
	timeout       time.Duration
}

// NewLLMService 按配置初始化提供者。端点或密钥缺失时返回未就绪的服务而不是错误
func NewLLMService(cfg config.AIConfig) *LLMService {
	service := createBaseLLMService(cfg.Timeout)

	if !cfg.Configured() {
		service.readyState = "AI服务未配置：请设置 DEEPSEEK_API_URL 和 DEEPSEEK_API_KEY"
		return service
	}

	provider, err := llm.GetProvider(cfg.Provider, cfg.ProviderConfig())
	if errors.Is(err, llm.ErrUnknownProvider) {
		service.readyState = fmt.Sprintf("AI服务初始化失败: 未知的提供者 %q，可用: %s", cfg.Provider, strings.Join(llm.ListProviders(), ", "))
		return service
	}
	if err != nil {
		service.readyState = fmt.Sprintf("AI服务初始化失败: %v", err)
		return service
	}

	service.provider = provider
	service.readyState = readyDescription(cfg.Provider)
	return service
}

// NewLLMServiceWithProvider 使用已初始化的提供者
func NewLLMServiceWithProvider(name string, provider llm.Provider, timeout time.Duration) *LLMService {
	service := createBaseLLMService(timeout)
	service.provider = provider
	service.readyState = readyDescription(name)
	return service
}

func readyDescription(providerName string) string {
	return "Ready: " + providerName
}

func createBaseLLMService(timeout time.Duration) *LLMService {
	if timeout <= 0 {
		timeout = config.DefaultAITimeout
	}
	return &LLMService{
		readyState: "Uninitialized",
		timeout:    timeout,
	}
}

// GetProviderStatus 返回服务是否就绪以及可读描述
func (s *LLMService) GetProviderStatus() (bool, string) {
	if s == nil {
		return false, "AI服务实例未初始化"
	}
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.provider != nil, s.readyState
}

// Ask 实现 qa.Fallback。未配置时立即返回错误，不发起网络请求；失败不重试
func (s *LLMService) Ask(ctx context.Context, question string) (string, error) {
	s.providerMutex.RLock()
	provider, state := s.provider, s.readyState
	s.providerMutex.RUnlock()

	if provider == nil {
		return "", apperrors.NewUnavailableError(state, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := provider.CompleteText(ctx, llm.CompletionRequest{
		SystemPrompt: poetrySystemPrompt,
		Prompt:       question,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", apperrors.NewTimeoutError("AI服务请求超时", err)
		}
		return "", apperrors.NewProcessingError("AI服务请求失败", err)
	}

	answer := strings.TrimSpace(resp.Text)
	if answer == "" {
		return "", apperrors.NewProcessingError("AI服务请求失败", llm.ErrEmptyResponse)
	}
	return answer, nil
}
