// internal/services/query_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/Corphon/PoetryKGQA/internal/errors"
	"github.com/Corphon/PoetryKGQA/internal/kg"
	"github.com/Corphon/PoetryKGQA/internal/models"
	"github.com/Corphon/PoetryKGQA/internal/qa"
	"github.com/Corphon/PoetryKGQA/internal/storage"
	"github.com/Corphon/PoetryKGQA/internal/utils"
)

// EmptyQueryMessage 空查询提示
const EmptyQueryMessage = "请输入查询内容"

// QueryService 所有入口（HTTP / WebSocket / MCP / CLI）共用的问答服务
type QueryService struct {
	dispatcher *qa.Dispatcher
	graph      kg.Graph
	cache      *storage.AnswerCache
	llm        *LLMService
	logger     *utils.Logger
	metrics    *utils.MetricsCollector
}

// IntentInfo 意图与对应规则
type IntentInfo struct {
	Intent  models.Intent `json:"intent"`
	Pattern string        `json:"pattern"`
}

// ServiceStats 服务状态
type ServiceStats struct {
	Graph           kg.Stats `json:"graph"`
	FallbackEnabled bool     `json:"fallback_enabled"`
	FallbackReady   bool     `json:"fallback_ready"`
	FallbackState   string   `json:"fallback_state"`
	CachedAnswers   int      `json:"cached_answers"`

	WebSocketConnections int `json:"websocket_connections"`
}

// NewQueryService 创建问答服务；cache 与 llmService 可以为 nil
func NewQueryService(dispatcher *qa.Dispatcher, graph kg.Graph, cache *storage.AnswerCache, llmService *LLMService, logger *utils.Logger, metrics *utils.MetricsCollector) *QueryService {
	if logger == nil {
		logger = utils.GetLogger()
	}
	if metrics == nil {
		metrics = utils.GetMetricsCollector()
	}
	return &QueryService{
		dispatcher: dispatcher,
		graph:      graph,
		cache:      cache,
		llm:        llmService,
		logger:     logger,
		metrics:    metrics,
	}
}

// Query 回答一个问题；空白输入直接返回提示，不进入调度器
func (s *QueryService) Query(ctx context.Context, raw string) *models.AnswerResult {
	question := strings.TrimSpace(raw)
	if question == "" {
		return models.NewKGAnswer(EmptyQueryMessage)
	}

	if s.cache != nil {
		cached, ok := s.cache.Get(question)
		s.metrics.RecordCache(ok)
		if ok {
			return cached
		}
	}

	answer := s.dispatcher.Answer(ctx, question)

	// 图谱只读，成功查询得到的答案可以缓存；AI答案、错误与降级结果不缓存
	if answer.Cacheable() {
		s.cache.Add(question, answer)
	}
	return answer
}

// QueryIntent 跳过分类，按意图名称与实体直接查询
func (s *QueryService) QueryIntent(ctx context.Context, intentName, entity string) (*models.AnswerResult, error) {
	intent, ok := qa.ParseIntent(strings.TrimSpace(intentName))
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("未知的查询意图: %s", intentName), nil)
	}
	entity = strings.TrimSpace(entity)
	if entity == "" {
		return nil, apperrors.NewValidationError(EmptyQueryMessage, nil)
	}
	return s.dispatcher.AnswerIntent(ctx, intent, entity), nil
}

// Intents 按优先级列出意图规则
func (s *QueryService) Intents() []IntentInfo {
	patterns := qa.Patterns()
	out := make([]IntentInfo, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, IntentInfo{Intent: p.Intent, Pattern: p.Expr.String()})
	}
	return out
}

// SuggestTitles 根据输入推荐语料中的诗词标题
func (s *QueryService) SuggestTitles(ctx context.Context, query string, limit int) ([]qa.Suggestion, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewValidationError(EmptyQueryMessage, nil)
	}
	titles, err := s.graph.Titles(ctx)
	if err != nil {
		return nil, apperrors.NewProcessingError("读取诗词标题失败", err)
	}
	suggestions := qa.SuggestTitles(query, titles, limit)
	if suggestions == nil {
		suggestions = []qa.Suggestion{}
	}
	return suggestions, nil
}

// Stats 图谱规模与兜底状态
func (s *QueryService) Stats(ctx context.Context) (*ServiceStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	graphStats, err := s.graph.Stats(ctx)
	if err != nil {
		return nil, apperrors.NewProcessingError("读取图谱统计失败", err)
	}

	stats := &ServiceStats{
		Graph:           graphStats,
		FallbackEnabled: s.dispatcher.FallbackEnabled(),
		CachedAnswers:   s.cache.Len(),
	}
	if s.llm != nil {
		stats.FallbackReady, stats.FallbackState = s.llm.GetProviderStatus()
	}
	return stats, nil
}
