// internal/services/query_service_test.go
package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/PoetryKGQA/internal/config"
	apperrors "github.com/Corphon/PoetryKGQA/internal/errors"
	"github.com/Corphon/PoetryKGQA/internal/kg"
	"github.com/Corphon/PoetryKGQA/internal/models"
	"github.com/Corphon/PoetryKGQA/internal/qa"
	"github.com/Corphon/PoetryKGQA/internal/storage"
	"github.com/Corphon/PoetryKGQA/internal/utils"
)

// flakyGraph 在 down 置位期间所有查询都返回连接错误
type flakyGraph struct {
	*kg.MemoryStore
	down atomic.Bool
}

func (g *flakyGraph) Query(ctx context.Context, q *kg.QuerySpec) ([]kg.BindingRow, error) {
	if g.down.Load() {
		return nil, errors.New("connection reset")
	}
	return g.MemoryStore.Query(ctx, q)
}

func TestQueryBlankInput(t *testing.T) {
	env := newTestEnv(t, &stubProvider{text: "AI答案"})

	for _, raw := range []string{"", "   ", "\t\n"} {
		answer := env.service.Query(context.Background(), raw)
		assert.Equal(t, models.NewKGAnswer(EmptyQueryMessage), answer)
	}
	assert.Zero(t, env.provider.calls.Load())
	assert.Zero(t, env.cache.Len())
}

func TestQueryCachesGraphAnswers(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first := env.service.Query(ctx, " 静夜思的作者是谁 ")
	assert.Equal(t, models.NewKGAnswer("静夜思的作者是李白"), first)
	assert.Equal(t, 1, env.cache.Len())

	second := env.service.Query(ctx, "静夜思的作者是谁")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, env.cache.Len())

	env.service.Query(ctx, "今天天气如何")
	assert.Equal(t, 2, env.cache.Len())
}

func TestQueryDoesNotCacheFallbackAnswers(t *testing.T) {
	env := newTestEnv(t, &stubProvider{text: "《登高》是杜甫的作品。"})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		answer := env.service.Query(ctx, "登高的作者是谁")
		assert.Equal(t, &models.AnswerResult{Result: []string{"《登高》是杜甫的作品。"}, Source: models.SourceAI}, answer)
	}
	assert.Equal(t, int32(2), env.provider.calls.Load())
	assert.Zero(t, env.cache.Len())
}

func TestQueryDoesNotCacheErrors(t *testing.T) {
	env := newTestEnv(t, &stubProvider{err: errBadGateway})

	answer := env.service.Query(context.Background(), "登高的作者是谁")
	require.True(t, answer.IsError())
	assert.Equal(t, "AI服务请求失败: status code: 502", answer.Error)
	assert.Empty(t, answer.Result)
	assert.Zero(t, env.cache.Len())
}

func TestQueryDoesNotCacheStoreFailures(t *testing.T) {
	env := newTestEnv(t, nil)
	graph := &flakyGraph{MemoryStore: env.store}
	logger := utils.NewNopLogger()
	metrics := utils.NewMetricsCollector(prometheus.NewRegistry())
	dispatcher := qa.NewDispatcher(kg.NewExecutor(graph, logger, metrics), qa.WithLogger(logger), qa.WithMetrics(metrics))
	cache := storage.NewAnswerCache(16, 0)
	service := NewQueryService(dispatcher, graph, cache, nil, logger, metrics)
	ctx := context.Background()

	graph.down.Store(true)
	answer := service.Query(ctx, "静夜思的作者是谁")
	assert.Equal(t, []string{"未找到《静夜思》的作者信息"}, answer.Result)
	assert.True(t, answer.Degraded)
	assert.Equal(t, 0, cache.Len())

	graph.down.Store(false)
	answer = service.Query(ctx, "静夜思的作者是谁")
	assert.Equal(t, models.NewKGAnswer("静夜思的作者是李白"), answer)
	assert.Equal(t, 1, cache.Len())
}

func TestQueryFallbackNotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)
	logger := utils.NewNopLogger()
	metrics := utils.NewMetricsCollector(prometheus.NewRegistry())

	unconfigured := NewLLMService(config.AIConfig{Provider: "deepseek"})
	dispatcher := qa.NewDispatcher(kg.NewExecutor(env.store, logger, metrics),
		qa.WithFallback(unconfigured), qa.WithLogger(logger), qa.WithMetrics(metrics))
	service := NewQueryService(dispatcher, env.store, env.cache, unconfigured, logger, metrics)

	answer := service.Query(context.Background(), "登高的作者是谁")
	require.True(t, answer.IsError())
	assert.Contains(t, answer.Error, "AI服务未配置")
	assert.Zero(t, env.cache.Len())

	// 未启用兜底时保持 "未找到" 答案
	answer = env.service.Query(context.Background(), "登高的作者是谁")
	assert.Equal(t, models.NewKGAnswer("未找到《登高》的作者信息"), answer)

	stats, err := service.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.FallbackEnabled)
	assert.False(t, stats.FallbackReady)
}

func TestQueryIntent(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	answer, err := env.service.QueryIntent(ctx, "poems_by_dynasty", "唐")
	require.NoError(t, err)
	assert.Equal(t, []string{"静夜思", "春晓"}, answer.Result)
	assert.Equal(t, "唐代的诗歌作品有", answer.Prompt)

	_, err = env.service.QueryIntent(ctx, "weather", "唐")
	assert.True(t, apperrors.IsValidationError(err))

	_, err = env.service.QueryIntent(ctx, "poems_by_dynasty", " ")
	assert.True(t, apperrors.IsValidationError(err))
}

func TestIntentsSuggestAndStats(t *testing.T) {
	env := newTestEnv(t, &stubProvider{text: "x"})
	ctx := context.Background()

	intents := env.service.Intents()
	require.Len(t, intents, 7)
	assert.Equal(t, models.IntentPoemsByAuthor, intents[0].Intent)
	assert.Equal(t, models.IntentPoemsByDynasty, intents[6].Intent)
	assert.Contains(t, intents[1].Pattern, "的作者")

	suggestions, err := env.service.SuggestTitles(ctx, "静夜", 3)
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "静夜思", suggestions[0].Title)

	suggestions, err = env.service.SuggestTitles(ctx, "完全无关的长句子", 3)
	require.NoError(t, err)
	assert.NotNil(t, suggestions)
	assert.Empty(t, suggestions)

	_, err = env.service.SuggestTitles(ctx, " ", 3)
	assert.True(t, apperrors.IsValidationError(err))

	stats, err := env.service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Graph.Poems)
	assert.Equal(t, 11, stats.Graph.Facts)
	assert.True(t, stats.FallbackEnabled)
	assert.True(t, stats.FallbackReady)
}
