// internal/qa/dispatcher_test.go
package qa

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/PoetryKGQA/internal/errors"
	"github.com/Corphon/PoetryKGQA/internal/kg"
	"github.com/Corphon/PoetryKGQA/internal/models"
	"github.com/Corphon/PoetryKGQA/internal/utils"
)

// brokenGraph 所有查询都失败
type brokenGraph struct {
	*kg.MemoryStore
}

func (g brokenGraph) Query(ctx context.Context, q *kg.QuerySpec) ([]kg.BindingRow, error) {
	return nil, errors.New("connection reset")
}

type stubFallback struct {
	answer    string
	err       error
	questions []string
}

func (f *stubFallback) Ask(ctx context.Context, question string) (string, error) {
	f.questions = append(f.questions, question)
	return f.answer, f.err
}

func TestAnswerEveryIntentFromGraph(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	for _, question := range []string{
		"李白的诗",
		"静夜思的作者是谁",
		"春晓是哪个朝代的",
		"静夜思的内容",
		"将进酒的翻译",
		"水调歌头的赏析",
	} {
		answer := d.Answer(ctx, question)
		assert.NotEmpty(t, answer.Result, question)
		assert.Equal(t, models.SourceKG, answer.Source, question)
		assert.False(t, answer.IsError(), question)
	}

	answer := d.AnswerIntent(ctx, models.IntentPoemsByDynasty, "宋")
	assert.Equal(t, []string{"水调歌头"}, answer.Result)
	assert.Equal(t, "宋代的诗歌作品有", answer.Prompt)
}

func TestAnswerPoemsByAuthor(t *testing.T) {
	answer := newTestDispatcher(t).Answer(context.Background(), "李白的诗")

	want := &models.AnswerResult{
		Result: []string{"静夜思", "将进酒"},
		Source: models.SourceKG,
		Prompt: "李白的诗歌作品有",
	}
	if diff := cmp.Diff(want, answer); diff != "" {
		t.Errorf("answer mismatch (-want +got):\n%s", diff)
	}
}

func TestAnswerFullPoemInfo(t *testing.T) {
	d := newTestDispatcher(t)

	answer := d.Answer(context.Background(), "静夜思的内容")
	assert.Equal(t, []string{"标题: 静夜思", "作者: 李白", "内容: 床前明月光…"}, answer.Result)
	assert.Equal(t, models.StatusFullPoemInfo, answer.Status)

	answer = d.Answer(context.Background(), "将进酒的内容")
	assert.Equal(t, []string{
		"标题: 将进酒",
		"作者: 李白",
		"内容: 君不见黄河之水天上来…",
		"译文: 你难道没有看见吗…",
		"赏析: 全诗气势豪迈…",
	}, answer.Result)
}

func TestAnswerNotFoundWithoutFallback(t *testing.T) {
	answer := newTestDispatcher(t).Answer(context.Background(), "不存在的诗的作者是谁")
	assert.Equal(t, models.NewKGAnswer("未找到《不存在的诗》的作者信息"), answer)
}

func TestAnswerIsIdempotent(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	for _, q := range []string{"李白的诗", "春晓的内容", "不存在的诗的作者是谁", "今天天气如何"} {
		first := d.Answer(ctx, q)
		second := d.Answer(ctx, q)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("%s: answers differ (-first +second):\n%s", q, diff)
		}
	}
}

func TestNoMatchDoesNotCallFallback(t *testing.T) {
	fallback := &stubFallback{answer: "AI答案"}
	d := newTestDispatcher(t, WithFallback(fallback))

	answer := d.Answer(context.Background(), "今天天气如何")
	assert.Equal(t, NoMatchAnswer(), answer)
	assert.Empty(t, fallback.questions)
}

func TestFallbackOnlyOnEmptyRows(t *testing.T) {
	fallback := &stubFallback{answer: "《不存在的诗》并非已知作品。"}
	d := newTestDispatcher(t, WithFallback(fallback))
	ctx := context.Background()

	answer := d.Answer(ctx, "静夜思的作者是谁")
	assert.Equal(t, models.NewKGAnswer("静夜思的作者是李白"), answer)
	assert.Empty(t, fallback.questions)

	answer = d.Answer(ctx, "不存在的诗的作者是谁")
	assert.Equal(t, &models.AnswerResult{Result: []string{"《不存在的诗》并非已知作品。"}, Source: models.SourceAI}, answer)
	assert.Equal(t, []string{"不存在的诗的作者是谁"}, fallback.questions)
	assert.True(t, d.FallbackEnabled())
}

func TestFallbackErrorsBecomePayload(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unavailable", apperrors.NewUnavailableError("AI服务未配置", nil), "AI服务未配置"},
		{"timeout", apperrors.NewTimeoutError("AI服务请求超时", context.DeadlineExceeded), "AI服务请求超时: context deadline exceeded"},
		{"transport", errors.New("connection refused"), "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(t, WithFallback(&stubFallback{err: tt.err}))
			answer := d.Answer(context.Background(), "李清照的词")
			require.True(t, answer.IsError())
			assert.Equal(t, models.NewErrorAnswer(tt.want), answer)
		})
	}
}

func TestAnswerIntentSkipsFallback(t *testing.T) {
	fallback := &stubFallback{answer: "AI答案"}
	d := newTestDispatcher(t, WithFallback(fallback))

	answer := d.AnswerIntent(context.Background(), models.IntentPoemsByDynasty, "元")
	assert.Equal(t, []string{"未找到元代的诗歌作品"}, answer.Result)
	assert.Empty(t, fallback.questions)

	answer = d.AnswerIntent(context.Background(), "weather", "今天")
	assert.Equal(t, NoMatchAnswer(), answer)
}

func TestStoreFailureMarksAnswerDegraded(t *testing.T) {
	logger := utils.NewNopLogger()
	metrics := utils.NewMetricsCollector(prometheus.NewRegistry())
	executor := kg.NewExecutor(brokenGraph{newTestStore(t)}, logger, metrics)
	d := NewDispatcher(executor, WithLogger(logger), WithMetrics(metrics))
	ctx := context.Background()

	answer := d.Answer(ctx, "静夜思的作者是谁")
	assert.Equal(t, []string{"未找到《静夜思》的作者信息"}, answer.Result)
	assert.True(t, answer.Degraded)
	assert.False(t, answer.Cacheable())

	answer = d.AnswerIntent(ctx, models.IntentPoemsByDynasty, "唐")
	assert.True(t, answer.Degraded)

	healthy := newTestDispatcher(t).Answer(ctx, "不存在的诗的作者是谁")
	assert.False(t, healthy.Degraded)
	assert.True(t, healthy.Cacheable())
}
