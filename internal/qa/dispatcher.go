// internal/qa/dispatcher.go
package qa

import (
	"context"
	"time"

	apperrors "github.com/Corphon/PoetryKGQA/internal/errors"
	"github.com/Corphon/PoetryKGQA/internal/kg"
	"github.com/Corphon/PoetryKGQA/internal/models"
	"github.com/Corphon/PoetryKGQA/internal/utils"
)

// Fallback AI兜底：输入原始问题，返回答案文本
type Fallback interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Dispatcher 串联 分类 → 构建查询 → 执行 → 格式化，图谱无结果时可转交AI兜底
type Dispatcher struct {
	executor *kg.Executor
	fallback Fallback
	logger   *utils.Logger
	metrics  *utils.MetricsCollector
}

// Option Dispatcher 选项
type Option func(*Dispatcher)

// WithFallback 启用AI兜底；未设置时图谱无结果直接返回 "未找到" 答案
func WithFallback(f Fallback) Option {
	return func(d *Dispatcher) { d.fallback = f }
}

// WithLogger 设置日志
func WithLogger(l *utils.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithMetrics 设置指标收集器
func WithMetrics(m *utils.MetricsCollector) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher 创建调度器
func NewDispatcher(executor *kg.Executor, opts ...Option) *Dispatcher {
	d := &Dispatcher{executor: executor}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = utils.GetLogger()
	}
	if d.metrics == nil {
		d.metrics = utils.GetMetricsCollector()
	}
	return d
}

// FallbackEnabled 是否启用了AI兜底
func (d *Dispatcher) FallbackEnabled() bool {
	return d.fallback != nil
}

// Answer 回答一个问题。无法分类时返回固定致歉，不调用AI兜底
func (d *Dispatcher) Answer(ctx context.Context, question string) *models.AnswerResult {
	start := time.Now()

	match, ok := Classify(question)
	if !ok {
		d.logger.Info("问题无法分类", map[string]interface{}{"question": question})
		answer := NoMatchAnswer()
		d.metrics.RecordQuery("", string(answer.Source), time.Since(start))
		return answer
	}

	answer, rows, degraded := d.run(ctx, match)
	answer.Degraded = degraded
	if rows == 0 && d.fallback != nil {
		answer = d.askFallback(ctx, question)
	}

	d.logger.Info("问答完成", map[string]interface{}{
		"question": question,
		"intent":   string(match.Intent),
		"entity":   match.Entity,
		"rows":     rows,
		"degraded": degraded,
		"source":   string(answer.Source),
		"elapsed":  time.Since(start).String(),
	})
	d.metrics.RecordQuery(string(match.Intent), string(answer.Source), time.Since(start))
	return answer
}

// AnswerIntent 跳过分类，直接按意图与实体查询图谱；不调用AI兜底
func (d *Dispatcher) AnswerIntent(ctx context.Context, intent models.Intent, entity string) *models.AnswerResult {
	start := time.Now()
	answer, _, degraded := d.run(ctx, Match{Intent: intent, Entity: entity})
	answer.Degraded = degraded
	d.metrics.RecordQuery(string(intent), string(answer.Source), time.Since(start))
	return answer
}

// run 构建并执行查询，返回格式化答案、结果行数，以及结果是否因图谱故障而降级
func (d *Dispatcher) run(ctx context.Context, match Match) (*models.AnswerResult, int, bool) {
	q, err := BuildQuery(match.Intent, match.Entity)
	if err != nil {
		d.logger.Error("构建查询失败", map[string]interface{}{
			"intent": string(match.Intent),
			"error":  err,
		})
		return FormatResult(match.Intent, match.Entity, nil), 0, false
	}

	rows, ok := d.executor.Execute(ctx, q)
	return FormatResult(match.Intent, match.Entity, rows), len(rows), !ok
}

func (d *Dispatcher) askFallback(ctx context.Context, question string) *models.AnswerResult {
	text, err := d.fallback.Ask(ctx, question)
	if err != nil {
		d.logger.Warn("AI兜底失败", map[string]interface{}{
			"question": question,
			"error":    err,
		})
		d.metrics.RecordFallback(fallbackOutcome(err))
		return models.NewErrorAnswer(apperrors.UserMessage(err))
	}

	d.metrics.RecordFallback("success")
	return &models.AnswerResult{Result: []string{text}, Source: models.SourceAI}
}

func fallbackOutcome(err error) string {
	switch {
	case apperrors.IsUnavailableError(err):
		return "unavailable"
	case apperrors.IsTimeoutError(err):
		return "timeout"
	default:
		return "error"
	}
}
