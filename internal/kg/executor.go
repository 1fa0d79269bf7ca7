// internal/kg/executor.go
package kg

import (
	"context"
	"fmt"
	"time"

	"github.com/Corphon/PoetryKGQA/internal/utils"
)

// Executor 包装图谱后端：查询失败时记录日志并返回空结果，不向调用方传播错误
type Executor struct {
	graph   Graph
	logger  *utils.Logger
	metrics *utils.MetricsCollector
}

// NewExecutor 创建执行器
func NewExecutor(graph Graph, logger *utils.Logger, metrics *utils.MetricsCollector) *Executor {
	if logger == nil {
		logger = utils.GetLogger()
	}
	if metrics == nil {
		metrics = utils.GetMetricsCollector()
	}
	return &Executor{graph: graph, logger: logger, metrics: metrics}
}

// Execute 执行查询；任何错误都降级为零行，ok 为 false 表示本次结果来自降级
func (e *Executor) Execute(ctx context.Context, q *QuerySpec) (rows []BindingRow, ok bool) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.fail(q, fmt.Errorf("panic during query: %v", r))
			rows, ok = nil, false
		}
	}()

	if e.graph == nil {
		e.fail(q, fmt.Errorf("graph store is not initialized"))
		return nil, false
	}

	result, err := e.graph.Query(ctx, q)
	if err != nil {
		e.fail(q, err)
		return nil, false
	}

	e.logger.Debug("图谱查询完成", map[string]interface{}{
		"backend": e.graph.Name(),
		"query":   q.String(),
		"rows":    len(result),
		"elapsed": time.Since(start).String(),
	})
	return result, true
}

func (e *Executor) fail(q *QuerySpec, err error) {
	backend := "none"
	if e.graph != nil {
		backend = e.graph.Name()
	}
	e.logger.Error("图谱查询失败", map[string]interface{}{
		"backend": backend,
		"query":   q.String(),
		"error":   err,
	})
	e.metrics.RecordStoreFailure(backend)
}
