// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/PoetryKGQA/internal/api"
	"github.com/Corphon/PoetryKGQA/internal/config"
	"github.com/Corphon/PoetryKGQA/internal/kg"
	"github.com/Corphon/PoetryKGQA/internal/qa"
	"github.com/Corphon/PoetryKGQA/internal/services"
	"github.com/Corphon/PoetryKGQA/internal/storage"
	"github.com/Corphon/PoetryKGQA/internal/utils"

	_ "github.com/Corphon/PoetryKGQA/internal/llm/providers/deepseek"
)

const shutdownTimeout = 30 * time.Second

// server 便于测试替换 http.Server
type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App 问答服务的组件集合
type App struct {
	config  *config.Config
	logger  *utils.Logger
	metrics *utils.MetricsCollector

	graph   kg.Graph
	llm     *services.LLMService
	service *services.QueryService

	router   *api.Router
	server   server
	stopChan chan os.Signal
}

// InitLogging 按配置初始化全局日志；console=false 时不写标准输出
func InitLogging(cfg *config.Config, console bool) error {
	logFile := filepath.Join(cfg.LogDir, fmt.Sprintf("poetryqa_%s.log", time.Now().Format("2006-01-02")))
	if console {
		return utils.InitLogger(logFile, cfg.DebugMode)
	}
	return utils.InitFileLogger(logFile, cfg.DebugMode)
}

// OpenGraph 按配置打开知识图谱后端
func OpenGraph(cfg *config.Config, logger *utils.Logger) (kg.Graph, error) {
	switch cfg.Graph.Backend {
	case config.GraphBackendNeo4j:
		store, err := kg.NewNeo4jStore(cfg.Graph.Neo4jURI, cfg.Graph.Neo4jUser, cfg.Graph.Neo4jPassword, cfg.Graph.Neo4jDatabase)
		if err != nil {
			return nil, err
		}
		logger.Info("已连接 Neo4j 图谱", map[string]interface{}{"uri": cfg.Graph.Neo4jURI})
		return store, nil

	default:
		store := kg.NewMemoryStore()
		n, err := kg.LoadFile(cfg.CorpusFile, store)
		if err != nil {
			return nil, fmt.Errorf("加载诗词语料失败: %w", err)
		}
		logger.Info("诗词语料加载完成", map[string]interface{}{
			"file":  cfg.CorpusFile,
			"facts": n,
		})
		return store, nil
	}
}

// NewQueryService 组装调度器、缓存与AI兜底。AI_FALLBACK_ENABLED 关闭时不挂载兜底
func NewQueryService(cfg *config.Config, graph kg.Graph, llmService *services.LLMService, logger *utils.Logger, metrics *utils.MetricsCollector) *services.QueryService {
	opts := []qa.Option{qa.WithLogger(logger), qa.WithMetrics(metrics)}
	if cfg.AI.FallbackEnabled && llmService != nil {
		opts = append(opts, qa.WithFallback(llmService))
	}

	dispatcher := qa.NewDispatcher(kg.NewExecutor(graph, logger, metrics), opts...)
	cache := storage.NewAnswerCache(cfg.AnswerCacheSize, cfg.AnswerCacheTTL)
	return services.NewQueryService(dispatcher, graph, cache, llmService, logger, metrics)
}

// New 创建应用：打开图谱、初始化AI兜底、问答服务与HTTP路由
func New(cfg *config.Config) (*App, error) {
	logger := utils.GetLogger()
	metrics := utils.GetMetricsCollector()

	graph, err := OpenGraph(cfg, logger)
	if err != nil {
		return nil, err
	}

	llmService := services.NewLLMService(cfg.AI)
	if cfg.AI.FallbackEnabled {
		ready, state := llmService.GetProviderStatus()
		logger.Info("AI兜底已启用", map[string]interface{}{
			"provider": cfg.AI.Provider,
			"ready":    ready,
			"state":    state,
		})
	}

	a := &App{
		config:   cfg,
		logger:   logger,
		metrics:  metrics,
		graph:    graph,
		llm:      llmService,
		service:  NewQueryService(cfg, graph, llmService, logger, metrics),
		stopChan: make(chan os.Signal, 1),
	}
	return a, nil
}

// Service 问答服务
func (a *App) Service() *services.QueryService {
	return a.service
}

// Graph 图谱后端
func (a *App) Graph() kg.Graph {
	return a.graph
}

// Config 应用配置
func (a *App) Config() *config.Config {
	return a.config
}

// Handler 构建HTTP路由；重复调用返回同一实例
func (a *App) Handler() http.Handler {
	if a.router == nil {
		if !a.config.DebugMode {
			gin.SetMode(gin.ReleaseMode)
		}
		a.router = api.SetupRouter(a.service, api.RouterConfig{
			RateLimitPerMinute: a.config.RateLimitPerMinute,
			Logger:             a.logger,
			Metrics:            a.metrics,
		})
	}
	return a.router
}

// Run 启动HTTP服务，收到 SIGINT/SIGTERM 后优雅关闭
func (a *App) Run() error {
	if a.server == nil {
		a.server = &http.Server{
			Addr:              ":" + a.config.Port,
			Handler:           a.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.stopChan)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	a.logger.Infof("服务器启动在端口 %s", a.config.Port)

	select {
	case sig := <-a.stopChan:
		a.logger.Info("正在关闭服务器", map[string]interface{}{"signal": sig.String()})
	case err := <-errCh:
		a.Close()
		return fmt.Errorf("启动服务器失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown 不处理已升级的 WebSocket 连接，先由路由关闭
	if a.router != nil {
		a.router.Close()
	}
	err := a.server.Shutdown(ctx)
	a.Close()
	if err != nil {
		return fmt.Errorf("服务器强制关闭: %w", err)
	}
	a.logger.Info("服务器已关闭", nil)
	return nil
}

// Close 释放图谱连接等资源
func (a *App) Close() {
	if a.router != nil {
		a.router.Close()
	}
	if a.graph != nil {
		if err := a.graph.Close(); err != nil {
			a.logger.Warn("关闭图谱失败", map[string]interface{}{"error": err})
		}
	}
	_ = a.logger.Sync()
}
