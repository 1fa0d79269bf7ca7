// internal/api/router.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Corphon/PoetryKGQA/internal/services"
	"github.com/Corphon/PoetryKGQA/internal/utils"
)

// RouterConfig 路由配置
type RouterConfig struct {
	RateLimitPerMinute int // <= 0 表示不限流
	Logger             *utils.Logger
	Metrics            *utils.MetricsCollector
	Gatherer           prometheus.Gatherer // 为 nil 时使用默认注册表
}

// Router HTTP 路由及其持有的后台资源
type Router struct {
	engine  *gin.Engine
	handler *Handler
	limiter *RateLimiter
	sockets *WebSocketManager
}

// SetupRouter 配置HTTP路由
func SetupRouter(service *services.QueryService, cfg RouterConfig) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = utils.GetLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = utils.GetMetricsCollector()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	sockets := NewWebSocketManager()
	handler := NewHandler(service, logger, metrics, sockets)

	var limiter *RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	}
	rateLimit := RateLimitByIP(limiter, metrics, handler.response)

	r := gin.New()
	r.Use(requestIDMiddleware())
	r.Use(accessLogMiddleware(logger, metrics))
	r.Use(recoveryMiddleware(logger, handler.response))
	r.Use(corsMiddleware())

	r.NoRoute(func(c *gin.Context) {
		handler.response.NotFound(c, "接口不存在")
	})

	// 兼容旧客户端的查询入口
	r.GET("/query", rateLimit, handler.Query)

	r.GET("/health", handler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// WebSocket 问答
	r.GET("/ws/query", handler.QueryWebSocket)

	// ===============================
	// API路由组
	// ===============================
	api := r.Group("/api")
	{
		api.GET("/query", rateLimit, handler.Query)
		api.POST("/query", rateLimit, handler.PostQuery)

		intents := api.Group("/intents")
		{
			intents.GET("", handler.ListIntents)
			intents.GET("/:intent", rateLimit, handler.QueryIntent)
		}

		api.GET("/poems/suggest", rateLimit, handler.SuggestPoems)
		api.GET("/stats", handler.GetStats)
		api.GET("/ws/status", handler.GetWebSocketStatus)
	}

	return &Router{
		engine:  r,
		handler: handler,
		limiter: limiter,
		sockets: sockets,
	}
}

// ServeHTTP 实现 http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}

// Close 关闭所有 WebSocket 连接并停止限流清理
func (r *Router) Close() {
	r.sockets.CloseAll()
	if r.limiter != nil {
		r.limiter.Close()
	}
}
