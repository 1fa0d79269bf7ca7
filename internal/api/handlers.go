// internal/api/handlers.go
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Corphon/PoetryKGQA/internal/errors"
	"github.com/Corphon/PoetryKGQA/internal/qa"
	"github.com/Corphon/PoetryKGQA/internal/services"
	"github.com/Corphon/PoetryKGQA/internal/utils"
)

// maxSuggestLimit 标题推荐数量上限
const maxSuggestLimit = 50

// Handler 处理API请求
type Handler struct {
	service  *services.QueryService // 问答服务
	logger   *utils.Logger
	metrics  *utils.MetricsCollector
	sockets  *WebSocketManager // WebSocket 连接管理
	response *ResponseHelper   // 响应助手
}

// NewHandler 创建API处理器
func NewHandler(service *services.QueryService, logger *utils.Logger, metrics *utils.MetricsCollector, sockets *WebSocketManager) *Handler {
	if logger == nil {
		logger = utils.GetLogger()
	}
	if metrics == nil {
		metrics = utils.GetMetricsCollector()
	}
	if sockets == nil {
		sockets = NewWebSocketManager()
	}
	return &Handler{
		service:  service,
		logger:   logger,
		metrics:  metrics,
		sockets:  sockets,
		response: NewResponseHelper(),
	}
}

// Query GET /query?query=… 与 /api/query?query=…，直接返回 AnswerResult
func (h *Handler) Query(c *gin.Context) {
	answer := h.service.Query(c.Request.Context(), c.Query("query"))
	c.JSON(http.StatusOK, answer)
}

// PostQuery POST /api/query，请求体 {"query": "…"}
func (h *Handler) PostQuery(c *gin.Context) {
	var req QueryMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		h.response.BadRequest(c, ErrorBadRequest, "请求体格式错误", err.Error())
		return
	}

	answer := h.service.Query(c.Request.Context(), req.Query)
	c.JSON(http.StatusOK, answer)
}

// ListIntents 按优先级返回意图规则表
func (h *Handler) ListIntents(c *gin.Context) {
	h.response.Success(c, h.service.Intents())
}

// QueryIntent GET /api/intents/:intent?entity=…，跳过分类直接查询图谱
func (h *Handler) QueryIntent(c *gin.Context) {
	answer, err := h.service.QueryIntent(c.Request.Context(), c.Param("intent"), c.Query("entity"))
	if err != nil {
		h.response.AppError(c, err, ErrorBadRequest)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// SuggestPoems GET /api/poems/suggest?q=…&limit=…
func (h *Handler) SuggestPoems(c *gin.Context) {
	limit := qa.DefaultSuggestLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.response.BadRequest(c, ErrorBadRequest, "limit 必须为正整数")
			return
		}
		limit = min(n, maxSuggestLimit)
	}

	suggestions, err := h.service.SuggestTitles(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		if apperrors.IsValidationError(err) {
			h.response.BadRequest(c, ErrorEmptyQuery, apperrors.UserMessage(err))
			return
		}
		h.response.AppError(c, err, ErrorSuggestFailed)
		return
	}
	h.response.Success(c, suggestions)
}

// GetStats 图谱规模与AI兜底状态
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("读取统计信息失败", map[string]interface{}{"error": err})
		h.response.AppError(c, err, ErrorGraphStats)
		return
	}
	stats.WebSocketConnections = h.sockets.Count()
	h.response.Success(c, stats)
}

// Health 存活检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
