// internal/api/response_helpers.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Corphon/PoetryKGQA/internal/errors"
)

// APIResponse 标准API响应格式（辅助接口使用；问答接口直接返回 AnswerResult）
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResponseHelper 响应助手类
type ResponseHelper struct{}

// NewResponseHelper 创建响应助手
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

// Success 成功响应
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	if len(message) > 0 {
		response.Message = message[0]
	}

	c.JSON(http.StatusOK, response)
}

// sanitizeErrorMessage 去掉可能包含密钥的错误信息
func sanitizeErrorMessage(message string) string {
	lower := strings.ToLower(message)
	for _, pattern := range []string{"api_key", "apikey", "secret", "token", "password"} {
		if strings.Contains(lower, pattern) {
			return "服务内部错误"
		}
	}
	return message
}

// Error 错误响应
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string, details ...string) {
	apiError := &APIError{
		Code:    errorCode,
		Message: sanitizeErrorMessage(message),
	}

	if len(details) > 0 {
		apiError.Details = sanitizeErrorMessage(details[0])
	}

	response := &APIResponse{
		Success:   false,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	c.JSON(statusCode, response)
}

// BadRequest 400错误响应
func (rh *ResponseHelper) BadRequest(c *gin.Context, code, message string, details ...string) {
	rh.Error(c, http.StatusBadRequest, code, message, details...)
}

// NotFound 404错误响应
func (rh *ResponseHelper) NotFound(c *gin.Context, message string) {
	rh.Error(c, http.StatusNotFound, ErrorNotFound, message)
}

// InternalError 500错误响应
func (rh *ResponseHelper) InternalError(c *gin.Context, code, message string, details ...string) {
	rh.Error(c, http.StatusInternalServerError, code, message, details...)
}

// TooManyRequests 429错误响应
func (rh *ResponseHelper) TooManyRequests(c *gin.Context) {
	rh.Error(c, http.StatusTooManyRequests, ErrorRateLimitExceeded, "请求过于频繁，请稍后再试")
}

// AppError 按错误类型选择状态码
func (rh *ResponseHelper) AppError(c *gin.Context, err error, fallbackCode string) {
	switch {
	case apperrors.IsValidationError(err):
		rh.BadRequest(c, fallbackCode, apperrors.UserMessage(err))
	case apperrors.IsNotFoundError(err):
		rh.NotFound(c, apperrors.UserMessage(err))
	case apperrors.IsTimeoutError(err):
		rh.Error(c, http.StatusGatewayTimeout, ErrorTimeout, apperrors.UserMessage(err))
	case apperrors.IsUnavailableError(err):
		rh.Error(c, http.StatusServiceUnavailable, ErrorServiceUnavailable, apperrors.UserMessage(err))
	default:
		rh.InternalError(c, fallbackCode, apperrors.UserMessage(err))
	}
}

// getRequestID 获取请求ID
func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
