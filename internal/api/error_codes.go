// internal/api/error_codes.go
package api

// API错误代码常量
const (
	// 通用错误
	ErrorBadRequest         = "BAD_REQUEST"
	ErrorNotFound           = "NOT_FOUND"
	ErrorInternalError      = "INTERNAL_ERROR"
	ErrorTimeout            = "TIMEOUT"
	ErrorServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrorRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"

	// 问答相关错误
	ErrorEmptyQuery     = "EMPTY_QUERY"
	ErrorGraphStats     = "GRAPH_STATS_FAILED"
	ErrorSuggestFailed  = "SUGGEST_FAILED"
	ErrorInvalidMessage = "INVALID_MESSAGE"
)
