// internal/errors/errors_test.go
package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorTypes(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")

	err := NewTimeoutError("AI服务请求超时", cause)
	assert.True(t, IsTimeoutError(err))
	assert.False(t, IsUnavailableError(err))
	assert.Equal(t, "TIMEOUT", err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "AI服务请求超时: dial tcp: i/o timeout", err.Error())

	unavailable := NewUnavailableError("AI服务未配置", nil)
	assert.True(t, IsUnavailableError(unavailable))
	assert.Equal(t, "AI服务未配置", unavailable.Error())
	assert.Equal(t, "SERVICE_UNAVAILABLE", unavailable.Code)
}

func TestTypeSurvivesWrapping(t *testing.T) {
	inner := NewValidationError("请输入查询内容", nil)
	wrapped := fmt.Errorf("handler: %w", inner)
	assert.True(t, IsValidationError(wrapped))
	assert.False(t, IsNotFoundError(wrapped))

	notFound := fmt.Errorf("lookup: %w", NewAppError(ErrorTypeNotFound, "诗词不存在", nil))
	assert.True(t, IsNotFoundError(notFound))
	assert.Equal(t, "NOT_FOUND", NewAppError(ErrorTypeNotFound, "诗词不存在", nil).Code)
	assert.False(t, IsValidationError(errors.New("boom")))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
	assert.Equal(t, "AI服务未配置", UserMessage(fmt.Errorf("ask: %w", NewUnavailableError("AI服务未配置", nil))))
}
