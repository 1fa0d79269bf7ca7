// cmd/demo/main_test.go
package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 6, displayWidth("静夜思"))
	assert.Equal(t, 7, displayWidth("1) 提问"))
	assert.Equal(t, 4, displayWidth("，。"))
	assert.Equal(t, 0, displayWidth(""))
}

func TestPadRightUsesDisplayWidth(t *testing.T) {
	assert.Equal(t, "静夜思    ", padRight("静夜思", 10))
	assert.Equal(t, "abc       ", padRight("abc", 10))
	assert.Equal(t, displayWidth(padRight("作者: 李白", 20)), displayWidth(padRight("status ok", 20)))
	assert.Equal(t, "静夜思", padRight("静夜思", 4))
}

func TestWrapContentForBox(t *testing.T) {
	lines := wrapContentForBox("床前明月光，疑是地上霜。\nok", 10)
	assert.Equal(t, []string{"床前明月光", "，疑是地上", "霜。", "ok"}, lines)
	for _, line := range lines {
		assert.LessOrEqual(t, displayWidth(line), 10)
	}

	// 奇数宽度时宽字符整体换行
	assert.Equal(t, []string{"a床", "前"}, wrapContentForBox("a床前", 4))
}
