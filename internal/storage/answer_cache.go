// internal/storage/answer_cache.go
package storage

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Corphon/PoetryKGQA/internal/models"
)

// AnswerCache 问答结果缓存（LRU + 过期时间），nil 表示禁用缓存
type AnswerCache struct {
	lru *expirable.LRU[string, models.AnswerResult]
}

// NewAnswerCache 创建缓存；size <= 0 时返回 nil，ttl <= 0 表示不过期
func NewAnswerCache(size int, ttl time.Duration) *AnswerCache {
	if size <= 0 {
		return nil
	}
	if ttl < 0 {
		ttl = 0
	}
	return &AnswerCache{
		lru: expirable.NewLRU[string, models.AnswerResult](size, nil, ttl),
	}
}

// Get 返回缓存答案的副本
func (c *AnswerCache) Get(key string) (*models.AnswerResult, bool) {
	if c == nil {
		return nil, false
	}
	answer, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return cloneAnswer(&answer), true
}

// Add 缓存答案副本
func (c *AnswerCache) Add(key string, answer *models.AnswerResult) {
	if c == nil || answer == nil {
		return
	}
	c.lru.Add(key, *cloneAnswer(answer))
}

// Len 当前缓存条目数
func (c *AnswerCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func cloneAnswer(a *models.AnswerResult) *models.AnswerResult {
	out := *a
	if a.Result != nil {
		out.Result = append([]string(nil), a.Result...)
	}
	return &out
}
