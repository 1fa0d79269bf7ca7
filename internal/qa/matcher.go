// internal/qa/matcher.go
package qa

import (
	"regexp"
	"strings"

	"github.com/Corphon/PoetryKGQA/internal/models"
)

// Pattern 意图与匹配规则；第1个捕获组为实体
type Pattern struct {
	Intent models.Intent
	Expr   *regexp.Regexp
}

// Match 分类结果
type Match struct {
	Intent models.Intent
	Entity string
}

// patterns 按优先级排列，第一个匹配的规则胜出，不会回退尝试后续规则。
// 作者规则排在内容/译文/赏析之前，避免 "…的作者" 被更宽泛的 "…的" 规则吸收。
// poems_by_author 的后缀后面不能紧跟 "的"，"X的诗的作者是谁" 应归入 author_by_poem。
var patterns = []Pattern{
	{models.IntentPoemsByAuthor, regexp.MustCompile(`(.+)的(?:诗|作品|诗歌|词|文章|著作)(?:[^的]|$)`)},
	{models.IntentAuthorByPoem, regexp.MustCompile(`(.*)的作者(?:是谁|是)?`)},
	{models.IntentDynastyByPoem, regexp.MustCompile(`(.*)是.*朝代(?:的|所作的)?`)},
	{models.IntentContentByPoem, regexp.MustCompile(`(.*)的内容`)},
	{models.IntentTranslationByPoem, regexp.MustCompile(`(.*)的翻译`)},
	{models.IntentAppreciationByPoem, regexp.MustCompile(`(.*)的赏析`)},
	{models.IntentPoemsByDynasty, regexp.MustCompile(`(.*)朝代的(?:诗|作品|诗歌|词)`)},
}

// Patterns 返回规则表的副本
func Patterns() []Pattern {
	out := make([]Pattern, len(patterns))
	copy(out, patterns)
	return out
}

// Intents 按优先级返回全部意图
func Intents() []models.Intent {
	out := make([]models.Intent, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, p.Intent)
	}
	return out
}

// ParseIntent 校验意图名称
func ParseIntent(name string) (models.Intent, bool) {
	for _, p := range patterns {
		if string(p.Intent) == name {
			return p.Intent, true
		}
	}
	return "", false
}

// Classify 依次尝试规则表，在问题任意位置查找匹配
func Classify(question string) (Match, bool) {
	for _, p := range patterns {
		m := p.Expr.FindStringSubmatch(question)
		if m == nil {
			continue
		}
		return Match{Intent: p.Intent, Entity: strings.TrimSpace(m[1])}, true
	}
	return Match{}, false
}
