// internal/models/answer.go
package models

// Intent 问题意图分类
type Intent string

const (
	IntentPoemsByAuthor      Intent = "poems_by_author"
	IntentAuthorByPoem       Intent = "author_by_poem"
	IntentDynastyByPoem      Intent = "dynasty_by_poem"
	IntentContentByPoem      Intent = "content_by_poem"
	IntentTranslationByPoem  Intent = "translation_by_poem"
	IntentAppreciationByPoem Intent = "appreciation_by_poem"
	IntentPoemsByDynasty     Intent = "poems_by_dynasty"
)

// AnswerSource 答案来源
type AnswerSource string

const (
	SourceKG AnswerSource = "kg" // 知识图谱
	SourceAI AnswerSource = "ai" // AI兜底
)

// StatusFullPoemInfo 完整诗词信息聚合结果
const StatusFullPoemInfo = "full_poem_info"

// AnswerResult 单次问答的返回结果，所有入口共用同一结构
type AnswerResult struct {
	Result []string     `json:"result,omitempty"`
	Source AnswerSource `json:"source,omitempty"`
	Prompt string       `json:"prompt,omitempty"`
	Status string       `json:"status,omitempty"`
	Error  string       `json:"error,omitempty"`

	// Degraded 图谱查询失败后降级得到的答案，只对本次请求有效，不可缓存
	Degraded bool `json:"-"`
}

// NewKGAnswer 构造知识图谱答案
func NewKGAnswer(result ...string) *AnswerResult {
	return &AnswerResult{Result: result, Source: SourceKG}
}

// NewErrorAnswer 构造错误答案，只携带 error 字段
func NewErrorAnswer(message string) *AnswerResult {
	return &AnswerResult{Error: message}
}

// Cacheable 只有成功查询图谱得到的答案可以缓存
func (a *AnswerResult) Cacheable() bool {
	return a.Source == SourceKG && !a.IsError() && !a.Degraded
}

// IsError 是否为错误结果
func (a *AnswerResult) IsError() bool {
	return a.Error != ""
}
