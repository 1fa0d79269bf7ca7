// internal/qa/suggest.go
package qa

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

const (
	// SuggestThreshold 低于该相似度的标题不返回
	SuggestThreshold = 0.3
	// DefaultSuggestLimit 默认返回条数
	DefaultSuggestLimit = 5

	containScore = 0.8
)

// Suggestion 标题建议
type Suggestion struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// SuggestTitles 按包含关系与编辑距离对标题排序，分数相同时保持原顺序
func SuggestTitles(query string, titles []string, limit int) []Suggestion {
	query = strings.TrimSpace(query)
	if query == "" || len(titles) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	seen := make(map[string]bool, len(titles))
	var out []Suggestion
	for _, title := range titles {
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true

		if score := titleScore(query, title); score >= SuggestThreshold {
			out = append(out, Suggestion{Title: title, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func titleScore(query, title string) float64 {
	if query == title {
		return 1.0
	}

	maxLen := utf8.RuneCountInString(query)
	if n := utf8.RuneCountInString(title); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 0
	}

	score := 1.0 - float64(levenshtein.Distance(query, title, nil))/float64(maxLen)
	if score < 0 {
		score = 0
	}
	if strings.Contains(title, query) || strings.Contains(query, title) {
		if score < containScore {
			score = containScore
		}
	}
	return score
}
