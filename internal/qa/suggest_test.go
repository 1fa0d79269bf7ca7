// internal/qa/suggest_test.go
package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestTitles(t *testing.T) {
	titles := []string{"静夜思", "夜思", "春晓", "将进酒", "静夜思", "水调歌头·明月几时有"}

	got := SuggestTitles("静夜思", titles, 0)
	require.NotEmpty(t, got)
	assert.Equal(t, Suggestion{Title: "静夜思", Score: 1.0}, got[0])
	assert.Equal(t, "夜思", got[1].Title)
	for _, s := range got {
		assert.GreaterOrEqual(t, s.Score, SuggestThreshold)
		assert.NotEqual(t, "春晓", s.Title)
	}

	got = SuggestTitles("水调歌头", titles, 1)
	assert.Equal(t, []Suggestion{{Title: "水调歌头·明月几时有", Score: containScore}}, got)

	got = SuggestTitles("静夜诗", titles, 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "静夜思", got[0].Title)
}

func TestSuggestTitlesEdgeCases(t *testing.T) {
	assert.Nil(t, SuggestTitles("  ", []string{"静夜思"}, 3))
	assert.Nil(t, SuggestTitles("静夜思", nil, 3))
	assert.Empty(t, SuggestTitles("完全无关的长句子", []string{"春晓", ""}, 3))
}
