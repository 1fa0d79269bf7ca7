// internal/kg/loader_test.go
package kg

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/PoetryKGQA/internal/models"
)

func TestLoadTurtleFile(t *testing.T) {
	store := NewMemoryStore()
	n, err := LoadFile(filepath.Join("testdata", "poems.ttl"), store)
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Poems)

	titles, err := store.Titles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"静夜思", "春晓", "望庐山瀑布"}, titles)

	rows, err := store.Query(context.Background(), contentQuery(t, "春晓"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "孟浩然", rows[0]["author"])
	assert.NotEmpty(t, rows[0]["translation"])
}

func TestLoadYAMLFile(t *testing.T) {
	store := NewMemoryStore()
	n, err := LoadFile(filepath.Join("testdata", "poems.yaml"), store)
	require.NoError(t, err)
	assert.Equal(t, 13, n)

	poems, err := store.Poems(context.Background())
	require.NoError(t, err)
	require.Len(t, poems, 2)
	assert.Equal(t, PoetryNS+"poem_jjj", poems[0].ID)
	assert.Equal(t, PoetryNS+"poem_2", poems[1].ID)
	assert.Equal(t, "苏轼", poems[1].Author)
	assert.Empty(t, poems[1].Translation)
}

func TestLoadErrors(t *testing.T) {
	store := NewMemoryStore()

	_, err := LoadFile(filepath.Join("testdata", "missing.ttl"), store)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join("testdata", "poems.yaml.bak"), store)
	assert.Error(t, err)

	_, err = LoadTurtle(strings.NewReader(`:p a :Poem ; :title "unterminated .`), store)
	assert.Error(t, err)

	n, err := LoadYAML(strings.NewReader(""), store)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestPoemSubject(t *testing.T) {
	assert.Equal(t, PoetryNS+"poem_3", PoemSubject(models.Poem{}, 2))
	assert.Equal(t, PoetryNS+"jys", PoemSubject(models.Poem{ID: " jys "}, 0))
	assert.Equal(t, "http://example.org/p/1", PoemSubject(models.Poem{ID: "http://example.org/p/1"}, 0))
	assert.Equal(t, "_:b0", PoemSubject(models.Poem{ID: "_:b0"}, 0))
}
