// internal/app/app_test.go
package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/Corphon/PoetryKGQA/internal/config"
	"github.com/Corphon/PoetryKGQA/internal/models"
)

const testCorpus = `@prefix : <http://www.semanticweb.org/ontologies/poetry#> .
@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .

:poem_1 a :Poem ;
    :title "静夜思" ;
    :author "李白" ;
    :dynasty "唐" ;
    :content "床前明月光，疑是地上霜。" .
`

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	corpus := filepath.Join(dir, "poems.ttl")
	require.NoError(t, os.WriteFile(corpus, []byte(testCorpus), 0o644))

	return &config.Config{
		Port:            "0",
		DataDir:         dir,
		CorpusFile:      corpus,
		LogDir:          filepath.Join(dir, "logs"),
		DebugMode:       true,
		AnswerCacheSize: 8,
		AI: config.AIConfig{
			Provider: "deepseek",
			Timeout:  time.Second,
		},
		Graph: config.GraphConfig{Backend: config.GraphBackendMemory},
	}
}

// mockServer 记录 Shutdown 调用
type mockServer struct {
	shutdownCalled atomic.Bool
	stopped        chan struct{}
}

func (m *mockServer) ListenAndServe() error {
	<-m.stopped
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	m.shutdownCalled.Store(true)
	close(m.stopped)
	return nil
}

func TestNewLoadsCorpus(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	answer := a.Service().Query(context.Background(), "静夜思的作者是谁")
	assert.Equal(t, models.NewKGAnswer("静夜思的作者是李白"), answer)

	stats, err := a.Service().Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Graph.Poems)
	assert.False(t, stats.FallbackEnabled)
}

func TestNewMissingCorpus(t *testing.T) {
	cfg := testConfig(t)
	cfg.CorpusFile = filepath.Join(cfg.DataDir, "missing.ttl")

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestFallbackFlag(t *testing.T) {
	cfg := testConfig(t)
	cfg.AI.FallbackEnabled = true

	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	stats, err := a.Service().Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.FallbackEnabled)
	assert.False(t, stats.FallbackReady)

	// 未配置端点与密钥时，兜底直接返回错误答案
	answer := a.Service().Query(context.Background(), "登高的作者是谁")
	assert.Contains(t, answer.Error, "DEEPSEEK_API_URL")
}

func TestHandler(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/query?query=%E9%9D%99%E5%A4%9C%E6%80%9D%E7%9A%84%E5%86%85%E5%AE%B9", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "full_poem_info", gjson.Get(rec.Body.String(), "status").String())
	assert.Same(t, a.Handler(), a.Handler())
}

func TestRun(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	srv := &mockServer{stopped: make(chan struct{})}
	a.server = srv

	go func() {
		time.Sleep(50 * time.Millisecond)
		a.stopChan <- syscall.SIGTERM
	}()

	require.NoError(t, a.Run())
	assert.True(t, srv.shutdownCalled.Load())
}

func TestInitLogging(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, InitLogging(cfg, false))

	files, err := os.ReadDir(cfg.LogDir)
	require.NoError(t, err)
	assert.NotEmpty(t, files)
}
