// internal/api/websocket_test.go
package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/PoetryKGQA/internal/models"
)

func dialQuerySocket(t *testing.T, srv *testServer) (*httptest.Server, *websocket.Conn) {
	t.Helper()

	ts := httptest.NewServer(srv.router)
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/query"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return ts, conn
}

func readAnswer(t *testing.T, conn *websocket.Conn) models.AnswerResult {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var answer models.AnswerResult
	require.NoError(t, conn.ReadJSON(&answer))
	return answer
}

func TestQueryWebSocket(t *testing.T) {
	srv := newTestServer(t, 0)
	_, conn := dialQuerySocket(t, srv)

	require.NoError(t, conn.WriteJSON(QueryMessage{Query: "静夜思的作者是谁"}))
	answer := readAnswer(t, conn)
	assert.Equal(t, []string{"静夜思的作者是李白"}, answer.Result)
	assert.Equal(t, models.SourceKG, answer.Source)

	// 同一连接上可以连续提问
	require.NoError(t, conn.WriteJSON(QueryMessage{Query: " "}))
	answer = readAnswer(t, conn)
	assert.Equal(t, []string{"请输入查询内容"}, answer.Result)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	answer = readAnswer(t, conn)
	assert.Equal(t, invalidMessageText, answer.Error)
	assert.Empty(t, answer.Result)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte(`{"query":"x"}`)))
	answer = readAnswer(t, conn)
	assert.Equal(t, invalidMessageText, answer.Error)

	assert.Eventually(t, func() bool { return srv.router.sockets.Count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestWebSocketCloseAll(t *testing.T) {
	srv := newTestServer(t, 0)
	_, conn := dialQuerySocket(t, srv)

	require.NoError(t, conn.WriteJSON(QueryMessage{Query: "春晓的翻译"}))
	answer := readAnswer(t, conn)
	assert.Equal(t, []string{"春晓的译文: 春日里贪睡不知不觉天就亮了。"}, answer.Result)

	srv.router.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return srv.router.sockets.Count() == 0 }, time.Second, 10*time.Millisecond)

	// 关闭后不再接受新连接
	ts := httptest.NewServer(srv.router)
	defer ts.Close()
	late, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/query", nil)
	require.NoError(t, err)
	defer late.Close()
	require.NoError(t, late.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = late.ReadMessage()
	assert.Error(t, err)
}

func TestWebSocketStatus(t *testing.T) {
	srv := newTestServer(t, 0)
	_, conn := dialQuerySocket(t, srv)

	require.NoError(t, conn.WriteJSON(QueryMessage{Query: "李白的诗"}))
	readAnswer(t, conn)

	rec := srv.get(t, "/api/ws/status")
	assert.Contains(t, rec.Body.String(), `"total_connections":1`)
}
