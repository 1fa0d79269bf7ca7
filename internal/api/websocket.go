// internal/api/websocket.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Corphon/PoetryKGQA/internal/models"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingInterval   = (wsPongWait * 9) / 10
	wsMaxMessageSize = 4096
)

// invalidMessageText 消息不是 {"query": "..."} 时的回复
const invalidMessageText = `消息格式错误，请发送 {"query": "..."}`

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// QueryMessage 客户端发来的问题帧
type QueryMessage struct {
	Query string `json:"query"`
}

// WebSocketClient 一个问答 WebSocket 连接
type WebSocketClient struct {
	id        string
	conn      *websocket.Conn
	remote    string
	writeMu   sync.Mutex
	closed    int32 // 0=开启，1=关闭
	createdAt time.Time
}

// Close 安全关闭客户端连接
func (client *WebSocketClient) Close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
		client.conn.Close()
	}
}

// IsClosed 检查连接是否已关闭
func (client *WebSocketClient) IsClosed() bool {
	return atomic.LoadInt32(&client.closed) == 1
}

// writeJSON 串行化写操作：应答与心跳可能并发写入
func (client *WebSocketClient) writeJSON(v interface{}) error {
	client.writeMu.Lock()
	defer client.writeMu.Unlock()

	client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return client.conn.WriteJSON(v)
}

func (client *WebSocketClient) ping() error {
	client.writeMu.Lock()
	defer client.writeMu.Unlock()

	return client.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

// WebSocketManager 管理所有问答连接
type WebSocketManager struct {
	clients map[*WebSocketClient]struct{}
	mutex   sync.RWMutex
	closing bool
}

// NewWebSocketManager 创建连接管理器
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients: make(map[*WebSocketClient]struct{}),
	}
}

// register 注册新客户端；管理器关闭后拒绝注册
func (manager *WebSocketManager) register(client *WebSocketClient) bool {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if manager.closing {
		return false
	}
	manager.clients[client] = struct{}{}
	return true
}

// unregister 注销并关闭客户端
func (manager *WebSocketManager) unregister(client *WebSocketClient) {
	manager.mutex.Lock()
	delete(manager.clients, client)
	manager.mutex.Unlock()

	client.Close()
}

// Count 当前连接数
func (manager *WebSocketManager) Count() int {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	return len(manager.clients)
}

// GetStatus 获取管理器状态
func (manager *WebSocketManager) GetStatus() map[string]interface{} {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	clients := make([]map[string]interface{}, 0, len(manager.clients))
	for client := range manager.clients {
		if client.IsClosed() {
			continue
		}
		clients = append(clients, map[string]interface{}{
			"id":           client.id,
			"remote_addr":  client.remote,
			"connected_at": client.createdAt.Format(time.RFC3339),
		})
	}

	return map[string]interface{}{
		"total_connections": len(clients),
		"clients":           clients,
	}
}

// CloseAll 关闭全部连接；http.Server.Shutdown 不会关闭已升级的连接
func (manager *WebSocketManager) CloseAll() {
	manager.mutex.Lock()
	manager.closing = true
	clients := make([]*WebSocketClient, 0, len(manager.clients))
	for client := range manager.clients {
		clients = append(clients, client)
	}
	manager.clients = make(map[*WebSocketClient]struct{})
	manager.mutex.Unlock()

	for _, client := range clients {
		client.Close()
	}
}

// QueryWebSocket 每个文本帧 {"query": "..."} 对应一个 AnswerResult 帧
func (h *Handler) QueryWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket 升级失败", map[string]interface{}{"error": err})
		return
	}

	client := &WebSocketClient{
		id:        uuid.NewString(),
		conn:      conn,
		remote:    c.ClientIP(),
		createdAt: time.Now(),
	}
	if !h.sockets.register(client) {
		conn.Close()
		return
	}
	h.metrics.WebSocketOpened()
	h.logger.Debug("WebSocket 客户端已连接", map[string]interface{}{"client": client.id, "remote": client.remote})

	done := make(chan struct{})
	defer func() {
		close(done)
		h.sockets.unregister(client)
		h.metrics.WebSocketClosed()
		h.logger.Debug("WebSocket 客户端已断开", map[string]interface{}{"client": client.id})
	}()

	go h.keepAlive(client, done)

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	ctx := c.Request.Context()
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !client.IsClosed() {
				h.logger.Warn("WebSocket 读取失败", map[string]interface{}{"client": client.id, "error": err})
			}
			return
		}

		answer, err := h.answerFrame(ctx, messageType, data)
		if err != nil {
			answer = models.NewErrorAnswer(invalidMessageText)
		}
		if err := client.writeJSON(answer); err != nil {
			return
		}
	}
}

var errInvalidFrame = errors.New("invalid websocket frame")

func (h *Handler) answerFrame(ctx context.Context, messageType int, data []byte) (*models.AnswerResult, error) {
	if messageType != websocket.TextMessage {
		return nil, errInvalidFrame
	}
	var msg QueryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errInvalidFrame
	}
	return h.service.Query(ctx, msg.Query), nil
}

// keepAlive 定期发送 ping，直到连接结束
func (h *Handler) keepAlive(client *WebSocketClient, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := client.ping(); err != nil {
				client.Close()
				return
			}
		}
	}
}

// GetWebSocketStatus 获取 WebSocket 连接状态
func (h *Handler) GetWebSocketStatus(c *gin.Context) {
	h.response.Success(c, h.sockets.GetStatus())
}
