package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatservice "github.com/zhouzirui/my-chatbot/backend/internal/service/chat"
	"github.com/zhouzirui/my-chatbot/backend/internal/view"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Handler WebSocket会话处理器
type Handler struct {
	chatSvc    *chatservice.Service
	dispatcher *chatservice.Dispatcher
	upgrader   websocket.Upgrader
}

// New 创建WebSocket处理器
func New(chatSvc *chatservice.Service, dispatcher *chatservice.Dispatcher) *Handler {
	return &Handler{
		chatSvc:    chatSvc,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// SendMessage 发送文本消息
type SendMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// conn serialises writes; gorilla connections allow one concurrent writer.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer wsConn.Close()
	c := &conn{ws: wsConn}

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := h.chatSvc.Subscribe(sessionID)
	defer unsubscribe()

	wsConn.SetReadDeadline(time.Now().Add(readTimeout))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, c)
	go h.forwardEvents(ctx, c, events)

	h.sendInfo(c, sessionID, map[string]any{
		"type":    "connected",
		"profile": session.ProfileID,
		"policy":  string(h.dispatcher.Policy()),
	})

	for {
		var msg inboundMessage
		if err := wsConn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}

		wsConn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(c, "session mismatch")
			continue
		}

		h.handleMessage(ctx, c, sessionID, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *conn, sessionID string, msg *inboundMessage) {
	switch msg.Type {
	case "send":
		var payload SendMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.sendError(c, "invalid send payload")
			return
		}
		// 回复通过事件推送，这里只报告错误
		go func() {
			if _, err := h.dispatcher.Send(ctx, sessionID, payload.Text); err != nil {
				switch {
				case errors.Is(err, chatservice.ErrEmptyInput), errors.Is(err, chatservice.ErrSendInFlight):
					h.sendError(c, err.Error())
				default:
					log.Printf("[websocket] send failed session=%s: %v", sessionID, err)
					h.sendError(c, "send failed")
				}
			}
		}()
	case "ping":
		h.sendInfo(c, sessionID, map[string]any{"type": "pong"})
	default:
		h.sendError(c, "unknown message type")
	}
}

// forwardEvents 将会话变更推送给客户端
func (h *Handler) forwardEvents(ctx context.Context, c *conn, events <-chan chatservice.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			msg := outgoingMessage{
				Type:      "turn",
				SessionID: ev.SessionID,
				Data:      view.BuildTurn(ev.Turn),
				Timestamp: time.Now().Unix(),
			}
			if err := c.writeJSON(msg); err != nil {
				log.Printf("[websocket] write turn failed: %v", err)
				return
			}
		}
	}
}

func (h *Handler) sendInfo(c *conn, sessionID string, data map[string]any) {
	msg := outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := c.writeJSON(msg); err != nil {
		log.Printf("[websocket] write info failed: %v", err)
	}
}

func (h *Handler) sendError(c *conn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := c.writeJSON(msg); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
