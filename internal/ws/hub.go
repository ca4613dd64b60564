package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"marketplace-chat-service/internal/models"
	"marketplace-chat-service/internal/observability"
)

// ConnInfo identifies one subscriber connection for lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      int
	Meta        observability.RequestMeta
	TraceID     string
	ConnectedAt time.Time
}

// Hub maintains the live subscriber connections per conversation. It is the
// only cross-request in-memory state the service keeps, and it holds no
// durable data.
type Hub struct {
	rooms  map[int]map[*websocket.Conn]ConnInfo
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[int]map[*websocket.Conn]ConnInfo),
		logger: logger,
	}
}

// AddClient registers a websocket connection as a subscriber of the
// conversation.
func (h *Hub) AddClient(conversationID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.rooms[conversationID][conn] = info
}

// RemoveClient drops a subscriber connection.
func (h *Hub) RemoveClient(conversationID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[conversationID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, conversationID)
		}
	}
}

// SubscriberCount reports the number of live subscribers of a conversation.
func (h *Hub) SubscriberCount(conversationID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}

// Broadcast writes the event to every subscriber of its conversation.
// Connections that fail the write are closed and dropped.
func (h *Hub) Broadcast(event models.MessageEvent) {
	h.mu.RLock()
	conns := make(map[*websocket.Conn]ConnInfo, len(h.rooms[event.ConversationID]))
	for conn, info := range h.rooms[event.ConversationID] {
		conns[conn] = info
	}
	h.mu.RUnlock()

	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal ws event", zap.Error(err))
		return
	}

	for conn, info := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Warn("websocket write error", zap.Error(err))
			conn.Close()
			h.RemoveClient(event.ConversationID, conn)
			h.publishWSError(event.ConversationID, info, err)
		}
	}
}

func (h *Hub) publishWSError(conversationID int, info ConnInfo, err error) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"conversation_id": conversationID,
			"event":           "ws_error",
			"conn_id":         info.ConnID,
			"duration_ms":     time.Since(info.ConnectedAt).Milliseconds(),
			"reason":          err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.Meta.DeviceID,
			"ip":        info.Meta.IP,
		},
	}

	headers := observability.TraceHeaders(info.Meta.RequestID, info.TraceID)
	_ = observability.EmitStream(context.Background(), observability.ConversationStreamKey, observability.StreamEvent{
		Stream:  "conversations",
		Name:    "ws_error",
		Payload: payload,
	}, headers)
	observability.IncWSEvent("ws_error")
}
