// Package websocket реализует живую ленту событий кампаний для администраторов.
package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/event"
)

// Hub хранит подключенных клиентов и рассылает им сообщения.
// Клиент, чей буфер отправки переполнен, отключается.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *zap.Logger
}

// NewHub создает хаб
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register добавляет клиента и отправляет ему приветствие
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("[WebSocket] Клиент подключен",
		zap.String("conn_id", c.ConnectionID),
		zap.Uint("admin_id", c.AdminID),
		zap.Uint("campaign_id", c.CampaignID),
		zap.Int("clients", total))

	if msg, err := encode(Message{Type: MessageWelcome, CampaignID: c.CampaignID}); err == nil {
		h.deliver(c, msg)
	}
}

// Unregister удаляет клиента и закрывает его канал; повторный вызов безопасен
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.logger.Info("[WebSocket] Клиент отключен",
		zap.String("conn_id", c.ConnectionID),
		zap.Int("clients", len(h.clients)))
}

// deliver ставит сообщение в очередь клиента без блокировки
func (h *Hub) deliver(c *Client, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.logger.Warn("[WebSocket] Буфер клиента переполнен, отключаем",
			zap.String("conn_id", c.ConnectionID))
		h.removeLocked(c)
	}
}

// Broadcast рассылает сообщение клиентам, подписанным на кампанию
func (h *Hub) Broadcast(m Message) error {
	payload, err := encode(m)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.wants(m.CampaignID) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("[WebSocket] Буфер клиента переполнен, отключаем",
				zap.String("conn_id", c.ConnectionID))
			h.removeLocked(c)
		}
	}
	return nil
}

// HandleEvent: подписчик шины событий
func (h *Hub) HandleEvent(_ context.Context, e event.Event) error {
	return h.Broadcast(eventMessage(e))
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close отключает всех клиентов
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}
