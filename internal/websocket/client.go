package websocket

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Время, которое разрешено писать сообщение клиенту.
	writeWait = 10 * time.Second

	// Время, которое разрешено клиенту молчать до следующего pong.
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту.
	pingPeriod = (pongWait * 9) / 10

	// Лента только на запись: от клиента ждем лишь управляющие кадры
	maxMessageSize = 512

	defaultClientBufferSize = 64
)

// Client является посредником между WebSocket соединением и hub.
type Client struct {
	// ID администратора
	AdminID uint

	// Уникальный ID для каждого соединения
	ConnectionID string

	// Кампания, события которой нужны клиенту (0 = все кампании)
	CampaignID uint

	hub  *Hub
	conn *websocket.Conn

	// Буферизованный канал исходящих сообщений; закрывается только хабом
	send chan []byte

	logger *zap.Logger
}

// NewClient создает клиента для установленного соединения
func NewClient(hub *Hub, conn *websocket.Conn, adminID, campaignID uint, bufferSize int, logger *zap.Logger) *Client {
	if bufferSize <= 0 {
		bufferSize = defaultClientBufferSize
	}
	return &Client{
		AdminID:      adminID,
		ConnectionID: uuid.NewString(),
		CampaignID:   campaignID,
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, bufferSize),
		logger:       logger,
	}
}

// wants сообщает, интересно ли клиенту событие кампании
func (c *Client) wants(campaignID uint) bool {
	return c.CampaignID == 0 || c.CampaignID == campaignID
}

// Start регистрирует клиента и запускает насосы чтения и записи
func (c *Client) Start() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

// readPump читает управляющие кадры, продлевая дедлайн по pong.
// Любая ошибка чтения означает разрыв соединения.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info("[WebSocket] Ошибка чтения",
					zap.String("conn_id", c.ConnectionID), zap.Error(err))
			}
			return
		}
	}
}

// writePump отправляет сообщения из канала send и пингует клиента
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Хаб закрыл канал: клиент удален или отстал
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("[WebSocket] Ошибка записи",
					zap.String("conn_id", c.ConnectionID), zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
