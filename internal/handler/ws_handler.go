package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/middleware"
	"github.com/yourusername/vefify-quiz/internal/pkg/response"
	"github.com/yourusername/vefify-quiz/internal/websocket"
)

// WSHandler подключает администраторов к живой ленте событий
type WSHandler struct {
	hub        *websocket.Hub
	upgrader   gorillaws.Upgrader
	bufferSize int
	logger     *zap.Logger
}

// NewWSHandler создает обработчик WebSocket.
// allowedOrigins синхронизирован с CORS; "*" разрешает любой origin.
func NewWSHandler(hub *websocket.Hub, allowedOrigins []string, bufferSize int, logger *zap.Logger) *WSHandler {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return &WSHandler{
		hub:        hub,
		bufferSize: bufferSize,
		logger:     logger,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Пустой Origin - не браузерный клиент
				if origin == "" || allowAll {
					return true
				}
				if _, ok := allowed[origin]; ok {
					return true
				}
				logger.Warn("[WSHandler] Отклонен origin", zap.String("origin", origin))
				return false
			},
		},
	}
}

// HandleConnection подключает клиента; ?campaign_id= ограничивает ленту одной кампанией.
// Токен проверяется middleware.RequireAuth(true) до апгрейда.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	var campaignID uint
	if raw := c.Query("campaign_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.BadRequest(c, "invalid campaign_id")
			return
		}
		campaignID = uint(id)
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ с ошибкой
		h.logger.Warn("[WSHandler] Ошибка апгрейда соединения", zap.Error(err))
		return
	}

	websocket.NewClient(h.hub, conn, claims.AdminID, campaignID, h.bufferSize, h.logger).Start()
}
