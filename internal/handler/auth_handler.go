package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/handler/dto"
	"github.com/yourusername/vefify-quiz/internal/middleware"
	"github.com/yourusername/vefify-quiz/internal/pkg/response"
)

// AuthHandler обрабатывает вход администраторов
type AuthHandler struct {
	auth   LoginService
	logger *zap.Logger
}

// NewAuthHandler создает обработчик аутентификации
func NewAuthHandler(auth LoginService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Login проверяет учетные данные и возвращает токен и значение заголовка X-Nonce
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Info("[AuthHandler] Неудачный вход", zap.String("ip", c.ClientIP()))
		handleError(c, err, h.logger)
		return
	}
	response.OK(c, result)
}

// Me возвращает данные текущего администратора из токена
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	response.OK(c, gin.H{
		"admin_id":     claims.AdminID,
		"username":     claims.Username,
		"capabilities": claims.Capabilities,
		"expires_at":   claims.ExpiresAt,
	})
}
