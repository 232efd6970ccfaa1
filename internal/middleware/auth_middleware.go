package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/pkg/response"
	"github.com/yourusername/vefify-quiz/pkg/auth"
)

// Ключи контекста gin
const (
	ClaimsKey  = "admin_claims"
	AdminIDKey = "admin_id"
)

// Authenticator проверяет токен администратора
type Authenticator interface {
	Authenticate(token string) (*auth.AdminClaims, error)
}

// AuthMiddleware обеспечивает аутентификацию для маршрутов администратора
type AuthMiddleware struct {
	auth   Authenticator
	logger *zap.Logger
}

// NewAuthMiddleware создает middleware
func NewAuthMiddleware(authenticator Authenticator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: authenticator, logger: logger}
}

// bearerToken извлекает токен из заголовка Authorization: Bearer {token}
func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth проверяет токен из заголовка Authorization.
// При allowQuery токен также принимается из ?token= (браузерный WebSocket не умеет заголовки).
func (m *AuthMiddleware) RequireAuth(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" && allowQuery {
			token = c.Query("token")
		}
		if token == "" {
			response.Unauthorized(c)
			return
		}

		claims, err := m.auth.Authenticate(token)
		if err != nil {
			m.logger.Debug("[AuthMiddleware] Токен отклонен", zap.String("path", c.FullPath()), zap.Error(err))
			response.Unauthorized(c)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(AdminIDKey, claims.AdminID)
		c.Next()
	}
}

// RequireCapability проверяет право администратора. Применяется после RequireAuth.
func (m *AuthMiddleware) RequireCapability(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			response.Unauthorized(c)
			return
		}
		if !claims.Can(capability) {
			m.logger.Info("[AuthMiddleware] Недостаточно прав",
				zap.Uint("admin_id", claims.AdminID), zap.String("capability", capability))
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

// RequireNonce проверяет заголовок X-Nonce для изменяющих запросов.
// Значение: SHA-256 от секрета, встроенного в токен. Применяется после RequireAuth.
func (m *AuthMiddleware) RequireNonce() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		claims, ok := ClaimsFrom(c)
		if !ok {
			response.Unauthorized(c)
			return
		}
		if !auth.VerifyNonce(c.GetHeader(auth.NonceHeader), claims.NonceSecret) {
			m.logger.Info("[AuthMiddleware] Неверный nonce",
				zap.Uint("admin_id", claims.AdminID), zap.String("path", c.FullPath()))
			response.Unauthorized(c)
			return
		}
		c.Next()
	}
}

// ClaimsFrom возвращает claims, сохраненные RequireAuth
func ClaimsFrom(c *gin.Context) (*auth.AdminClaims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.AdminClaims)
	return claims, ok
}
