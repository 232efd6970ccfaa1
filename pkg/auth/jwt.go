package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

const (
	// NonceHeader: заголовок с хешем секрета из токена для изменяющих запросов
	NonceHeader = "X-Nonce"
	audience    = "vefify-admin"
	// nonceSecretLen: длина секрета в hex-символах
	nonceSecretLen = 32
)

var (
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token is expired")
	ErrTokenInvalid   = errors.New("token is invalid")
)

// AdminClaims содержит поля токена администратора
type AdminClaims struct {
	AdminID      uint     `json:"admin_id"`
	Username     string   `json:"username"`
	Capabilities []string `json:"caps"`
	// NonceSecret не передается клиенту отдельно: клиент получает только его хеш
	NonceSecret string `json:"nonce_secret"`
	jwt.RegisteredClaims
}

// Can проверяет наличие права в токене
func (c *AdminClaims) Can(capability string) bool {
	for _, cp := range c.Capabilities {
		if cp == capability {
			return true
		}
	}
	return false
}

// JWTService выпускает и проверяет HS256-токены администраторов
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	logger     *zap.Logger
	now        func() time.Time
}

// NewJWTService создает сервис токенов
func NewJWTService(secret string, expirationHrs int, issuer string, logger *zap.Logger) (*JWTService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}
	if expirationHrs <= 0 {
		expirationHrs = 24
	}
	if issuer == "" {
		issuer = "vefify-quiz"
	}
	return &JWTService{
		secret:     []byte(secret),
		expiration: time.Duration(expirationHrs) * time.Hour,
		issuer:     issuer,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// GenerateToken подписывает токен администратора; nonceSecret встраивается в claims
func (s *JWTService) GenerateToken(adminID uint, username string, capabilities []string, nonceSecret string) (string, time.Time, error) {
	if nonceSecret == "" {
		return "", time.Time{}, errors.New("nonce secret cannot be empty")
	}
	now := s.now()
	expiresAt := now.Add(s.expiration)
	claims := &AdminClaims{
		AdminID:      adminID,
		Username:     username,
		Capabilities: capabilities,
		NonceSecret:  nonceSecret,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   strconv.FormatUint(uint64(adminID), 10),
			Audience:  jwt.ClaimStrings{audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("[JWT] Ошибка подписи токена", zap.Uint("admin_id", adminID), zap.Error(err))
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken проверяет подпись, срок и аудиторию токена
func (s *JWTService) ParseToken(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, ErrTokenMalformed
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				return nil, ErrTokenExpired
			}
		}
		s.logger.Debug("[JWT] Токен отклонен", zap.Error(err))
		return nil, ErrTokenInvalid
	}
	if !token.Valid || !claims.VerifyAudience(audience, true) || !claims.VerifyIssuer(s.issuer, true) {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// GenerateNonceSecret создает случайный секрет сессии
func GenerateNonceSecret() (string, error) {
	b := make([]byte, nonceSecretLen/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate nonce secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashNonceSecret возвращает значение заголовка X-Nonce для секрета
func HashNonceSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyNonce сравнивает заголовок с хешем секрета за постоянное время
func VerifyNonce(header, secret string) bool {
	if header == "" || secret == "" {
		return false
	}
	expected := HashNonceSecret(secret)
	return subtle.ConstantTimeCompare([]byte(header), []byte(expected)) == 1
}
