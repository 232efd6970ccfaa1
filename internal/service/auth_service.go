package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
	"github.com/yourusername/vefify-quiz/pkg/auth"
)

// TokenIssuer выпускает и проверяет токены администраторов
type TokenIssuer interface {
	GenerateToken(adminID uint, username string, capabilities []string, nonceSecret string) (string, time.Time, error)
	ParseToken(tokenString string) (*auth.AdminClaims, error)
}

// LoginResult: ответ на успешный вход
type LoginResult struct {
	AccessToken  string    `json:"access_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Nonce        string    `json:"nonce"` // значение заголовка X-Nonce
	Username     string    `json:"username"`
	Capabilities []string  `json:"capabilities"`
}

// AuthService отвечает за вход администраторов
type AuthService struct {
	adminRepo repository.AdminUserRepository
	tokens    TokenIssuer
	logger    *zap.Logger
}

// NewAuthService создает сервис аутентификации
func NewAuthService(adminRepo repository.AdminUserRepository, tokens TokenIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{adminRepo: adminRepo, tokens: tokens, logger: logger}
}

// Login проверяет пароль и выпускает токен с новым секретом сессии
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.adminRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Info("[AuthService] Вход с неизвестным логином", zap.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive || !user.CheckPassword(password) {
		s.logger.Info("[AuthService] Неверный пароль или отключенная учетная запись", zap.Uint("admin_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	secret, err := auth.GenerateNonceSecret()
	if err != nil {
		return nil, err
	}
	caps := []string(user.Capabilities)
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Username, caps, secret)
	if err != nil {
		return nil, err
	}

	if err := s.adminRepo.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("[AuthService] Не удалось обновить время входа", zap.Uint("admin_id", user.ID), zap.Error(err))
	}

	s.logger.Info("[AuthService] Администратор вошел", zap.Uint("admin_id", user.ID))
	return &LoginResult{
		AccessToken:  token,
		ExpiresAt:    expiresAt,
		Nonce:        auth.HashNonceSecret(secret),
		Username:     user.Username,
		Capabilities: caps,
	}, nil
}

// Authenticate проверяет токен и возвращает claims
func (s *AuthService) Authenticate(token string) (*auth.AdminClaims, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}

// EnsureBootstrapAdmin создает администратора со всеми правами, если таблица пуста
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, username, password string) error {
	count, err := s.adminRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if username == "" || password == "" {
		s.logger.Warn("[AuthService] Нет администраторов и не задан bootstrap-администратор")
		return nil
	}

	admin := &entity.AdminUser{
		Username:     username,
		Password:     password,
		Capabilities: entity.AllCapabilities(),
		IsActive:     true,
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("[AuthService] Создан bootstrap-администратор", zap.String("username", username))
	return nil
}
