package repository

import (
	"context"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
)

// AdminUserRepository определяет методы для работы с администраторами
type AdminUserRepository interface {
	Create(ctx context.Context, user *entity.AdminUser) error
	GetByID(ctx context.Context, id uint) (*entity.AdminUser, error)
	GetByUsername(ctx context.Context, username string) (*entity.AdminUser, error)
	Count(ctx context.Context) (int64, error)
	TouchLastLogin(ctx context.Context, id uint) error
}
