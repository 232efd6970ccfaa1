package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
	"github.com/yourusername/vefify-quiz/pkg/database"
)

// AdminUserRepo реализует repository.AdminUserRepository
type AdminUserRepo struct {
	db *gorm.DB
}

// NewAdminUserRepo создает новый репозиторий администраторов
func NewAdminUserRepo(db *gorm.DB) *AdminUserRepo {
	return &AdminUserRepo{db: db}
}

// Create создает администратора
func (r *AdminUserRepo) Create(ctx context.Context, user *entity.AdminUser) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: username %s", apperrors.ErrConflict, user.Username)
		}
		return err
	}
	return nil
}

// GetByID возвращает администратора по ID
func (r *AdminUserRepo) GetByID(ctx context.Context, id uint) (*entity.AdminUser, error) {
	var user entity.AdminUser
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername возвращает администратора по логину
func (r *AdminUserRepo) GetByUsername(ctx context.Context, username string) (*entity.AdminUser, error) {
	var user entity.AdminUser
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Count возвращает число администраторов
func (r *AdminUserRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.AdminUser{}).Count(&count).Error
	return count, err
}

// TouchLastLogin обновляет время последнего входа
func (r *AdminUserRepo) TouchLastLogin(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&entity.AdminUser{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", time.Now()).Error
}
