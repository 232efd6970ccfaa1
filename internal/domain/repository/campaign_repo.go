package repository

import (
	"context"
	"time"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"gorm.io/gorm"
)

// CampaignFilters определяет фильтры для поиска кампаний
type CampaignFilters struct {
	Search   string     // Поиск по названию/описанию
	IsActive *bool      // Фильтр по флагу активности
	DateFrom *time.Time // Кампании, заканчивающиеся не раньше
	DateTo   *time.Time // Кампании, начинающиеся не позже
}

// CampaignRepository определяет методы для работы с кампаниями
type CampaignRepository interface {
	Create(ctx context.Context, tx *gorm.DB, campaign *entity.Campaign) error
	GetByID(ctx context.Context, id uint) (*entity.Campaign, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Campaign, error)
	Update(ctx context.Context, campaign *entity.Campaign) error
	List(ctx context.Context, filters CampaignFilters, limit, offset int) ([]entity.Campaign, int64, error)
	// DeleteCascade удаляет кампанию вместе с вопросами, вариантами, подарками, выдачами и участниками
	DeleteCascade(ctx context.Context, tx *gorm.DB, id uint) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}
