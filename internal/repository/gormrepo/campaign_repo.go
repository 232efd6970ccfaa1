package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
	"github.com/yourusername/vefify-quiz/pkg/database"
)

// CampaignRepo реализует repository.CampaignRepository
type CampaignRepo struct {
	db *gorm.DB
}

// NewCampaignRepo создает новый репозиторий кампаний
func NewCampaignRepo(db *gorm.DB) *CampaignRepo {
	return &CampaignRepo{db: db}
}

// Create создает новую кампанию
func (r *CampaignRepo) Create(ctx context.Context, tx *gorm.DB, campaign *entity.Campaign) error {
	if err := conn(ctx, r.db, tx).Create(campaign).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateSlug, campaign.Slug)
		}
		return err
	}
	return nil
}

// GetByID возвращает кампанию по ID
func (r *CampaignRepo) GetByID(ctx context.Context, id uint) (*entity.Campaign, error) {
	var campaign entity.Campaign
	err := r.db.WithContext(ctx).First(&campaign, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

// GetBySlug возвращает кампанию по slug
func (r *CampaignRepo) GetBySlug(ctx context.Context, slug string) (*entity.Campaign, error) {
	var campaign entity.Campaign
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

// Update сохраняет кампанию целиком
func (r *CampaignRepo) Update(ctx context.Context, campaign *entity.Campaign) error {
	if err := r.db.WithContext(ctx).Save(campaign).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateSlug, campaign.Slug)
		}
		return err
	}
	return nil
}

// List возвращает кампании с фильтрами и total count
func (r *CampaignRepo) List(ctx context.Context, filters repository.CampaignFilters, limit, offset int) ([]entity.Campaign, int64, error) {
	var campaigns []entity.Campaign
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Campaign{})

	if filters.Search != "" {
		search := likePattern(filters.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", search, search)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.DateFrom != nil {
		query = query.Where("end_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("start_date <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&campaigns).Error
	if err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// DeleteCascade удаляет кампанию и все зависимые записи.
// Вызывающий код отвечает за транзакцию.
func (r *CampaignRepo) DeleteCascade(ctx context.Context, tx *gorm.DB, id uint) error {
	db := conn(ctx, r.db, tx)

	questionIDs := db.Model(&entity.Question{}).Select("id").Where("campaign_id = ?", id)
	if err := db.Where("question_id IN (?)", questionIDs).Delete(&entity.QuestionOption{}).Error; err != nil {
		return fmt.Errorf("delete options of campaign #%d: %w", id, err)
	}

	for _, model := range []interface{}{
		&entity.Question{},
		&entity.GiftAward{},
		&entity.Gift{},
		&entity.Participant{},
		&entity.AnalyticsEvent{},
	} {
		if err := db.Where("campaign_id = ?", id).Delete(model).Error; err != nil {
			return fmt.Errorf("cascade delete campaign #%d: %w", id, err)
		}
	}

	result := db.Delete(&entity.Campaign{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SlugExists проверяет, занят ли slug
func (r *CampaignRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Campaign{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}
