package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
	"github.com/yourusername/vefify-quiz/pkg/database"
)

// GiftRepo реализует repository.GiftRepository
type GiftRepo struct {
	db *gorm.DB
}

// NewGiftRepo создает новый репозиторий подарков
func NewGiftRepo(db *gorm.DB) *GiftRepo {
	return &GiftRepo{db: db}
}

// Create создает подарок
func (r *GiftRepo) Create(ctx context.Context, tx *gorm.DB, gift *entity.Gift) error {
	return conn(ctx, r.db, tx).Create(gift).Error
}

// GetByID возвращает подарок по ID
func (r *GiftRepo) GetByID(ctx context.Context, id uint) (*entity.Gift, error) {
	var gift entity.Gift
	err := r.db.WithContext(ctx).First(&gift, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &gift, nil
}

// Update сохраняет подарок, не трогая used_count
func (r *GiftRepo) Update(ctx context.Context, gift *entity.Gift) error {
	return r.db.WithContext(ctx).Model(gift).Omit("used_count", "created_at").Select("*").Updates(gift).Error
}

// Delete удаляет подарок, если по нему нет выданных кодов
func (r *GiftRepo) Delete(ctx context.Context, id uint) error {
	var awarded int64
	if err := r.db.WithContext(ctx).Model(&entity.GiftAward{}).Where("gift_id = ?", id).Count(&awarded).Error; err != nil {
		return err
	}
	if awarded > 0 {
		return fmt.Errorf("%w: gift #%d has %d issued codes", apperrors.ErrConflict, id, awarded)
	}

	result := r.db.WithContext(ctx).Delete(&entity.Gift{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListByCampaign возвращает все подарки кампании
func (r *GiftRepo) ListByCampaign(ctx context.Context, campaignID uint) ([]entity.Gift, error) {
	var gifts []entity.Gift
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("min_score DESC, id ASC").
		Find(&gifts).Error
	return gifts, err
}

// ListCandidates возвращает подходящие по баллу подарки с ненулевым остатком.
// Порядок выбора определяет вызывающий код.
func (r *GiftRepo) ListCandidates(ctx context.Context, campaignID uint, score int) ([]entity.Gift, error) {
	var gifts []entity.Gift
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND is_active = ?", campaignID, true).
		Where("min_score <= ?", score).
		Where("max_score IS NULL OR max_score >= ?", score).
		Where("max_quantity IS NULL OR used_count < max_quantity").
		Order("id ASC").
		Find(&gifts).Error
	return gifts, err
}

// ReserveUnit атомарно увеличивает used_count, только если остаток есть.
// Проверка и инкремент выполняются одним UPDATE, поэтому конкурентные
// резервирования не могут превысить max_quantity.
func (r *GiftRepo) ReserveUnit(ctx context.Context, tx *gorm.DB, giftID uint) (bool, error) {
	result := conn(ctx, r.db, tx).Model(&entity.Gift{}).
		Where("id = ? AND is_active = ? AND (max_quantity IS NULL OR used_count < max_quantity)", giftID, true).
		Update("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return false, fmt.Errorf("reserve gift #%d: %w", giftID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Имя уникального индекса gift_awards(participant_id) из миграций
const awardParticipantIndex = "idx_gift_awards_participant"

// CreateAward сохраняет выданный код.
// Повтор по участнику → ErrAlreadyAwarded, любая другая уникальность (код) → ErrDuplicateGiftCode.
func (r *GiftRepo) CreateAward(ctx context.Context, tx *gorm.DB, award *entity.GiftAward) error {
	if err := conn(ctx, r.db, tx).Omit("Gift").Create(award).Error; err != nil {
		switch {
		case database.IsUniqueViolationOn(err, awardParticipantIndex):
			return fmt.Errorf("%w: participant #%d", repository.ErrAlreadyAwarded, award.ParticipantID)
		case database.IsUniqueViolation(err):
			return fmt.Errorf("%w: %s", repository.ErrDuplicateGiftCode, award.Code)
		}
		return err
	}
	return nil
}

// CodeExists проверяет, выдан ли уже такой код
func (r *GiftRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.GiftAward{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// GetAwardByCode возвращает выдачу по коду вместе с подарком
func (r *GiftRepo) GetAwardByCode(ctx context.Context, code string) (*entity.GiftAward, error) {
	var award entity.GiftAward
	err := r.db.WithContext(ctx).Preload("Gift").Where("code = ?", code).First(&award).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &award, nil
}

// GetAwardByParticipant возвращает выдачу участника вместе с подарком
func (r *GiftRepo) GetAwardByParticipant(ctx context.Context, participantID uint) (*entity.GiftAward, error) {
	var award entity.GiftAward
	err := r.db.WithContext(ctx).Preload("Gift").Where("participant_id = ?", participantID).First(&award).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &award, nil
}

// ListAwards возвращает выдачи кампании с пагинацией
func (r *GiftRepo) ListAwards(ctx context.Context, campaignID uint, limit, offset int) ([]entity.GiftAward, int64, error) {
	var awards []entity.GiftAward
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.GiftAward{}).Where("campaign_id = ?", campaignID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Gift").Order("id DESC").Limit(limit).Offset(offset).Find(&awards).Error
	if err != nil {
		return nil, 0, err
	}
	return awards, total, nil
}

// ClaimAward переводит код в claimed ровно один раз
func (r *GiftRepo) ClaimAward(ctx context.Context, code string) (*entity.GiftAward, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&entity.GiftAward{}).
		Where("code = ? AND status = ?", code, entity.GiftAwardStatusUnclaimed).
		Updates(map[string]interface{}{
			"status":     entity.GiftAwardStatusClaimed,
			"claimed_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("claim gift code %s: %w", code, result.Error)
	}

	award, err := r.GetAwardByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return award, fmt.Errorf("%w: %s", repository.ErrAlreadyClaimed, code)
	}
	return award, nil
}

// UpdateAwardAPIResult сохраняет результат вызова внешнего API
func (r *GiftRepo) UpdateAwardAPIResult(ctx context.Context, awardID uint, status string, response []byte) error {
	updates := map[string]interface{}{"api_status": status}
	if len(response) > 0 {
		updates["api_response"] = response
	}
	return r.db.WithContext(ctx).Model(&entity.GiftAward{}).Where("id = ?", awardID).Updates(updates).Error
}

// CountAwards возвращает число выданных кодов кампании
func (r *GiftRepo) CountAwards(ctx context.Context, campaignID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.GiftAward{}).Where("campaign_id = ?", campaignID).Count(&count).Error
	return count, err
}
