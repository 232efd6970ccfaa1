package repository

import (
	"context"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"gorm.io/gorm"
)

// GiftRepository определяет методы для работы с подарками и их выдачей
type GiftRepository interface {
	Create(ctx context.Context, tx *gorm.DB, gift *entity.Gift) error
	GetByID(ctx context.Context, id uint) (*entity.Gift, error)
	Update(ctx context.Context, gift *entity.Gift) error
	Delete(ctx context.Context, id uint) error
	ListByCampaign(ctx context.Context, campaignID uint) ([]entity.Gift, error)
	// ListCandidates возвращает активные подарки кампании с остатком, подходящие по баллу
	ListCandidates(ctx context.Context, campaignID uint, score int) ([]entity.Gift, error)
	// ReserveUnit атомарно резервирует единицу запаса; false, если запас исчерпан
	ReserveUnit(ctx context.Context, tx *gorm.DB, giftID uint) (bool, error)
	// CreateAward сохраняет выданный код; коллизия кода → ErrDuplicateGiftCode, повтор по участнику → ErrAlreadyAwarded
	CreateAward(ctx context.Context, tx *gorm.DB, award *entity.GiftAward) error
	CodeExists(ctx context.Context, code string) (bool, error)
	GetAwardByCode(ctx context.Context, code string) (*entity.GiftAward, error)
	GetAwardByParticipant(ctx context.Context, participantID uint) (*entity.GiftAward, error)
	ListAwards(ctx context.Context, campaignID uint, limit, offset int) ([]entity.GiftAward, int64, error)
	// ClaimAward атомарно помечает код погашенным; повтор → ErrAlreadyClaimed
	ClaimAward(ctx context.Context, code string) (*entity.GiftAward, error)
	UpdateAwardAPIResult(ctx context.Context, awardID uint, status string, response []byte) error
	CountAwards(ctx context.Context, campaignID uint) (int64, error)
}
