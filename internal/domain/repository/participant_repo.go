package repository

import (
	"context"
	"time"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"gorm.io/gorm"
)

// ParticipantFilters определяет фильтры для списка участников
type ParticipantFilters struct {
	Status   string
	Search   string // по имени, телефону, email
	Province string
	HasGift  *bool
	DateFrom *time.Time
	DateTo   *time.Time
}

// ParticipantRepository определяет методы для работы с участниками
type ParticipantRepository interface {
	// Create вставляет участника; нарушение уникального индекса → ErrDuplicateRegistration
	Create(ctx context.Context, participant *entity.Participant) error
	GetByID(ctx context.Context, id uint) (*entity.Participant, error)
	GetBySessionToken(ctx context.Context, token string) (*entity.Participant, error)
	PhoneExists(ctx context.Context, campaignID uint, phone string) (bool, error)
	CountByCampaign(ctx context.Context, campaignID uint) (int64, error)
	// MarkInProgress фиксирует выданные вопросы; допускается только из статуса started/in_progress
	MarkInProgress(ctx context.Context, id uint, questionIDs []uint, startedAt time.Time) error
	// MarkCompleted атомарно фиксирует результат; повторный вызов → ErrAlreadyCompleted
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uint, result entity.CompletionResult) error
	// Rescore перезаписывает результат завершённого участника (только явное действие администратора)
	Rescore(ctx context.Context, id uint, result entity.CompletionResult) error
	AssignGift(ctx context.Context, tx *gorm.DB, id uint, giftID uint, code string) error
	List(ctx context.Context, campaignID uint, filters ParticipantFilters, limit, offset int) ([]entity.Participant, int64, error)
	ListAll(ctx context.Context, campaignID uint, filters ParticipantFilters) ([]entity.Participant, error)
	BulkDelete(ctx context.Context, ids []uint) (int64, error)
	// MarkAbandoned переводит незавершённые попытки старше cutoff в abandoned
	MarkAbandoned(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context, campaignID uint) (map[string]int64, error)
	ScoreStats(ctx context.Context, campaignID uint, passScore int) (avgScore float64, passed int64, err error)
}
