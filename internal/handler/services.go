package handler

import (
	"context"
	"io"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	"github.com/yourusername/vefify-quiz/internal/service"
)

// Интерфейсы сервисов, которыми пользуются обработчики.
// Реализуются типами из internal/service.

type CampaignManager interface {
	CreateCampaign(ctx context.Context, c *entity.Campaign) error
	UpdateCampaign(ctx context.Context, id uint, input *entity.Campaign) (*entity.Campaign, error)
	GetCampaign(ctx context.Context, id uint) (*entity.Campaign, error)
	GetCampaignBySlug(ctx context.Context, slug string) (*entity.Campaign, error)
	ListCampaigns(ctx context.Context, filters repository.CampaignFilters, page, pageSize int) ([]entity.Campaign, int64, error)
	DeleteCampaign(ctx context.Context, id uint) error
	DuplicateCampaign(ctx context.Context, id uint) (*entity.Campaign, error)
	Stats(ctx context.Context, id uint) (*service.CampaignStats, error)
}

type QuestionManager interface {
	CreateQuestion(ctx context.Context, q *entity.Question) error
	GetQuestion(ctx context.Context, id uint) (*entity.Question, error)
	UpdateQuestion(ctx context.Context, id uint, input *entity.Question) (*entity.Question, error)
	DeleteQuestion(ctx context.Context, id uint) error
	ListQuestions(ctx context.Context, campaignID uint, filters repository.QuestionFilters, page, pageSize int) ([]entity.Question, int64, error)
	DuplicateQuestion(ctx context.Context, id uint) (*entity.Question, error)
	ReorderQuestions(ctx context.Context, campaignID uint, orderedIDs []uint) error
}

type GiftManager interface {
	CreateGift(ctx context.Context, gift *entity.Gift) error
	GetGift(ctx context.Context, id uint) (*entity.Gift, error)
	UpdateGift(ctx context.Context, id uint, input *entity.Gift) (*entity.Gift, error)
	DeleteGift(ctx context.Context, id uint) error
	ListGifts(ctx context.Context, campaignID uint) ([]entity.Gift, error)
	DuplicateGift(ctx context.Context, id uint) (*entity.Gift, error)
	Inventory(ctx context.Context, campaignID uint) ([]service.GiftInventory, error)
	ListAwards(ctx context.Context, campaignID uint, page, pageSize int) ([]entity.GiftAward, int64, error)
	GetAwardByCode(ctx context.Context, code string) (*entity.GiftAward, error)
	ClaimCode(ctx context.Context, code string) (*entity.GiftAward, error)
	QRCode(ctx context.Context, code string) ([]byte, error)
}

type ParticipantManager interface {
	Register(ctx context.Context, in service.RegistrationInput) (*entity.Participant, error)
	CheckPhone(ctx context.Context, campaignID uint, raw string) (bool, error)
	StartQuiz(ctx context.Context, token string) (*service.QuizSession, error)
	SubmitQuiz(ctx context.Context, token string, answers map[uint]service.SubmittedAnswer) (*service.QuizResult, error)
	Result(ctx context.Context, token string) (*service.QuizResult, error)
	ListParticipants(ctx context.Context, campaignID uint, filters repository.ParticipantFilters, page, pageSize int) ([]entity.Participant, int64, error)
	GetParticipant(ctx context.Context, id uint) (*entity.Participant, error)
	BulkDelete(ctx context.Context, ids []uint) (int64, error)
	Rescore(ctx context.Context, id uint) (*service.QuizResult, error)
	Export(ctx context.Context, campaignID uint, filters repository.ParticipantFilters, format string, w io.Writer) error
}

type LoginService interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
}

type AnalyticsReporter interface {
	Summary(ctx context.Context, campaignID uint) (*service.AnalyticsSummary, error)
}

type LocationLookup interface {
	Provinces() []string
	Districts(province string) ([]string, error)
}
