package handler

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	"github.com/yourusername/vefify-quiz/internal/service"
)

type MockCampaignManager struct{ mock.Mock }

func (m *MockCampaignManager) CreateCampaign(ctx context.Context, c *entity.Campaign) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCampaignManager) UpdateCampaign(ctx context.Context, id uint, input *entity.Campaign) (*entity.Campaign, error) {
	args := m.Called(ctx, id, input)
	c, _ := args.Get(0).(*entity.Campaign)
	return c, args.Error(1)
}

func (m *MockCampaignManager) GetCampaign(ctx context.Context, id uint) (*entity.Campaign, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*entity.Campaign)
	return c, args.Error(1)
}

func (m *MockCampaignManager) GetCampaignBySlug(ctx context.Context, slug string) (*entity.Campaign, error) {
	args := m.Called(ctx, slug)
	c, _ := args.Get(0).(*entity.Campaign)
	return c, args.Error(1)
}

func (m *MockCampaignManager) ListCampaigns(ctx context.Context, filters repository.CampaignFilters, page, pageSize int) ([]entity.Campaign, int64, error) {
	args := m.Called(ctx, filters, page, pageSize)
	items, _ := args.Get(0).([]entity.Campaign)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *MockCampaignManager) DeleteCampaign(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCampaignManager) DuplicateCampaign(ctx context.Context, id uint) (*entity.Campaign, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*entity.Campaign)
	return c, args.Error(1)
}

func (m *MockCampaignManager) Stats(ctx context.Context, id uint) (*service.CampaignStats, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*service.CampaignStats)
	return s, args.Error(1)
}

type MockParticipantManager struct{ mock.Mock }

func (m *MockParticipantManager) Register(ctx context.Context, in service.RegistrationInput) (*entity.Participant, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*entity.Participant)
	return p, args.Error(1)
}

func (m *MockParticipantManager) CheckPhone(ctx context.Context, campaignID uint, raw string) (bool, error) {
	args := m.Called(ctx, campaignID, raw)
	return args.Bool(0), args.Error(1)
}

func (m *MockParticipantManager) StartQuiz(ctx context.Context, token string) (*service.QuizSession, error) {
	args := m.Called(ctx, token)
	s, _ := args.Get(0).(*service.QuizSession)
	return s, args.Error(1)
}

func (m *MockParticipantManager) SubmitQuiz(ctx context.Context, token string, answers map[uint]service.SubmittedAnswer) (*service.QuizResult, error) {
	args := m.Called(ctx, token, answers)
	r, _ := args.Get(0).(*service.QuizResult)
	return r, args.Error(1)
}

func (m *MockParticipantManager) Result(ctx context.Context, token string) (*service.QuizResult, error) {
	args := m.Called(ctx, token)
	r, _ := args.Get(0).(*service.QuizResult)
	return r, args.Error(1)
}

func (m *MockParticipantManager) ListParticipants(ctx context.Context, campaignID uint, filters repository.ParticipantFilters, page, pageSize int) ([]entity.Participant, int64, error) {
	args := m.Called(ctx, campaignID, filters, page, pageSize)
	items, _ := args.Get(0).([]entity.Participant)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *MockParticipantManager) GetParticipant(ctx context.Context, id uint) (*entity.Participant, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*entity.Participant)
	return p, args.Error(1)
}

func (m *MockParticipantManager) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockParticipantManager) Rescore(ctx context.Context, id uint) (*service.QuizResult, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*service.QuizResult)
	return r, args.Error(1)
}

func (m *MockParticipantManager) Export(ctx context.Context, campaignID uint, filters repository.ParticipantFilters, format string, w io.Writer) error {
	args := m.Called(ctx, campaignID, filters, format, w)
	if body, ok := args.Get(1).(string); ok {
		_, _ = io.WriteString(w, body)
	}
	return args.Error(0)
}

type MockGiftManager struct{ mock.Mock }

func (m *MockGiftManager) CreateGift(ctx context.Context, gift *entity.Gift) error {
	return m.Called(ctx, gift).Error(0)
}

func (m *MockGiftManager) GetGift(ctx context.Context, id uint) (*entity.Gift, error) {
	args := m.Called(ctx, id)
	g, _ := args.Get(0).(*entity.Gift)
	return g, args.Error(1)
}

func (m *MockGiftManager) UpdateGift(ctx context.Context, id uint, input *entity.Gift) (*entity.Gift, error) {
	args := m.Called(ctx, id, input)
	g, _ := args.Get(0).(*entity.Gift)
	return g, args.Error(1)
}

func (m *MockGiftManager) DeleteGift(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockGiftManager) ListGifts(ctx context.Context, campaignID uint) ([]entity.Gift, error) {
	args := m.Called(ctx, campaignID)
	g, _ := args.Get(0).([]entity.Gift)
	return g, args.Error(1)
}

func (m *MockGiftManager) DuplicateGift(ctx context.Context, id uint) (*entity.Gift, error) {
	args := m.Called(ctx, id)
	g, _ := args.Get(0).(*entity.Gift)
	return g, args.Error(1)
}

func (m *MockGiftManager) Inventory(ctx context.Context, campaignID uint) ([]service.GiftInventory, error) {
	args := m.Called(ctx, campaignID)
	inv, _ := args.Get(0).([]service.GiftInventory)
	return inv, args.Error(1)
}

func (m *MockGiftManager) ListAwards(ctx context.Context, campaignID uint, page, pageSize int) ([]entity.GiftAward, int64, error) {
	args := m.Called(ctx, campaignID, page, pageSize)
	a, _ := args.Get(0).([]entity.GiftAward)
	return a, args.Get(1).(int64), args.Error(2)
}

func (m *MockGiftManager) GetAwardByCode(ctx context.Context, code string) (*entity.GiftAward, error) {
	args := m.Called(ctx, code)
	a, _ := args.Get(0).(*entity.GiftAward)
	return a, args.Error(1)
}

func (m *MockGiftManager) ClaimCode(ctx context.Context, code string) (*entity.GiftAward, error) {
	args := m.Called(ctx, code)
	a, _ := args.Get(0).(*entity.GiftAward)
	return a, args.Error(1)
}

func (m *MockGiftManager) QRCode(ctx context.Context, code string) ([]byte, error) {
	args := m.Called(ctx, code)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

type stubLocations struct{}

func (stubLocations) Provinces() []string { return []string{"Hà Nội", "TP Hồ Chí Minh"} }

func (stubLocations) Districts(province string) ([]string, error) {
	if province == "ha-noi" {
		return []string{"Ba Đình", "Hoàn Kiếm"}, nil
	}
	return nil, errNotFoundForTest
}
