package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	"github.com/yourusername/vefify-quiz/internal/event"
)

// ============================================================================
// Моки репозиториев
// ============================================================================

// MockCampaignRepo реализует repository.CampaignRepository
type MockCampaignRepo struct {
	mock.Mock
}

func (m *MockCampaignRepo) Create(ctx context.Context, tx *gorm.DB, c *entity.Campaign) error {
	args := m.Called(ctx, tx, c)
	return args.Error(0)
}

func (m *MockCampaignRepo) GetByID(ctx context.Context, id uint) (*entity.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Campaign), args.Error(1)
}

func (m *MockCampaignRepo) GetBySlug(ctx context.Context, slug string) (*entity.Campaign, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Campaign), args.Error(1)
}

func (m *MockCampaignRepo) Update(ctx context.Context, c *entity.Campaign) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCampaignRepo) List(ctx context.Context, f repository.CampaignFilters, limit, offset int) ([]entity.Campaign, int64, error) {
	args := m.Called(ctx, f, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Campaign), args.Get(1).(int64), args.Error(2)
}

func (m *MockCampaignRepo) DeleteCascade(ctx context.Context, tx *gorm.DB, id uint) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockCampaignRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

// MockQuestionRepo реализует repository.QuestionRepository
type MockQuestionRepo struct {
	mock.Mock
}

func (m *MockQuestionRepo) Create(ctx context.Context, tx *gorm.DB, q *entity.Question) error {
	args := m.Called(ctx, tx, q)
	return args.Error(0)
}

func (m *MockQuestionRepo) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) Update(ctx context.Context, q *entity.Question) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuestionRepo) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestionRepo) ListByCampaign(ctx context.Context, campaignID uint, f repository.QuestionFilters, limit, offset int) ([]entity.Question, int64, error) {
	args := m.Called(ctx, campaignID, f, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Question), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuestionRepo) GetActiveByCampaign(ctx context.Context, campaignID uint) ([]entity.Question, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.Question, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) UpdateOrder(ctx context.Context, campaignID uint, ids []uint) error {
	args := m.Called(ctx, campaignID, ids)
	return args.Error(0)
}

func (m *MockQuestionRepo) CountActiveByCampaign(ctx context.Context, campaignID uint) (int64, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).(int64), args.Error(1)
}

// MockParticipantRepo реализует repository.ParticipantRepository
type MockParticipantRepo struct {
	mock.Mock
}

func (m *MockParticipantRepo) Create(ctx context.Context, p *entity.Participant) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockParticipantRepo) GetByID(ctx context.Context, id uint) (*entity.Participant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockParticipantRepo) GetBySessionToken(ctx context.Context, token string) (*entity.Participant, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockParticipantRepo) PhoneExists(ctx context.Context, campaignID uint, phone string) (bool, error) {
	args := m.Called(ctx, campaignID, phone)
	return args.Bool(0), args.Error(1)
}

func (m *MockParticipantRepo) CountByCampaign(ctx context.Context, campaignID uint) (int64, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockParticipantRepo) MarkInProgress(ctx context.Context, id uint, questionIDs []uint, startedAt time.Time) error {
	args := m.Called(ctx, id, questionIDs, startedAt)
	return args.Error(0)
}

func (m *MockParticipantRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, id uint, res entity.CompletionResult) error {
	args := m.Called(ctx, tx, id, res)
	return args.Error(0)
}

func (m *MockParticipantRepo) Rescore(ctx context.Context, id uint, res entity.CompletionResult) error {
	args := m.Called(ctx, id, res)
	return args.Error(0)
}

func (m *MockParticipantRepo) AssignGift(ctx context.Context, tx *gorm.DB, id uint, giftID uint, code string) error {
	args := m.Called(ctx, tx, id, giftID, code)
	return args.Error(0)
}

func (m *MockParticipantRepo) List(ctx context.Context, campaignID uint, f repository.ParticipantFilters, limit, offset int) ([]entity.Participant, int64, error) {
	args := m.Called(ctx, campaignID, f, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Participant), args.Get(1).(int64), args.Error(2)
}

func (m *MockParticipantRepo) ListAll(ctx context.Context, campaignID uint, f repository.ParticipantFilters) ([]entity.Participant, error) {
	args := m.Called(ctx, campaignID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Participant), args.Error(1)
}

func (m *MockParticipantRepo) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockParticipantRepo) MarkAbandoned(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockParticipantRepo) CountByStatus(ctx context.Context, campaignID uint) (map[string]int64, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockParticipantRepo) ScoreStats(ctx context.Context, campaignID uint, passScore int) (float64, int64, error) {
	args := m.Called(ctx, campaignID, passScore)
	return args.Get(0).(float64), args.Get(1).(int64), args.Error(2)
}

// MockGiftRepo реализует repository.GiftRepository
type MockGiftRepo struct {
	mock.Mock
}

func (m *MockGiftRepo) Create(ctx context.Context, tx *gorm.DB, g *entity.Gift) error {
	args := m.Called(ctx, tx, g)
	return args.Error(0)
}

func (m *MockGiftRepo) GetByID(ctx context.Context, id uint) (*entity.Gift, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Gift), args.Error(1)
}

func (m *MockGiftRepo) Update(ctx context.Context, g *entity.Gift) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockGiftRepo) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGiftRepo) ListByCampaign(ctx context.Context, campaignID uint) ([]entity.Gift, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Gift), args.Error(1)
}

func (m *MockGiftRepo) ListCandidates(ctx context.Context, campaignID uint, score int) ([]entity.Gift, error) {
	args := m.Called(ctx, campaignID, score)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Gift), args.Error(1)
}

func (m *MockGiftRepo) ReserveUnit(ctx context.Context, tx *gorm.DB, giftID uint) (bool, error) {
	args := m.Called(ctx, tx, giftID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGiftRepo) CreateAward(ctx context.Context, tx *gorm.DB, award *entity.GiftAward) error {
	args := m.Called(ctx, tx, award)
	return args.Error(0)
}

func (m *MockGiftRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockGiftRepo) GetAwardByCode(ctx context.Context, code string) (*entity.GiftAward, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GiftAward), args.Error(1)
}

func (m *MockGiftRepo) GetAwardByParticipant(ctx context.Context, participantID uint) (*entity.GiftAward, error) {
	args := m.Called(ctx, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GiftAward), args.Error(1)
}

func (m *MockGiftRepo) ListAwards(ctx context.Context, campaignID uint, limit, offset int) ([]entity.GiftAward, int64, error) {
	args := m.Called(ctx, campaignID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.GiftAward), args.Get(1).(int64), args.Error(2)
}

func (m *MockGiftRepo) ClaimAward(ctx context.Context, code string) (*entity.GiftAward, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GiftAward), args.Error(1)
}

func (m *MockGiftRepo) UpdateAwardAPIResult(ctx context.Context, awardID uint, status string, response []byte) error {
	args := m.Called(ctx, awardID, status, response)
	return args.Error(0)
}

func (m *MockGiftRepo) CountAwards(ctx context.Context, campaignID uint) (int64, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAnalyticsRepo реализует repository.AnalyticsRepository
type MockAnalyticsRepo struct {
	mock.Mock
}

func (m *MockAnalyticsRepo) Create(ctx context.Context, e *entity.AnalyticsEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockAnalyticsRepo) CountByType(ctx context.Context, campaignID uint) (map[string]int64, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

// MockAdminUserRepo реализует repository.AdminUserRepository
type MockAdminUserRepo struct {
	mock.Mock
}

func (m *MockAdminUserRepo) Create(ctx context.Context, u *entity.AdminUser) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockAdminUserRepo) GetByID(ctx context.Context, id uint) (*entity.AdminUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AdminUser), args.Error(1)
}

func (m *MockAdminUserRepo) GetByUsername(ctx context.Context, username string) (*entity.AdminUser, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AdminUser), args.Error(1)
}

func (m *MockAdminUserRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAdminUserRepo) TouchLastLogin(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCacheRepo реализует repository.CacheRepository
type MockCacheRepo struct {
	mock.Mock
}

func (m *MockCacheRepo) SetJSON(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	args := m.Called(ctx, key, value, exp)
	return args.Error(0)
}

func (m *MockCacheRepo) GetJSON(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCacheRepo) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCacheRepo) DeleteByPrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}

func (m *MockCacheRepo) Increment(ctx context.Context, key string, exp time.Duration) (int64, error) {
	args := m.Called(ctx, key, exp)
	return args.Get(0).(int64), args.Error(1)
}

// ============================================================================
// Прочие тестовые заглушки
// ============================================================================

// fakeTx выполняет функцию без реальной транзакции (tx == nil)
type fakeTx struct{}

func (fakeTx) Transaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// recordingPublisher запоминает опубликованные события
type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// MockGiftFulfiller реализует GiftFulfiller
type MockGiftFulfiller struct {
	mock.Mock
}

func (m *MockGiftFulfiller) Fulfill(ctx context.Context, endpoint string, req GiftFulfillmentRequest) (json.RawMessage, error) {
	args := m.Called(ctx, endpoint, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// MockGiftNotifier реализует GiftNotifier
type MockGiftNotifier struct {
	mock.Mock
}

func (m *MockGiftNotifier) SendGiftCode(ctx context.Context, n GiftNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func testLogger() *zap.Logger { return zap.NewNop() }

func syncRunner(f func()) { f() }

// MockGiftAwarder реализует GiftAwarder
type MockGiftAwarder struct {
	mock.Mock
}

func (m *MockGiftAwarder) AwardGift(ctx context.Context, c *entity.Campaign, p *entity.Participant, score int) (*entity.GiftAward, error) {
	args := m.Called(ctx, c, p, score)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GiftAward), args.Error(1)
}

func (m *MockGiftAwarder) GetAwardForParticipant(ctx context.Context, participantID uint) (*entity.GiftAward, error) {
	args := m.Called(ctx, participantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GiftAward), args.Error(1)
}
