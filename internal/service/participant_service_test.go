package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	"github.com/yourusername/vefify-quiz/internal/event"
	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type participantServiceDeps struct {
	participants *MockParticipantRepo
	campaigns    *MockCampaignRepo
	questions    *MockQuestionRepo
	gifts        *MockGiftAwarder
	events       *recordingPublisher
}

func newTestParticipantService() (*ParticipantService, *participantServiceDeps) {
	d := &participantServiceDeps{
		participants: new(MockParticipantRepo),
		campaigns:    new(MockCampaignRepo),
		questions:    new(MockQuestionRepo),
		gifts:        new(MockGiftAwarder),
		events:       &recordingPublisher{},
	}
	s := NewParticipantService(d.participants, d.campaigns, d.questions, d.gifts, d.events,
		ParticipantServiceConfig{AbandonAfter: 2 * time.Hour}, testLogger())
	s.now = func() time.Time { return fixedNow }
	s.newToken = func() string { return "token-1" }
	// без перемешивания: порядок вопросов предсказуем
	s.shuffle = func(int, func(i, j int)) {}
	return s, d
}

func activeCampaign() *entity.Campaign {
	return &entity.Campaign{
		ID:               1,
		Name:             "Spring",
		StartDate:        fixedNow.AddDate(0, 0, -5),
		EndDate:          fixedNow.AddDate(0, 0, 5),
		IsActive:         true,
		QuestionsPerQuiz: 2,
		PassScore:        2,
		TimeLimitSec:     600,
	}
}

func quizQuestions() []entity.Question {
	return []entity.Question{
		{ID: 1, CampaignID: 1, Text: "Q1", Type: entity.QuestionTypeSingleSelect, Points: 1, Options: []entity.QuestionOption{
			{ID: 11, Text: "A", IsCorrect: true}, {ID: 12, Text: "B"},
		}},
		{ID: 2, CampaignID: 1, Text: "Q2", Type: entity.QuestionTypeMultipleSelect, Points: 2, Options: []entity.QuestionOption{
			{ID: 21, Text: "A", IsCorrect: true}, {ID: 22, Text: "B", IsCorrect: true}, {ID: 23, Text: "C"},
		}},
		{ID: 3, CampaignID: 1, Text: "Q3", Type: entity.QuestionTypeText, Points: 1, Options: []entity.QuestionOption{
			{ID: 31, Text: "Amoxicillin", IsCorrect: true},
		}},
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		valid bool
	}{
		{"0901234567", "0901234567", true},
		{"090 123 4567", "0901234567", true},
		{"090-123-4567", "0901234567", true},
		{"(090) 123.4567", "0901234567", true},
		{"+84 901 234 567", "0901234567", true},
		{"84901234567", "0901234567", true},
		{"0201234567", "0201234567", false},
		{"090123456", "090123456", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := NormalizePhone(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, IsValidPhone(got))
		})
	}
}

func TestParticipantService_Register_Success(t *testing.T) {
	// Arrange
	s, d := newTestParticipantService()
	ctx := context.Background()
	c := activeCampaign()
	c.MaxParticipants = 100

	d.campaigns.On("GetByID", ctx, uint(1)).Return(c, nil)
	d.participants.On("CountByCampaign", ctx, uint(1)).Return(int64(10), nil)
	d.participants.On("Create", ctx, mock.AnythingOfType("*entity.Participant")).Run(func(args mock.Arguments) {
		args.Get(1).(*entity.Participant).ID = 77
	}).Return(nil)

	// Act
	p, err := s.Register(ctx, RegistrationInput{
		CampaignID: 1,
		FullName:   "  Nguyễn   Văn A ",
		Phone:      "+84 901 234 567",
		Email:      " A@Example.COM ",
		Province:   "Hà Nội",
		IPAddress:  "10.0.0.1",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(77), p.ID)
	assert.Equal(t, "Nguyễn Văn A", p.FullName)
	assert.Equal(t, "0901234567", p.Phone)
	require.NotNil(t, p.Email)
	assert.Equal(t, "a@example.com", *p.Email)
	assert.Equal(t, "token-1", p.SessionToken)
	assert.Equal(t, entity.ParticipantStatusStarted, p.Status)
	assert.Equal(t, []event.Type{event.ParticipantRegistered}, d.events.types())
}

func TestParticipantService_Register_EmptyEmailStoredAsNull(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()

	d.campaigns.On("GetByID", ctx, uint(1)).Return(activeCampaign(), nil)
	d.participants.On("Create", ctx, mock.AnythingOfType("*entity.Participant")).Return(nil)

	p, err := s.Register(ctx, RegistrationInput{CampaignID: 1, FullName: "B", Phone: "0912345678"})

	require.NoError(t, err)
	assert.Nil(t, p.Email)
	// лимит не задан → количество не запрашивается
	d.participants.AssertNotCalled(t, "CountByCampaign", mock.Anything, mock.Anything)
}

func TestParticipantService_Register_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid input", func(t *testing.T) {
		s, _ := newTestParticipantService()
		_, err := s.Register(ctx, RegistrationInput{CampaignID: 1, FullName: "", Phone: "123", Email: "not-an-email"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
		assert.Len(t, apperrors.ValidationMessages(err), 3)
	})

	t.Run("campaign closed", func(t *testing.T) {
		s, d := newTestParticipantService()
		c := activeCampaign()
		c.EndDate = fixedNow.Add(-time.Minute)
		d.campaigns.On("GetByID", ctx, uint(1)).Return(c, nil)

		_, err := s.Register(ctx, RegistrationInput{CampaignID: 1, FullName: "A", Phone: "0901234567"})
		assert.ErrorIs(t, err, ErrCampaignClosed)
	})

	t.Run("campaign inactive", func(t *testing.T) {
		s, d := newTestParticipantService()
		c := activeCampaign()
		c.IsActive = false
		d.campaigns.On("GetByID", ctx, uint(1)).Return(c, nil)

		_, err := s.Register(ctx, RegistrationInput{CampaignID: 1, FullName: "A", Phone: "0901234567"})
		assert.ErrorIs(t, err, ErrCampaignClosed)
	})

	t.Run("campaign full", func(t *testing.T) {
		s, d := newTestParticipantService()
		c := activeCampaign()
		c.MaxParticipants = 5
		d.campaigns.On("GetByID", ctx, uint(1)).Return(c, nil)
		d.participants.On("CountByCampaign", ctx, uint(1)).Return(int64(5), nil)

		_, err := s.Register(ctx, RegistrationInput{CampaignID: 1, FullName: "A", Phone: "0901234567"})
		assert.ErrorIs(t, err, ErrCampaignFull)
	})

	t.Run("duplicate phone", func(t *testing.T) {
		s, d := newTestParticipantService()
		d.campaigns.On("GetByID", ctx, uint(1)).Return(activeCampaign(), nil)
		d.participants.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicateRegistration)

		_, err := s.Register(ctx, RegistrationInput{CampaignID: 1, FullName: "A", Phone: "0901234567"})
		assert.ErrorIs(t, err, repository.ErrDuplicateRegistration)
		assert.Empty(t, d.events.types())
	})
}

func TestParticipantService_Register_SamePhoneAcrossCampaigns(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()
	second := activeCampaign()
	second.ID = 2
	inCampaign := func(id uint) interface{} {
		return mock.MatchedBy(func(p *entity.Participant) bool { return p.CampaignID == id && p.Phone == "0901234567" })
	}

	d.campaigns.On("GetByID", ctx, uint(1)).Return(activeCampaign(), nil)
	d.campaigns.On("GetByID", ctx, uint(2)).Return(second, nil)
	d.participants.On("Create", ctx, inCampaign(1)).Return(nil).Once()
	d.participants.On("Create", ctx, inCampaign(1)).Return(repository.ErrDuplicateRegistration).Once()
	d.participants.On("Create", ctx, inCampaign(2)).Return(nil).Once()

	first, err := s.Register(ctx, RegistrationInput{CampaignID: 1, FullName: "A", Phone: "0901234567"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.CampaignID)

	_, err = s.Register(ctx, RegistrationInput{CampaignID: 1, FullName: "A", Phone: "0901234567"})
	assert.ErrorIs(t, err, repository.ErrDuplicateRegistration)

	other, err := s.Register(ctx, RegistrationInput{CampaignID: 2, FullName: "A", Phone: "+84 901 234 567"})
	require.NoError(t, err)
	assert.Equal(t, uint(2), other.CampaignID)
	assert.Equal(t, "0901234567", other.Phone)

	d.participants.AssertNumberOfCalls(t, "Create", 3)
	assert.Equal(t, []event.Type{event.ParticipantRegistered, event.ParticipantRegistered}, d.events.types())
}

func TestParticipantService_CheckPhone(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()

	d.participants.On("PhoneExists", ctx, uint(1), "0901234567").Return(true, nil)

	exists, err := s.CheckPhone(ctx, 1, "84 901 234 567")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = s.CheckPhone(ctx, 1, "12")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestParticipantService_StartQuiz_AssignsSubsetWithoutAnswers(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()
	p := &entity.Participant{ID: 5, CampaignID: 1, SessionToken: "tok", Status: entity.ParticipantStatusStarted}

	d.participants.On("GetBySessionToken", ctx, "tok").Return(p, nil)
	d.campaigns.On("GetByID", ctx, uint(1)).Return(activeCampaign(), nil)
	d.questions.On("GetActiveByCampaign", ctx, uint(1)).Return(quizQuestions(), nil)
	d.participants.On("MarkInProgress", ctx, uint(5), []uint{1, 2}, fixedNow).Return(nil)

	session, err := s.StartQuiz(ctx, "tok")

	require.NoError(t, err)
	require.Len(t, session.Questions, 2)
	assert.Equal(t, 600, session.TimeLimitSec)
	assert.Equal(t, fixedNow, session.StartedAt)

	body, err := json.Marshal(session)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "is_correct")
	assert.Equal(t, []event.Type{event.QuizStarted}, d.events.types())
}

func TestParticipantService_StartQuiz_ResumesAssignedQuestions(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()
	startedAt := fixedNow.Add(-time.Minute)
	p := &entity.Participant{
		ID: 5, CampaignID: 1, Status: entity.ParticipantStatusInProgress,
		QuestionIDs: datatypes.JSONSlice[uint]{3, 1}, StartedAt: &startedAt,
	}
	qs := quizQuestions()

	d.participants.On("GetBySessionToken", ctx, "tok").Return(p, nil)
	d.campaigns.On("GetByID", ctx, uint(1)).Return(activeCampaign(), nil)
	d.questions.On("GetByIDs", ctx, []uint{3, 1}).Return([]entity.Question{qs[0], qs[2]}, nil)

	session, err := s.StartQuiz(ctx, "tok")

	require.NoError(t, err)
	require.Len(t, session.Questions, 2)
	assert.Equal(t, uint(3), session.Questions[0].ID)
	assert.Equal(t, uint(1), session.Questions[1].ID)
	assert.Equal(t, startedAt, session.StartedAt)
	d.participants.AssertNotCalled(t, "MarkInProgress", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, d.events.types())
}

func TestParticipantService_StartQuiz_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("completed", func(t *testing.T) {
		s, d := newTestParticipantService()
		d.participants.On("GetBySessionToken", ctx, "tok").Return(&entity.Participant{Status: entity.ParticipantStatusCompleted}, nil)
		_, err := s.StartQuiz(ctx, "tok")
		assert.ErrorIs(t, err, repository.ErrAlreadyCompleted)
	})

	t.Run("abandoned", func(t *testing.T) {
		s, d := newTestParticipantService()
		d.participants.On("GetBySessionToken", ctx, "tok").Return(&entity.Participant{Status: entity.ParticipantStatusAbandoned}, nil)
		_, err := s.StartQuiz(ctx, "tok")
		assert.ErrorIs(t, err, ErrAttemptExpired)
	})

	t.Run("no questions", func(t *testing.T) {
		s, d := newTestParticipantService()
		d.participants.On("GetBySessionToken", ctx, "tok").Return(&entity.Participant{ID: 1, CampaignID: 1, Status: entity.ParticipantStatusStarted}, nil)
		d.campaigns.On("GetByID", ctx, uint(1)).Return(activeCampaign(), nil)
		d.questions.On("GetActiveByCampaign", ctx, uint(1)).Return([]entity.Question{}, nil)
		_, err := s.StartQuiz(ctx, "tok")
		assert.ErrorIs(t, err, ErrNoQuestions)
	})

	t.Run("unknown token", func(t *testing.T) {
		s, d := newTestParticipantService()
		d.participants.On("GetBySessionToken", ctx, "nope").Return(nil, apperrors.ErrNotFound)
		_, err := s.StartQuiz(ctx, "nope")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestParticipantService_SubmitQuiz_ScoresAndAwards(t *testing.T) {
	// Arrange
	s, d := newTestParticipantService()
	ctx := context.Background()
	startedAt := fixedNow.Add(-90 * time.Second)
	p := &entity.Participant{
		ID: 5, CampaignID: 1, Status: entity.ParticipantStatusInProgress,
		QuestionIDs: datatypes.JSONSlice[uint]{1, 2, 3}, StartedAt: &startedAt,
	}
	c := activeCampaign()

	d.participants.On("GetBySessionToken", ctx, "tok").Return(p, nil)
	d.campaigns.On("GetByID", ctx, uint(1)).Return(c, nil)
	d.questions.On("GetByIDs", ctx, []uint{1, 2, 3}).Return(quizQuestions(), nil)

	var stored entity.CompletionResult
	d.participants.On("MarkCompleted", ctx, mock.Anything, uint(5), mock.AnythingOfType("entity.CompletionResult")).Run(func(args mock.Arguments) {
		stored = args.Get(3).(entity.CompletionResult)
	}).Return(nil).Once()

	award := &entity.GiftAward{GiftID: 9, Code: "VFABC123", Status: entity.GiftAwardStatusUnclaimed, Gift: &entity.Gift{ID: 9, Name: "Voucher"}}
	d.gifts.On("AwardGift", ctx, c, p, 2).Return(award, nil)

	// Act
	result, err := s.SubmitQuiz(ctx, "tok", map[uint]SubmittedAnswer{
		1: {OptionIDs: []uint{11}},
		2: {OptionIDs: []uint{22, 21, 22}},
		3: {Text: "wrong"},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.FinalScore)
	assert.Equal(t, 3, result.MaxScore)
	assert.True(t, result.Passed)
	assert.Equal(t, entity.ParticipantStatusCompleted, result.Status)
	assert.Equal(t, 90, result.CompletionTime)
	require.NotNil(t, result.Gift)
	assert.Equal(t, "VFABC123", result.Gift.Code)
	assert.Equal(t, "Voucher", result.Gift.Name)

	assert.Equal(t, 2, stored.FinalScore)
	assert.Equal(t, 3, stored.TotalQuestions)
	assert.Equal(t, fixedNow, stored.CompletedAt)
	assert.Contains(t, string(stored.Answers), `"question_id":2`)

	assert.Equal(t, []event.Type{event.QuizCompleted}, d.events.types())
	assert.Equal(t, true, d.events.events[0].Data["gift_awarded"])
}

func TestParticipantService_SubmitQuiz_SecondSubmissionRejected(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()

	d.participants.On("GetBySessionToken", ctx, "tok").Return(&entity.Participant{ID: 5, Status: entity.ParticipantStatusCompleted, FinalScore: 3}, nil)

	_, err := s.SubmitQuiz(ctx, "tok", map[uint]SubmittedAnswer{1: {OptionIDs: []uint{11}}})

	assert.ErrorIs(t, err, repository.ErrAlreadyCompleted)
	d.participants.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	d.gifts.AssertNotCalled(t, "AwardGift", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestParticipantService_SubmitQuiz_ConcurrentSubmissionLosesRace(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()
	p := &entity.Participant{ID: 5, CampaignID: 1, Status: entity.ParticipantStatusInProgress, QuestionIDs: datatypes.JSONSlice[uint]{1}}

	d.participants.On("GetBySessionToken", ctx, "tok").Return(p, nil)
	d.campaigns.On("GetByID", ctx, uint(1)).Return(activeCampaign(), nil)
	d.questions.On("GetByIDs", ctx, []uint{1}).Return(quizQuestions()[:1], nil)
	d.participants.On("MarkCompleted", ctx, mock.Anything, uint(5), mock.Anything).Return(repository.ErrAlreadyCompleted)

	_, err := s.SubmitQuiz(ctx, "tok", nil)

	assert.ErrorIs(t, err, repository.ErrAlreadyCompleted)
	d.gifts.AssertNotCalled(t, "AwardGift", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, d.events.types())
}

func TestParticipantService_SubmitQuiz_AbandonedBeforeCompletion(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()
	p := &entity.Participant{ID: 5, CampaignID: 1, Status: entity.ParticipantStatusInProgress, QuestionIDs: datatypes.JSONSlice[uint]{1}}

	// фоновая пометка успела перевести попытку в abandoned после чтения участника
	d.participants.On("GetBySessionToken", ctx, "tok").Return(p, nil)
	d.campaigns.On("GetByID", ctx, uint(1)).Return(activeCampaign(), nil)
	d.questions.On("GetByIDs", ctx, []uint{1}).Return(quizQuestions()[:1], nil)
	d.participants.On("MarkCompleted", ctx, mock.Anything, uint(5), mock.Anything).
		Return(fmt.Errorf("%w: participant #5", repository.ErrAttemptAbandoned))

	result, err := s.SubmitQuiz(ctx, "tok", map[uint]SubmittedAnswer{1: {OptionIDs: []uint{11}}})

	assert.ErrorIs(t, err, ErrAttemptExpired)
	assert.Nil(t, result)
	d.gifts.AssertNotCalled(t, "AwardGift", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, d.events.types())
}

func TestParticipantService_SubmitQuiz_AwardFailureKeepsResult(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()
	p := &entity.Participant{ID: 5, CampaignID: 1, Status: entity.ParticipantStatusInProgress, QuestionIDs: datatypes.JSONSlice[uint]{1}}
	c := activeCampaign()
	c.PassScore = 1

	d.participants.On("GetBySessionToken", ctx, "tok").Return(p, nil)
	d.campaigns.On("GetByID", ctx, uint(1)).Return(c, nil)
	d.questions.On("GetByIDs", ctx, []uint{1}).Return(quizQuestions()[:1], nil)
	d.participants.On("MarkCompleted", ctx, mock.Anything, uint(5), mock.Anything).Return(nil)
	d.gifts.On("AwardGift", ctx, c, p, 1).Return(nil, errors.New("db down"))

	result, err := s.SubmitQuiz(ctx, "tok", map[uint]SubmittedAnswer{1: {OptionIDs: []uint{11}}})

	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Nil(t, result.Gift)
	assert.Equal(t, false, d.events.events[0].Data["gift_awarded"])
}

func TestParticipantService_Result(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()
	giftID := uint(9)
	code := "VFABC123"
	p := &entity.Participant{ID: 5, CampaignID: 1, Status: entity.ParticipantStatusCompleted, FinalScore: 3, Passed: true, GiftID: &giftID, GiftCode: &code}

	d.participants.On("GetBySessionToken", ctx, "tok").Return(p, nil)
	d.campaigns.On("GetByID", ctx, uint(1)).Return(activeCampaign(), nil)
	d.gifts.On("GetAwardForParticipant", ctx, uint(5)).Return(&entity.GiftAward{GiftID: 9, Code: code, Status: entity.GiftAwardStatusClaimed}, nil)

	result, err := s.Result(ctx, "tok")

	require.NoError(t, err)
	assert.Equal(t, 3, result.FinalScore)
	assert.Equal(t, 2, result.PassScore)
	require.NotNil(t, result.Gift)
	assert.Equal(t, entity.GiftAwardStatusClaimed, result.Gift.Status)
}

func TestParticipantService_Rescore_UsesStoredAnswers(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()

	stored, err := json.Marshal([]QuestionScore{
		{QuestionID: 1, OptionIDs: []uint{12}},
		{QuestionID: 2, OptionIDs: []uint{21, 22}},
	})
	require.NoError(t, err)
	p := &entity.Participant{
		ID: 5, CampaignID: 1, Status: entity.ParticipantStatusCompleted, FinalScore: 1,
		QuestionIDs: datatypes.JSONSlice[uint]{1, 2}, Answers: datatypes.JSON(stored), CompletionTime: 40,
	}
	qs := quizQuestions()
	// администратор исправил правильный ответ на Q1
	qs[0].Options[0].IsCorrect = false
	qs[0].Options[1].IsCorrect = true

	d.participants.On("GetByID", ctx, uint(5)).Return(p, nil)
	d.campaigns.On("GetByID", ctx, uint(1)).Return(activeCampaign(), nil)
	d.questions.On("GetByIDs", ctx, []uint{1, 2}).Return(qs[:2], nil)
	d.participants.On("Rescore", ctx, uint(5), mock.MatchedBy(func(r entity.CompletionResult) bool {
		return r.FinalScore == 2 && r.Passed && r.CompletionTime == 40
	})).Return(nil).Once()

	result, err := s.Rescore(ctx, 5)

	require.NoError(t, err)
	assert.Equal(t, 2, result.FinalScore)
	d.participants.AssertExpectations(t)
}

func TestParticipantService_Rescore_RequiresCompleted(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()
	d.participants.On("GetByID", ctx, uint(5)).Return(&entity.Participant{ID: 5, Status: entity.ParticipantStatusInProgress}, nil)

	_, err := s.Rescore(ctx, 5)

	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestParticipantService_BulkDelete(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()
	d.participants.On("BulkDelete", ctx, []uint{1, 2}).Return(int64(2), nil)

	n, err := s.BulkDelete(ctx, []uint{1, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.BulkDelete(ctx, nil)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestParticipantService_MarkAbandoned(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()
	d.participants.On("MarkAbandoned", ctx, fixedNow.Add(-2*time.Hour)).Return(int64(3), nil)

	n, err := s.MarkAbandoned(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func exportFixture() []entity.Participant {
	email := "a@example.com"
	code := "VFABC123"
	completed := fixedNow
	return []entity.Participant{
		{ID: 1, FullName: "=HYPERLINK(\"http://evil\")", Phone: "0901234567", Email: &email, Province: "Hà Nội",
			Status: entity.ParticipantStatusCompleted, FinalScore: 3, MaxScore: 5, Passed: true, GiftCode: &code,
			CreatedAt: fixedNow.Add(-time.Hour), CompletedAt: &completed},
		{ID: 2, FullName: "Trần Thị B", Phone: "0912345678", Status: entity.ParticipantStatusStarted, CreatedAt: fixedNow},
	}
}

func TestParticipantService_ExportCSV(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()
	d.campaigns.On("GetByID", ctx, uint(1)).Return(activeCampaign(), nil)
	d.participants.On("ListAll", ctx, uint(1), repository.ParticipantFilters{}).Return(exportFixture(), nil)

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, 1, repository.ParticipantFilters{}, ExportFormatCSV, &buf))

	require.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), string(utf8BOM)))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, `'=HYPERLINK("http://evil")`, rows[1][1])
	assert.Equal(t, "Yes", rows[1][10])
	assert.Equal(t, "VFABC123", rows[1][12])
	assert.Equal(t, "Trần Thị B", rows[2][1])
	assert.Equal(t, "", rows[2][14])
}

func TestParticipantService_ExportXLSX(t *testing.T) {
	s, d := newTestParticipantService()
	ctx := context.Background()
	d.campaigns.On("GetByID", ctx, uint(1)).Return(activeCampaign(), nil)
	d.participants.On("ListAll", ctx, uint(1), repository.ParticipantFilters{}).Return(exportFixture(), nil)

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, 1, repository.ParticipantFilters{}, ExportFormatXLSX, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	phone, err := f.GetCellValue(exportSheetName, "C2")
	require.NoError(t, err)
	assert.Equal(t, "0901234567", phone)

	name, err := f.GetCellValue(exportSheetName, "B3")
	require.NoError(t, err)
	assert.Equal(t, "Trần Thị B", name)
}
