package gormrepo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/domain/repository"
	apperrors "github.com/yourusername/vefify-quiz/internal/pkg/errors"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestGiftRepo_ReserveUnit_Success(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGiftRepo(db)

	mock.ExpectExec(`UPDATE "gifts" SET "used_count"=used_count \+ \$1.*max_quantity IS NULL OR used_count < max_quantity`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.ReserveUnit(context.Background(), nil, 7)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftRepo_ReserveUnit_OutOfStock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGiftRepo(db)

	// Запас исчерпан: условие WHERE не совпало ни с одной строкой
	mock.ExpectExec(`UPDATE "gifts" SET "used_count"=used_count \+ \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ReserveUnit(context.Background(), nil, 7)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftRepo_ReserveUnit_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGiftRepo(db)

	mock.ExpectExec(`UPDATE "gifts"`).WillReturnError(errors.New("connection reset"))

	ok, err := repo.ReserveUnit(context.Background(), nil, 7)

	assert.Error(t, err)
	assert.False(t, ok)
}

func TestParticipantRepo_MarkCompleted(t *testing.T) {
	result := entity.CompletionResult{
		FinalScore:     4,
		MaxScore:       5,
		TotalQuestions: 5,
		Passed:         true,
		CompletedAt:    time.Now(),
	}

	t.Run("first submission", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewParticipantRepo(db)

		// завершить можно только открытую попытку
		mock.ExpectExec(`UPDATE "participants" SET .* WHERE \(?id = \$\d+ AND status IN \(\$\d+,\$\d+\)\)?`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.MarkCompleted(context.Background(), nil, 11, result)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already completed", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewParticipantRepo(db)

		mock.ExpectExec(`UPDATE "participants"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT "status" FROM "participants"`).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(entity.ParticipantStatusCompleted))

		err := repo.MarkCompleted(context.Background(), nil, 11, result)

		assert.ErrorIs(t, err, repository.ErrAlreadyCompleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("abandoned attempt", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewParticipantRepo(db)

		mock.ExpectExec(`UPDATE "participants"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT "status" FROM "participants"`).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(entity.ParticipantStatusAbandoned))

		err := repo.MarkCompleted(context.Background(), nil, 11, result)

		assert.ErrorIs(t, err, repository.ErrAttemptAbandoned)
		assert.NotErrorIs(t, err, repository.ErrAlreadyCompleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing participant", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewParticipantRepo(db)

		mock.ExpectExec(`UPDATE "participants"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT "status" FROM "participants"`).
			WillReturnRows(sqlmock.NewRows([]string{"status"}))

		err := repo.MarkCompleted(context.Background(), nil, 11, result)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestParticipantRepo_MarkAbandoned_MeasuresFromQuizStart(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewParticipantRepo(db)
	cutoff := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)

	// попытка, начатая после cutoff, не попадает под условие даже при старой регистрации
	mock.ExpectExec(`UPDATE "participants" SET "status"=\$\d+.* WHERE status IN \(\$\d+,\$\d+\) AND COALESCE\(started_at, created_at\) < \$\d+`).
		WithArgs(entity.ParticipantStatusAbandoned, sqlmock.AnyArg(),
			entity.ParticipantStatusStarted, entity.ParticipantStatusInProgress, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.MarkAbandoned(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftRepo_CreateAward_UniqueViolations(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{name: "participant already awarded", constraint: "idx_gift_awards_participant", want: repository.ErrAlreadyAwarded},
		{name: "code collision", constraint: "idx_gift_awards_code", want: repository.ErrDuplicateGiftCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewGiftRepo(db)

			mock.ExpectQuery(`INSERT INTO "gift_awards"`).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			err := repo.CreateAward(context.Background(), nil, &entity.GiftAward{
				CampaignID: 1, ParticipantID: 10, GiftID: 3, Code: "VFABC123",
			})

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParticipantRepo_Create_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewParticipantRepo(db)

	mock.ExpectQuery(`INSERT INTO "participants"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &entity.Participant{CampaignID: 1, Phone: "0912345678", SessionToken: "t"})

	assert.ErrorIs(t, err, repository.ErrDuplicateRegistration)
}

// Телефон уникален только в пределах кампании: тот же номер может участвовать в другой кампании
func TestMigrations_PhoneUniquePerCampaign(t *testing.T) {
	schemas := map[string]*regexp.Regexp{
		"postgres": regexp.MustCompile(`CREATE UNIQUE INDEX IF NOT EXISTS idx_participant_campaign_phone ON participants \(campaign_id, phone\)`),
		"mysql":    regexp.MustCompile(`UNIQUE KEY idx_participant_campaign_phone \(campaign_id, phone\)`),
	}
	phoneOnly := regexp.MustCompile(`(?i)UNIQUE[^\n]*\(phone\)`)

	for driver, want := range schemas {
		t.Run(driver, func(t *testing.T) {
			raw, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", driver, "000001_init_schema.up.sql"))
			require.NoError(t, err)

			assert.Regexp(t, want, string(raw))
			assert.NotRegexp(t, phoneOnly, string(raw))
		})
	}
}

func TestParticipantRepo_Create_SamePhoneOtherCampaign(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewParticipantRepo(db)

	mock.ExpectQuery(`INSERT INTO "participants"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))

	p := &entity.Participant{CampaignID: 2, Phone: "0912345678", SessionToken: "t2", Status: entity.ParticipantStatusStarted}
	err := repo.Create(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, uint(21), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%abc\%\_%`, likePattern(" ABC%_ "))
}
