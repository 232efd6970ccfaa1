package service

import (
	"math/rand/v2"
	"sort"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
)

// GiftSelector определяет порядок перебора подходящих подарков и решает,
// выигрывает ли участник конкретный подарок
type GiftSelector interface {
	Policy() string
	Order(candidates []entity.Gift) []entity.Gift
	Accept(gift *entity.Gift) bool
}

// DeterministicSelector выбирает подарок с наибольшим min_score.
// При равенстве: более узкий диапазон (меньший max_score, NULL последним), затем меньший ID.
type DeterministicSelector struct{}

func (DeterministicSelector) Policy() string { return entity.GiftPolicyDeterministic }

func (DeterministicSelector) Order(candidates []entity.Gift) []entity.Gift {
	ordered := append([]entity.Gift(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.MinScore != b.MinScore {
			return a.MinScore > b.MinScore
		}
		switch {
		case a.MaxScore != nil && b.MaxScore == nil:
			return true
		case a.MaxScore == nil && b.MaxScore != nil:
			return false
		case a.MaxScore != nil && b.MaxScore != nil && *a.MaxScore != *b.MaxScore:
			return *a.MaxScore < *b.MaxScore
		}
		return a.ID < b.ID
	})
	return ordered
}

func (DeterministicSelector) Accept(*entity.Gift) bool { return true }

// ProbabilisticSelector перебирает подарки по min_score DESC, probability DESC
// и выдает подарок, если случайное число из [0,100) меньше его probability
type ProbabilisticSelector struct {
	// Draw возвращает число из [0,100); по умолчанию math/rand/v2
	Draw func() int
}

// NewProbabilisticSelector создает селектор с генератором по умолчанию
func NewProbabilisticSelector() *ProbabilisticSelector {
	return &ProbabilisticSelector{Draw: func() int { return rand.IntN(100) }}
}

func (*ProbabilisticSelector) Policy() string { return entity.GiftPolicyProbabilistic }

func (*ProbabilisticSelector) Order(candidates []entity.Gift) []entity.Gift {
	ordered := append([]entity.Gift(nil), candidates...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.MinScore != b.MinScore {
			return a.MinScore > b.MinScore
		}
		if a.Probability != b.Probability {
			return a.Probability > b.Probability
		}
		return a.ID < b.ID
	})
	return ordered
}

func (s *ProbabilisticSelector) Accept(gift *entity.Gift) bool {
	if gift.Probability <= 0 {
		return false
	}
	if gift.Probability >= 100 {
		return true
	}
	return s.Draw() < gift.Probability
}
