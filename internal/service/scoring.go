package service

import (
	"strings"

	"github.com/yourusername/vefify-quiz/internal/domain/entity"
)

// SubmittedAnswer содержит ответ участника на один вопрос: выбранные варианты или свободный текст
type SubmittedAnswer struct {
	OptionIDs []uint `json:"option_ids,omitempty"`
	Text      string `json:"text,omitempty"`
}

// QuestionScore: результат проверки одного вопроса (сохраняется в participants.answers)
type QuestionScore struct {
	QuestionID uint   `json:"question_id"`
	OptionIDs  []uint `json:"option_ids,omitempty"`
	Text       string `json:"text,omitempty"`
	Correct    bool   `json:"correct"`
	Points     int    `json:"points"`
}

// ScoreResult: итог проверки викторины
type ScoreResult struct {
	FinalScore int             `json:"final_score"`
	MaxScore   int             `json:"max_score"`
	Correct    int             `json:"correct"`
	Total      int             `json:"total"`
	Passed     bool            `json:"passed"`
	Details    []QuestionScore `json:"details"`
}

// ScoreAnswers проверяет ответы по набору вопросов.
// Вопрос засчитывается только при точном совпадении множеств вариантов, частичных баллов нет.
// Без взвешивания каждый верный вопрос дает 1 балл, со взвешиванием: points вопроса.
func ScoreAnswers(questions []entity.Question, answers map[uint]SubmittedAnswer, weighted bool, passScore int) ScoreResult {
	result := ScoreResult{
		Total:   len(questions),
		Details: make([]QuestionScore, 0, len(questions)),
	}

	for i := range questions {
		q := &questions[i]
		weight := 1
		if weighted {
			weight = q.Points
			if weight < 1 {
				weight = 1
			}
		}
		result.MaxScore += weight

		answer, answered := answers[q.ID]
		detail := QuestionScore{
			QuestionID: q.ID,
			OptionIDs:  dedupeIDs(answer.OptionIDs),
			Text:       strings.TrimSpace(answer.Text),
		}
		if answered && IsAnswerCorrect(q, answer) {
			detail.Correct = true
			detail.Points = weight
			result.Correct++
			result.FinalScore += weight
		}
		result.Details = append(result.Details, detail)
	}

	result.Passed = result.FinalScore >= passScore
	return result
}

// IsAnswerCorrect сравнивает ответ с правильными вариантами вопроса
func IsAnswerCorrect(q *entity.Question, answer SubmittedAnswer) bool {
	if q.Type == entity.QuestionTypeText {
		text := strings.TrimSpace(answer.Text)
		if text == "" {
			return false
		}
		for _, opt := range q.Options {
			if opt.IsCorrect && strings.EqualFold(strings.TrimSpace(opt.Text), text) {
				return true
			}
		}
		return false
	}

	correct := q.CorrectOptionIDs()
	// Вопрос без правильного варианта не может быть засчитан
	if len(correct) == 0 {
		return false
	}
	return SameOptionSet(correct, answer.OptionIDs)
}

// SameOptionSet сравнивает два набора ID как множества
func SameOptionSet(a, b []uint) bool {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) != len(setB) {
		return false
	}
	for id := range setA {
		if _, ok := setB[id]; !ok {
			return false
		}
	}
	return true
}

func toSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func dedupeIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
