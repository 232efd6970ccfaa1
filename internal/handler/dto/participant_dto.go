package dto

import "github.com/yourusername/vefify-quiz/internal/service"

// RegisterRequest: форма регистрации участника
type RegisterRequest struct {
	FullName     string `json:"full_name" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	Email        string `json:"email"`
	Province     string `json:"province"`
	District     string `json:"district"`
	PharmacyCode string `json:"pharmacy_code"`
}

// RegisterResponse возвращает токен сессии для последующих шагов
type RegisterResponse struct {
	ParticipantID uint   `json:"participant_id"`
	CampaignID    uint   `json:"campaign_id"`
	SessionToken  string `json:"session_token"`
	Status        string `json:"status"`
}

// CheckPhoneRequest: номер для предварительной проверки
type CheckPhoneRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// AnswerRequest: ответ на один вопрос
type AnswerRequest struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	OptionIDs  []uint `json:"option_ids"`
	Text       string `json:"text"`
}

// SubmitRequest: ответы участника
type SubmitRequest struct {
	Answers []AnswerRequest `json:"answers" binding:"dive"`
}

// ToAnswers собирает ответы по ID вопроса; при повторе вопроса побеждает последний ответ
func (r *SubmitRequest) ToAnswers() map[uint]service.SubmittedAnswer {
	out := make(map[uint]service.SubmittedAnswer, len(r.Answers))
	for _, a := range r.Answers {
		out[a.QuestionID] = service.SubmittedAnswer{OptionIDs: a.OptionIDs, Text: a.Text}
	}
	return out
}

// BulkDeleteRequest: ID участников для удаления
type BulkDeleteRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// LoginRequest: учетные данные администратора
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
