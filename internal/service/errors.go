package service

import "errors"

// Ошибки бизнес-правил сервисов
var (
	// ErrCampaignClosed: кампания неактивна или вне окна проведения
	ErrCampaignClosed = errors.New("campaign is not open for participation")
	// ErrCampaignFull: достигнут лимит участников
	ErrCampaignFull = errors.New("campaign has reached its participant limit")
	// ErrGiftCodeExhausted: не удалось сгенерировать уникальный код за отведенное число попыток
	ErrGiftCodeExhausted = errors.New("could not generate a unique gift code")
	// ErrNoQuestions: в кампании нет активных вопросов
	ErrNoQuestions = errors.New("campaign has no active questions")
	// ErrAttemptExpired: попытка помечена как брошенная и больше не принимает ответы
	ErrAttemptExpired = errors.New("quiz attempt has expired")
	// ErrInvalidCredentials: неверный логин или пароль администратора
	ErrInvalidCredentials = errors.New("invalid username or password")
)
