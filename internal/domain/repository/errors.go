package repository

import "errors"

var (
	// ErrDuplicateRegistration означает, что телефон или email уже зарегистрирован в этой кампании.
	ErrDuplicateRegistration = errors.New("participant already registered for this campaign")
	// ErrAlreadyCompleted означает, что участник уже завершил викторину и результат зафиксирован.
	ErrAlreadyCompleted = errors.New("participant has already completed the quiz")
	// ErrGiftOutOfStock означает, что условное резервирование подарка не затронуло ни одной строки.
	ErrGiftOutOfStock = errors.New("gift is out of stock")
	// ErrDuplicateGiftCode означает коллизию кода подарка на уникальном индексе.
	ErrDuplicateGiftCode = errors.New("gift code already exists")
	// ErrAlreadyAwarded означает, что участнику уже выдан подарок (уникальность gift_awards.participant_id).
	ErrAlreadyAwarded = errors.New("participant already has a gift award")
	// ErrAttemptAbandoned означает, что попытка помечена брошенной и не может быть завершена.
	ErrAttemptAbandoned = errors.New("quiz attempt was abandoned")
	// ErrAlreadyClaimed означает повторное погашение кода подарка.
	ErrAlreadyClaimed = errors.New("gift code already claimed")
	// ErrDuplicateSlug означает, что slug кампании уже занят.
	ErrDuplicateSlug = errors.New("campaign slug already exists")
)
