package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Статусы участника
const (
	ParticipantStatusStarted    = "started"
	ParticipantStatusInProgress = "in_progress"
	ParticipantStatusCompleted  = "completed"
	ParticipantStatusAbandoned  = "abandoned"
)

// Participant представляет одну попытку одного человека в одной кампании
type Participant struct {
	ID             uint                      `gorm:"primaryKey" json:"id"`
	CampaignID     uint                      `gorm:"not null;index;uniqueIndex:idx_participant_campaign_phone;uniqueIndex:idx_participant_campaign_email" json:"campaign_id"`
	SessionToken   string                    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	FullName       string                    `gorm:"size:255;not null" json:"full_name"`
	Phone          string                    `gorm:"size:20;not null;uniqueIndex:idx_participant_campaign_phone" json:"phone"`
	Email          *string                   `gorm:"size:255;uniqueIndex:idx_participant_campaign_email" json:"email,omitempty"`
	Province       string                    `gorm:"size:100;not null;default:''" json:"province"`
	District       string                    `gorm:"size:100;not null;default:''" json:"district"`
	PharmacyCode   string                    `gorm:"size:50;not null;default:''" json:"pharmacy_code"`
	Status         string                    `gorm:"size:20;not null;default:'started';index" json:"status"`
	QuestionIDs    datatypes.JSONSlice[uint] `gorm:"type:json" json:"-"`
	Answers        datatypes.JSON            `gorm:"type:json" json:"answers,omitempty"`
	FinalScore     int                       `gorm:"not null;default:0" json:"final_score"`
	MaxScore       int                       `gorm:"not null;default:0" json:"max_score"`
	TotalQuestions int                       `gorm:"not null;default:0" json:"total_questions"`
	Passed         bool                      `gorm:"not null;default:false" json:"passed"`
	CompletionTime int                       `gorm:"not null;default:0" json:"completion_time"` // секунды
	GiftID         *uint                     `gorm:"index" json:"gift_id,omitempty"`
	GiftCode       *string                   `gorm:"size:50" json:"gift_code,omitempty"`
	IPAddress      string                    `gorm:"size:45;not null;default:''" json:"ip_address"`
	UserAgent      string                    `gorm:"type:text" json:"-"`
	StartedAt      *time.Time                `json:"started_at,omitempty"`
	CompletedAt    *time.Time                `json:"completed_at,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Participant) TableName() string {
	return "participants"
}

// IsCompleted проверяет, завершил ли участник викторину
func (p *Participant) IsCompleted() bool {
	return p.Status == ParticipantStatusCompleted
}

// CanSubmit проверяет, можно ли принять ответы участника
func (p *Participant) CanSubmit() bool {
	return p.Status == ParticipantStatusStarted || p.Status == ParticipantStatusInProgress
}

// HasGift сообщает, выдан ли участнику подарок
func (p *Participant) HasGift() bool {
	return p.GiftID != nil && p.GiftCode != nil
}

// CompletionResult содержит поля, фиксируемые при завершении викторины
type CompletionResult struct {
	FinalScore     int
	MaxScore       int
	TotalQuestions int
	Passed         bool
	Answers        datatypes.JSON
	CompletionTime int
	CompletedAt    time.Time
}
