package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Статусы выданного подарка
const (
	GiftAwardStatusUnclaimed = "unclaimed"
	GiftAwardStatusClaimed   = "claimed"
)

// Статусы обращения к внешнему API подарка
const (
	GiftAPIStatusNone    = ""
	GiftAPIStatusSent    = "sent"
	GiftAPIStatusFailed  = "failed"
	GiftAPIStatusSkipped = "skipped"
)

// GiftAward: одноразовый код подарка, выданный участнику
type GiftAward struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	GiftID        uint           `gorm:"not null;index" json:"gift_id"`
	CampaignID    uint           `gorm:"not null;index" json:"campaign_id"`
	ParticipantID uint           `gorm:"not null;uniqueIndex" json:"participant_id"`
	Code          string         `gorm:"size:50;not null;uniqueIndex" json:"code"`
	Status        string         `gorm:"size:20;not null;default:'unclaimed'" json:"status"`
	ClaimedAt     *time.Time     `json:"claimed_at,omitempty"`
	APIStatus     string         `gorm:"size:20;not null;default:''" json:"api_status"`
	APIResponse   datatypes.JSON `gorm:"type:json" json:"api_response,omitempty"`
	Gift          *Gift          `gorm:"foreignKey:GiftID;constraint:-" json:"gift,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (GiftAward) TableName() string {
	return "gift_awards"
}

// IsClaimed проверяет, погашен ли код
func (a *GiftAward) IsClaimed() bool {
	return a.Status == GiftAwardStatusClaimed
}
