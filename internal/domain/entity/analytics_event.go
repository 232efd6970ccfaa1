package entity

import (
	"time"

	"gorm.io/datatypes"
)

// AnalyticsEvent: запись аналитики по кампании
type AnalyticsEvent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CampaignID    uint           `gorm:"not null;index" json:"campaign_id"`
	ParticipantID *uint          `gorm:"index" json:"participant_id,omitempty"`
	EventType     string         `gorm:"size:50;not null;index" json:"event_type"`
	Data          datatypes.JSON `gorm:"type:json" json:"data,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}
