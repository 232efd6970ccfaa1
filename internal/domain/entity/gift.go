package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Типы подарков
const (
	GiftTypeVoucher  = "voucher"
	GiftTypeDiscount = "discount"
	GiftTypeProduct  = "product"
	GiftTypePoints   = "points"
)

// Gift представляет подарок кампании с диапазоном баллов и ограниченным (или нет) запасом
type Gift struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	CampaignID  uint              `gorm:"not null;index" json:"campaign_id"`
	Name        string            `gorm:"size:255;not null" json:"name"`
	Description string            `gorm:"type:text" json:"description"`
	Type        string            `gorm:"size:20;not null;default:'voucher'" json:"type"`
	Value       decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"value"`
	CodePrefix  string            `gorm:"size:20;not null;default:''" json:"code_prefix"`
	MinScore    int               `gorm:"not null;default:0" json:"min_score"`
	MaxScore    *int              `json:"max_score"`    // nil = без верхней границы
	MaxQuantity *int              `json:"max_quantity"` // nil = без ограничений
	UsedCount   int               `gorm:"not null;default:0" json:"used_count"`
	Probability int               `gorm:"not null;default:100" json:"probability"` // 0..100, для вероятностной политики
	IsActive    bool              `gorm:"not null;default:true;index" json:"is_active"`
	APIEndpoint string            `gorm:"size:500;not null;default:''" json:"api_endpoint"`
	APIParams   datatypes.JSONMap `gorm:"type:json" json:"api_params,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Gift) TableName() string {
	return "gifts"
}

// MatchesScore проверяет, попадает ли балл в диапазон [min_score, max_score]
func (g *Gift) MatchesScore(score int) bool {
	if score < g.MinScore {
		return false
	}
	if g.MaxScore != nil && score > *g.MaxScore {
		return false
	}
	return true
}

// HasInventory проверяет остаток подарка
func (g *Gift) HasInventory() bool {
	return g.MaxQuantity == nil || g.UsedCount < *g.MaxQuantity
}

// Remaining возвращает остаток; -1 означает неограниченный запас
func (g *Gift) Remaining() int {
	if g.MaxQuantity == nil {
		return -1
	}
	left := *g.MaxQuantity - g.UsedCount
	if left < 0 {
		return 0
	}
	return left
}

// IsEligible объединяет все условия кандидатуры подарка для участника кампании
func (g *Gift) IsEligible(campaignID uint, score int) bool {
	return g.CampaignID == campaignID && g.IsActive && g.MatchesScore(score) && g.HasInventory()
}

// IsValidGiftType проверяет тип подарка
func IsValidGiftType(t string) bool {
	switch t {
	case GiftTypeVoucher, GiftTypeDiscount, GiftTypeProduct, GiftTypePoints:
		return true
	}
	return false
}
