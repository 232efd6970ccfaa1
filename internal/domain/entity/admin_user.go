package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Права администратора
const (
	CapManageCampaigns    = "manage_campaigns"
	CapManageQuestions    = "manage_questions"
	CapManageGifts        = "manage_gifts"
	CapManageParticipants = "manage_participants"
	CapExportData         = "export_data"
	CapViewAnalytics      = "view_analytics"
)

// AllCapabilities возвращает полный набор прав (для bootstrap-администратора)
func AllCapabilities() StringArray {
	return StringArray{
		CapManageCampaigns,
		CapManageQuestions,
		CapManageGifts,
		CapManageParticipants,
		CapExportData,
		CapViewAnalytics,
	}
}

// StringArray - пользовательский тип для хранения списка строк в JSON-колонке
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
func (o *StringArray) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v) // MySQL драйвер может вернуть строку
	default:
		return errors.New("failed to unmarshal JSON value: expected []byte or string")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Contains проверяет наличие значения
func (o StringArray) Contains(v string) bool {
	for _, s := range o {
		if s == v {
			return true
		}
	}
	return false
}

// AdminUser представляет администратора панели управления
type AdminUser struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Username     string      `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Password     string      `gorm:"size:100;not null" json:"-"`
	Capabilities StringArray `gorm:"type:json" json:"capabilities"`
	IsActive     bool        `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (AdminUser) TableName() string {
	return "admin_users"
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (u *AdminUser) BeforeSave(tx *gorm.DB) error {
	if len(u.Password) > 0 && !isBcryptHash(u.Password) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hashed)
	}
	return nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (u *AdminUser) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// Can проверяет наличие права
func (u *AdminUser) Can(capability string) bool {
	return u.Capabilities.Contains(capability)
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
