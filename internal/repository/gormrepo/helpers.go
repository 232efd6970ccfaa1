package gormrepo

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// conn возвращает транзакцию, если она передана, иначе основное подключение
func conn(ctx context.Context, db *gorm.DB, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// likePattern экранирует спецсимволы LIKE и оборачивает строку в %...%
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(s))) + "%"
}
