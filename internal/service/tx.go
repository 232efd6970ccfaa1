package service

import (
	"context"

	"gorm.io/gorm"
)

// TxRunner выполняет функцию в транзакции БД
type TxRunner interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GormTxRunner реализует TxRunner через gorm
type GormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner создает TxRunner поверх подключения gorm
func NewGormTxRunner(db *gorm.DB) *GormTxRunner {
	return &GormTxRunner{db: db}
}

// Transaction открывает транзакцию; ошибка fn откатывает её
func (r *GormTxRunner) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
