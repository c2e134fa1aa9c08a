package models

import (
	"time"
)

// PaymentHistory представляет запись в истории платежей.
// Записи только добавляются и никогда не изменяются и не удаляются.
type PaymentHistory struct {
	HistoryID       uint      `json:"history_id" gorm:"column:history_id;primaryKey;autoIncrement"`
	LoanID          uint      `json:"loan_id" gorm:"column:loan_id;not null;index"`
	PayID           uint      `json:"pay_id" gorm:"column:pay_id;not null"` // Последний затронутый плановый платеж
	Amount          float64   `json:"amount" gorm:"column:amount;type:decimal(20,2);not null"`
	PaymentMethod   string    `json:"payment_method" gorm:"column:payment_method;size:50"`
	Notes           string    `json:"notes" gorm:"column:notes;size:255"`
	TransactionTime time.Time `json:"transaction_time" gorm:"column:transaction_time;not null"`
	CreatedAt       time.Time `json:"created_at" gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

// TableName возвращает имя таблицы для модели PaymentHistory
func (PaymentHistory) TableName() string {
	return "paymentHistory"
}
