package models

import (
	"time"
)

// ReceiptStatus представляет статус планового платежа
type ReceiptStatus string

const (
	ReceiptStatusNotPaid ReceiptStatus = "Not paid" // Платеж не внесен или внесен частично
	ReceiptStatusPaid    ReceiptStatus = "Paid"     // Платеж внесен полностью
)

// Receipt представляет плановый платеж (рассрочку) по займу.
// Записи создаются в порядке дат графика, поэтому возрастание pay_id
// совпадает с хронологическим порядком графика.
type Receipt struct {
	PayID           uint          `json:"pay_id" gorm:"column:pay_id;primaryKey;autoIncrement"`
	LoanID          uint          `json:"loan_id" gorm:"column:loan_id;not null;index"`
	Loan            Loan          `json:"-" gorm:"foreignKey:LoanID;references:LoanID"`
	Amount          float64       `json:"amount" gorm:"column:amount;type:decimal(20,2);not null;default:0"` // Фактически внесенная сумма
	ToPay           float64       `json:"to_pay" gorm:"column:to_pay;type:decimal(20,2);not null"`           // Сумма к оплате
	Schedule        time.Time     `json:"schedule" gorm:"column:schedule;not null"`                           // Плановая дата платежа
	Status          ReceiptStatus `json:"status" gorm:"column:status;type:varchar(20);not null;default:'Not paid'"`
	TransactionTime *time.Time    `json:"transaction_time,omitempty" gorm:"column:transaction_time"` // Дата последнего внесения средств
	CreatedAt       time.Time     `json:"created_at" gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

// TableName возвращает имя таблицы для модели Receipt
func (Receipt) TableName() string {
	return "receipt"
}

// Outstanding возвращает непогашенный остаток по плановому платежу
func (r Receipt) Outstanding() float64 {
	rest := r.ToPay - r.Amount
	if rest < 0 {
		return 0
	}
	return rest
}
