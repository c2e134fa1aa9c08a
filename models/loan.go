package models

import (
	"time"
)

// LoanStatus представляет статус займа
type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "Active"    // Действующий заем
	LoanStatusCompleted LoanStatus = "Completed" // Полностью погашенный заем
	LoanStatusDeleted   LoanStatus = "Deleted"   // Удаленный заем (мягкое удаление)
)

// Loan представляет заем
type Loan struct {
	LoanID          uint       `json:"loan_id" gorm:"column:loan_id;primaryKey;autoIncrement"`
	CustomerID      uint       `json:"customer_id" gorm:"column:customer_id;not null;index"`
	Customer        Customer   `json:"customer,omitempty" gorm:"foreignKey:CustomerID;references:CustomerID"`
	LoanStart       time.Time  `json:"loan_start" gorm:"column:loan_start;not null"`
	LoanEnd         time.Time  `json:"loan_end" gorm:"column:loan_end;not null"`
	Months          int        `json:"months" gorm:"column:months;not null"`
	LoanAmount      float64    `json:"loan_amount" gorm:"column:loan_amount;type:decimal(20,2);not null"`
	Interest        float64    `json:"interest" gorm:"column:interest;type:decimal(20,2);not null;default:0"`
	GrossReceivable float64    `json:"gross_receivable" gorm:"column:gross_receivable;type:decimal(20,2);not null"`
	PaydayPayment   float64    `json:"payday_payment" gorm:"column:payday_payment;type:decimal(20,2);not null"`
	Service         float64    `json:"service" gorm:"column:service;type:decimal(20,2);not null;default:0"`
	Balance         float64    `json:"balance" gorm:"column:balance;type:decimal(20,2);not null"`
	Adjustment      float64    `json:"adjustment" gorm:"column:adjustment;type:decimal(20,2);not null;default:0"`
	OverallBalance  float64    `json:"overall_balance" gorm:"column:overall_balance;type:decimal(20,2);not null"`
	Status          LoanStatus `json:"status" gorm:"column:status;type:varchar(20);not null;default:'Active'"`
	Receipts        []Receipt  `json:"receipts,omitempty" gorm:"foreignKey:LoanID"`
	CreatedAt       time.Time  `json:"created_at" gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

// TableName возвращает имя таблицы для модели Loan
func (Loan) TableName() string {
	return "loan"
}
