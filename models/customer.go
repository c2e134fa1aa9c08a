package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// CustomerStatus представляет статус заемщика
type CustomerStatus string

const (
	CustomerStatusActive  CustomerStatus = "Active"
	CustomerStatusDeleted CustomerStatus = "Deleted"
)

// Customer представляет заемщика
type Customer struct {
	CustomerID uint           `json:"customer_id" gorm:"column:customer_id;primaryKey;autoIncrement"`
	FirstName  string         `json:"first_name" gorm:"column:first_name;not null;size:50"`
	LastName   string         `json:"last_name" gorm:"column:last_name;not null;size:50"`
	Contact    string         `json:"contact" gorm:"column:contact;size:50"`
	Address    string         `json:"address" gorm:"column:address;size:255"`
	Email      string         `json:"email" gorm:"column:email;size:100;index"`
	Status     CustomerStatus `json:"status" gorm:"column:status;type:varchar(20);not null;default:'Active'"`
	Loans      []Loan         `json:"loans,omitempty" gorm:"foreignKey:CustomerID"`
	CreatedAt  time.Time      `json:"created_at" gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time      `json:"updated_at" gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

// TableName возвращает имя таблицы для модели Customer
func (Customer) TableName() string {
	return "customers"
}

// BeforeCreate хук для валидации перед созданием
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if len(c.FirstName) < 2 || len(c.FirstName) > 50 {
		return errors.New("first name must be between 2 and 50 characters")
	}
	if len(c.LastName) < 2 || len(c.LastName) > 50 {
		return errors.New("last name must be between 2 and 50 characters")
	}
	return nil
}
