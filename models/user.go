package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// User представляет сотрудника, работающего с реестром займов
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	FirstName string    `gorm:"column:first_name;not null;size:50"`
	LastName  string    `gorm:"column:last_name;not null;size:50"`
	Email     string    `gorm:"column:email;unique;not null;size:100;index"`
	Password  string    `gorm:"column:password;not null;size:100"` // bcrypt-хеш
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

// TableName возвращает имя таблицы для модели User
func (User) TableName() string {
	return "users"
}

// BeforeCreate хук для валидации перед созданием
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if len(u.FirstName) < 2 || len(u.FirstName) > 50 {
		return errors.New("имя должно быть от 2 до 50 символов")
	}
	if len(u.LastName) < 2 || len(u.LastName) > 50 {
		return errors.New("фамилия должна быть от 2 до 50 символов")
	}
	if len(u.Email) < 3 || len(u.Email) > 100 || !strings.Contains(u.Email, "@") {
		return errors.New("неверный формат email")
	}
	return nil
}
