package services

import (
	"errors"
	"time"

	"lendingProject/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CustomerDTO представляет данные заемщика
type CustomerDTO struct {
	CustomerID uint   `json:"customer_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Contact    string `json:"contact"`
	Address    string `json:"address"`
	Email      string `json:"email"`
}

// CreateCustomerDTO представляет данные для создания заемщика
type CreateCustomerDTO struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=50"`
	LastName  string `json:"last_name" validate:"required,min=2,max=50"`
	Contact   string `json:"contact" validate:"omitempty,max=50"`
	Address   string `json:"address" validate:"omitempty,max=255"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// UpdateCustomerDTO представляет данные для обновления заемщика
type UpdateCustomerDTO struct {
	FirstName string `json:"first_name" validate:"omitempty,min=2,max=50"`
	LastName  string `json:"last_name" validate:"omitempty,min=2,max=50"`
	Contact   string `json:"contact" validate:"omitempty,max=50"`
	Address   string `json:"address" validate:"omitempty,max=255"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// CustomerService предоставляет методы для работы с заемщиками
type CustomerService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewCustomerService создает новый экземпляр CustomerService
func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{
		db:        db,
		validator: validator.New(),
	}
}

// toCustomerDTO конвертирует модель Customer в DTO
func toCustomerDTO(customer models.Customer) CustomerDTO {
	return CustomerDTO{
		CustomerID: customer.CustomerID,
		FirstName:  customer.FirstName,
		LastName:   customer.LastName,
		Contact:    customer.Contact,
		Address:    customer.Address,
		Email:      customer.Email,
	}
}

// Create создает нового заемщика
func (s *CustomerService) Create(dto CreateCustomerDTO) (*models.Customer, error) {
	// Валидируем DTO
	if err := s.validator.Struct(dto); err != nil {
		return nil, translateValidationErrors(err)
	}

	customer := &models.Customer{
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Contact:   dto.Contact,
		Address:   dto.Address,
		Email:     dto.Email,
		Status:    models.CustomerStatusActive,
	}

	if err := s.db.Create(customer).Error; err != nil {
		return nil, errors.New("ошибка при создании заемщика")
	}

	return customer, nil
}

// GetByID возвращает заемщика по ID
func (s *CustomerService) GetByID(id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("заемщик не найден")
		}
		return nil, err
	}
	return &customer, nil
}

// List возвращает всех действующих заемщиков
func (s *CustomerService) List() ([]models.Customer, error) {
	var customers []models.Customer
	if err := s.db.Where("status = ?", models.CustomerStatusActive).
		Order("customer_id ASC").
		Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// Update обновляет данные заемщика
func (s *CustomerService) Update(id uint, dto UpdateCustomerDTO) (*models.Customer, error) {
	// Валидируем DTO
	if err := s.validator.Struct(dto); err != nil {
		return nil, translateValidationErrors(err)
	}

	customer, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if dto.FirstName != "" {
		customer.FirstName = dto.FirstName
	}
	if dto.LastName != "" {
		customer.LastName = dto.LastName
	}
	if dto.Contact != "" {
		customer.Contact = dto.Contact
	}
	if dto.Address != "" {
		customer.Address = dto.Address
	}
	if dto.Email != "" {
		customer.Email = dto.Email
	}
	customer.UpdatedAt = time.Now()

	if err := s.db.Save(customer).Error; err != nil {
		return nil, errors.New("ошибка при обновлении заемщика")
	}

	return customer, nil
}

// Delete выполняет мягкое удаление заемщика.
// Заемщика с действующими займами удалить нельзя.
func (s *CustomerService) Delete(id uint) error {
	customer, err := s.GetByID(id)
	if err != nil {
		return err
	}

	// Проверяем, нет ли действующих займов
	var activeLoans int64
	if err := s.db.Model(&models.Loan{}).
		Where("customer_id = ? AND status = ?", id, models.LoanStatusActive).
		Count(&activeLoans).Error; err != nil {
		return errors.New("ошибка при проверке займов заемщика")
	}
	if activeLoans > 0 {
		return errors.New("у заемщика есть действующие займы")
	}

	customer.Status = models.CustomerStatusDeleted
	customer.UpdatedAt = time.Now()

	if err := s.db.Save(customer).Error; err != nil {
		return errors.New("ошибка при удалении заемщика")
	}

	return nil
}
