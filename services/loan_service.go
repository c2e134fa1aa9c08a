package services

import (
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"lendingProject/config"
	"lendingProject/models"
	"lendingProject/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CreateLoanDTO представляет данные для создания займа
type CreateLoanDTO struct {
	CustomerID uint      `json:"customer_id" validate:"required"`
	LoanAmount float64   `json:"loan_amount" validate:"required,gt=0"`
	Months     int       `json:"months" validate:"required,gt=0"`
	LoanStart  time.Time `json:"loan_start"`
	Interest   float64   `json:"interest" validate:"gte=0"` // Процентная ставка
	// UseCentralBankRate — взять ставку ЦБ с маржой вместо заданной
	UseCentralBankRate bool    `json:"use_central_bank_rate"`
	Service            float64 `json:"service" validate:"gte=0"`    // Сервисный сбор
	Adjustment         float64 `json:"adjustment" validate:"gte=0"` // Корректировка к общему балансу
}

// ReceiptDTO представляет плановый платеж
type ReceiptDTO struct {
	PayID           uint       `json:"pay_id"`
	Schedule        time.Time  `json:"schedule"`
	ToPay           float64    `json:"to_pay"`
	Amount          float64    `json:"amount"`
	Status          string     `json:"status"`
	TransactionTime *time.Time `json:"transaction_time,omitempty"`
}

// LoanResponseDTO представляет ответ с данными займа
type LoanResponseDTO struct {
	LoanID          uint         `json:"loan_id"`
	CustomerID      uint         `json:"customer_id"`
	LoanStart       time.Time    `json:"loan_start"`
	LoanEnd         time.Time    `json:"loan_end"`
	Months          int          `json:"months"`
	LoanAmount      float64      `json:"loan_amount"`
	Interest        float64      `json:"interest"`
	GrossReceivable float64      `json:"gross_receivable"`
	PaydayPayment   float64      `json:"payday_payment"`
	Service         float64      `json:"service"`
	Balance         float64      `json:"balance"`
	Adjustment      float64      `json:"adjustment"`
	OverallBalance  float64      `json:"overall_balance"`
	Status          string       `json:"status"`
	Receipts        []ReceiptDTO `json:"receipts"`
	Customer        CustomerDTO  `json:"customer"`
}

// DashboardDTO представляет сводку для панели управления
type DashboardDTO struct {
	ActiveLoans      int64   `json:"active_loans"`
	CompletedLoans   int64   `json:"completed_loans"`
	Customers        int64   `json:"customers"`
	TotalOutstanding float64 `json:"total_outstanding"`
	TotalCollected   float64 `json:"total_collected"`
}

// LoanService предоставляет методы для работы с займами
type LoanService struct {
	db        *gorm.DB
	validator *validator.Validate
	email     *EmailService
	config    *config.Config
}

// NewLoanService создает новый экземпляр LoanService
func NewLoanService(db *gorm.DB, email *EmailService, cfg *config.Config) *LoanService {
	return &LoanService{
		db:        db,
		validator: validator.New(),
		email:     email,
		config:    cfg,
	}
}

// round2 округляет сумму до копеек
func round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// generateSchedule генерирует график плановых платежей.
// Общая дебиторская задолженность делится на равные доли,
// даты следуют с шагом в один календарный месяц от начала займа.
func (s *LoanService) generateSchedule(loan *models.Loan) []models.Receipt {
	receipts := make([]models.Receipt, loan.Months)

	for i := 0; i < loan.Months; i++ {
		receipts[i] = models.Receipt{
			LoanID:   loan.LoanID,
			Schedule: loan.LoanStart.AddDate(0, i, 0),
			ToPay:    loan.PaydayPayment,
			Amount:   0,
			Status:   models.ReceiptStatusNotPaid,
		}
	}

	return receipts
}

// toReceiptDTO конвертирует модель Receipt в DTO
func toReceiptDTO(receipt models.Receipt) ReceiptDTO {
	return ReceiptDTO{
		PayID:           receipt.PayID,
		Schedule:        receipt.Schedule,
		ToPay:           receipt.ToPay,
		Amount:          receipt.Amount,
		Status:          string(receipt.Status),
		TransactionTime: receipt.TransactionTime,
	}
}

// toLoanResponseDTO конвертирует модель Loan в DTO
func toLoanResponseDTO(loan models.Loan, receipts []models.Receipt, customer models.Customer) *LoanResponseDTO {
	receiptDTOs := make([]ReceiptDTO, len(receipts))
	for i, receipt := range receipts {
		receiptDTOs[i] = toReceiptDTO(receipt)
	}

	return &LoanResponseDTO{
		LoanID:          loan.LoanID,
		CustomerID:      loan.CustomerID,
		LoanStart:       loan.LoanStart,
		LoanEnd:         loan.LoanEnd,
		Months:          loan.Months,
		LoanAmount:      loan.LoanAmount,
		Interest:        loan.Interest,
		GrossReceivable: loan.GrossReceivable,
		PaydayPayment:   loan.PaydayPayment,
		Service:         loan.Service,
		Balance:         loan.Balance,
		Adjustment:      loan.Adjustment,
		OverallBalance:  loan.OverallBalance,
		Status:          string(loan.Status),
		Receipts:        receiptDTOs,
		Customer:        toCustomerDTO(customer),
	}
}

// Create создает новый заем вместе с графиком плановых платежей.
// Заем и все его плановые платежи сохраняются одной транзакцией.
func (s *LoanService) Create(dto CreateLoanDTO) (*LoanResponseDTO, error) {
	// Валидируем DTO
	if err := s.validator.Struct(dto); err != nil {
		return nil, translateValidationErrors(err)
	}

	// Определяем процентную ставку: заданная или ставка ЦБ с маржой
	rate := dto.Interest
	if dto.UseCentralBankRate {
		keyRate, err := GetCentralBankRate(s.config.CentralBank.URL)
		if err != nil {
			return nil, errors.New("ошибка при получении ставки центрального банка")
		}
		rate = keyRate + s.config.CentralBank.Margin
	}

	// Рассчитываем даты
	startDate := dto.LoanStart
	if startDate.IsZero() {
		startDate = time.Now()
	}
	endDate := startDate.AddDate(0, dto.Months, 0)

	// Рассчитываем дебиторскую задолженность
	interestAmount := round2(dto.LoanAmount * rate / 100)
	grossReceivable := round2(dto.LoanAmount + interestAmount + dto.Service)
	paydayPayment := round2(grossReceivable / float64(dto.Months))

	loan := &models.Loan{
		CustomerID:      dto.CustomerID,
		LoanStart:       startDate,
		LoanEnd:         endDate,
		Months:          dto.Months,
		LoanAmount:      dto.LoanAmount,
		Interest:        interestAmount,
		GrossReceivable: grossReceivable,
		PaydayPayment:   paydayPayment,
		Service:         dto.Service,
		Balance:         grossReceivable,
		Adjustment:      dto.Adjustment,
		OverallBalance:  round2(grossReceivable + dto.Adjustment),
		Status:          models.LoanStatusActive,
	}

	// Начинаем транзакцию
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, errors.New("ошибка при начале транзакции")
	}

	// Проверяем существование заемщика
	var customer models.Customer
	if err := tx.First(&customer, dto.CustomerID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("заемщик не найден")
		}
		return nil, errors.New("ошибка при поиске заемщика")
	}

	if customer.Status != models.CustomerStatusActive {
		tx.Rollback()
		return nil, errors.New("заемщик удален")
	}

	// Сохраняем заем
	if err := tx.Create(loan).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("ошибка при создании займа")
	}

	// Генерируем график платежей
	receipts := s.generateSchedule(loan)

	// Сохраняем плановые платежи
	for i := range receipts {
		if err := tx.Create(&receipts[i]).Error; err != nil {
			tx.Rollback()
			return nil, errors.New("ошибка при создании планового платежа")
		}
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("ошибка при подтверждении транзакции")
	}

	utils.GetMetrics().RecordLoanOperation("create")

	// Отправляем уведомление о выдаче займа
	if s.email != nil && customer.Email != "" {
		if err := s.email.SendLoanIssuedNotification(customer.Email, loan.LoanID, loan.GrossReceivable, loan.Months); err != nil {
			// Логируем ошибку, но не прерываем операцию
			log.Printf("Ошибка при отправке уведомления: %v", err)
		}
	}

	return toLoanResponseDTO(*loan, receipts, customer), nil
}

// GetLoanByID возвращает заем по ID
func (s *LoanService) GetLoanByID(id uint) (*models.Loan, error) {
	var loan models.Loan
	if err := s.db.Preload("Customer").
		Preload("Receipts", func(db *gorm.DB) *gorm.DB {
			return db.Order("receipt.pay_id ASC")
		}).
		First(&loan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("заем не найден")
		}
		return nil, err
	}
	return &loan, nil
}

// ListActiveLoans возвращает все действующие займы
func (s *LoanService) ListActiveLoans() ([]models.Loan, error) {
	var loans []models.Loan
	if err := s.db.Where("status = ?", models.LoanStatusActive).
		Preload("Customer").
		Order("loan_id ASC").
		Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

// GetInstallments возвращает график плановых платежей по займу
func (s *LoanService) GetInstallments(loanID uint) ([]models.Receipt, error) {
	// Проверяем существование займа
	var loan models.Loan
	if err := s.db.First(&loan, loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("заем не найден")
		}
		return nil, err
	}

	var receipts []models.Receipt
	if err := s.db.Where("loan_id = ?", loanID).
		Order("pay_id ASC").
		Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

// Delete выполняет мягкое удаление займа.
// Запись остается в базе, история платежей сохраняется.
func (s *LoanService) Delete(loanID uint) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return errors.New("ошибка при начале транзакции")
	}

	var loan models.Loan
	if err := tx.First(&loan, loanID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("заем не найден")
		}
		return errors.New("ошибка при поиске займа")
	}

	if loan.Status == models.LoanStatusDeleted {
		tx.Rollback()
		return errors.New("заем уже удален")
	}

	loan.Status = models.LoanStatusDeleted
	loan.UpdatedAt = time.Now()

	if err := tx.Save(&loan).Error; err != nil {
		tx.Rollback()
		return errors.New("ошибка при удалении займа")
	}

	if err := tx.Commit().Error; err != nil {
		return errors.New("ошибка при подтверждении транзакции")
	}

	utils.GetMetrics().RecordLoanOperation("delete")
	return nil
}

// GetDashboard возвращает сводку для панели управления
func (s *LoanService) GetDashboard() (*DashboardDTO, error) {
	dashboard := &DashboardDTO{}

	if err := s.db.Model(&models.Loan{}).
		Where("status = ?", models.LoanStatusActive).
		Count(&dashboard.ActiveLoans).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Loan{}).
		Where("status = ?", models.LoanStatusCompleted).
		Count(&dashboard.CompletedLoans).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Customer{}).
		Where("status = ?", models.CustomerStatusActive).
		Count(&dashboard.Customers).Error; err != nil {
		return nil, err
	}

	var outstanding *float64
	if err := s.db.Model(&models.Loan{}).
		Where("status = ?", models.LoanStatusActive).
		Select("SUM(balance)").
		Scan(&outstanding).Error; err != nil {
		return nil, err
	}
	if outstanding != nil {
		dashboard.TotalOutstanding = round2(*outstanding)
	}

	var collected *float64
	if err := s.db.Model(&models.PaymentHistory{}).
		Select("SUM(amount)").
		Scan(&collected).Error; err != nil {
		return nil, err
	}
	if collected != nil {
		dashboard.TotalCollected = round2(*collected)
	}

	return dashboard, nil
}

// translateValidationErrors переводит ошибки валидации в сообщения
func translateValidationErrors(err error) error {
	validationErrors := err.(validator.ValidationErrors)
	var errorMessages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
		case "gt":
			errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть больше 0")
		case "gte":
			errorMessages = append(errorMessages, "поле "+e.Field()+" не должно быть отрицательным")
		}
	}
	return errors.New(strings.Join(errorMessages, "; "))
}
