package services

import (
	"errors"
	"log"
	"time"

	"lendingProject/models"
	"lendingProject/utils"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PayLoanDTO представляет данные для внесения платежа
type PayLoanDTO struct {
	LoanID          uint      `json:"-" validate:"required"`
	PayID           uint      `json:"pay_id" validate:"required"`
	Amount          float64   `json:"amount" validate:"required,gt=0"`
	TransactionTime time.Time `json:"transaction_time"`
	PaymentMethod   string    `json:"payment_method" validate:"required"`
	Notes           string    `json:"notes"`
}

// PaymentOutcome представляет исход платежа
type PaymentOutcome string

const (
	// PaymentApplied — платеж распределен полностью
	PaymentApplied PaymentOutcome = "APPLIED"
	// PaymentAppliedWithRemainder — после распределения остался нераспределенный остаток
	PaymentAppliedWithRemainder PaymentOutcome = "APPLIED_WITH_REMAINDER"
)

// PaymentHistoryDTO представляет запись истории платежей
type PaymentHistoryDTO struct {
	HistoryID       uint      `json:"history_id"`
	LoanID          uint      `json:"loan_id"`
	PayID           uint      `json:"pay_id"`
	Amount          float64   `json:"amount"`
	PaymentMethod   string    `json:"payment_method"`
	Notes           string    `json:"notes"`
	TransactionTime time.Time `json:"transaction_time"`
}

// PaymentResultDTO представляет результат платежа
type PaymentResultDTO struct {
	Outcome    PaymentOutcome    `json:"outcome"`
	NewBalance float64           `json:"new_balance"`
	Remainder  float64           `json:"remainder"` // Нераспределенный остаток; 0 при полном распределении
	LoanStatus string            `json:"loan_status"`
	Receipts   []ReceiptDTO      `json:"receipts"` // Затронутые плановые платежи
	History    PaymentHistoryDTO `json:"history"`
}

// PaymentService распределяет платежи по плановым платежам займа
type PaymentService struct {
	db        *gorm.DB
	validator *validator.Validate
	email     *EmailService
	loanLocks *utils.KeyedMutex
}

// NewPaymentService создает новый экземпляр PaymentService
func NewPaymentService(db *gorm.DB, email *EmailService) *PaymentService {
	return &PaymentService{
		db:        db,
		validator: validator.New(),
		email:     email,
		loanLocks: utils.NewKeyedMutex(),
	}
}

// lockLoan загружает заем с блокировкой строки.
// SQLite, используемый в тестах, не поддерживает SELECT ... FOR UPDATE.
func lockLoan(tx *gorm.DB, loanID uint, loan *models.Loan) error {
	query := tx
	if tx.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return query.First(loan, loanID).Error
}

// ApplyPayment распределяет платеж по плановым платежам займа.
// Платеж гасит плановые платежи по возрастанию pay_id, начиная с указанного;
// баланс займа, статусы платежей и запись истории обновляются одной
// транзакцией. Платежи по одному займу сериализуются.
func (s *PaymentService) ApplyPayment(dto PayLoanDTO) (*PaymentResultDTO, error) {
	// Валидируем DTO
	if err := s.validator.Struct(dto); err != nil {
		return nil, translateValidationErrors(err)
	}

	transactionTime := dto.TransactionTime
	if transactionTime.IsZero() {
		transactionTime = time.Now()
	}

	// Сериализуем платежи по одному займу
	s.loanLocks.Lock(dto.LoanID)
	defer s.loanLocks.Unlock(dto.LoanID)

	// Начинаем транзакцию
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, errors.New("ошибка при начале транзакции")
	}

	// Получаем заем с блокировкой строки
	var loan models.Loan
	if err := lockLoan(tx, dto.LoanID, &loan); err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("заем не найден")
		}
		return nil, errors.New("ошибка при получении информации о займе")
	}

	// Проверяем статус займа
	if loan.Status == models.LoanStatusDeleted {
		tx.Rollback()
		return nil, errors.New("заем не найден")
	}
	if loan.Status == models.LoanStatusCompleted {
		tx.Rollback()
		return nil, errors.New("заем уже погашен")
	}

	// Получаем начальный плановый платеж
	var receipt models.Receipt
	if err := tx.Where("loan_id = ? AND pay_id = ?", dto.LoanID, dto.PayID).
		First(&receipt).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("плановый платеж не найден")
		}
		return nil, errors.New("ошибка при получении планового платежа")
	}

	// Распределяем сумму по плановым платежам по возрастанию pay_id
	remaining := dto.Amount
	touched := make([]models.Receipt, 0, 1)

	for remaining > 0 {
		owed := receipt.Outstanding()
		applied := owed
		if remaining < owed {
			applied = remaining
		}

		receipt.Amount = round2(receipt.Amount + applied)
		if receipt.Amount >= receipt.ToPay {
			receipt.Status = models.ReceiptStatusPaid
		} else {
			receipt.Status = models.ReceiptStatusNotPaid
		}
		receipt.TransactionTime = &transactionTime
		receipt.UpdatedAt = time.Now()

		if err := tx.Save(&receipt).Error; err != nil {
			tx.Rollback()
			return nil, errors.New("ошибка при обновлении планового платежа")
		}
		touched = append(touched, receipt)
		remaining = round2(remaining - applied)

		if remaining <= 0 {
			break
		}

		// Ищем следующий непогашенный плановый платеж.
		// Выбор происходит внутри той же транзакции, чтобы два платежа
		// не выбрали один и тот же плановый платеж.
		var next models.Receipt
		err := tx.Where("loan_id = ? AND status = ? AND pay_id > ?",
			dto.LoanID, models.ReceiptStatusNotPaid, receipt.PayID).
			Order("pay_id ASC").
			First(&next).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// График исчерпан — остаток не распределен
				break
			}
			tx.Rollback()
			return nil, errors.New("ошибка при поиске следующего планового платежа")
		}
		receipt = next
	}

	lastReceipt := touched[len(touched)-1]
	appliedTotal := round2(dto.Amount - remaining)

	// Обновляем баланс займа. Списывается только распределенная часть:
	// нераспределенный остаток возвращается плательщику и долг не уменьшает
	newBalance := round2(loan.Balance - appliedTotal)
	if newBalance < 0 {
		newBalance = 0
	}
	loan.Balance = newBalance
	loan.OverallBalance = round2(newBalance + loan.Adjustment)
	loan.UpdatedAt = time.Now()

	// Если непогашенных плановых платежей не осталось, заем закрывается
	var unpaidCount int64
	if err := tx.Model(&models.Receipt{}).
		Where("loan_id = ? AND status = ?", dto.LoanID, models.ReceiptStatusNotPaid).
		Count(&unpaidCount).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("ошибка при проверке оставшихся плановых платежей")
	}

	completed := unpaidCount == 0
	if completed {
		loan.Status = models.LoanStatusCompleted
	}

	if err := tx.Save(&loan).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("ошибка при обновлении баланса займа")
	}

	// Создаем запись в истории платежей.
	// Одна запись на платеж, привязанная к последнему затронутому
	// плановому платежу; фиксируется распределенная часть суммы.
	history := models.PaymentHistory{
		LoanID:          dto.LoanID,
		PayID:           lastReceipt.PayID,
		Amount:          appliedTotal,
		PaymentMethod:   dto.PaymentMethod,
		Notes:           dto.Notes,
		TransactionTime: transactionTime,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("ошибка при сохранении истории платежей")
	}

	// Подтверждаем транзакцию
	if err := tx.Commit().Error; err != nil {
		return nil, errors.New("ошибка при подтверждении транзакции")
	}

	utils.LogPayment(dto.LoanID, lastReceipt.PayID, history.Amount, dto.PaymentMethod)
	utils.GetMetrics().RecordPayment(history.Amount, remaining > 0)

	if completed {
		utils.GetMetrics().RecordLoanOperation("complete")
	}

	// Отправляем уведомления о принятом платеже и о полном погашении
	if s.email != nil {
		var customer models.Customer
		if err := s.db.First(&customer, loan.CustomerID).Error; err == nil && customer.Email != "" {
			if err := s.email.SendPaymentReceivedNotification(customer.Email, loan.LoanID, history.Amount, loan.Balance); err != nil {
				// Логируем ошибку, но не прерываем операцию
				log.Printf("Ошибка при отправке уведомления: %v", err)
			}
			if completed {
				if err := s.email.SendLoanRepaidNotification(customer.Email, loan.LoanID); err != nil {
					log.Printf("Ошибка при отправке уведомления: %v", err)
				}
			}
		}
	}

	// Формируем результат
	outcome := PaymentApplied
	if remaining > 0 {
		outcome = PaymentAppliedWithRemainder
	}

	receiptDTOs := make([]ReceiptDTO, len(touched))
	for i, r := range touched {
		receiptDTOs[i] = toReceiptDTO(r)
	}

	return &PaymentResultDTO{
		Outcome:    outcome,
		NewBalance: loan.Balance,
		Remainder:  remaining,
		LoanStatus: string(loan.Status),
		Receipts:   receiptDTOs,
		History: PaymentHistoryDTO{
			HistoryID:       history.HistoryID,
			LoanID:          history.LoanID,
			PayID:           history.PayID,
			Amount:          history.Amount,
			PaymentMethod:   history.PaymentMethod,
			Notes:           history.Notes,
			TransactionTime: history.TransactionTime,
		},
	}, nil
}

// GetPaymentHistory возвращает историю платежей по займу
func (s *PaymentService) GetPaymentHistory(loanID uint) ([]models.PaymentHistory, error) {
	// Проверяем существование займа; история доступна и для удаленных займов
	var loan models.Loan
	if err := s.db.First(&loan, loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("заем не найден")
		}
		return nil, err
	}

	var history []models.PaymentHistory
	if err := s.db.Where("loan_id = ?", loanID).
		Order("history_id DESC").
		Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}
