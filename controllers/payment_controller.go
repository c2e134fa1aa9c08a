package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"lendingProject/database"
	"lendingProject/services"

	"github.com/go-playground/validator/v10"
)

// PaymentController обрабатывает запросы, связанные с платежами
type PaymentController struct {
	paymentService *services.PaymentService
	validator      *validator.Validate
}

// NewPaymentController создает новый экземпляр PaymentController
func NewPaymentController(db *database.Database, email *services.EmailService) *PaymentController {
	return &PaymentController{
		paymentService: services.NewPaymentService(db.DB, email),
		validator:      validator.New(),
	}
}

// PayLoan обрабатывает запрос на внесение платежа по займу
func (c *PaymentController) PayLoan(w http.ResponseWriter, r *http.Request) {
	// Получаем ID займа из URL
	loanID, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	// Создаем DTO для запроса
	var dto services.PayLoanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Устанавливаем ID займа
	dto.LoanID = loanID

	// Валидируем DTO
	if err := c.validateRequest(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Распределяем платеж
	result, err := c.paymentService.ApplyPayment(dto)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// validateRequest валидирует DTO и возвращает ошибки валидации
func (c *PaymentController) validateRequest(dto interface{}) error {
	if err := c.validator.Struct(dto); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
			case "gt":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть больше 0")
			}
		}
		return errors.New(strings.Join(errorMessages, "; "))
	}
	return nil
}

// GetPaymentHistory обрабатывает запрос на получение истории платежей
func (c *PaymentController) GetPaymentHistory(w http.ResponseWriter, r *http.Request) {
	// Получаем ID займа из URL
	loanID, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	// Получаем историю платежей
	history, err := c.paymentService.GetPaymentHistory(loanID)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(history)
}
