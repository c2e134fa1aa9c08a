package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"lendingProject/config"
	"lendingProject/database"
	"lendingProject/services"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// LoanController обрабатывает запросы, связанные с займами
type LoanController struct {
	loanService *services.LoanService
	validator   *validator.Validate
}

// NewLoanController создает новый экземпляр LoanController
func NewLoanController(db *database.Database, email *services.EmailService, cfg *config.Config) *LoanController {
	return &LoanController{
		loanService: services.NewLoanService(db.DB, email, cfg),
		validator:   validator.New(),
	}
}

// CreateLoan обрабатывает запрос на создание займа
func (c *LoanController) CreateLoan(w http.ResponseWriter, r *http.Request) {
	// Создаем DTO для запроса
	var dto services.CreateLoanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Валидируем DTO
	if err := c.validateRequest(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Создаем заем
	loan, err := c.loanService.Create(dto)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(loan)
}

// GetLoans обрабатывает запрос на получение списка действующих займов
func (c *LoanController) GetLoans(w http.ResponseWriter, r *http.Request) {
	// Получаем список действующих займов
	loans, err := c.loanService.ListActiveLoans()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(loans)
}

// GetLoan обрабатывает запрос на получение информации о займе
func (c *LoanController) GetLoan(w http.ResponseWriter, r *http.Request) {
	// Получаем ID займа из URL
	loanID, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	// Получаем информацию о займе
	loan, err := c.loanService.GetLoanByID(loanID)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(loan)
}

// GetInstallments обрабатывает запрос на получение графика плановых платежей
func (c *LoanController) GetInstallments(w http.ResponseWriter, r *http.Request) {
	// Получаем ID займа из URL
	loanID, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	// Получаем график платежей
	receipts, err := c.loanService.GetInstallments(loanID)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(receipts)
}

// DeleteLoan обрабатывает запрос на мягкое удаление займа
func (c *LoanController) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	// Получаем ID займа из URL
	loanID, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	// Удаляем заем
	if err := c.loanService.Delete(loanID); err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

// GetDashboard обрабатывает запрос на получение сводки
func (c *LoanController) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := c.loanService.GetDashboard()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dashboard)
}

// validateRequest валидирует DTO и возвращает ошибки валидации
func (c *LoanController) validateRequest(dto interface{}) error {
	if err := c.validator.Struct(dto); err != nil {
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
	return nil
}

// parseID извлекает числовой идентификатор из URL
func parseID(r *http.Request, name string) (uint, error) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars[name], 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// statusForError сопоставляет ошибку сервиса HTTP-статусу
func statusForError(err error) int {
	if strings.Contains(err.Error(), "не найден") {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
