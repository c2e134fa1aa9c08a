package controllers

import (
	"encoding/json"
	"net/http"

	"lendingProject/database"
	"lendingProject/services"

	"github.com/go-playground/validator/v10"
)

// CustomerController обрабатывает запросы, связанные с заемщиками
type CustomerController struct {
	customerService *services.CustomerService
	validator       *validator.Validate
}

// NewCustomerController создает новый экземпляр CustomerController
func NewCustomerController(db *database.Database) *CustomerController {
	return &CustomerController{
		customerService: services.NewCustomerService(db.DB),
		validator:       validator.New(),
	}
}

// CreateCustomer обрабатывает запрос на создание заемщика
func (c *CustomerController) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	// Создаем DTO для запроса
	var dto services.CreateCustomerDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Создаем заемщика
	customer, err := c.customerService.Create(dto)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Отправляем ответ
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(customer)
}

// GetCustomers обрабатывает запрос на получение списка заемщиков
func (c *CustomerController) GetCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := c.customerService.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(customers)
}

// GetCustomer обрабатывает запрос на получение информации о заемщике
func (c *CustomerController) GetCustomer(w http.ResponseWriter, r *http.Request) {
	// Получаем ID заемщика из URL
	customerID, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	customer, err := c.customerService.GetByID(customerID)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(customer)
}

// UpdateCustomer обрабатывает запрос на обновление заемщика
func (c *CustomerController) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	// Получаем ID заемщика из URL
	customerID, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	// Создаем DTO для запроса
	var dto services.UpdateCustomerDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Обновляем заемщика
	customer, err := c.customerService.Update(customerID, dto)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(customer)
}

// DeleteCustomer обрабатывает запрос на мягкое удаление заемщика
func (c *CustomerController) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	// Получаем ID заемщика из URL
	customerID, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	// Удаляем заемщика
	if err := c.customerService.Delete(customerID); err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}
