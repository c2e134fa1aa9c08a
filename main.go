package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"lendingProject/config"
	"lendingProject/controllers"
	"lendingProject/database"
	"lendingProject/middleware"
	"lendingProject/services"
	"lendingProject/utils"

	"github.com/gorilla/mux"
)

func initReminderScheduler(db *database.Database, emailService *services.EmailService) {
	// Создаем планировщик напоминаний
	scheduler := services.NewReminderSchedulerService(db.DB, emailService)

	// Запускаем планировщик
	scheduler.Start()
	log.Println("Планировщик напоминаний запущен")
}

// healthHandler возвращает состояние сервиса
func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// metricsHandler возвращает снимок метрик приложения
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(utils.GetMetrics().GetMetricsSnapshot())
}

func main() {
	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем подключение к базе данных
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer db.Close()

	// Инициализируем сервис email
	emailService := services.NewEmailService(cfg)

	// Запускаем планировщик напоминаний
	initReminderScheduler(db, emailService)

	// Создаем роутер
	router := mux.NewRouter()

	// Глобальные middleware
	limiter := utils.NewRateLimiter(cfg.RateLimit.Requests, time.Minute)
	router.Use(middleware.Recovery)
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.RateLimit(limiter))

	// Инициализируем контроллеры
	authController := controllers.NewAuthController(db)
	customerController := controllers.NewCustomerController(db)
	loanController := controllers.NewLoanController(db, emailService, cfg)
	paymentController := controllers.NewPaymentController(db, emailService)

	// Публичные маршруты
	router.HandleFunc("/api/health", healthHandler).Methods("GET")
	router.HandleFunc("/api/auth/signUp", authController.SignUp).Methods("POST")
	router.HandleFunc("/api/auth/signIn", authController.SignIn).Methods("POST")

	// Защищенные маршруты
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(authController.GetJWTKey())))
	protected.Use(middleware.LoggingMiddleware)

	// Маршруты для работы с заемщиками
	protected.HandleFunc("/customers", customerController.CreateCustomer).Methods("POST")
	protected.HandleFunc("/customers", customerController.GetCustomers).Methods("GET")
	protected.HandleFunc("/customers/{id}", customerController.GetCustomer).Methods("GET")
	protected.HandleFunc("/customers/{id}", customerController.UpdateCustomer).Methods("PUT")
	protected.HandleFunc("/customers/{id}", customerController.DeleteCustomer).Methods("DELETE")

	// Маршруты для работы с займами
	protected.HandleFunc("/loans", loanController.CreateLoan).Methods("POST")
	protected.HandleFunc("/loans", loanController.GetLoans).Methods("GET")
	protected.HandleFunc("/loans/{id}", loanController.GetLoan).Methods("GET")
	protected.HandleFunc("/loans/{id}", loanController.DeleteLoan).Methods("DELETE")
	protected.HandleFunc("/loans/{id}/receipts", loanController.GetInstallments).Methods("GET")
	protected.HandleFunc("/loans/{id}/pay", paymentController.PayLoan).Methods("POST")
	protected.HandleFunc("/loans/{id}/history", paymentController.GetPaymentHistory).Methods("GET")

	// Сводка и метрики
	protected.HandleFunc("/dashboard", loanController.GetDashboard).Methods("GET")
	protected.HandleFunc("/metrics", metricsHandler).Methods("GET")

	// Запускаем сервер
	port := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на порту %s", port)
	if err := http.ListenAndServe(port, router); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
