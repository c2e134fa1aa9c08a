package services

import (
	"fmt"
	"testing"
	"time"

	"lendingProject/database"
	"lendingProject/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB создает изолированную базу данных в памяти для теста
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Уникальное имя базы на каждый тест, чтобы тесты не пересекались
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// createTestCustomer создает заемщика для теста
func createTestCustomer(t *testing.T, db *gorm.DB) *models.Customer {
	t.Helper()

	customer := &models.Customer{
		FirstName: "Иван",
		LastName:  "Петров",
		Contact:   "+7 900 000-00-00",
		Email:     "ivan.petrov@example.com",
		Status:    models.CustomerStatusActive,
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("failed to create test customer: %v", err)
	}
	return customer
}

// createTestLoan создает заем с графиком плановых платежей для теста.
// Без процентов и сборов: gross_receivable равен сумме займа.
func createTestLoan(t *testing.T, svc *LoanService, customerID uint, amount float64, months int) *LoanResponseDTO {
	t.Helper()

	loan, err := svc.Create(CreateLoanDTO{
		CustomerID: customerID,
		LoanAmount: amount,
		Months:     months,
		LoanStart:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("failed to create test loan: %v", err)
	}
	return loan
}

// loadReceipts загружает плановые платежи займа по возрастанию pay_id
func loadReceipts(t *testing.T, db *gorm.DB, loanID uint) []models.Receipt {
	t.Helper()

	var receipts []models.Receipt
	if err := db.Where("loan_id = ?", loanID).
		Order("pay_id ASC").
		Find(&receipts).Error; err != nil {
		t.Fatalf("failed to load receipts: %v", err)
	}
	return receipts
}

// sumOutstanding считает сумму непогашенных остатков по графику
func sumOutstanding(receipts []models.Receipt) float64 {
	var total float64
	for _, r := range receipts {
		total += r.Outstanding()
	}
	return round2(total)
}
