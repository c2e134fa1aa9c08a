package services

import (
	"testing"
	"time"

	"lendingProject/models"
)

func TestCreateLoanGeneratesSchedule(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	svc := NewLoanService(db, nil, nil)

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	loan, err := svc.Create(CreateLoanDTO{
		CustomerID: customer.CustomerID,
		LoanAmount: 1200,
		Months:     6,
		LoanStart:  start,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Проверяем рассчитанные суммы
	if loan.GrossReceivable != 1200 {
		t.Errorf("gross receivable: got %v want %v", loan.GrossReceivable, 1200.0)
	}
	if loan.PaydayPayment != 200 {
		t.Errorf("payday payment: got %v want %v", loan.PaydayPayment, 200.0)
	}
	if loan.Balance != 1200 {
		t.Errorf("balance: got %v want %v", loan.Balance, 1200.0)
	}
	if loan.Status != string(models.LoanStatusActive) {
		t.Errorf("status: got %v want %v", loan.Status, models.LoanStatusActive)
	}
	if !loan.LoanEnd.Equal(start.AddDate(0, 6, 0)) {
		t.Errorf("loan end: got %v want %v", loan.LoanEnd, start.AddDate(0, 6, 0))
	}

	// Проверяем график: шесть платежей по 200 с шагом в месяц
	receipts := loadReceipts(t, db, loan.LoanID)
	if len(receipts) != 6 {
		t.Fatalf("receipts count: got %d want %d", len(receipts), 6)
	}
	for i, receipt := range receipts {
		if receipt.ToPay != 200 {
			t.Errorf("receipt %d to_pay: got %v want %v", i, receipt.ToPay, 200.0)
		}
		if receipt.Amount != 0 {
			t.Errorf("receipt %d amount: got %v want %v", i, receipt.Amount, 0.0)
		}
		if receipt.Status != models.ReceiptStatusNotPaid {
			t.Errorf("receipt %d status: got %v want %v", i, receipt.Status, models.ReceiptStatusNotPaid)
		}
		expected := start.AddDate(0, i, 0)
		if !receipt.Schedule.Equal(expected) {
			t.Errorf("receipt %d schedule: got %v want %v", i, receipt.Schedule, expected)
		}
	}
}

func TestCreateLoanWithInterestAndService(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	svc := NewLoanService(db, nil, nil)

	loan, err := svc.Create(CreateLoanDTO{
		CustomerID: customer.CustomerID,
		LoanAmount: 1000,
		Months:     4,
		LoanStart:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Interest:   10,
		Service:    100,
		Adjustment: 50,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Проценты считаются от суммы займа: 1000 * 10% = 100
	if loan.Interest != 100 {
		t.Errorf("interest: got %v want %v", loan.Interest, 100.0)
	}
	if loan.GrossReceivable != 1200 {
		t.Errorf("gross receivable: got %v want %v", loan.GrossReceivable, 1200.0)
	}
	if loan.PaydayPayment != 300 {
		t.Errorf("payday payment: got %v want %v", loan.PaydayPayment, 300.0)
	}
	if loan.OverallBalance != 1250 {
		t.Errorf("overall balance: got %v want %v", loan.OverallBalance, 1250.0)
	}
}

func TestCreateLoanCustomerNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLoanService(db, nil, nil)

	_, err := svc.Create(CreateLoanDTO{
		CustomerID: 999,
		LoanAmount: 1000,
		Months:     3,
	})
	if err == nil {
		t.Fatal("expected error for missing customer, got nil")
	}

	// Заем и график не должны быть созданы
	var loanCount int64
	db.Model(&models.Loan{}).Count(&loanCount)
	if loanCount != 0 {
		t.Errorf("loan count after failed create: got %d want %d", loanCount, 0)
	}
	var receiptCount int64
	db.Model(&models.Receipt{}).Count(&receiptCount)
	if receiptCount != 0 {
		t.Errorf("receipt count after failed create: got %d want %d", receiptCount, 0)
	}
}

func TestCreateLoanValidation(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	svc := NewLoanService(db, nil, nil)

	// Нулевой срок займа
	_, err := svc.Create(CreateLoanDTO{
		CustomerID: customer.CustomerID,
		LoanAmount: 1000,
	})
	if err == nil {
		t.Error("expected validation error for zero months, got nil")
	}

	// Отрицательная сумма займа
	_, err = svc.Create(CreateLoanDTO{
		CustomerID: customer.CustomerID,
		LoanAmount: -100,
		Months:     3,
	})
	if err == nil {
		t.Error("expected validation error for negative amount, got nil")
	}
}

func TestListActiveLoans(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	svc := NewLoanService(db, nil, nil)

	first := createTestLoan(t, svc, customer.CustomerID, 600, 3)
	second := createTestLoan(t, svc, customer.CustomerID, 900, 3)

	// Удаляем первый заем
	if err := svc.Delete(first.LoanID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	loans, err := svc.ListActiveLoans()
	if err != nil {
		t.Fatalf("ListActiveLoans returned error: %v", err)
	}
	if len(loans) != 1 {
		t.Fatalf("active loans count: got %d want %d", len(loans), 1)
	}
	if loans[0].LoanID != second.LoanID {
		t.Errorf("active loan id: got %d want %d", loans[0].LoanID, second.LoanID)
	}
}

func TestDeleteLoanSoft(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	svc := NewLoanService(db, nil, nil)

	loan := createTestLoan(t, svc, customer.CustomerID, 600, 3)

	if err := svc.Delete(loan.LoanID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	// Запись остается в базе со статусом Deleted
	var stored models.Loan
	if err := db.First(&stored, loan.LoanID).Error; err != nil {
		t.Fatalf("deleted loan is gone from database: %v", err)
	}
	if stored.Status != models.LoanStatusDeleted {
		t.Errorf("status after delete: got %v want %v", stored.Status, models.LoanStatusDeleted)
	}

	// График платежей сохраняется
	receipts := loadReceipts(t, db, loan.LoanID)
	if len(receipts) != 3 {
		t.Errorf("receipts count after delete: got %d want %d", len(receipts), 3)
	}

	// Повторное удаление возвращает ошибку
	if err := svc.Delete(loan.LoanID); err == nil {
		t.Error("expected error for double delete, got nil")
	}
}

func TestDeleteLoanNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLoanService(db, nil, nil)

	if err := svc.Delete(999); err == nil {
		t.Error("expected error for missing loan, got nil")
	}
}

func TestGetInstallmentsOrdered(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	svc := NewLoanService(db, nil, nil)

	loan := createTestLoan(t, svc, customer.CustomerID, 1000, 5)

	receipts, err := svc.GetInstallments(loan.LoanID)
	if err != nil {
		t.Fatalf("GetInstallments returned error: %v", err)
	}
	if len(receipts) != 5 {
		t.Fatalf("installments count: got %d want %d", len(receipts), 5)
	}
	for i := 1; i < len(receipts); i++ {
		if receipts[i].PayID <= receipts[i-1].PayID {
			t.Errorf("installments out of order: pay_id %d after %d", receipts[i].PayID, receipts[i-1].PayID)
		}
	}
}

func TestGetInstallmentsLoanNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLoanService(db, nil, nil)

	if _, err := svc.GetInstallments(999); err == nil {
		t.Error("expected error for missing loan, got nil")
	}
}

func TestGetDashboard(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	loanSvc := NewLoanService(db, nil, nil)
	paySvc := NewPaymentService(db, nil)

	loan := createTestLoan(t, loanSvc, customer.CustomerID, 600, 3)
	receipts := loadReceipts(t, db, loan.LoanID)

	// Вносим один платеж
	if _, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID:        loan.LoanID,
		PayID:         receipts[0].PayID,
		Amount:        200,
		PaymentMethod: "cash",
	}); err != nil {
		t.Fatalf("ApplyPayment returned error: %v", err)
	}

	dashboard, err := loanSvc.GetDashboard()
	if err != nil {
		t.Fatalf("GetDashboard returned error: %v", err)
	}
	if dashboard.ActiveLoans != 1 {
		t.Errorf("active loans: got %d want %d", dashboard.ActiveLoans, 1)
	}
	if dashboard.Customers != 1 {
		t.Errorf("customers: got %d want %d", dashboard.Customers, 1)
	}
	if dashboard.TotalOutstanding != 400 {
		t.Errorf("total outstanding: got %v want %v", dashboard.TotalOutstanding, 400.0)
	}
	if dashboard.TotalCollected != 200 {
		t.Errorf("total collected: got %v want %v", dashboard.TotalCollected, 200.0)
	}
}
