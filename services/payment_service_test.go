package services

import (
	"sync"
	"testing"

	"lendingProject/config"
	"lendingProject/models"
)

func TestApplyPaymentSpansInstallments(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	loanSvc := NewLoanService(db, nil, nil)
	paySvc := NewPaymentService(db, nil)

	loan := createTestLoan(t, loanSvc, customer.CustomerID, 400, 2)
	receipts := loadReceipts(t, db, loan.LoanID)

	// Платеж 250 при двух плановых платежах по 200
	result, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID:        loan.LoanID,
		PayID:         receipts[0].PayID,
		Amount:        250,
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("ApplyPayment returned error: %v", err)
	}

	if result.Outcome != PaymentApplied {
		t.Errorf("outcome: got %v want %v", result.Outcome, PaymentApplied)
	}
	if result.NewBalance != 150 {
		t.Errorf("new balance: got %v want %v", result.NewBalance, 150.0)
	}
	if result.Remainder != 0 {
		t.Errorf("remainder: got %v want %v", result.Remainder, 0.0)
	}

	// Первый платеж погашен полностью, второй — частично
	updated := loadReceipts(t, db, loan.LoanID)
	if updated[0].Amount != 200 || updated[0].Status != models.ReceiptStatusPaid {
		t.Errorf("first receipt: got amount %v status %v want 200 Paid", updated[0].Amount, updated[0].Status)
	}
	if updated[1].Amount != 50 || updated[1].Status != models.ReceiptStatusNotPaid {
		t.Errorf("second receipt: got amount %v status %v want 50 Not paid", updated[1].Amount, updated[1].Status)
	}

	// Баланс займа согласован с суммой остатков по графику
	var stored models.Loan
	if err := db.First(&stored, loan.LoanID).Error; err != nil {
		t.Fatalf("failed to load loan: %v", err)
	}
	if stored.Balance != sumOutstanding(updated) {
		t.Errorf("balance invariant broken: balance %v, outstanding %v", stored.Balance, sumOutstanding(updated))
	}

	// Одна запись истории на платеж, привязанная к последнему затронутому платежу
	history, err := paySvc.GetPaymentHistory(loan.LoanID)
	if err != nil {
		t.Fatalf("GetPaymentHistory returned error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history count: got %d want %d", len(history), 1)
	}
	if history[0].PayID != updated[1].PayID {
		t.Errorf("history pay_id: got %d want %d", history[0].PayID, updated[1].PayID)
	}
	if history[0].Amount != 250 {
		t.Errorf("history amount: got %v want %v", history[0].Amount, 250.0)
	}
}

func TestApplyPaymentOverpaymentRemainder(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	loanSvc := NewLoanService(db, nil, nil)
	paySvc := NewPaymentService(db, nil)

	loan := createTestLoan(t, loanSvc, customer.CustomerID, 200, 1)
	receipts := loadReceipts(t, db, loan.LoanID)

	// Платеж 1000 при единственном плановом платеже на 200
	result, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID:        loan.LoanID,
		PayID:         receipts[0].PayID,
		Amount:        1000,
		PaymentMethod: "transfer",
	})
	if err != nil {
		t.Fatalf("ApplyPayment returned error: %v", err)
	}

	if result.Outcome != PaymentAppliedWithRemainder {
		t.Errorf("outcome: got %v want %v", result.Outcome, PaymentAppliedWithRemainder)
	}
	if result.Remainder != 800 {
		t.Errorf("remainder: got %v want %v", result.Remainder, 800.0)
	}
	if result.NewBalance != 0 {
		t.Errorf("new balance: got %v want %v", result.NewBalance, 0.0)
	}
	if result.LoanStatus != string(models.LoanStatusCompleted) {
		t.Errorf("loan status: got %v want %v", result.LoanStatus, models.LoanStatusCompleted)
	}

	// История фиксирует распределенную часть, а не всю сумму
	history, err := paySvc.GetPaymentHistory(loan.LoanID)
	if err != nil {
		t.Fatalf("GetPaymentHistory returned error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history count: got %d want %d", len(history), 1)
	}
	if history[0].Amount != 200 {
		t.Errorf("history amount: got %v want %v", history[0].Amount, 200.0)
	}
}

func TestApplyPaymentRemainderMidSchedule(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	loanSvc := NewLoanService(db, nil, nil)
	paySvc := NewPaymentService(db, nil)

	loan := createTestLoan(t, loanSvc, customer.CustomerID, 400, 2)
	receipts := loadReceipts(t, db, loan.LoanID)

	// Платеж 300 начиная с последнего планового платежа: первый остается
	// непогашенным, график после курсора исчерпан, остаток 100 не распределен
	result, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID:        loan.LoanID,
		PayID:         receipts[1].PayID,
		Amount:        300,
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("ApplyPayment returned error: %v", err)
	}

	if result.Outcome != PaymentAppliedWithRemainder {
		t.Errorf("outcome: got %v want %v", result.Outcome, PaymentAppliedWithRemainder)
	}
	if result.Remainder != 100 {
		t.Errorf("remainder: got %v want %v", result.Remainder, 100.0)
	}

	// Нераспределенный остаток не уменьшает долг:
	// баланс равен остатку по первому плановому платежу
	if result.NewBalance != 200 {
		t.Errorf("new balance: got %v want %v", result.NewBalance, 200.0)
	}

	updated := loadReceipts(t, db, loan.LoanID)
	if updated[0].Amount != 0 || updated[0].Status != models.ReceiptStatusNotPaid {
		t.Errorf("first receipt: got amount %v status %v want 0 Not paid", updated[0].Amount, updated[0].Status)
	}
	if updated[1].Amount != 200 || updated[1].Status != models.ReceiptStatusPaid {
		t.Errorf("second receipt: got amount %v status %v want 200 Paid", updated[1].Amount, updated[1].Status)
	}

	var stored models.Loan
	if err := db.First(&stored, loan.LoanID).Error; err != nil {
		t.Fatalf("failed to load loan: %v", err)
	}
	if stored.Balance != sumOutstanding(updated) {
		t.Errorf("balance invariant broken: balance %v, outstanding %v", stored.Balance, sumOutstanding(updated))
	}
	if stored.Status != models.LoanStatusActive {
		t.Errorf("loan status: got %v want %v", stored.Status, models.LoanStatusActive)
	}

	// История фиксирует только распределенную часть
	history, err := paySvc.GetPaymentHistory(loan.LoanID)
	if err != nil {
		t.Fatalf("GetPaymentHistory returned error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history count: got %d want %d", len(history), 1)
	}
	if history[0].Amount != 200 {
		t.Errorf("history amount: got %v want %v", history[0].Amount, 200.0)
	}
}

func TestApplyPaymentSkipsPaidInstallments(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	loanSvc := NewLoanService(db, nil, nil)
	paySvc := NewPaymentService(db, nil)

	loan := createTestLoan(t, loanSvc, customer.CustomerID, 600, 3)
	receipts := loadReceipts(t, db, loan.LoanID)

	// Гасим первый плановый платеж полностью
	if _, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID:        loan.LoanID,
		PayID:         receipts[0].PayID,
		Amount:        200,
		PaymentMethod: "cash",
	}); err != nil {
		t.Fatalf("ApplyPayment returned error: %v", err)
	}

	// Второй платеж указывает на уже погашенный плановый платеж:
	// сумма должна уйти на следующий непогашенный
	if _, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID:        loan.LoanID,
		PayID:         receipts[0].PayID,
		Amount:        50,
		PaymentMethod: "cash",
	}); err != nil {
		t.Fatalf("ApplyPayment returned error: %v", err)
	}

	updated := loadReceipts(t, db, loan.LoanID)
	if updated[0].Amount != 200 {
		t.Errorf("paid receipt amount changed: got %v want %v", updated[0].Amount, 200.0)
	}
	if updated[1].Amount != 50 {
		t.Errorf("second receipt amount: got %v want %v", updated[1].Amount, 50.0)
	}
	if updated[2].Amount != 0 {
		t.Errorf("third receipt amount: got %v want %v", updated[2].Amount, 0.0)
	}
}

func TestApplyPaymentAccumulatesPartials(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	loanSvc := NewLoanService(db, nil, nil)
	paySvc := NewPaymentService(db, nil)

	loan := createTestLoan(t, loanSvc, customer.CustomerID, 400, 2)
	receipts := loadReceipts(t, db, loan.LoanID)

	// Два частичных платежа по одному плановому платежу
	if _, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID:        loan.LoanID,
		PayID:         receipts[0].PayID,
		Amount:        50,
		PaymentMethod: "cash",
	}); err != nil {
		t.Fatalf("ApplyPayment returned error: %v", err)
	}
	if _, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID:        loan.LoanID,
		PayID:         receipts[0].PayID,
		Amount:        150,
		PaymentMethod: "cash",
	}); err != nil {
		t.Fatalf("ApplyPayment returned error: %v", err)
	}

	// Частичные платежи накапливаются, а не перезаписываются
	updated := loadReceipts(t, db, loan.LoanID)
	if updated[0].Amount != 200 || updated[0].Status != models.ReceiptStatusPaid {
		t.Errorf("first receipt: got amount %v status %v want 200 Paid", updated[0].Amount, updated[0].Status)
	}

	var stored models.Loan
	if err := db.First(&stored, loan.LoanID).Error; err != nil {
		t.Fatalf("failed to load loan: %v", err)
	}
	if stored.Balance != 200 {
		t.Errorf("balance: got %v want %v", stored.Balance, 200.0)
	}
	if stored.Balance != sumOutstanding(updated) {
		t.Errorf("balance invariant broken: balance %v, outstanding %v", stored.Balance, sumOutstanding(updated))
	}
}

func TestApplyPaymentCompletesLoan(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	loanSvc := NewLoanService(db, nil, nil)
	paySvc := NewPaymentService(db, nil)

	loan := createTestLoan(t, loanSvc, customer.CustomerID, 400, 2)
	receipts := loadReceipts(t, db, loan.LoanID)

	result, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID:        loan.LoanID,
		PayID:         receipts[0].PayID,
		Amount:        400,
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("ApplyPayment returned error: %v", err)
	}

	if result.Outcome != PaymentApplied {
		t.Errorf("outcome: got %v want %v", result.Outcome, PaymentApplied)
	}
	if result.LoanStatus != string(models.LoanStatusCompleted) {
		t.Errorf("loan status: got %v want %v", result.LoanStatus, models.LoanStatusCompleted)
	}

	// Платеж по погашенному займу отклоняется
	if _, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID:        loan.LoanID,
		PayID:         receipts[0].PayID,
		Amount:        100,
		PaymentMethod: "cash",
	}); err == nil {
		t.Error("expected error for completed loan, got nil")
	}
}

func TestApplyPaymentLoanNotFound(t *testing.T) {
	db := setupTestDB(t)
	paySvc := NewPaymentService(db, nil)

	_, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID:        999,
		PayID:         1,
		Amount:        100,
		PaymentMethod: "cash",
	})
	if err == nil {
		t.Fatal("expected error for missing loan, got nil")
	}

	// Ничего не должно быть записано
	var historyCount int64
	db.Model(&models.PaymentHistory{}).Count(&historyCount)
	if historyCount != 0 {
		t.Errorf("history count after failed payment: got %d want %d", historyCount, 0)
	}
}

func TestApplyPaymentDeletedLoan(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	loanSvc := NewLoanService(db, nil, nil)
	paySvc := NewPaymentService(db, nil)

	loan := createTestLoan(t, loanSvc, customer.CustomerID, 400, 2)
	receipts := loadReceipts(t, db, loan.LoanID)

	if err := loanSvc.Delete(loan.LoanID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	// Удаленный заем ведет себя как отсутствующий
	if _, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID:        loan.LoanID,
		PayID:         receipts[0].PayID,
		Amount:        100,
		PaymentMethod: "cash",
	}); err == nil {
		t.Error("expected error for deleted loan, got nil")
	}
}

func TestApplyPaymentValidation(t *testing.T) {
	db := setupTestDB(t)
	paySvc := NewPaymentService(db, nil)

	// Нулевая сумма
	if _, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID:        1,
		PayID:         1,
		PaymentMethod: "cash",
	}); err == nil {
		t.Error("expected validation error for zero amount, got nil")
	}

	// Не указан способ оплаты
	if _, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID: 1,
		PayID:  1,
		Amount: 100,
	}); err == nil {
		t.Error("expected validation error for missing payment method, got nil")
	}
}

func TestApplyPaymentConcurrent(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	loanSvc := NewLoanService(db, nil, nil)
	paySvc := NewPaymentService(db, nil)

	loan := createTestLoan(t, loanSvc, customer.CustomerID, 800, 4)
	receipts := loadReceipts(t, db, loan.LoanID)

	// Два платежа по одному займу одновременно: они должны
	// сериализоваться и погасить два разных плановых платежа
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := paySvc.ApplyPayment(PayLoanDTO{
				LoanID:        loan.LoanID,
				PayID:         receipts[0].PayID,
				Amount:        200,
				PaymentMethod: "cash",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent ApplyPayment returned error: %v", err)
		}
	}

	updated := loadReceipts(t, db, loan.LoanID)
	if updated[0].Status != models.ReceiptStatusPaid || updated[0].Amount != 200 {
		t.Errorf("first receipt: got amount %v status %v want 200 Paid", updated[0].Amount, updated[0].Status)
	}
	if updated[1].Status != models.ReceiptStatusPaid || updated[1].Amount != 200 {
		t.Errorf("second receipt: got amount %v status %v want 200 Paid", updated[1].Amount, updated[1].Status)
	}
	if updated[2].Amount != 0 || updated[3].Amount != 0 {
		t.Errorf("later receipts touched: got %v and %v want 0 and 0", updated[2].Amount, updated[3].Amount)
	}

	var stored models.Loan
	if err := db.First(&stored, loan.LoanID).Error; err != nil {
		t.Fatalf("failed to load loan: %v", err)
	}
	if stored.Balance != 400 {
		t.Errorf("balance: got %v want %v", stored.Balance, 400.0)
	}
	if stored.Balance != sumOutstanding(updated) {
		t.Errorf("balance invariant broken: balance %v, outstanding %v", stored.Balance, sumOutstanding(updated))
	}

	history, err := paySvc.GetPaymentHistory(loan.LoanID)
	if err != nil {
		t.Fatalf("GetPaymentHistory returned error: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history count: got %d want %d", len(history), 2)
	}
}

func TestApplyPaymentEmailFailureDoesNotBlock(t *testing.T) {
	db := setupTestDB(t)
	customer := createTestCustomer(t, db)
	loanSvc := NewLoanService(db, nil, nil)

	// SMTP-сервер недоступен: уведомления о платеже и о погашении
	// не должны проваливать сам платеж
	cfg := &config.Config{}
	cfg.SMTP.Host = "127.0.0.1"
	cfg.SMTP.Port = 1
	cfg.SMTP.From = "noreply@example.com"
	paySvc := NewPaymentService(db, NewEmailService(cfg))

	loan := createTestLoan(t, loanSvc, customer.CustomerID, 200, 1)
	receipts := loadReceipts(t, db, loan.LoanID)

	result, err := paySvc.ApplyPayment(PayLoanDTO{
		LoanID:        loan.LoanID,
		PayID:         receipts[0].PayID,
		Amount:        200,
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("ApplyPayment returned error: %v", err)
	}
	if result.LoanStatus != string(models.LoanStatusCompleted) {
		t.Errorf("loan status: got %v want %v", result.LoanStatus, models.LoanStatusCompleted)
	}
}

func TestGetPaymentHistoryLoanNotFound(t *testing.T) {
	db := setupTestDB(t)
	paySvc := NewPaymentService(db, nil)

	if _, err := paySvc.GetPaymentHistory(999); err == nil {
		t.Error("expected error for missing loan, got nil")
	}
}
