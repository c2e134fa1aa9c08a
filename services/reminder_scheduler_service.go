package services

import (
	"errors"
	"log"
	"time"

	"lendingProject/models"

	"gorm.io/gorm"
)

// ReminderSchedulerService рассылает напоминания о предстоящих и
// просроченных плановых платежах. Плановые платежи при этом не
// изменяются: их состояние меняет только распределение платежа.
type ReminderSchedulerService struct {
	db    *gorm.DB
	email *EmailService
}

// NewReminderSchedulerService создает новый экземпляр ReminderSchedulerService
func NewReminderSchedulerService(db *gorm.DB, email *EmailService) *ReminderSchedulerService {
	return &ReminderSchedulerService{
		db:    db,
		email: email,
	}
}

// Start запускает планировщик напоминаний
func (s *ReminderSchedulerService) Start() {
	// Рассылаем напоминания о предстоящих платежах раз в сутки
	upcomingTicker := time.NewTicker(24 * time.Hour)
	go func() {
		for {
			select {
			case <-upcomingTicker.C:
				if err := s.processUpcomingReceipts(); err != nil {
					log.Printf("Ошибка при рассылке напоминаний: %v", err)
				}
			}
		}
	}()

	// Проверяем просроченные платежи каждые 8 часов
	overdueTicker := time.NewTicker(8 * time.Hour)
	go func() {
		for {
			select {
			case <-overdueTicker.C:
				if err := s.processOverdueReceipts(); err != nil {
					log.Printf("Ошибка при обработке просроченных платежей: %v", err)
				}
			}
		}
	}()
}

// processUpcomingReceipts рассылает напоминания о платежах, срок которых
// наступает в ближайшие три дня
func (s *ReminderSchedulerService) processUpcomingReceipts() error {
	deadline := time.Now().AddDate(0, 0, 3)

	var receipts []models.Receipt
	if err := s.db.Where("schedule <= ? AND schedule >= ? AND status = ?",
		deadline, time.Now(), models.ReceiptStatusNotPaid).
		Preload("Loan").
		Preload("Loan.Customer").
		Find(&receipts).Error; err != nil {
		return errors.New("ошибка при получении предстоящих плановых платежей")
	}

	for _, receipt := range receipts {
		s.sendReminder(receipt)
	}

	return nil
}

// processOverdueReceipts рассылает напоминания о просроченных платежах
func (s *ReminderSchedulerService) processOverdueReceipts() error {
	var receipts []models.Receipt
	if err := s.db.Where("schedule < ? AND status = ?",
		time.Now(), models.ReceiptStatusNotPaid).
		Preload("Loan").
		Preload("Loan.Customer").
		Find(&receipts).Error; err != nil {
		return errors.New("ошибка при получении просроченных плановых платежей")
	}

	for _, receipt := range receipts {
		s.sendReminder(receipt)
	}

	return nil
}

// sendReminder отправляет напоминание по одному плановому платежу
func (s *ReminderSchedulerService) sendReminder(receipt models.Receipt) {
	// Напоминания рассылаются только по действующим займам
	if receipt.Loan.Status != models.LoanStatusActive {
		return
	}
	if s.email == nil || receipt.Loan.Customer.Email == "" {
		return
	}

	if err := s.email.SendPaymentReminder(
		receipt.Loan.Customer.Email,
		receipt.LoanID,
		receipt.Outstanding(),
		receipt.Schedule,
	); err != nil {
		// Логируем ошибку и продолжаем рассылку
		log.Printf("Ошибка при отправке напоминания: %v", err)
	}
}
