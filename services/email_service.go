package services

import (
	"fmt"
	"time"

	"lendingProject/config"

	"gopkg.in/gomail.v2"
)

// EmailService предоставляет методы для отправки email
type EmailService struct {
	dialer *gomail.Dialer
	from   string
	config *config.Config
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
		config: cfg,
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("ошибка отправки email: %v", err)
	}

	return nil
}

// SendLoanIssuedNotification отправляет уведомление о выдаче займа
func (s *EmailService) SendLoanIssuedNotification(to string, loanID uint, grossReceivable float64, months int) error {
	subject := "Уведомление о выдаче займа"
	body := fmt.Sprintf(`
		<h2>Уведомление о выдаче займа</h2>
		<p>Заем: #%d</p>
		<p>Общая сумма к погашению: %.2f</p>
		<p>Срок займа: %d месяцев</p>
		<p>Дата: %s</p>
	`, loanID, grossReceivable, months, time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}

// SendPaymentReceivedNotification отправляет уведомление о принятом платеже
func (s *EmailService) SendPaymentReceivedNotification(to string, loanID uint, amount float64, newBalance float64) error {
	subject := "Уведомление о платеже"
	body := fmt.Sprintf(`
		<h2>Уведомление о платеже</h2>
		<p>Заем: #%d</p>
		<p>Сумма платежа: %.2f</p>
		<p>Остаток задолженности: %.2f</p>
		<p>Дата: %s</p>
	`, loanID, amount, newBalance, time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}

// SendPaymentReminder отправляет напоминание о предстоящем плановом платеже
func (s *EmailService) SendPaymentReminder(to string, loanID uint, toPay float64, schedule time.Time) error {
	subject := "Напоминание о плановом платеже"
	body := fmt.Sprintf(`
		<h2>Напоминание о плановом платеже</h2>
		<p>Заем: #%d</p>
		<p>Сумма к оплате: %.2f</p>
		<p>Дата платежа: %s</p>
		<p>Пожалуйста, внесите платеж вовремя.</p>
	`, loanID, toPay, schedule.Format("02.01.2006"))

	return s.SendEmail(to, subject, body)
}

// SendLoanRepaidNotification отправляет уведомление о полном погашении займа
func (s *EmailService) SendLoanRepaidNotification(email string, loanID uint) error {
	// Формируем тему письма
	subject := "Поздравляем! Ваш заем успешно погашен"

	// Формируем тело письма
	body := fmt.Sprintf(`
		<h2>Поздравляем!</h2>
		<p>Ваш заем #%d был успешно погашен.</p>
		<p>Спасибо, что выбрали нашу компанию!</p>
		<p>Если у вас возникнут вопросы, пожалуйста, свяжитесь с нами.</p>
	`, loanID)

	// Создаем сообщение
	message := gomail.NewMessage()
	message.SetHeader("From", s.from)
	message.SetHeader("To", email)
	message.SetHeader("Subject", subject)
	message.SetBody("text/html", body)

	// Отправляем письмо
	if err := s.dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("ошибка при отправке уведомления о погашении займа: %v", err)
	}

	return nil
}
