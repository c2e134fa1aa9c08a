package utils

import (
	"sync"
	"time"
)

// Metrics содержит метрики приложения
type Metrics struct {
	mu sync.RWMutex

	// Метрики запросов
	TotalRequests   int64
	FailedRequests  int64
	RequestLatency  time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time

	// Метрики займов
	LoansCreated   int64
	LoansCompleted int64
	LoansDeleted   int64

	// Метрики платежей
	PaymentsApplied   int64
	PaymentsWithRest  int64 // Платежи с нераспределенным остатком
	AmountCollected   float64
	LastPaymentTime   time.Time
	LastLoanOperation time.Time

	// Метрики ошибок
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics возвращает экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			ErrorTypes: make(map[string]int64),
		}
	})
	return metrics
}

// RecordRequest записывает метрики запроса
func (m *Metrics) RecordRequest(duration time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()

	if failed {
		m.FailedRequests++
	}
}

// RecordLoanOperation записывает метрики операции с займом
func (m *Metrics) RecordLoanOperation(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastLoanOperation = time.Now()

	switch operation {
	case "create":
		m.LoansCreated++
	case "complete":
		m.LoansCompleted++
	case "delete":
		m.LoansDeleted++
	}
}

// RecordPayment записывает метрики платежа
func (m *Metrics) RecordPayment(amount float64, withRemainder bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PaymentsApplied++
	m.AmountCollected += amount
	m.LastPaymentTime = time.Now()

	if withRemainder {
		m.PaymentsWithRest++
	}
}

// RecordError записывает метрики ошибки
func (m *Metrics) RecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recordErrorLocked(err)
}

func (m *Metrics) recordErrorLocked(err error) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}

	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot возвращает снимок текущих метрик
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"total_requests":          m.TotalRequests,
		"failed_requests":         m.FailedRequests,
		"average_latency":         m.AverageLatency.String(),
		"loans_created":           m.LoansCreated,
		"loans_completed":         m.LoansCompleted,
		"loans_deleted":           m.LoansDeleted,
		"payments_applied":        m.PaymentsApplied,
		"payments_with_remainder": m.PaymentsWithRest,
		"amount_collected":        m.AmountCollected,
		"error_count":             m.ErrorCount,
		"last_error_time":         m.LastErrorTime,
		"error_types":             m.ErrorTypes,
	}
}

// ResetMetrics сбрасывает все метрики
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests = 0
	m.FailedRequests = 0
	m.RequestLatency = 0
	m.AverageLatency = 0
	m.LoansCreated = 0
	m.LoansCompleted = 0
	m.LoansDeleted = 0
	m.PaymentsApplied = 0
	m.PaymentsWithRest = 0
	m.AmountCollected = 0
	m.ErrorCount = 0
	m.ErrorTypes = make(map[string]int64)
}
