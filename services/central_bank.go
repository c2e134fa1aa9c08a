package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/beevik/etree"
)

// buildKeyRateRequest формирует SOAP-запрос ключевой ставки за последние 30 дней
func buildKeyRateRequest() string {
	fromDate := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	toDate := time.Now().Format("2006-01-02")
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<KeyRate xmlns="http://web.cbr.ru/">
					<fromDate>%s</fromDate>
					<ToDate>%s</ToDate>
				</KeyRate>
			</soap12:Body>
		</soap12:Envelope>`, fromDate, toDate)
}

// parseKeyRateResponse извлекает последнюю ключевую ставку из XML-ответа
func parseKeyRateResponse(rawBody []byte) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, fmt.Errorf("ошибка разбора XML: %v", err)
	}

	// Ищем элементы ставки: KR -> Rate
	krElements := doc.FindElements("//KR")
	if len(krElements) == 0 {
		return 0, errors.New("ставка не найдена в ответе")
	}

	// Берем последний элемент — самая свежая ставка
	latest := krElements[len(krElements)-1]
	rateElement := latest.FindElement("./Rate")
	if rateElement == nil {
		return 0, errors.New("элемент Rate не найден в ответе")
	}

	rate, err := strconv.ParseFloat(rateElement.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("неверный формат ставки: %v", err)
	}

	return rate, nil
}

// GetCentralBankRate запрашивает текущую ключевую ставку центрального банка
func GetCentralBankRate(url string) (float64, error) {
	soapRequest := buildKeyRateRequest()

	req, err := http.NewRequest("POST", url, bytes.NewBufferString(soapRequest))
	if err != nil {
		return 0, fmt.Errorf("ошибка создания запроса: %v", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ошибка запроса к центральному банку: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("неожиданный статус ответа: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения ответа: %v", err)
	}

	return parseKeyRateResponse(body)
}
