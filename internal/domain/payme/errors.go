package payme

import (
	"fmt"

	"github.com/uniedit/paygate/internal/model"
)

// Error is a Payme JSON-RPC error with localized messages.
type Error struct {
	Code    int
	Message model.PaymeMessage
	Data    string
}

func (e *Error) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("payme %d: %s (%s)", e.Code, e.Message.EN, e.Data)
	}
	return fmt.Sprintf("payme %d: %s", e.Code, e.Message.EN)
}

// WithData returns a copy of the error carrying data.
func (e *Error) WithData(data string) *Error {
	c := *e
	c.Data = data
	return &c
}

// ToModel converts the error to its wire form.
func (e *Error) ToModel() *model.PaymeError {
	return &model.PaymeError{Code: e.Code, Message: e.Message, Data: e.Data}
}

func newError(code int, ru, uz, en string) *Error {
	return &Error{Code: code, Message: model.PaymeMessage{RU: ru, UZ: uz, EN: en}}
}

// Wire error codes. The numbers are fixed by the Payme merchant API.
var (
	ErrParse = newError(-32700,
		"Ошибка парсинга JSON", "JSON tahlilida xatolik", "Parse error")
	ErrInvalidRequest = newError(-32600,
		"Неверный RPC-запрос", "Noto'g'ri RPC so'rov", "Invalid request")
	ErrMethodNotFound = newError(-32601,
		"Метод не найден", "Metod topilmadi", "Method not found")
	ErrInvalidAuthorization = newError(-32504,
		"Недостаточно привилегий для выполнения метода", "Metodni bajarish uchun huquqlar yetarli emas", "Insufficient privileges")
	ErrSystem = newError(-32400,
		"Системная ошибка", "Tizim xatosi", "System error")
	ErrInvalidAmount = newError(-31001,
		"Неверная сумма", "Noto'g'ri summa", "Invalid amount")
	ErrTransactionNotFound = newError(-31003,
		"Транзакция не найдена", "Tranzaksiya topilmadi", "Transaction not found")
	ErrCannotPerform = newError(-31008,
		"Невозможно выполнить операцию", "Amalni bajarib bo'lmaydi", "Unable to perform operation")
	ErrOrderNotFound = newError(-31050,
		"Заказ не найден", "Buyurtma topilmadi", "Order not found")
	ErrTransactionExists = newError(-31099,
		"Транзакция уже существует", "Tranzaksiya allaqachon mavjud", "Transaction already exists")
)
